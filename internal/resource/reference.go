package resource

import (
	"maps"
	"strings"
)

// Kind names used as reference targets and as the key of per-kind services.
const (
	KindType        = "type"
	KindProductType = "product-type"
	KindCategory    = "category"
	KindProduct     = "product"
	KindTaxCategory = "tax-category"
)

// Reference points at another entity by backend id or by external key.
//
// A resolved reference carries a non-blank ID. An unresolved reference carries
// a Key. A nil *Reference means the field is absent.
type Reference struct {
	ID  string `json:"id,omitempty" yaml:"id,omitempty"`
	Key string `json:"key,omitempty" yaml:"key,omitempty"`
}

// RefByKey returns an unresolved reference to key.
func RefByKey(key string) *Reference {
	return &Reference{Key: key}
}

// RefByID returns a resolved reference to id.
func RefByID(id string) *Reference {
	return &Reference{ID: id}
}

// IsResolved reports whether r carries a non-blank id.
func (r *Reference) IsResolved() bool {
	return r != nil && strings.TrimSpace(r.ID) != ""
}

// IsBlank reports whether r is absent or carries neither an id nor a key.
func (r *Reference) IsBlank() bool {
	return r == nil || (strings.TrimSpace(r.ID) == "" && r.Key == "")
}

// Clone returns a copy of r.
func (r *Reference) Clone() *Reference {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// SameTarget reports whether a and b point at the same entity id.
// Two absent references are equal.
func SameTarget(a, b *Reference) bool {
	if a.IsBlank() || b.IsBlank() {
		return a.IsBlank() && b.IsBlank()
	}
	return a.ID == b.ID
}

// LocalizedString maps a locale to a translation.
type LocalizedString map[string]string

// Equal reports whether l and o carry the same translations.
// A nil and an empty LocalizedString are equal.
func (l LocalizedString) Equal(o LocalizedString) bool {
	return maps.Equal(l, o)
}

// Clone returns a copy of l.
func (l LocalizedString) Clone() LocalizedString {
	if l == nil {
		return nil
	}
	return maps.Clone(l)
}

// Entity is implemented by every backend entity.
type Entity interface {
	GetID() string
	GetKey() string
	GetVersion() int64
}

// Meta holds the backend-assigned identity of an entity.
type Meta struct {
	ID      string `json:"id" yaml:"id"`
	Version int64  `json:"version" yaml:"version"`
}

// GetID returns the backend id.
func (m Meta) GetID() string { return m.ID }

// GetVersion returns the optimistic-concurrency version.
func (m Meta) GetVersion() int64 { return m.Version }

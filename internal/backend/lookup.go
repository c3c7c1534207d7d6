package backend

import (
	"context"
	"net/http"

	"github.com/roach88/catalogsync/internal/resource"
)

// KeyedEntity is the id/key projection of any entity. It serves kinds the
// engine only references and never writes.
type KeyedEntity struct {
	resource.Meta `yaml:",inline"`
	Key string `json:"key" yaml:"key"`
}

// GetKey returns the external key.
func (e KeyedEntity) GetKey() string { return e.Key }

// KeyDraft is the draft counterpart of KeyedEntity.
type KeyDraft struct {
	Key string `json:"key" yaml:"key"`
}

// GetKey returns the external key.
func (d KeyDraft) GetKey() string { return d.Key }

// NewHTTPLookup returns a KeyLookup for a read-only collection.
func NewHTTPLookup(client *http.Client, kind string, endpoint Endpoint) KeyLookup {
	return NewHTTPService[KeyDraft, KeyedEntity](client, kind, endpoint)
}

// StaticLookup is a fixed key to id table.
type StaticLookup map[string]string

// FetchIDsByKeys implements KeyLookup.
func (s StaticLookup) FetchIDsByKeys(_ context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if id, ok := s[k]; ok {
			out[k] = id
		}
	}
	return out, nil
}

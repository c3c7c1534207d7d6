package resource

import (
	"maps"
)

// CustomFields attaches typed custom values to an entity.
type CustomFields struct {
	Type   *Reference     `json:"type" yaml:"type"`
	Fields map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Clone returns a copy of c. Field values are shared.
func (c *CustomFields) Clone() *CustomFields {
	if c == nil {
		return nil
	}
	return &CustomFields{Type: c.Type.Clone(), Fields: maps.Clone(c.Fields)}
}

// CategoryDraft is the desired state of a category.
type CategoryDraft struct {
	Key             string          `json:"key" yaml:"key"`
	Name            LocalizedString `json:"name" yaml:"name"`
	Slug            LocalizedString `json:"slug" yaml:"slug"`
	Description     LocalizedString `json:"description,omitempty" yaml:"description,omitempty"`
	Parent          *Reference      `json:"parent,omitempty" yaml:"parent,omitempty"`
	OrderHint       string          `json:"orderHint,omitempty" yaml:"orderHint,omitempty"`
	ExternalID      string          `json:"externalId,omitempty" yaml:"externalId,omitempty"`
	MetaTitle       LocalizedString `json:"metaTitle,omitempty" yaml:"metaTitle,omitempty"`
	MetaDescription LocalizedString `json:"metaDescription,omitempty" yaml:"metaDescription,omitempty"`
	Custom          *CustomFields   `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// GetKey returns the external key.
func (d CategoryDraft) GetKey() string { return d.Key }

// Clone returns a deep copy of d.
func (d CategoryDraft) Clone() CategoryDraft {
	c := d
	c.Name = d.Name.Clone()
	c.Slug = d.Slug.Clone()
	c.Description = d.Description.Clone()
	c.Parent = d.Parent.Clone()
	c.MetaTitle = d.MetaTitle.Clone()
	c.MetaDescription = d.MetaDescription.Clone()
	c.Custom = d.Custom.Clone()
	return c
}

// Category is a category as stored by the backend. References carry ids.
type Category struct {
	Meta          `yaml:",inline"`
	CategoryDraft `yaml:",inline"`
}

// NewCategory builds the entity the backend stores for a created draft.
func NewCategory(id string, version int64, d CategoryDraft) Category {
	return Category{Meta: Meta{ID: id, Version: version}, CategoryDraft: d.Clone()}
}

// ChangeParent moves a category below another one.
type ChangeParent struct {
	Parent Reference `json:"parent"`
}

func (ChangeParent) ActionName() string { return "changeParent" }

// ChangeOrderHint sets the sort hint among siblings.
type ChangeOrderHint struct {
	OrderHint string `json:"orderHint"`
}

func (ChangeOrderHint) ActionName() string { return "changeOrderHint" }

// SetExternalID sets or clears the external id.
type SetExternalID struct {
	ExternalID string `json:"externalId,omitempty"`
}

func (SetExternalID) ActionName() string { return "setExternalId" }

// SetMetaTitle sets or clears the SEO title.
type SetMetaTitle struct {
	MetaTitle LocalizedString `json:"metaTitle,omitempty"`
}

func (SetMetaTitle) ActionName() string { return "setMetaTitle" }

// SetMetaDescription sets or clears the SEO description.
type SetMetaDescription struct {
	MetaDescription LocalizedString `json:"metaDescription,omitempty"`
}

func (SetMetaDescription) ActionName() string { return "setMetaDescription" }

// SetCustomType replaces the custom type and all custom values. A nil Type
// removes custom fields.
type SetCustomType struct {
	Type   *Reference     `json:"type,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

func (SetCustomType) ActionName() string { return "setCustomType" }

// SetCustomField sets one custom value. A nil Value removes it.
type SetCustomField struct {
	Name  string `json:"name"`
	Value any    `json:"value,omitempty"`
}

func (SetCustomField) ActionName() string { return "setCustomField" }

// ApplyCategory returns c with actions applied in order.
func ApplyCategory(c Category, actions []Action) (Category, error) {
	out := Category{Meta: c.Meta, CategoryDraft: c.CategoryDraft.Clone()}
	for _, a := range actions {
		d := &out.CategoryDraft
		switch act := a.(type) {
		case ChangeName:
			d.Name = act.Name.Clone()
		case ChangeSlug:
			d.Slug = act.Slug.Clone()
		case SetDescription:
			d.Description = act.Description.Clone()
		case ChangeParent:
			d.Parent = act.Parent.Clone()
		case ChangeOrderHint:
			d.OrderHint = act.OrderHint
		case SetExternalID:
			d.ExternalID = act.ExternalID
		case SetMetaTitle:
			d.MetaTitle = act.MetaTitle.Clone()
		case SetMetaDescription:
			d.MetaDescription = act.MetaDescription.Clone()
		case SetCustomType:
			if act.Type == nil {
				d.Custom = nil
				continue
			}
			d.Custom = &CustomFields{Type: act.Type.Clone(), Fields: maps.Clone(act.Fields)}
		case SetCustomField:
			if d.Custom == nil {
				return Category{}, &UnsupportedActionError{Kind: KindCategory, Action: "setCustomField without custom type"}
			}
			if act.Value == nil {
				delete(d.Custom.Fields, act.Name)
				continue
			}
			if d.Custom.Fields == nil {
				d.Custom.Fields = map[string]any{}
			}
			d.Custom.Fields[act.Name] = act.Value
		default:
			return Category{}, &UnsupportedActionError{Kind: KindCategory, Action: a.ActionName()}
		}
	}
	return out, nil
}

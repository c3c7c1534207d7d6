package resource

import (
	"slices"
)

// Attribute is one product attribute value. Reference is set instead of
// Value for attributes pointing at another product.
type Attribute struct {
	Name      string     `json:"name" yaml:"name"`
	Value     any        `json:"value,omitempty" yaml:"value,omitempty"`
	Reference *Reference `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// ProductDraft is the desired state of a product.
type ProductDraft struct {
	Key         string          `json:"key" yaml:"key"`
	ProductType *Reference      `json:"productType" yaml:"productType"`
	Name        LocalizedString `json:"name" yaml:"name"`
	Slug        LocalizedString `json:"slug" yaml:"slug"`
	Description LocalizedString `json:"description,omitempty" yaml:"description,omitempty"`
	Categories  []Reference     `json:"categories,omitempty" yaml:"categories,omitempty"`
	TaxCategory *Reference      `json:"taxCategory,omitempty" yaml:"taxCategory,omitempty"`
	Attributes  []Attribute     `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// GetKey returns the external key.
func (d ProductDraft) GetKey() string { return d.Key }

// Clone returns a deep copy of d. Attribute values are shared.
func (d ProductDraft) Clone() ProductDraft {
	c := d
	c.ProductType = d.ProductType.Clone()
	c.Name = d.Name.Clone()
	c.Slug = d.Slug.Clone()
	c.Description = d.Description.Clone()
	c.Categories = slices.Clone(d.Categories)
	c.TaxCategory = d.TaxCategory.Clone()
	if d.Attributes != nil {
		c.Attributes = make([]Attribute, len(d.Attributes))
		for i, a := range d.Attributes {
			c.Attributes[i] = Attribute{Name: a.Name, Value: a.Value, Reference: a.Reference.Clone()}
		}
	}
	return c
}

// Product is a product as stored by the backend.
type Product struct {
	Meta         `yaml:",inline"`
	ProductDraft `yaml:",inline"`
}

// NewProduct builds the entity the backend stores for a created draft.
func NewProduct(id string, version int64, d ProductDraft) Product {
	return Product{Meta: Meta{ID: id, Version: version}, ProductDraft: d.Clone()}
}

// AddToCategory adds the product to a category.
type AddToCategory struct {
	Category Reference `json:"category"`
}

func (AddToCategory) ActionName() string { return "addToCategory" }

// RemoveFromCategory removes the product from a category.
type RemoveFromCategory struct {
	Category Reference `json:"category"`
}

func (RemoveFromCategory) ActionName() string { return "removeFromCategory" }

// SetTaxCategory sets or clears the tax category.
type SetTaxCategory struct {
	TaxCategory *Reference `json:"taxCategory,omitempty"`
}

func (SetTaxCategory) ActionName() string { return "setTaxCategory" }

// SetAttribute sets one attribute. Value and Reference both nil removes it.
type SetAttribute struct {
	Name      string     `json:"name"`
	Value     any        `json:"value,omitempty"`
	Reference *Reference `json:"reference,omitempty"`
}

func (SetAttribute) ActionName() string { return "setAttribute" }

// ApplyProduct returns p with actions applied in order.
func ApplyProduct(p Product, actions []Action) (Product, error) {
	out := Product{Meta: p.Meta, ProductDraft: p.ProductDraft.Clone()}
	for _, a := range actions {
		d := &out.ProductDraft
		switch act := a.(type) {
		case ChangeName:
			d.Name = act.Name.Clone()
		case ChangeSlug:
			d.Slug = act.Slug.Clone()
		case SetDescription:
			d.Description = act.Description.Clone()
		case AddToCategory:
			if !slices.ContainsFunc(d.Categories, func(r Reference) bool { return r.ID == act.Category.ID }) {
				d.Categories = append(d.Categories, act.Category)
			}
		case RemoveFromCategory:
			d.Categories = slices.DeleteFunc(d.Categories, func(r Reference) bool { return r.ID == act.Category.ID })
		case SetTaxCategory:
			d.TaxCategory = act.TaxCategory.Clone()
		case SetAttribute:
			i := slices.IndexFunc(d.Attributes, func(at Attribute) bool { return at.Name == act.Name })
			switch {
			case act.Value == nil && act.Reference == nil:
				if i >= 0 {
					d.Attributes = slices.Delete(d.Attributes, i, i+1)
				}
			case i >= 0:
				d.Attributes[i] = Attribute{Name: act.Name, Value: act.Value, Reference: act.Reference.Clone()}
			default:
				d.Attributes = append(d.Attributes, Attribute{Name: act.Name, Value: act.Value, Reference: act.Reference.Clone()})
			}
		default:
			return Product{}, &UnsupportedActionError{Kind: KindProduct, Action: a.ActionName()}
		}
	}
	return out, nil
}

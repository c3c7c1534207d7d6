package diff

import (
	"slices"

	"github.com/roach88/catalogsync/internal/resource"
)

// BuildProductActions diffs a product against its resolved draft. productType
// is the product type the draft references; its attribute definitions decide
// which attributes can be set. Attributes it does not declare are skipped and
// reported as AttributeMetadataMissingError warnings.
func BuildProductActions(old resource.Product, draft resource.ProductDraft, productType resource.ProductType) (Result, error) {
	var res Result
	if !resource.SameTarget(old.ProductType, draft.ProductType) {
		res.warn(&UnsupportedChangeWarning{
			Collection: "productType",
			Reason:     "the product type of an existing product cannot be changed",
		})
	}
	if !old.Name.Equal(draft.Name) {
		res.add(resource.ChangeName{Name: draft.Name})
	}
	if !old.Slug.Equal(draft.Slug) {
		res.add(resource.ChangeSlug{Slug: draft.Slug})
	}
	if !old.Description.Equal(draft.Description) {
		res.add(resource.SetDescription{Description: draft.Description})
	}

	categories, err := categoryActions(old.Categories, draft.Categories)
	if err != nil {
		return Result{}, err
	}
	res.add(categories...)

	if !resource.SameTarget(old.TaxCategory, draft.TaxCategory) {
		res.add(resource.SetTaxCategory{TaxCategory: draft.TaxCategory})
	}

	if err := checkUnique("attributes", draft.Attributes, attributeName); err != nil {
		return Result{}, err
	}
	for _, a := range draft.Attributes {
		if _, ok := productType.Attribute(a.Name); !ok {
			res.warn(&AttributeMetadataMissingError{ProductKey: draft.Key, Attribute: a.Name, ProductType: productType.Key})
			continue
		}
		i := slices.IndexFunc(old.Attributes, func(o resource.Attribute) bool { return o.Name == a.Name })
		if i >= 0 && sameAttribute(old.Attributes[i], a) {
			continue
		}
		res.add(resource.SetAttribute{Name: a.Name, Value: a.Value, Reference: a.Reference})
	}
	for _, o := range old.Attributes {
		if slices.ContainsFunc(draft.Attributes, func(a resource.Attribute) bool { return a.Name == o.Name }) {
			continue
		}
		if _, ok := productType.Attribute(o.Name); !ok {
			res.warn(&AttributeMetadataMissingError{ProductKey: draft.Key, Attribute: o.Name, ProductType: productType.Key})
			continue
		}
		res.add(resource.SetAttribute{Name: o.Name})
	}
	return res, nil
}

func attributeName(a resource.Attribute) string { return a.Name }

func sameAttribute(a, b resource.Attribute) bool {
	if (a.Reference == nil) != (b.Reference == nil) {
		return false
	}
	if a.Reference != nil {
		return resource.SameTarget(a.Reference, b.Reference)
	}
	return sameValue(a.Value, b.Value)
}

// categoryActions removes categories no longer listed, then adds new ones in
// draft order. Category membership is unordered.
func categoryActions(old, draft []resource.Reference) ([]resource.Action, error) {
	id := func(r resource.Reference) string { return r.ID }
	if err := checkUnique("categories", draft, id); err != nil {
		return nil, err
	}
	var actions []resource.Action
	for _, o := range old {
		if !slices.ContainsFunc(draft, func(d resource.Reference) bool { return d.ID == o.ID }) {
			actions = append(actions, resource.RemoveFromCategory{Category: resource.Reference{ID: o.ID}})
		}
	}
	for _, d := range draft {
		if !slices.ContainsFunc(old, func(o resource.Reference) bool { return o.ID == d.ID }) {
			actions = append(actions, resource.AddToCategory{Category: d})
		}
	}
	return actions, nil
}

package resolve

import (
	"context"
	"fmt"

	"github.com/roach88/catalogsync/internal/resource"
)

// Category resolves the parent and custom type references of a category
// draft. The input draft is not modified.
func (r *Resolver) Category(ctx context.Context, d resource.CategoryDraft) (resource.CategoryDraft, error) {
	out := d.Clone()
	acc := deferrals{draftKey: d.Key}

	parent, err := r.Reference(ctx, d.Key, "parent", resource.KindCategory, d.Parent, false)
	if err := acc.check(err); err != nil {
		return resource.CategoryDraft{}, err
	}
	if err == nil {
		out.Parent = parent
	}

	if d.Custom != nil {
		typ, err := r.Reference(ctx, d.Key, "custom.type", resource.KindType, d.Custom.Type, true)
		if err := acc.check(err); err != nil {
			return resource.CategoryDraft{}, err
		}
		out.Custom.Type = typ
	}

	if err := acc.err(); err != nil {
		return resource.CategoryDraft{}, err
	}
	return out, nil
}

// CategoryKeys lists the reference keys of a category draft by target kind.
func CategoryKeys(d resource.CategoryDraft) map[string][]string {
	keys := map[string][]string{}
	addKey(keys, resource.KindCategory, d.Parent)
	if d.Custom != nil {
		addKey(keys, resource.KindType, d.Custom.Type)
	}
	return keys
}

// Product resolves the product type, category, tax category and product
// attribute references of a product draft.
func (r *Resolver) Product(ctx context.Context, d resource.ProductDraft) (resource.ProductDraft, error) {
	out := d.Clone()
	acc := deferrals{draftKey: d.Key}

	pt, err := r.Reference(ctx, d.Key, "productType", resource.KindProductType, d.ProductType, true)
	if err != nil {
		return resource.ProductDraft{}, err
	}
	out.ProductType = pt

	for i, c := range d.Categories {
		ref, err := r.Reference(ctx, d.Key, fmt.Sprintf("categories[%d]", i), resource.KindCategory, &c, true)
		if err != nil {
			return resource.ProductDraft{}, err
		}
		out.Categories[i] = *ref
	}

	tax, err := r.Reference(ctx, d.Key, "taxCategory", resource.KindTaxCategory, d.TaxCategory, false)
	if err != nil {
		return resource.ProductDraft{}, err
	}
	out.TaxCategory = tax

	for i, a := range d.Attributes {
		if a.Reference == nil {
			continue
		}
		field := fmt.Sprintf("attributes[%s]", a.Name)
		ref, err := r.Reference(ctx, d.Key, field, resource.KindProduct, a.Reference, true)
		if err := acc.check(err); err != nil {
			return resource.ProductDraft{}, err
		}
		if ref != nil {
			out.Attributes[i].Reference = ref
		}
	}

	if err := acc.err(); err != nil {
		return resource.ProductDraft{}, err
	}
	return out, nil
}

// ProductKeys lists the reference keys of a product draft by target kind.
func ProductKeys(d resource.ProductDraft) map[string][]string {
	keys := map[string][]string{}
	addKey(keys, resource.KindProductType, d.ProductType)
	for i := range d.Categories {
		addKey(keys, resource.KindCategory, &d.Categories[i])
	}
	addKey(keys, resource.KindTaxCategory, d.TaxCategory)
	for _, a := range d.Attributes {
		addKey(keys, resource.KindProduct, a.Reference)
	}
	return keys
}

func addKey(keys map[string][]string, kind string, ref *resource.Reference) {
	if ref == nil || ref.IsResolved() || ref.Key == "" {
		return
	}
	keys[kind] = append(keys[kind], ref.Key)
}

package catalog

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/roach88/catalogsync/internal/backend"
	"github.com/roach88/catalogsync/internal/diff"
	"github.com/roach88/catalogsync/internal/engine"
	"github.com/roach88/catalogsync/internal/resolve"
	"github.com/roach88/catalogsync/internal/resource"
)

// Type is the engine strategy for custom-field types.
type Type struct{}

var _ engine.Kind[resource.TypeDraft, resource.Type] = Type{}

func (Type) Name() string   { return resource.KindType }
func (Type) Plural() string { return "types" }

func (Type) ReferencedKeys(resource.TypeDraft) map[string][]string { return nil }

// Resolve returns d unchanged; types reference nothing.
func (Type) Resolve(_ context.Context, _ *resolve.Resolver, d resource.TypeDraft) (resource.TypeDraft, error) {
	return d, nil
}

func (Type) Diff(_ context.Context, existing resource.Type, draft resource.TypeDraft) (diff.Result, error) {
	return diff.BuildTypeActions(existing, draft)
}

// ProductType is the engine strategy for product types.
type ProductType struct{}

var _ engine.Kind[resource.ProductTypeDraft, resource.ProductType] = ProductType{}

func (ProductType) Name() string   { return resource.KindProductType }
func (ProductType) Plural() string { return "product types" }

func (ProductType) ReferencedKeys(resource.ProductTypeDraft) map[string][]string { return nil }

// Resolve returns d unchanged; product types reference nothing.
func (ProductType) Resolve(_ context.Context, _ *resolve.Resolver, d resource.ProductTypeDraft) (resource.ProductTypeDraft, error) {
	return d, nil
}

func (ProductType) Diff(_ context.Context, existing resource.ProductType, draft resource.ProductTypeDraft) (diff.Result, error) {
	return diff.BuildProductTypeActions(existing, draft)
}

// Category is the engine strategy for categories.
type Category struct{}

var _ engine.Kind[resource.CategoryDraft, resource.Category] = Category{}

func (Category) Name() string   { return resource.KindCategory }
func (Category) Plural() string { return "categories" }

func (Category) ReferencedKeys(d resource.CategoryDraft) map[string][]string {
	return resolve.CategoryKeys(d)
}

func (Category) Resolve(ctx context.Context, r *resolve.Resolver, d resource.CategoryDraft) (resource.CategoryDraft, error) {
	return r.Category(ctx, d)
}

func (Category) Diff(_ context.Context, existing resource.Category, draft resource.CategoryDraft) (diff.Result, error) {
	return diff.BuildCategoryActions(existing, draft)
}

// productTypeTTL bounds how long a product type's attribute definitions are
// reused within a run.
const productTypeTTL = 5 * time.Minute

// Product is the engine strategy for products. Diffing needs the attribute
// definitions of the draft's product type, which it reads through types.
type Product struct {
	types backend.Service[resource.ProductTypeDraft, resource.ProductType]
	cache *expirable.LRU[string, resource.ProductType]
}

var (
	_ engine.Kind[resource.ProductDraft, resource.Product] = (*Product)(nil)
	_ engine.Resetter                                      = (*Product)(nil)
)

// NewProduct creates the product strategy.
func NewProduct(types backend.Service[resource.ProductTypeDraft, resource.ProductType]) *Product {
	return &Product{
		types: types,
		cache: expirable.NewLRU[string, resource.ProductType](256, nil, productTypeTTL),
	}
}

// Reset drops the product types cached by an earlier run.
func (p *Product) Reset() { p.cache.Purge() }

func (*Product) Name() string   { return resource.KindProduct }
func (*Product) Plural() string { return "products" }

func (*Product) ReferencedKeys(d resource.ProductDraft) map[string][]string {
	return resolve.ProductKeys(d)
}

func (*Product) Resolve(ctx context.Context, r *resolve.Resolver, d resource.ProductDraft) (resource.ProductDraft, error) {
	return r.Product(ctx, d)
}

func (p *Product) Diff(ctx context.Context, existing resource.Product, draft resource.ProductDraft) (diff.Result, error) {
	pt, err := p.productType(ctx, draft.ProductType)
	if err != nil {
		return diff.Result{}, err
	}
	return diff.BuildProductActions(existing, draft, pt)
}

// productType loads the referenced product type by id when the service can,
// by key otherwise.
func (p *Product) productType(ctx context.Context, ref *resource.Reference) (resource.ProductType, error) {
	if ref.IsBlank() {
		return resource.ProductType{}, fmt.Errorf("product type reference is blank")
	}
	cacheKey := ref.ID + "|" + ref.Key
	if pt, ok := p.cache.Get(cacheKey); ok {
		return pt, nil
	}

	var (
		pt    resource.ProductType
		found bool
		err   error
	)
	if byID, ok := p.types.(backend.IDFetcher[resource.ProductType]); ok && ref.ID != "" {
		pt, found, err = byID.FetchByID(ctx, ref.ID)
	} else if ref.Key != "" {
		pt, found, err = p.types.FetchByKey(ctx, ref.Key)
	} else {
		return resource.ProductType{}, fmt.Errorf("product type %s cannot be fetched without a key", ref.ID)
	}
	if err != nil {
		return resource.ProductType{}, fmt.Errorf("fetch product type: %w", err)
	}
	if !found {
		return resource.ProductType{}, &backend.NotFoundError{Kind: resource.KindProductType, Key: cmp.Or(ref.Key, ref.ID)}
	}
	p.cache.Add(cacheKey, pt)
	return pt, nil
}

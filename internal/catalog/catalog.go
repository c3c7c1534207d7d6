// Package catalog wires the engine to the four catalog kinds.
//
// It provides the per-kind engine strategies, a Backend bundle holding one
// service per kind, and constructors returning ready-made syncers whose key
// lookups cover every kind the drafts reference.
package catalog

import (
	"net/http"

	"github.com/roach88/catalogsync/internal/backend"
	"github.com/roach88/catalogsync/internal/engine"
	"github.com/roach88/catalogsync/internal/resource"
	"github.com/roach88/catalogsync/internal/waiting"
)

// Backend bundles the services of every kind.
type Backend struct {
	Types         backend.Service[resource.TypeDraft, resource.Type]
	ProductTypes  backend.Service[resource.ProductTypeDraft, resource.ProductType]
	Categories    backend.Service[resource.CategoryDraft, resource.Category]
	Products      backend.Service[resource.ProductDraft, resource.Product]
	TaxCategories backend.KeyLookup
}

// Collection paths of the REST API.
const (
	PathTypes         = "types"
	PathProductTypes  = "product-types"
	PathCategories    = "categories"
	PathProducts      = "products"
	PathTaxCategories = "tax-categories"
)

// NewHTTPBackend returns a Backend talking to the REST API at apiURL.
func NewHTTPBackend(client *http.Client, apiURL, projectKey string) Backend {
	ep := func(path string) backend.Endpoint {
		return backend.Endpoint{APIURL: apiURL, ProjectKey: projectKey, Path: path}
	}
	return Backend{
		Types:         backend.NewHTTPService[resource.TypeDraft, resource.Type](client, resource.KindType, ep(PathTypes)),
		ProductTypes:  backend.NewHTTPService[resource.ProductTypeDraft, resource.ProductType](client, resource.KindProductType, ep(PathProductTypes)),
		Categories:    backend.NewHTTPService[resource.CategoryDraft, resource.Category](client, resource.KindCategory, ep(PathCategories)),
		Products:      backend.NewHTTPService[resource.ProductDraft, resource.Product](client, resource.KindProduct, ep(PathProducts)),
		TaxCategories: backend.NewHTTPLookup(client, resource.KindTaxCategory, ep(PathTaxCategories)),
	}
}

// NewTypeSync creates a syncer for custom-field types.
func NewTypeSync(b Backend, store waiting.Store, opts engine.Options[resource.TypeDraft, resource.Type]) *engine.Syncer[resource.TypeDraft, resource.Type] {
	return engine.New(engine.Kind[resource.TypeDraft, resource.Type](Type{}), b.Types, nil, store, opts)
}

// NewProductTypeSync creates a syncer for product types.
func NewProductTypeSync(b Backend, store waiting.Store, opts engine.Options[resource.ProductTypeDraft, resource.ProductType]) *engine.Syncer[resource.ProductTypeDraft, resource.ProductType] {
	return engine.New(engine.Kind[resource.ProductTypeDraft, resource.ProductType](ProductType{}), b.ProductTypes, nil, store, opts)
}

// NewCategorySync creates a syncer for categories. Parents resolve against
// categories, custom types against types.
func NewCategorySync(b Backend, store waiting.Store, opts engine.Options[resource.CategoryDraft, resource.Category]) *engine.Syncer[resource.CategoryDraft, resource.Category] {
	lookups := map[string]backend.KeyLookup{
		resource.KindCategory: backend.Lookup(b.Categories),
		resource.KindType:     backend.Lookup(b.Types),
	}
	return engine.New(engine.Kind[resource.CategoryDraft, resource.Category](Category{}), b.Categories, lookups, store, opts)
}

// NewProductSync creates a syncer for products.
func NewProductSync(b Backend, store waiting.Store, opts engine.Options[resource.ProductDraft, resource.Product]) *engine.Syncer[resource.ProductDraft, resource.Product] {
	lookups := map[string]backend.KeyLookup{
		resource.KindProduct:     backend.Lookup(b.Products),
		resource.KindProductType: backend.Lookup(b.ProductTypes),
		resource.KindCategory:    backend.Lookup(b.Categories),
	}
	if b.TaxCategories != nil {
		lookups[resource.KindTaxCategory] = b.TaxCategories
	} else {
		lookups[resource.KindTaxCategory] = backend.StaticLookup{}
	}
	return engine.New(engine.Kind[resource.ProductDraft, resource.Product](NewProduct(b.ProductTypes)), b.Products, lookups, store, opts)
}

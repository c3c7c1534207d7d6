package backend

import "github.com/roach88/catalogsync/internal/resource"

// TypeModel is the Model for custom-field types.
func TypeModel() Model[resource.TypeDraft, resource.Type] {
	return Model[resource.TypeDraft, resource.Type]{
		Kind:  resource.KindType,
		New:   resource.NewType,
		Apply: resource.ApplyType,
		Draft: func(t resource.Type) resource.TypeDraft { return t.TypeDraft },
	}
}

// ProductTypeModel is the Model for product types.
func ProductTypeModel() Model[resource.ProductTypeDraft, resource.ProductType] {
	return Model[resource.ProductTypeDraft, resource.ProductType]{
		Kind:  resource.KindProductType,
		New:   resource.NewProductType,
		Apply: resource.ApplyProductType,
		Draft: func(p resource.ProductType) resource.ProductTypeDraft { return p.ProductTypeDraft },
	}
}

// CategoryModel is the Model for categories.
func CategoryModel() Model[resource.CategoryDraft, resource.Category] {
	return Model[resource.CategoryDraft, resource.Category]{
		Kind:  resource.KindCategory,
		New:   resource.NewCategory,
		Apply: resource.ApplyCategory,
		Draft: func(c resource.Category) resource.CategoryDraft { return c.CategoryDraft },
	}
}

// ProductModel is the Model for products.
func ProductModel() Model[resource.ProductDraft, resource.Product] {
	return Model[resource.ProductDraft, resource.Product]{
		Kind:  resource.KindProduct,
		New:   resource.NewProduct,
		Apply: resource.ApplyProduct,
		Draft: func(p resource.Product) resource.ProductDraft { return p.ProductDraft },
	}
}

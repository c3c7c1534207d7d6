package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/roach88/catalogsync/internal/resource"
	"github.com/roach88/catalogsync/internal/testutil"
)

func en(s string) resource.LocalizedString { return resource.LocalizedString{"en": s} }

func stringField(name string) resource.FieldDefinition {
	return resource.FieldDefinition{Name: name, Label: en(name), Type: resource.FieldType{Name: resource.FieldString}}
}

func sampleType() resource.Type {
	return resource.NewType("type-1", 4, resource.TypeDraft{
		Key:  "shoes",
		Name: en("Shoes"),
		FieldDefinitions: []resource.FieldDefinition{
			{
				Name:  "color",
				Label: en("Color"),
				Type: resource.FieldType{Name: resource.FieldEnum, Values: []resource.EnumValue{
					{Key: "red", Label: "Red"}, {Key: "green", Label: "Green"},
				}},
			},
			{Name: "size", Label: en("Size"), Type: resource.FieldType{Name: resource.FieldString}},
			{Name: "note", Label: en("Note"), Type: resource.FieldType{Name: resource.FieldString}},
		},
	})
}

func changedTypeDraft() resource.TypeDraft {
	return resource.TypeDraft{
		Key:  "shoes",
		Name: en("Shoes"),
		FieldDefinitions: []resource.FieldDefinition{
			{Name: "size", Label: en("Size"), Type: resource.FieldType{Name: resource.FieldLocalizedString}},
			{
				Name:  "color",
				Label: en("Colour"),
				Type: resource.FieldType{Name: resource.FieldEnum, Values: []resource.EnumValue{
					{Key: "green", Label: "Verde"}, {Key: "blue", Label: "Blue"},
				}},
			},
			{Name: "care", Label: en("Care"), Type: resource.FieldType{Name: resource.FieldBoolean}},
		},
	}
}

func TestBuildTypeActions_Golden(t *testing.T) {
	res, err := BuildTypeActions(sampleType(), changedTypeDraft())
	require.NoError(t, err)

	testutil.AssertActionsGolden(t, "type_field_changes", res.Actions)

	warnings := multierr.Errors(res.Warnings)
	require.Len(t, warnings, 1)
	var skipped *UnsupportedChangeWarning
	require.ErrorAs(t, warnings[0], &skipped)
	assert.Equal(t, []string{"red"}, skipped.Keys)
}

func TestBuildTypeActions_IdempotentAndFixedPoint(t *testing.T) {
	old, draft := sampleType(), changedTypeDraft()

	first, err := BuildTypeActions(old, draft)
	require.NoError(t, err)
	second, err := BuildTypeActions(old, draft)
	require.NoError(t, err)
	assert.Equal(t, first.Actions, second.Actions)

	applied, err := resource.ApplyType(old, first.Actions)
	require.NoError(t, err)
	again, err := BuildTypeActions(applied, draft)
	require.NoError(t, err)
	assert.Empty(t, again.Actions)
}

func TestBuildTypeActions_NoOpLaw(t *testing.T) {
	old := sampleType()

	res, err := BuildTypeActions(old, old.TypeDraft.Clone())
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.NoError(t, res.Warnings)
}

func TestBuildTypeActions_ReorderLaw(t *testing.T) {
	old := resource.NewType("t", 1, resource.TypeDraft{
		Key:              "k",
		FieldDefinitions: []resource.FieldDefinition{stringField("a"), stringField("b"), stringField("c")},
	})
	draft := resource.TypeDraft{
		Key:              "k",
		FieldDefinitions: []resource.FieldDefinition{stringField("c"), stringField("a"), stringField("b")},
	}

	res, err := BuildTypeActions(old, draft)
	require.NoError(t, err)

	assert.Equal(t, []resource.Action{
		resource.ChangeFieldDefinitionOrder{FieldNames: []string{"c", "a", "b"}},
	}, res.Actions)
}

func TestBuildTypeActions_DuplicateKeyLaw(t *testing.T) {
	dupEnum := resource.FieldDefinition{
		Name: "color",
		Type: resource.FieldType{Name: resource.FieldEnum, Values: []resource.EnumValue{
			{Key: "red", Label: "Red"}, {Key: "red", Label: "Also red"},
		}},
	}
	old := resource.NewType("t", 1, resource.TypeDraft{Key: "k", FieldDefinitions: []resource.FieldDefinition{
		{Name: "color", Type: resource.FieldType{Name: resource.FieldEnum}},
	}})

	tests := []struct {
		name  string
		draft resource.TypeDraft
	}{
		{"duplicate enum values", resource.TypeDraft{Key: "k", Name: en("changed"), FieldDefinitions: []resource.FieldDefinition{dupEnum}}},
		{"duplicate field names", resource.TypeDraft{Key: "k", FieldDefinitions: []resource.FieldDefinition{stringField("x"), stringField("x")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildTypeActions(old, tt.draft)

			var dup *DuplicateKeyError
			require.ErrorAs(t, err, &dup)
		})
	}
}

func TestBuildTypeActions_TypeChangeRemovesThenAdds(t *testing.T) {
	old := resource.NewType("t", 1, resource.TypeDraft{Key: "k", FieldDefinitions: []resource.FieldDefinition{
		{Name: "f", Type: resource.FieldType{Name: resource.FieldEnum, Values: []resource.EnumValue{{Key: "a"}}}},
	}})
	draft := resource.TypeDraft{Key: "k", FieldDefinitions: []resource.FieldDefinition{stringField("f")}}

	res, err := BuildTypeActions(old, draft)
	require.NoError(t, err)

	assert.Equal(t, []string{"removeFieldDefinition", "addFieldDefinition"}, resource.ActionNames(res.Actions))
}

func TestBuildTypeActions_ReplacedFieldKeepsDraftOrder(t *testing.T) {
	old := resource.NewType("t", 1, resource.TypeDraft{
		Key:              "k",
		FieldDefinitions: []resource.FieldDefinition{stringField("a"), stringField("b")},
	})
	draft := resource.TypeDraft{Key: "k", FieldDefinitions: []resource.FieldDefinition{
		{Name: "a", Label: en("a"), Type: resource.FieldType{Name: resource.FieldBoolean}},
		stringField("b"),
	}}

	res, err := BuildTypeActions(old, draft)
	require.NoError(t, err)
	assert.Equal(t, []string{"removeFieldDefinition", "addFieldDefinition", "changeFieldDefinitionOrder"}, resource.ActionNames(res.Actions))

	applied, err := resource.ApplyType(old, res.Actions)
	require.NoError(t, err)
	again, err := BuildTypeActions(applied, draft)
	require.NoError(t, err)
	assert.Empty(t, again.Actions)
}

func TestBuildTypeActions_RequiredChangeWarns(t *testing.T) {
	old := resource.NewType("t", 1, resource.TypeDraft{Key: "k", FieldDefinitions: []resource.FieldDefinition{stringField("f")}})
	field := stringField("f")
	field.Required = true

	res, err := BuildTypeActions(old, resource.TypeDraft{Key: "k", FieldDefinitions: []resource.FieldDefinition{field}})
	require.NoError(t, err)

	assert.Empty(t, res.Actions)
	assert.Error(t, res.Warnings)
}

func sampleProductType() resource.ProductType {
	return resource.NewProductType("pt-1", 2, resource.ProductTypeDraft{
		Key:  "tshirt",
		Name: "T-Shirt",
		Attributes: []resource.AttributeDefinition{
			{Name: "size", Type: resource.FieldType{Name: resource.FieldEnum, Values: []resource.EnumValue{
				{Key: "S", Label: "S"}, {Key: "M", Label: "M"}, {Key: "L", Label: "L"},
			}}},
			{Name: "material", Type: resource.FieldType{Name: resource.FieldString}},
		},
	})
}

func changedProductTypeDraft() resource.ProductTypeDraft {
	return resource.ProductTypeDraft{
		Key:  "tshirt",
		Name: "T-Shirt",
		Attributes: []resource.AttributeDefinition{
			{Name: "material", IsSearchable: true, Type: resource.FieldType{Name: resource.FieldString}},
			{Name: "size", Type: resource.FieldType{Name: resource.FieldEnum, Values: []resource.EnumValue{
				{Key: "L", Label: "L"}, {Key: "M", Label: "M"}, {Key: "XL", Label: "XL"},
			}}},
		},
	}
}

func TestBuildProductTypeActions_Golden(t *testing.T) {
	res, err := BuildProductTypeActions(sampleProductType(), changedProductTypeDraft())
	require.NoError(t, err)

	testutil.AssertActionsGolden(t, "product_type_enum_changes", res.Actions)
	assert.NoError(t, res.Warnings)
}

func TestBuildProductTypeActions_FixedPoint(t *testing.T) {
	old, draft := sampleProductType(), changedProductTypeDraft()

	res, err := BuildProductTypeActions(old, draft)
	require.NoError(t, err)
	applied, err := resource.ApplyProductType(old, res.Actions)
	require.NoError(t, err)

	again, err := BuildProductTypeActions(applied, draft)
	require.NoError(t, err)
	assert.Empty(t, again.Actions)
}

func TestBuildProductTypeActions_LocalizedEnumReorderOnly(t *testing.T) {
	lenum := func(keys ...string) resource.FieldType {
		ft := resource.FieldType{Name: resource.FieldLocalizedEnum}
		for _, k := range keys {
			ft.LocalizedValues = append(ft.LocalizedValues, resource.LocalizedEnumValue{Key: k, Label: en(k)})
		}
		return ft
	}
	old := resource.NewProductType("pt", 1, resource.ProductTypeDraft{Key: "k", Attributes: []resource.AttributeDefinition{
		{Name: "color", Type: lenum("red", "blue")},
	}})
	draft := resource.ProductTypeDraft{Key: "k", Attributes: []resource.AttributeDefinition{
		{Name: "color", Type: lenum("blue", "red")},
	}}

	res, err := BuildProductTypeActions(old, draft)
	require.NoError(t, err)
	assert.Equal(t, []string{"changeLocalizedEnumValueOrder"}, resource.ActionNames(res.Actions))
}

func TestBuildCategoryActions(t *testing.T) {
	old := resource.NewCategory("c-1", 1, resource.CategoryDraft{
		Key:       "shoes",
		Name:      en("Shoes"),
		Slug:      en("shoes"),
		Parent:    resource.RefByID("men"),
		OrderHint: "0.1",
		Custom: &resource.CustomFields{
			Type:   resource.RefByID("type-1"),
			Fields: map[string]any{"a": "1", "b": "2"},
		},
	})
	draft := resource.CategoryDraft{
		Key:        "shoes",
		Name:       en("Shoes"),
		Slug:       en("all-shoes"),
		Parent:     &resource.Reference{ID: "women", Key: "women"},
		ExternalID: "ext-1",
		Custom: &resource.CustomFields{
			Type:   &resource.Reference{ID: "type-1", Key: "seo"},
			Fields: map[string]any{"b": "3", "c": true},
		},
	}

	res, err := BuildCategoryActions(old, draft)
	require.NoError(t, err)

	assert.Equal(t, []resource.Action{
		resource.ChangeSlug{Slug: en("all-shoes")},
		resource.ChangeParent{Parent: resource.Reference{ID: "women", Key: "women"}},
		resource.SetExternalID{ExternalID: "ext-1"},
		resource.SetCustomField{Name: "a"},
		resource.SetCustomField{Name: "b", Value: "3"},
		resource.SetCustomField{Name: "c", Value: true},
	}, res.Actions)

	applied, err := resource.ApplyCategory(old, res.Actions)
	require.NoError(t, err)
	again, err := BuildCategoryActions(applied, draft)
	require.NoError(t, err)
	assert.Empty(t, again.Actions)
}

func TestBuildCategoryActions_CustomTypeChange(t *testing.T) {
	old := resource.NewCategory("c-1", 1, resource.CategoryDraft{
		Key:    "shoes",
		Custom: &resource.CustomFields{Type: resource.RefByID("type-1")},
	})
	draft := resource.CategoryDraft{
		Key:    "shoes",
		Custom: &resource.CustomFields{Type: resource.RefByID("type-2"), Fields: map[string]any{"x": "y"}},
	}

	res, err := BuildCategoryActions(old, draft)
	require.NoError(t, err)
	assert.Equal(t, []resource.Action{
		resource.SetCustomType{Type: resource.RefByID("type-2"), Fields: map[string]any{"x": "y"}},
	}, res.Actions)

	draft.Custom = nil
	res, err = BuildCategoryActions(old, draft)
	require.NoError(t, err)
	assert.Equal(t, []resource.Action{resource.SetCustomType{}}, res.Actions)
}

func TestBuildProductActions_MissingMetadataIsPartial(t *testing.T) {
	pt := resource.NewProductType("pt-1", 1, resource.ProductTypeDraft{
		Key:        "tshirt",
		Attributes: []resource.AttributeDefinition{{Name: "size"}, {Name: "related"}},
	})
	old := resource.NewProduct("p-1", 1, resource.ProductDraft{
		Key:         "shirt",
		ProductType: resource.RefByID("pt-1"),
		Name:        en("Shirt"),
		Categories:  []resource.Reference{{ID: "c1"}, {ID: "c2"}},
		Attributes:  []resource.Attribute{{Name: "size", Value: "M"}},
	})
	draft := resource.ProductDraft{
		Key:         "shirt",
		ProductType: resource.RefByID("pt-1"),
		Name:        en("Shirt"),
		Categories:  []resource.Reference{{ID: "c2"}, {ID: "c3"}},
		TaxCategory: resource.RefByID("tax-1"),
		Attributes: []resource.Attribute{
			{Name: "size", Value: "L"},
			{Name: "fabric", Value: "cotton"},
			{Name: "related", Reference: resource.RefByID("p-2")},
		},
	}

	res, err := BuildProductActions(old, draft, pt)
	require.NoError(t, err)

	assert.Equal(t, []resource.Action{
		resource.RemoveFromCategory{Category: resource.Reference{ID: "c1"}},
		resource.AddToCategory{Category: resource.Reference{ID: "c3"}},
		resource.SetTaxCategory{TaxCategory: resource.RefByID("tax-1")},
		resource.SetAttribute{Name: "size", Value: "L"},
		resource.SetAttribute{Name: "related", Reference: resource.RefByID("p-2")},
	}, res.Actions)

	warnings := multierr.Errors(res.Warnings)
	require.Len(t, warnings, 1)
	var missing *AttributeMetadataMissingError
	require.ErrorAs(t, warnings[0], &missing)
	assert.Equal(t, "fabric", missing.Attribute)

	applied, err := resource.ApplyProduct(old, res.Actions)
	require.NoError(t, err)
	again, err := BuildProductActions(applied, draft, pt)
	require.NoError(t, err)
	assert.Empty(t, again.Actions)
}

func TestBuildProductActions_DuplicateCategories(t *testing.T) {
	old := resource.NewProduct("p-1", 1, resource.ProductDraft{Key: "p"})
	draft := resource.ProductDraft{Key: "p", Categories: []resource.Reference{{ID: "c"}, {ID: "c"}}}

	_, err := BuildProductActions(old, draft, resource.ProductType{})

	var dup *DuplicateKeyError
	assert.ErrorAs(t, err, &dup)
}

func TestBuildProductActions_ProductTypeChangeWarns(t *testing.T) {
	old := resource.NewProduct("p-1", 1, resource.ProductDraft{Key: "p", ProductType: resource.RefByID("a")})
	draft := resource.ProductDraft{Key: "p", ProductType: resource.RefByID("b")}

	res, err := BuildProductActions(old, draft, resource.ProductType{})
	require.NoError(t, err)
	assert.Empty(t, res.Actions)
	assert.Error(t, res.Warnings)
}

func TestOrderChanged(t *testing.T) {
	assert.False(t, orderChanged([]string{"a", "b"}, []string{"a", "b", "c"}))
	assert.False(t, orderChanged([]string{"a", "x", "b"}, []string{"a", "b"}))
	assert.True(t, orderChanged([]string{"a", "b"}, []string{"b", "a"}))
	assert.True(t, orderChanged([]string{"a"}, []string{"c", "a"}))
}

package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catalogsync/internal/resource"
)

func newSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	return s
}

func TestDecodeCategories(t *testing.T) {
	src := `
- key: shoes
  name: {en: Shoes}
  slug: {en: shoes}
- key: boots
  name: {en: Boots}
  slug: {en: boots}
  parent: {key: shoes}
  orderHint: "0.2"
`
	doc, err := Decode[resource.CategoryDraft](newSchema(t), resource.KindCategory, "categories.yaml", []byte(src))
	require.NoError(t, err)

	require.Len(t, doc.Drafts, 2)
	assert.Equal(t, "boots", doc.Drafts[1].Key)
	assert.Equal(t, resource.RefByKey("shoes"), doc.Drafts[1].Parent)
	assert.Equal(t, resource.LocalizedString{"en": "Boots"}, doc.Drafts[1].Name)
	assert.Equal(t, []int{2, 5}, doc.Lines)
}

func TestDecodeAppliesDefaults(t *testing.T) {
	src := `[{"key": "shirt", "name": "Shirt", "attributes": [
    {"name": "size", "label": {"en": "Size"}, "type": {"name": "Enum", "values": [{"key": "s", "label": "S"}]}}
  ]}]`
	doc, err := Decode[resource.ProductTypeDraft](newSchema(t), resource.KindProductType, "pt.json", []byte(src))
	require.NoError(t, err)

	require.Len(t, doc.Drafts, 1)
	attr := doc.Drafts[0].Attributes[0]
	assert.False(t, attr.IsRequired)
	assert.True(t, attr.IsSearchable)
	assert.Equal(t, "", doc.Drafts[0].Description)
}

func TestDecodeProductAttributes(t *testing.T) {
	src := `
- key: p1
  productType: {key: shirt}
  name: {en: P1}
  slug: {en: p1}
  attributes:
    - {name: size, value: 42}
    - {name: related, reference: {key: p2}}
`
	doc, err := Decode[resource.ProductDraft](newSchema(t), resource.KindProduct, "products.yaml", []byte(src))
	require.NoError(t, err)

	attrs := doc.Drafts[0].Attributes
	assert.Equal(t, float64(42), attrs[0].Value)
	assert.Equal(t, resource.RefByKey("p2"), attrs[1].Reference)
}

func TestDecodeEmptyFile(t *testing.T) {
	doc, err := Decode[resource.TypeDraft](newSchema(t), resource.KindType, "types.yaml", []byte("\n"))
	require.NoError(t, err)
	assert.Empty(t, doc.Drafts)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		kind   string
		src    string
		substr string
	}{
		{
			name:   "unknown field",
			kind:   resource.KindCategory,
			src:    "- key: a\n  name: {en: A}\n  slug: {en: a}\n  colour: red\n",
			substr: "colour",
		},
		{
			name:   "missing required field",
			kind:   resource.KindCategory,
			src:    "- key: a\n  name: {en: A}\n",
			substr: "slug",
		},
		{
			name:   "invalid field type",
			kind:   resource.KindType,
			src:    "- key: t\n  name: {en: T}\n  fieldDefinitions:\n    - name: f\n      label: {en: F}\n      type: {name: Float}\n",
			substr: "name",
		},
		{
			name:   "set without element type",
			kind:   resource.KindType,
			src:    "- key: t\n  name: {en: T}\n  fieldDefinitions:\n    - name: f\n      label: {en: F}\n      type: {name: Set}\n",
			substr: "elementType",
		},
		{
			name:   "not a list",
			kind:   resource.KindCategory,
			src:    "key: a\n",
			substr: "must be a list",
		},
		{
			name:   "unknown kind",
			kind:   "inventory",
			src:    "[]",
			substr: "unknown kind",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			switch tt.kind {
			case resource.KindType:
				_, err = Decode[resource.TypeDraft](newSchema(t), tt.kind, "drafts.yaml", []byte(tt.src))
			default:
				_, err = Decode[resource.CategoryDraft](newSchema(t), tt.kind, "drafts.yaml", []byte(tt.src))
			}
			require.Error(t, err)

			var de *DecodeError
			require.True(t, errors.As(err, &de), "want DecodeError, got %T", err)
			assert.Contains(t, de.Error(), tt.substr)
			if tt.name == "unknown field" {
				assert.Equal(t, "drafts.yaml", de.Pos.Filename())
			}
		})
	}
}

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catalogsync/internal/resource"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateCategoriesValid(t *testing.T) {
	doc := Document[resource.CategoryDraft]{Drafts: []resource.CategoryDraft{
		{Key: "a"},
		{Key: "b", Parent: resource.RefByKey("a")},
	}}
	assert.Empty(t, Validate(doc))
}

func TestValidateKeys(t *testing.T) {
	doc := Document[resource.CategoryDraft]{
		Drafts: []resource.CategoryDraft{{Key: "a"}, {Key: "  "}, {Key: "a"}},
		Lines:  []int{1, 4, 7},
	}

	errs := Validate(doc)
	require.Len(t, errs, 2)
	assert.Equal(t, ErrBlankKey, errs[0].Code)
	assert.Equal(t, 4, errs[0].Line)
	assert.Equal(t, "[1].key", errs[0].Field)
	assert.Equal(t, ErrDuplicateKey, errs[1].Code)
	assert.Contains(t, errs[1].Message, "first used by draft 0")
	assert.Equal(t, `[E102] line 7: [2].key: duplicate key "a", first used by draft 0`, errs[1].Error())
}

func TestValidateCategoryReferences(t *testing.T) {
	doc := Document[resource.CategoryDraft]{Drafts: []resource.CategoryDraft{
		{Key: "self", Parent: resource.RefByKey("self")},
		{Key: "uuid", Parent: resource.RefByKey("4f0c8d5e-9d53-4f07-a4f6-3c7f1b8d2a11")},
		{Key: "custom", Custom: &resource.CustomFields{Type: &resource.Reference{}}},
		{Key: "empty-parent", Parent: &resource.Reference{}},
		{Key: "no-parent"},
	}}
	assert.Equal(t, []string{ErrSelfReference, ErrUUIDKey, ErrBlankReference, ErrBlankReference}, codes(Validate(doc)))
}

func TestValidateTypeFields(t *testing.T) {
	enum := resource.FieldType{Name: resource.FieldEnum, Values: []resource.EnumValue{{Key: "x"}, {Key: "x"}}}
	doc := Document[resource.TypeDraft]{Drafts: []resource.TypeDraft{{
		Key: "t",
		FieldDefinitions: []resource.FieldDefinition{
			{Name: "f", Type: enum},
			{Name: "f", Type: resource.FieldType{Name: resource.FieldString}},
			{Name: "g", Type: resource.FieldType{Name: resource.FieldSet, ElementType: &resource.FieldType{Name: resource.FieldLocalizedEnum}}},
		},
	}}}

	errs := Validate(doc)
	assert.Equal(t, []string{ErrDuplicateName, ErrDuplicateName, ErrMissingEnumValue}, codes(errs))
	assert.Equal(t, "[0].fieldDefinitions[0].type", errs[0].Field)
	assert.Equal(t, "[0].fieldDefinitions[1].name", errs[1].Field)
}

func TestValidateProductTypeAttributes(t *testing.T) {
	doc := Document[resource.ProductTypeDraft]{Drafts: []resource.ProductTypeDraft{{
		Key: "pt",
		Attributes: []resource.AttributeDefinition{
			{Name: "size", Type: resource.FieldType{Name: resource.FieldNumber}},
			{Name: "size", Type: resource.FieldType{Name: resource.FieldNumber}},
		},
	}}}
	assert.Equal(t, []string{ErrDuplicateName}, codes(Validate(doc)))
}

func TestValidateProducts(t *testing.T) {
	doc := Document[resource.ProductDraft]{Drafts: []resource.ProductDraft{{
		Key:        "p",
		Categories: []resource.Reference{{}},
		Attributes: []resource.Attribute{
			{Name: "related", Reference: resource.RefByKey("p")},
			{Name: "related", Value: 1},
		},
	}}}
	assert.Equal(t, []string{ErrBlankReference, ErrBlankReference, ErrSelfReference, ErrDuplicateName}, codes(Validate(doc)))
}

func TestValidateUnsupported(t *testing.T) {
	errs := Validate(Document[string]{Drafts: []string{"x"}})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedDrafts, errs[0].Code)
}

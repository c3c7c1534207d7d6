package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catalogsync/internal/resource"
)

func category(key, parent string) resource.CategoryDraft {
	d := resource.CategoryDraft{Key: key}
	if parent != "" {
		d.Parent = resource.RefByKey(parent)
	}
	return d
}

func TestAnalyzeCyclesNoCycle(t *testing.T) {
	doc := Document[resource.CategoryDraft]{Drafts: []resource.CategoryDraft{
		category("a", ""),
		category("b", "a"),
		category("c", "b"),
		category("d", "outside"),
	}}
	assert.Empty(t, AnalyzeCycles(doc))
}

func TestAnalyzeCyclesCategoryLoop(t *testing.T) {
	doc := Document[resource.CategoryDraft]{Drafts: []resource.CategoryDraft{
		category("c", "a"),
		category("a", "b"),
		category("b", "c"),
		category("x", "a"),
	}}

	warnings := AnalyzeCycles(doc)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"a", "b", "c", "a"}, warnings[0].Path)
	assert.Equal(t, "reference cycle: a -> b -> c -> a", warnings[0].Message)
	assert.Equal(t, "warning", warnings[0].Level)
}

func TestAnalyzeCyclesSelfLoop(t *testing.T) {
	doc := Document[resource.CategoryDraft]{Drafts: []resource.CategoryDraft{category("a", "a")}}

	warnings := AnalyzeCycles(doc)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"a", "a"}, warnings[0].Path)
}

func TestAnalyzeCyclesResolvedParentIgnored(t *testing.T) {
	doc := Document[resource.CategoryDraft]{Drafts: []resource.CategoryDraft{
		{Key: "a", Parent: &resource.Reference{ID: "id-b", Key: "b"}},
		category("b", "a"),
	}}
	assert.Empty(t, AnalyzeCycles(doc))
}

func TestAnalyzeCyclesProductReferences(t *testing.T) {
	ref := func(key string) resource.Attribute {
		return resource.Attribute{Name: "related", Reference: resource.RefByKey(key)}
	}
	doc := Document[resource.ProductDraft]{Drafts: []resource.ProductDraft{
		{Key: "p2", Attributes: []resource.Attribute{ref("p1")}},
		{Key: "p1", Attributes: []resource.Attribute{ref("p2")}},
		{Key: "q2", Attributes: []resource.Attribute{ref("q1")}},
		{Key: "q1", Attributes: []resource.Attribute{ref("q2")}},
	}}

	warnings := AnalyzeCycles(doc)
	require.Len(t, warnings, 2)
	assert.Equal(t, []string{"p1", "p2", "p1"}, warnings[0].Path)
	assert.Equal(t, []string{"q1", "q2", "q1"}, warnings[1].Path)
}

func TestAnalyzeCyclesOtherKinds(t *testing.T) {
	assert.Empty(t, AnalyzeCycles(Document[resource.TypeDraft]{Drafts: []resource.TypeDraft{{Key: "t"}}}))
}

package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catalogsync/internal/backend"
	"github.com/roach88/catalogsync/internal/catalog"
	"github.com/roach88/catalogsync/internal/resource"
)

func sampleResult() *Result {
	r := NewResult()
	r.addWrite(TraceEvent{Kind: "category", Operation: OpCreate, Key: "shoes", Outcome: OutcomeOK})
	r.addWrite(TraceEvent{Kind: "category", Operation: OpCreate, Key: "boots", Outcome: OutcomeOK})
	r.addWrite(TraceEvent{Kind: "category", Operation: OpUpdate, Key: "shoes", Actions: []string{"changeName", "changeSlug"}, Outcome: OutcomeConflict})
	r.addWrite(TraceEvent{Kind: "category", Operation: OpUpdate, Key: "shoes", Actions: []string{"changeName", "changeSlug"}, Outcome: OutcomeOK})

	shoes := resource.NewCategory("cat-1", 3, resource.CategoryDraft{
		Key:  "shoes",
		Name: resource.LocalizedString{"en": "Footwear"},
		Slug: resource.LocalizedString{"en": "shoes"},
	})
	boots := resource.NewCategory("cat-2", 1, resource.CategoryDraft{
		Key:    "boots",
		Name:   resource.LocalizedString{"en": "Boots"},
		Slug:   resource.LocalizedString{"en": "boots"},
		Parent: resource.RefByID("cat-1"),
	})
	r.State = catalog.State{
		Categories:    []resource.Category{boots, shoes},
		TaxCategories: []backend.KeyedEntity{{Meta: resource.Meta{ID: "tax-1", Version: 1}, Key: "standard"}},
		Products: []resource.Product{resource.NewProduct("p-1", 1, resource.ProductDraft{
			Key:         "tee",
			ProductType: resource.RefByID("pt-1"),
			Name:        resource.LocalizedString{"en": "Tee"},
			Slug:        resource.LocalizedString{"en": "tee"},
			Categories:  []resource.Reference{{ID: "cat-2"}, {ID: "cat-1"}},
			TaxCategory: resource.RefByID("tax-1"),
		})},
	}
	return r
}

func TestAddWrite_NumbersEvents(t *testing.T) {
	r := sampleResult()
	for i, ev := range r.Trace {
		assert.Equal(t, i+1, ev.Seq)
	}
}

func TestAddError_FailsResult(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}

func TestEvaluateAssertions(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"contains create", Assertion{Type: AssertWriteContains, Key: "boots", Operation: OpCreate}, ""},
		{"contains actions subset", Assertion{Type: AssertWriteContains, Key: "shoes", Actions: []string{"changeSlug"}}, ""},
		{"contains conflict", Assertion{Type: AssertWriteContains, Key: "shoes", Outcome: OutcomeConflict}, ""},
		{"contains missing action", Assertion{Type: AssertWriteContains, Key: "shoes", Actions: []string{"changeParent"}}, "not found in trace"},
		{"contains wrong kind", Assertion{Type: AssertWriteContains, Kind: "product", Key: "shoes"}, "not found in trace"},
		{"order", Assertion{Type: AssertWriteOrder, Keys: []string{"shoes", "boots"}}, ""},
		{"order reversed", Assertion{Type: AssertWriteOrder, Keys: []string{"boots", "shoes"}}, `"boots" (seq 2) written after "shoes" (seq 1)`},
		{"order never written", Assertion{Type: AssertWriteOrder, Keys: []string{"shoes", "sandals"}}, `"sandals" never written`},
		{"count all", Assertion{Type: AssertWriteCount, Key: "shoes", Count: 3}, ""},
		{"count updates", Assertion{Type: AssertWriteCount, Key: "shoes", Operation: OpUpdate, Count: 2}, ""},
		{"count mismatch", Assertion{Type: AssertWriteCount, Key: "boots", Count: 2}, "1 writes"},
		{"state subset", Assertion{Type: AssertFinalState, Kind: "category", Key: "shoes", Expect: map[string]any{"version": 3, "name": map[string]any{"en": "Footwear"}}}, ""},
		{"state exists", Assertion{Type: AssertFinalState, Kind: "category", Key: "boots"}, ""},
		{"state mismatch", Assertion{Type: AssertFinalState, Kind: "category", Key: "shoes", Expect: map[string]any{"version": 1}}, "shoes.version = 1"},
		{"state missing field", Assertion{Type: AssertFinalState, Kind: "category", Key: "shoes", Expect: map[string]any{"orderHint": "0.5"}}, "field missing"},
		{"state missing entity", Assertion{Type: AssertFinalState, Kind: "category", Key: "sandals"}, "entity not found"},
		{"state absent", Assertion{Type: AssertFinalState, Kind: "category", Key: "sandals", Absent: true}, ""},
		{"state not absent", Assertion{Type: AssertFinalState, Kind: "category", Key: "shoes", Absent: true}, "entity exists"},
		{"state unknown kind", Assertion{Type: AssertFinalState, Kind: "coupon", Key: "x"}, `unknown kind "coupon"`},
		{"reference", Assertion{Type: AssertReference, Kind: "category", Key: "boots", Field: "parent", Target: "shoes"}, ""},
		{"reference wrong target", Assertion{Type: AssertReference, Kind: "category", Key: "shoes", Field: "parent", Target: "boots"}, "shoes.parent -> category"},
		{"reference list", Assertion{Type: AssertReference, Kind: "product", Key: "tee", Field: "categories", Target: "shoes", TargetKind: "category"}, ""},
		{"reference other kind", Assertion{Type: AssertReference, Kind: "product", Key: "tee", Field: "taxCategory", Target: "standard", TargetKind: "tax-category"}, ""},
		{"reference missing target", Assertion{Type: AssertReference, Kind: "category", Key: "boots", Field: "parent", Target: "sandals"}, "target not found"},
		{"unknown type", Assertion{Type: "trace_contains"}, "unknown assertion type"},
	}

	r := sampleResult()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(r, []Assertion{tt.assertion})
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestAssertionError_ListsWrites(t *testing.T) {
	err := &AssertionError{
		Type:     AssertWriteCount,
		Expected: "2 writes",
		Actual:   "1 writes",
		Trace:    []TraceEvent{{Seq: 1, Kind: "category", Operation: OpCreate, Key: "shoes", Outcome: OutcomeOK}},
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: write_count")
	assert.Contains(t, msg, "[1] create category shoes [] ok")
}

func TestSubset(t *testing.T) {
	actual := map[string]any{
		"name":  map[string]any{"en": "A", "de": "B"},
		"attrs": []any{map[string]any{"name": "size", "isSearchable": true}},
	}
	assert.True(t, subset(actual, map[string]any{"name": map[string]any{"en": "A"}}))
	assert.True(t, subset(actual, map[string]any{"attrs": []any{map[string]any{"name": "size"}}}))
	assert.False(t, subset(actual, map[string]any{"attrs": []any{}}))
	assert.False(t, subset(actual, map[string]any{"name": "A"}))
}

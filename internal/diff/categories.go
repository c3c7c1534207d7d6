package diff

import (
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/roach88/catalogsync/internal/resource"
)

var valueOpts = cmp.Options{cmpopts.EquateEmpty()}

// sameValue compares attribute or custom-field values structurally.
func sameValue(a, b any) bool {
	return cmp.Equal(a, b, valueOpts)
}

// BuildCategoryActions diffs a category against its resolved draft.
//
// An absent parent or order hint in the draft leaves the existing value in
// place; the backend offers no action to clear them.
func BuildCategoryActions(old resource.Category, draft resource.CategoryDraft) (Result, error) {
	var res Result
	if !old.Name.Equal(draft.Name) {
		res.add(resource.ChangeName{Name: draft.Name})
	}
	if !old.Slug.Equal(draft.Slug) {
		res.add(resource.ChangeSlug{Slug: draft.Slug})
	}
	if !old.Description.Equal(draft.Description) {
		res.add(resource.SetDescription{Description: draft.Description})
	}
	if !draft.Parent.IsBlank() && !resource.SameTarget(old.Parent, draft.Parent) {
		res.add(resource.ChangeParent{Parent: *draft.Parent})
	}
	if draft.OrderHint != "" && old.OrderHint != draft.OrderHint {
		res.add(resource.ChangeOrderHint{OrderHint: draft.OrderHint})
	}
	if old.ExternalID != draft.ExternalID {
		res.add(resource.SetExternalID{ExternalID: draft.ExternalID})
	}
	if !old.MetaTitle.Equal(draft.MetaTitle) {
		res.add(resource.SetMetaTitle{MetaTitle: draft.MetaTitle})
	}
	if !old.MetaDescription.Equal(draft.MetaDescription) {
		res.add(resource.SetMetaDescription{MetaDescription: draft.MetaDescription})
	}
	res.add(customFieldActions(old.Custom, draft.Custom)...)
	return res, nil
}

// customFieldActions replaces the whole custom block when the type changes,
// otherwise sets each changed field in name order.
func customFieldActions(old, draft *resource.CustomFields) []resource.Action {
	switch {
	case draft == nil && old == nil:
		return nil
	case draft == nil:
		return []resource.Action{resource.SetCustomType{}}
	case old == nil || !resource.SameTarget(old.Type, draft.Type):
		return []resource.Action{resource.SetCustomType{Type: draft.Type, Fields: draft.Fields}}
	}

	names := map[string]bool{}
	for n := range old.Fields {
		names[n] = true
	}
	for n := range draft.Fields {
		names[n] = true
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	var actions []resource.Action
	for _, n := range sorted {
		if !sameValue(old.Fields[n], draft.Fields[n]) {
			actions = append(actions, resource.SetCustomField{Name: n, Value: draft.Fields[n]})
		}
	}
	return actions
}

package diff

import (
	"github.com/roach88/catalogsync/internal/resource"
)

// Enum describes how to reconcile the values of one enum.
type Enum[V any] struct {
	Collection string

	Key func(V) string

	// Remove receives every removed key. nil when removal is unsupported;
	// removed keys are then reported as a warning.
	Remove func(keys []string) resource.Action

	// Change returns actions for a value present on both sides.
	Change func(old, new V) []resource.Action

	Add func(V) resource.Action

	// Reorder receives the complete draft values in order.
	Reorder func(values []V) resource.Action
}

// ReconcileEnums diffs old against new enum values. skipped is non-nil when
// removals were dropped because the kind cannot remove enum values.
func ReconcileEnums[V any](old, new []V, e Enum[V]) (actions []resource.Action, skipped *UnsupportedChangeWarning, err error) {
	if err := checkUnique(e.Collection, old, e.Key); err != nil {
		return nil, nil, err
	}
	if err := checkUnique(e.Collection, new, e.Key); err != nil {
		return nil, nil, err
	}

	newByKey := make(map[string]V, len(new))
	newKeys := make([]string, len(new))
	for i, n := range new {
		newKeys[i] = e.Key(n)
		newByKey[newKeys[i]] = n
	}
	oldKeys := make([]string, len(old))
	oldSet := make(map[string]bool, len(old))
	for i, o := range old {
		oldKeys[i] = e.Key(o)
		oldSet[oldKeys[i]] = true
	}

	var removed []string
	for _, k := range oldKeys {
		if _, ok := newByKey[k]; !ok {
			removed = append(removed, k)
		}
	}
	if len(removed) > 0 {
		if e.Remove != nil {
			actions = append(actions, e.Remove(removed))
		} else {
			skipped = &UnsupportedChangeWarning{
				Collection: e.Collection,
				Keys:       removed,
				Reason:     "enum values cannot be removed from this resource kind; they are kept",
			}
		}
	}

	if e.Change != nil {
		for _, o := range old {
			if n, ok := newByKey[e.Key(o)]; ok {
				actions = append(actions, e.Change(o, n)...)
			}
		}
	}

	for _, n := range new {
		if !oldSet[e.Key(n)] {
			actions = append(actions, e.Add(n))
		}
	}

	if e.Reorder != nil && orderChanged(oldKeys, newKeys) {
		actions = append(actions, e.Reorder(new))
	}
	return actions, skipped, nil
}

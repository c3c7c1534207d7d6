package diff

import (
	"slices"

	"github.com/roach88/catalogsync/internal/resource"
)

// Keyed describes how to reconcile one ordered, keyed child collection.
type Keyed[T any] struct {
	// Collection names the collection in errors.
	Collection string

	Key func(T) string

	// Replaced reports an incompatible structural change. Optional.
	Replaced func(old, new T) bool

	// Change returns the child-level actions for a child present on both sides.
	Change func(old, new T) ([]resource.Action, error)

	Add func(T) resource.Action

	// Remove is nil when the backend cannot remove children.
	Remove func(T) resource.Action

	// Reorder receives the complete draft order. Optional.
	Reorder func(keys []string) resource.Action
}

// ReconcileKeyed diffs old against new.
func ReconcileKeyed[T any](old, new []T, k Keyed[T]) ([]resource.Action, error) {
	if err := checkUnique(k.Collection, old, k.Key); err != nil {
		return nil, err
	}
	if err := checkUnique(k.Collection, new, k.Key); err != nil {
		return nil, err
	}

	newByKey := make(map[string]T, len(new))
	newKeys := make([]string, len(new))
	for i, n := range new {
		newKeys[i] = k.Key(n)
		newByKey[newKeys[i]] = n
	}
	oldKeys := make(map[string]bool, len(old))

	var actions []resource.Action
	// kept, replaced and added, concatenated, give the order the backend
	// holds once the actions are applied.
	var kept, replaced []string
	for _, o := range old {
		key := k.Key(o)
		oldKeys[key] = true
		n, ok := newByKey[key]
		switch {
		case !ok:
			if k.Remove != nil {
				actions = append(actions, k.Remove(o))
			}
		case k.Replaced != nil && k.Remove != nil && k.Replaced(o, n):
			actions = append(actions, k.Remove(o), k.Add(n))
			replaced = append(replaced, key)
		default:
			if k.Change != nil {
				sub, err := k.Change(o, n)
				if err != nil {
					return nil, err
				}
				actions = append(actions, sub...)
			}
			kept = append(kept, key)
		}
	}

	var added []string
	for _, n := range new {
		if key := k.Key(n); !oldKeys[key] {
			actions = append(actions, k.Add(n))
			added = append(added, key)
		}
	}

	if k.Reorder != nil {
		after := slices.Concat(kept, replaced, added)
		if !slices.Equal(after, newKeys) {
			actions = append(actions, k.Reorder(newKeys))
		}
	}
	return actions, nil
}

func checkUnique[T any](collection string, items []T, key func(T) string) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		k := key(it)
		if seen[k] {
			return &DuplicateKeyError{Collection: collection, Key: k}
		}
		seen[k] = true
	}
	return nil
}

// orderChanged compares the relative order of keys common to both sides,
// followed by draft-only keys, against the draft order.
func orderChanged(oldKeys, newKeys []string) bool {
	inNew := make(map[string]bool, len(newKeys))
	for _, k := range newKeys {
		inNew[k] = true
	}
	common := make(map[string]bool, len(oldKeys))
	all := make([]string, 0, len(newKeys))
	for _, k := range oldKeys {
		if inNew[k] {
			all = append(all, k)
			common[k] = true
		}
	}
	for _, k := range newKeys {
		if !common[k] {
			all = append(all, k)
		}
	}
	return !slices.Equal(all, newKeys)
}

package resource

import (
	"fmt"
	"slices"
)

func addPlainEnum(t *FieldType, v EnumValue) error {
	if slices.ContainsFunc(t.Values, func(e EnumValue) bool { return e.Key == v.Key }) {
		return fmt.Errorf("enum value %q already exists", v.Key)
	}
	t.Values = append(t.Values, v)
	return nil
}

func addLocalizedEnum(t *FieldType, v LocalizedEnumValue) error {
	if slices.ContainsFunc(t.LocalizedValues, func(e LocalizedEnumValue) bool { return e.Key == v.Key }) {
		return fmt.Errorf("enum value %q already exists", v.Key)
	}
	t.LocalizedValues = append(t.LocalizedValues, LocalizedEnumValue{Key: v.Key, Label: v.Label.Clone()})
	return nil
}

func relabelPlainEnum(t *FieldType, v EnumValue) error {
	i := slices.IndexFunc(t.Values, func(e EnumValue) bool { return e.Key == v.Key })
	if i < 0 {
		return fmt.Errorf("enum value %q does not exist", v.Key)
	}
	t.Values[i].Label = v.Label
	return nil
}

func relabelLocalizedEnum(t *FieldType, v LocalizedEnumValue) error {
	i := slices.IndexFunc(t.LocalizedValues, func(e LocalizedEnumValue) bool { return e.Key == v.Key })
	if i < 0 {
		return fmt.Errorf("enum value %q does not exist", v.Key)
	}
	t.LocalizedValues[i].Label = v.Label.Clone()
	return nil
}

func removeEnums(t *FieldType, keys []string) error {
	for _, k := range keys {
		pi := slices.IndexFunc(t.Values, func(e EnumValue) bool { return e.Key == k })
		li := slices.IndexFunc(t.LocalizedValues, func(e LocalizedEnumValue) bool { return e.Key == k })
		switch {
		case pi >= 0:
			t.Values = slices.Delete(t.Values, pi, pi+1)
		case li >= 0:
			t.LocalizedValues = slices.Delete(t.LocalizedValues, li, li+1)
		default:
			return fmt.Errorf("enum value %q does not exist", k)
		}
	}
	return nil
}

func reorderPlainEnum(t *FieldType, keys []string) error {
	ordered, err := reorderBy(t.Values, keys, func(e EnumValue) string { return e.Key })
	if err != nil {
		return err
	}
	t.Values = ordered
	return nil
}

func reorderLocalizedEnum(t *FieldType, keys []string) error {
	ordered, err := reorderBy(t.LocalizedValues, keys, func(e LocalizedEnumValue) string { return e.Key })
	if err != nil {
		return err
	}
	t.LocalizedValues = ordered
	return nil
}

// reorderBy arranges items in the order given by keys. Items whose key is not
// listed keep their relative order and follow the listed ones. Every listed
// key must exist.
func reorderBy[T any](items []T, keys []string, keyOf func(T) string) ([]T, error) {
	byKey := make(map[string]T, len(items))
	for _, it := range items {
		byKey[keyOf(it)] = it
	}
	listed := make(map[string]bool, len(keys))
	out := make([]T, 0, len(items))
	for _, k := range keys {
		it, ok := byKey[k]
		if !ok {
			return nil, fmt.Errorf("cannot reorder: %q does not exist", k)
		}
		listed[k] = true
		out = append(out, it)
	}
	for _, it := range items {
		if !listed[keyOf(it)] {
			out = append(out, it)
		}
	}
	return out, nil
}

package diff

import (
	"github.com/roach88/catalogsync/internal/resource"
)

// BuildTypeActions diffs a custom-field type against its draft.
//
// Enum values cannot be removed from type fields; such removals are skipped
// and reported as warnings.
func BuildTypeActions(old resource.Type, draft resource.TypeDraft) (Result, error) {
	var res Result
	if !old.Name.Equal(draft.Name) {
		res.add(resource.ChangeName{Name: draft.Name})
	}
	if !old.Description.Equal(draft.Description) {
		res.add(resource.SetDescription{Description: draft.Description})
	}

	fields, err := ReconcileKeyed(old.FieldDefinitions, draft.FieldDefinitions, Keyed[resource.FieldDefinition]{
		Collection: "fieldDefinitions",
		Key:        func(f resource.FieldDefinition) string { return f.Name },
		Replaced: func(o, n resource.FieldDefinition) bool {
			return !o.Type.SameStructure(n.Type)
		},
		Change: func(o, n resource.FieldDefinition) ([]resource.Action, error) {
			return fieldDefinitionActions(&res, o, n)
		},
		Add: func(f resource.FieldDefinition) resource.Action {
			return resource.AddFieldDefinition{FieldDefinition: f}
		},
		Remove: func(f resource.FieldDefinition) resource.Action {
			return resource.RemoveFieldDefinition{FieldName: f.Name}
		},
		Reorder: func(names []string) resource.Action {
			return resource.ChangeFieldDefinitionOrder{FieldNames: names}
		},
	})
	if err != nil {
		return Result{}, err
	}
	res.add(fields...)
	return res, nil
}

func fieldDefinitionActions(res *Result, o, n resource.FieldDefinition) ([]resource.Action, error) {
	var actions []resource.Action
	if !o.Label.Equal(n.Label) {
		actions = append(actions, resource.ChangeLabel{FieldName: n.Name, Label: n.Label})
	}
	if o.InputHint != n.InputHint && n.InputHint != "" {
		actions = append(actions, resource.ChangeInputHint{FieldName: n.Name, InputHint: n.InputHint})
	}
	if o.Required != n.Required {
		res.warn(&UnsupportedChangeWarning{
			Collection: "fieldDefinitions",
			Keys:       []string{n.Name},
			Reason:     "the required flag of a field definition cannot be changed",
		})
	}

	oe, ne := o.Type.EnumTarget(), n.Type.EnumTarget()
	if oe == nil || ne == nil {
		return actions, nil
	}
	collection := "fieldDefinitions[" + n.Name + "].values"

	var enumActions []resource.Action
	var skipped *UnsupportedChangeWarning
	var err error
	if ne.Name == resource.FieldEnum {
		enumActions, skipped, err = ReconcileEnums(oe.Values, ne.Values, Enum[resource.EnumValue]{
			Collection: collection,
			Key:        func(v resource.EnumValue) string { return v.Key },
			Change: func(ov, nv resource.EnumValue) []resource.Action {
				if ov.Label == nv.Label {
					return nil
				}
				return []resource.Action{resource.ChangeEnumValueLabel{FieldName: n.Name, Value: nv}}
			},
			Add: func(v resource.EnumValue) resource.Action {
				return resource.AddEnumValue{FieldName: n.Name, Value: v}
			},
			Reorder: func(values []resource.EnumValue) resource.Action {
				return resource.ChangeEnumValueOrder{FieldName: n.Name, Keys: keysOf(values, func(v resource.EnumValue) string { return v.Key })}
			},
		})
	} else {
		enumActions, skipped, err = ReconcileEnums(oe.LocalizedValues, ne.LocalizedValues, Enum[resource.LocalizedEnumValue]{
			Collection: collection,
			Key:        func(v resource.LocalizedEnumValue) string { return v.Key },
			Change: func(ov, nv resource.LocalizedEnumValue) []resource.Action {
				if ov.Label.Equal(nv.Label) {
					return nil
				}
				return []resource.Action{resource.ChangeLocalizedEnumValueLabel{FieldName: n.Name, Value: nv}}
			},
			Add: func(v resource.LocalizedEnumValue) resource.Action {
				return resource.AddLocalizedEnumValue{FieldName: n.Name, Value: v}
			},
			Reorder: func(values []resource.LocalizedEnumValue) resource.Action {
				return resource.ChangeLocalizedEnumValueOrder{FieldName: n.Name, Keys: keysOf(values, func(v resource.LocalizedEnumValue) string { return v.Key })}
			},
		})
	}
	if err != nil {
		return nil, err
	}
	if skipped != nil {
		res.warn(skipped)
	}
	return append(actions, enumActions...), nil
}

func keysOf[T any](items []T, key func(T) string) []string {
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = key(it)
	}
	return keys
}

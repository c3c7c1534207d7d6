package diff

import (
	"github.com/roach88/catalogsync/internal/resource"
)

// BuildProductTypeActions diffs a product type against its draft.
func BuildProductTypeActions(old resource.ProductType, draft resource.ProductTypeDraft) (Result, error) {
	var res Result
	if old.Name != draft.Name {
		res.add(resource.ChangeProductTypeName{Name: draft.Name})
	}
	if old.Description != draft.Description {
		res.add(resource.ChangeProductTypeDescription{Description: draft.Description})
	}

	attrs, err := ReconcileKeyed(old.Attributes, draft.Attributes, Keyed[resource.AttributeDefinition]{
		Collection: "attributes",
		Key:        func(a resource.AttributeDefinition) string { return a.Name },
		Replaced: func(o, n resource.AttributeDefinition) bool {
			return !o.Type.SameStructure(n.Type)
		},
		Change: func(o, n resource.AttributeDefinition) ([]resource.Action, error) {
			return attributeDefinitionActions(&res, o, n)
		},
		Add: func(a resource.AttributeDefinition) resource.Action {
			return resource.AddAttributeDefinition{Attribute: a}
		},
		Remove: func(a resource.AttributeDefinition) resource.Action {
			return resource.RemoveAttributeDefinition{Name: a.Name}
		},
		Reorder: func(names []string) resource.Action {
			return resource.ChangeAttributeOrderByName{AttributeNames: names}
		},
	})
	if err != nil {
		return Result{}, err
	}
	res.add(attrs...)
	return res, nil
}

func attributeDefinitionActions(res *Result, o, n resource.AttributeDefinition) ([]resource.Action, error) {
	var actions []resource.Action
	if !o.Label.Equal(n.Label) {
		actions = append(actions, resource.ChangeAttributeDefinitionLabel{AttributeName: n.Name, Label: n.Label})
	}
	if o.InputHint != n.InputHint && n.InputHint != "" {
		actions = append(actions, resource.ChangeAttributeInputHint{AttributeName: n.Name, NewValue: n.InputHint})
	}
	if o.IsSearchable != n.IsSearchable {
		actions = append(actions, resource.ChangeIsSearchable{AttributeName: n.Name, IsSearchable: n.IsSearchable})
	}
	if o.AttributeConstraint != n.AttributeConstraint && n.AttributeConstraint != "" {
		actions = append(actions, resource.ChangeAttributeConstraint{AttributeName: n.Name, NewValue: n.AttributeConstraint})
	}
	if o.IsRequired != n.IsRequired {
		res.warn(&UnsupportedChangeWarning{
			Collection: "attributes",
			Keys:       []string{n.Name},
			Reason:     "the isRequired flag of an attribute definition cannot be changed",
		})
	}

	oe, ne := o.Type.EnumTarget(), n.Type.EnumTarget()
	if oe == nil || ne == nil {
		return actions, nil
	}
	collection := "attributes[" + n.Name + "].values"
	remove := func(keys []string) resource.Action {
		return resource.RemoveEnumValues{AttributeName: n.Name, Keys: keys}
	}

	var enumActions []resource.Action
	var err error
	if ne.Name == resource.FieldEnum {
		enumActions, _, err = ReconcileEnums(oe.Values, ne.Values, Enum[resource.EnumValue]{
			Collection: collection,
			Key:        func(v resource.EnumValue) string { return v.Key },
			Remove:     remove,
			Change: func(ov, nv resource.EnumValue) []resource.Action {
				if ov.Label == nv.Label {
					return nil
				}
				return []resource.Action{resource.ChangePlainEnumValueLabel{AttributeName: n.Name, NewValue: nv}}
			},
			Add: func(v resource.EnumValue) resource.Action {
				return resource.AddPlainEnumValue{AttributeName: n.Name, Value: v}
			},
			Reorder: func(values []resource.EnumValue) resource.Action {
				return resource.ChangePlainEnumValueOrder{AttributeName: n.Name, Values: values}
			},
		})
	} else {
		enumActions, _, err = ReconcileEnums(oe.LocalizedValues, ne.LocalizedValues, Enum[resource.LocalizedEnumValue]{
			Collection: collection,
			Key:        func(v resource.LocalizedEnumValue) string { return v.Key },
			Remove:     remove,
			Change: func(ov, nv resource.LocalizedEnumValue) []resource.Action {
				if ov.Label.Equal(nv.Label) {
					return nil
				}
				return []resource.Action{resource.ChangeAttributeLocalizedEnumValueLabel{AttributeName: n.Name, NewValue: nv}}
			},
			Add: func(v resource.LocalizedEnumValue) resource.Action {
				return resource.AddAttributeLocalizedEnumValue{AttributeName: n.Name, Value: v}
			},
			Reorder: func(values []resource.LocalizedEnumValue) resource.Action {
				return resource.ChangeAttributeLocalizedEnumValueOrder{AttributeName: n.Name, Values: values}
			},
		})
	}
	if err != nil {
		return nil, err
	}
	return append(actions, enumActions...), nil
}

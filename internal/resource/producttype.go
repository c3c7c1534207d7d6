package resource

import (
	"fmt"
	"slices"
)

// Attribute constraints.
const (
	ConstraintNone              = "None"
	ConstraintUnique            = "Unique"
	ConstraintCombinationUnique = "CombinationUnique"
	ConstraintSameForAll        = "SameForAll"
)

// AttributeDefinition declares one attribute of a ProductType.
type AttributeDefinition struct {
	Name                string          `json:"name" yaml:"name"`
	Label               LocalizedString `json:"label" yaml:"label"`
	IsRequired          bool            `json:"isRequired" yaml:"isRequired"`
	IsSearchable        bool            `json:"isSearchable" yaml:"isSearchable"`
	AttributeConstraint string          `json:"attributeConstraint,omitempty" yaml:"attributeConstraint,omitempty"`
	InputHint           string          `json:"inputHint,omitempty" yaml:"inputHint,omitempty"`
	Type                FieldType       `json:"type" yaml:"type"`
}

// Clone returns a deep copy of a.
func (a AttributeDefinition) Clone() AttributeDefinition {
	c := a
	c.Label = a.Label.Clone()
	c.Type = a.Type.Clone()
	return c
}

// ProductTypeDraft is the desired state of a product type.
type ProductTypeDraft struct {
	Key         string                `json:"key" yaml:"key"`
	Name        string                `json:"name" yaml:"name"`
	Description string                `json:"description" yaml:"description"`
	Attributes  []AttributeDefinition `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// GetKey returns the external key.
func (d ProductTypeDraft) GetKey() string { return d.Key }

// Clone returns a deep copy of d.
func (d ProductTypeDraft) Clone() ProductTypeDraft {
	c := d
	if d.Attributes != nil {
		c.Attributes = make([]AttributeDefinition, len(d.Attributes))
		for i, a := range d.Attributes {
			c.Attributes[i] = a.Clone()
		}
	}
	return c
}

// Attribute returns the definition named name.
func (d ProductTypeDraft) Attribute(name string) (AttributeDefinition, bool) {
	i := findAttribute(d.Attributes, name)
	if i < 0 {
		return AttributeDefinition{}, false
	}
	return d.Attributes[i], true
}

// ProductType is a product type as stored by the backend.
type ProductType struct {
	Meta             `yaml:",inline"`
	ProductTypeDraft `yaml:",inline"`
}

// NewProductType builds the entity the backend stores for a created draft.
func NewProductType(id string, version int64, d ProductTypeDraft) ProductType {
	return ProductType{Meta: Meta{ID: id, Version: version}, ProductTypeDraft: d.Clone()}
}

// ChangeProductTypeName sets the plain-text name of a product type.
type ChangeProductTypeName struct {
	Name string `json:"name"`
}

func (ChangeProductTypeName) ActionName() string { return "changeName" }

// ChangeProductTypeDescription sets the plain-text description of a product type.
type ChangeProductTypeDescription struct {
	Description string `json:"description"`
}

func (ChangeProductTypeDescription) ActionName() string { return "changeDescription" }

// AddAttributeDefinition appends an attribute definition.
type AddAttributeDefinition struct {
	Attribute AttributeDefinition `json:"attribute"`
}

func (AddAttributeDefinition) ActionName() string { return "addAttributeDefinition" }

// RemoveAttributeDefinition drops an attribute definition.
type RemoveAttributeDefinition struct {
	Name string `json:"name"`
}

func (RemoveAttributeDefinition) ActionName() string { return "removeAttributeDefinition" }

// ChangeAttributeDefinitionLabel changes an attribute label.
type ChangeAttributeDefinitionLabel struct {
	AttributeName string          `json:"attributeName"`
	Label         LocalizedString `json:"label"`
}

func (ChangeAttributeDefinitionLabel) ActionName() string { return "changeLabel" }

// ChangeAttributeInputHint changes an attribute input hint.
type ChangeAttributeInputHint struct {
	AttributeName string `json:"attributeName"`
	NewValue      string `json:"newValue"`
}

func (ChangeAttributeInputHint) ActionName() string { return "changeInputHint" }

// ChangeIsSearchable toggles attribute searchability.
type ChangeIsSearchable struct {
	AttributeName string `json:"attributeName"`
	IsSearchable  bool   `json:"isSearchable"`
}

func (ChangeIsSearchable) ActionName() string { return "changeIsSearchable" }

// ChangeAttributeConstraint changes an attribute constraint.
type ChangeAttributeConstraint struct {
	AttributeName string `json:"attributeName"`
	NewValue      string `json:"newValue"`
}

func (ChangeAttributeConstraint) ActionName() string { return "changeAttributeConstraint" }

// AddPlainEnumValue appends a plain enum value to an attribute.
type AddPlainEnumValue struct {
	AttributeName string    `json:"attributeName"`
	Value         EnumValue `json:"value"`
}

func (AddPlainEnumValue) ActionName() string { return "addPlainEnumValue" }

// AddAttributeLocalizedEnumValue appends a localized enum value to an attribute.
type AddAttributeLocalizedEnumValue struct {
	AttributeName string             `json:"attributeName"`
	Value         LocalizedEnumValue `json:"value"`
}

func (AddAttributeLocalizedEnumValue) ActionName() string { return "addLocalizedEnumValue" }

// RemoveEnumValues removes enum values of an attribute by key.
type RemoveEnumValues struct {
	AttributeName string   `json:"attributeName"`
	Keys          []string `json:"keys"`
}

func (RemoveEnumValues) ActionName() string { return "removeEnumValues" }

// ChangePlainEnumValueLabel changes the label of a plain enum value.
type ChangePlainEnumValueLabel struct {
	AttributeName string    `json:"attributeName"`
	NewValue      EnumValue `json:"newValue"`
}

func (ChangePlainEnumValueLabel) ActionName() string { return "changePlainEnumValueLabel" }

// ChangeAttributeLocalizedEnumValueLabel changes the label of a localized enum value.
type ChangeAttributeLocalizedEnumValueLabel struct {
	AttributeName string             `json:"attributeName"`
	NewValue      LocalizedEnumValue `json:"newValue"`
}

func (ChangeAttributeLocalizedEnumValueLabel) ActionName() string {
	return "changeLocalizedEnumValueLabel"
}

// ChangePlainEnumValueOrder sets the complete order of plain enum values.
type ChangePlainEnumValueOrder struct {
	AttributeName string      `json:"attributeName"`
	Values        []EnumValue `json:"values"`
}

func (ChangePlainEnumValueOrder) ActionName() string { return "changePlainEnumValueOrder" }

// ChangeAttributeLocalizedEnumValueOrder sets the complete order of localized enum values.
type ChangeAttributeLocalizedEnumValueOrder struct {
	AttributeName string               `json:"attributeName"`
	Values        []LocalizedEnumValue `json:"values"`
}

func (ChangeAttributeLocalizedEnumValueOrder) ActionName() string {
	return "changeLocalizedEnumValueOrder"
}

// ChangeAttributeOrderByName sets the complete order of attribute names.
type ChangeAttributeOrderByName struct {
	AttributeNames []string `json:"attributeNames"`
}

func (ChangeAttributeOrderByName) ActionName() string { return "changeAttributeOrderByName" }

// ApplyProductType returns p with actions applied in order.
func ApplyProductType(p ProductType, actions []Action) (ProductType, error) {
	out := ProductType{Meta: p.Meta, ProductTypeDraft: p.ProductTypeDraft.Clone()}
	for _, a := range actions {
		if err := applyProductTypeAction(&out.ProductTypeDraft, a); err != nil {
			return ProductType{}, err
		}
	}
	return out, nil
}

func applyProductTypeAction(d *ProductTypeDraft, a Action) error {
	switch act := a.(type) {
	case ChangeProductTypeName:
		d.Name = act.Name
	case ChangeProductTypeDescription:
		d.Description = act.Description
	case AddAttributeDefinition:
		if findAttribute(d.Attributes, act.Attribute.Name) >= 0 {
			return fmt.Errorf("attribute %q already exists", act.Attribute.Name)
		}
		d.Attributes = append(d.Attributes, act.Attribute.Clone())
	case RemoveAttributeDefinition:
		i := findAttribute(d.Attributes, act.Name)
		if i < 0 {
			return fmt.Errorf("attribute %q does not exist", act.Name)
		}
		d.Attributes = slices.Delete(d.Attributes, i, i+1)
	case ChangeAttributeDefinitionLabel:
		return withAttribute(d, act.AttributeName, func(ad *AttributeDefinition) error {
			ad.Label = act.Label.Clone()
			return nil
		})
	case ChangeAttributeInputHint:
		return withAttribute(d, act.AttributeName, func(ad *AttributeDefinition) error {
			ad.InputHint = act.NewValue
			return nil
		})
	case ChangeIsSearchable:
		return withAttribute(d, act.AttributeName, func(ad *AttributeDefinition) error {
			ad.IsSearchable = act.IsSearchable
			return nil
		})
	case ChangeAttributeConstraint:
		return withAttribute(d, act.AttributeName, func(ad *AttributeDefinition) error {
			ad.AttributeConstraint = act.NewValue
			return nil
		})
	case AddPlainEnumValue:
		return withAttributeEnum(d, act.AttributeName, func(t *FieldType) error {
			return addPlainEnum(t, act.Value)
		})
	case AddAttributeLocalizedEnumValue:
		return withAttributeEnum(d, act.AttributeName, func(t *FieldType) error {
			return addLocalizedEnum(t, act.Value)
		})
	case RemoveEnumValues:
		return withAttributeEnum(d, act.AttributeName, func(t *FieldType) error {
			return removeEnums(t, act.Keys)
		})
	case ChangePlainEnumValueLabel:
		return withAttributeEnum(d, act.AttributeName, func(t *FieldType) error {
			return relabelPlainEnum(t, act.NewValue)
		})
	case ChangeAttributeLocalizedEnumValueLabel:
		return withAttributeEnum(d, act.AttributeName, func(t *FieldType) error {
			return relabelLocalizedEnum(t, act.NewValue)
		})
	case ChangePlainEnumValueOrder:
		return withAttributeEnum(d, act.AttributeName, func(t *FieldType) error {
			return reorderPlainEnum(t, enumKeys(act.Values))
		})
	case ChangeAttributeLocalizedEnumValueOrder:
		return withAttributeEnum(d, act.AttributeName, func(t *FieldType) error {
			return reorderLocalizedEnum(t, localizedEnumKeys(act.Values))
		})
	case ChangeAttributeOrderByName:
		ordered, err := reorderBy(d.Attributes, act.AttributeNames, func(ad AttributeDefinition) string { return ad.Name })
		if err != nil {
			return err
		}
		d.Attributes = ordered
	default:
		return &UnsupportedActionError{Kind: KindProductType, Action: a.ActionName()}
	}
	return nil
}

func findAttribute(attrs []AttributeDefinition, name string) int {
	return slices.IndexFunc(attrs, func(a AttributeDefinition) bool { return a.Name == name })
}

func withAttribute(d *ProductTypeDraft, name string, fn func(*AttributeDefinition) error) error {
	i := findAttribute(d.Attributes, name)
	if i < 0 {
		return fmt.Errorf("attribute %q does not exist", name)
	}
	return fn(&d.Attributes[i])
}

func withAttributeEnum(d *ProductTypeDraft, name string, fn func(*FieldType) error) error {
	return withAttribute(d, name, func(ad *AttributeDefinition) error {
		target := ad.Type.EnumTarget()
		if target == nil {
			return fmt.Errorf("attribute %q is not an enum", name)
		}
		return fn(target)
	})
}

func enumKeys(values []EnumValue) []string {
	keys := make([]string, len(values))
	for i, v := range values {
		keys[i] = v.Key
	}
	return keys
}

func localizedEnumKeys(values []LocalizedEnumValue) []string {
	keys := make([]string, len(values))
	for i, v := range values {
		keys[i] = v.Key
	}
	return keys
}

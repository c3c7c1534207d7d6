package resource

import "slices"

// Field type names shared by type field definitions and product type
// attribute definitions.
const (
	FieldBoolean         = "Boolean"
	FieldString          = "String"
	FieldLocalizedString = "LocalizedString"
	FieldNumber          = "Number"
	FieldMoney           = "Money"
	FieldDate            = "Date"
	FieldEnum            = "Enum"
	FieldLocalizedEnum   = "LocalizedEnum"
	FieldReference       = "Reference"
	FieldSet             = "Set"
)

// EnumValue is a plain enum entry.
type EnumValue struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// LocalizedEnumValue is an enum entry with a translated label.
type LocalizedEnumValue struct {
	Key   string          `json:"key" yaml:"key"`
	Label LocalizedString `json:"label" yaml:"label"`
}

// FieldType describes the value type of a field or attribute.
//
// Values is populated for Enum, LocalizedValues for LocalizedEnum.
// ElementType is populated for Set. ReferenceTypeID is populated for Reference.
type FieldType struct {
	Name            string               `json:"name" yaml:"name"`
	Values          []EnumValue          `json:"values,omitempty" yaml:"values,omitempty"`
	LocalizedValues []LocalizedEnumValue `json:"localizedValues,omitempty" yaml:"localizedValues,omitempty"`
	ElementType     *FieldType           `json:"elementType,omitempty" yaml:"elementType,omitempty"`
	ReferenceTypeID string               `json:"referenceTypeId,omitempty" yaml:"referenceTypeId,omitempty"`
}

// SameStructure reports whether t and o have the same shape, ignoring enum
// values. A change of structure cannot be expressed as an in-place update.
func (t FieldType) SameStructure(o FieldType) bool {
	if t.Name != o.Name || t.ReferenceTypeID != o.ReferenceTypeID {
		return false
	}
	if (t.ElementType == nil) != (o.ElementType == nil) {
		return false
	}
	if t.ElementType != nil {
		return t.ElementType.SameStructure(*o.ElementType)
	}
	return true
}

// EnumTarget returns the type carrying enum values: t itself, or its set
// element type. It returns nil for non-enum types.
func (t *FieldType) EnumTarget() *FieldType {
	switch {
	case t == nil:
		return nil
	case t.Name == FieldEnum || t.Name == FieldLocalizedEnum:
		return t
	case t.Name == FieldSet:
		return t.ElementType.EnumTarget()
	}
	return nil
}

// Clone returns a deep copy of t.
func (t FieldType) Clone() FieldType {
	c := t
	c.Values = slices.Clone(t.Values)
	if t.LocalizedValues != nil {
		c.LocalizedValues = make([]LocalizedEnumValue, len(t.LocalizedValues))
		for i, v := range t.LocalizedValues {
			c.LocalizedValues[i] = LocalizedEnumValue{Key: v.Key, Label: v.Label.Clone()}
		}
	}
	if t.ElementType != nil {
		et := t.ElementType.Clone()
		c.ElementType = &et
	}
	return c
}

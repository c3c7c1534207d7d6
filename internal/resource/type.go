package resource

import (
	"fmt"
	"slices"
)

// FieldDefinition declares one custom field of a Type.
type FieldDefinition struct {
	Name      string          `json:"name" yaml:"name"`
	Label     LocalizedString `json:"label" yaml:"label"`
	Required  bool            `json:"required" yaml:"required"`
	InputHint string          `json:"inputHint,omitempty" yaml:"inputHint,omitempty"`
	Type      FieldType       `json:"type" yaml:"type"`
}

// Clone returns a deep copy of f.
func (f FieldDefinition) Clone() FieldDefinition {
	c := f
	c.Label = f.Label.Clone()
	c.Type = f.Type.Clone()
	return c
}

// TypeDraft is the desired state of a custom-field type.
type TypeDraft struct {
	Key              string            `json:"key" yaml:"key"`
	Name             LocalizedString   `json:"name" yaml:"name"`
	Description      LocalizedString   `json:"description,omitempty" yaml:"description,omitempty"`
	ResourceTypeIDs  []string          `json:"resourceTypeIds,omitempty" yaml:"resourceTypeIds,omitempty"`
	FieldDefinitions []FieldDefinition `json:"fieldDefinitions,omitempty" yaml:"fieldDefinitions,omitempty"`
}

// GetKey returns the external key.
func (d TypeDraft) GetKey() string { return d.Key }

// Clone returns a deep copy of d.
func (d TypeDraft) Clone() TypeDraft {
	c := d
	c.Name = d.Name.Clone()
	c.Description = d.Description.Clone()
	c.ResourceTypeIDs = slices.Clone(d.ResourceTypeIDs)
	if d.FieldDefinitions != nil {
		c.FieldDefinitions = make([]FieldDefinition, len(d.FieldDefinitions))
		for i, f := range d.FieldDefinitions {
			c.FieldDefinitions[i] = f.Clone()
		}
	}
	return c
}

// Type is a custom-field type as stored by the backend.
type Type struct {
	Meta      `yaml:",inline"`
	TypeDraft `yaml:",inline"`
}

// NewType builds the entity the backend stores for a created draft.
func NewType(id string, version int64, d TypeDraft) Type {
	return Type{Meta: Meta{ID: id, Version: version}, TypeDraft: d.Clone()}
}

// AddFieldDefinition appends a field definition.
type AddFieldDefinition struct {
	FieldDefinition FieldDefinition `json:"fieldDefinition"`
}

func (AddFieldDefinition) ActionName() string { return "addFieldDefinition" }

// RemoveFieldDefinition drops a field definition.
type RemoveFieldDefinition struct {
	FieldName string `json:"fieldName"`
}

func (RemoveFieldDefinition) ActionName() string { return "removeFieldDefinition" }

// ChangeLabel changes a field definition label.
type ChangeLabel struct {
	FieldName string          `json:"fieldName"`
	Label     LocalizedString `json:"label"`
}

func (ChangeLabel) ActionName() string { return "changeLabel" }

// ChangeInputHint changes a field definition input hint.
type ChangeInputHint struct {
	FieldName string `json:"fieldName"`
	InputHint string `json:"inputHint"`
}

func (ChangeInputHint) ActionName() string { return "changeInputHint" }

// AddEnumValue appends a plain enum value to a field.
type AddEnumValue struct {
	FieldName string    `json:"fieldName"`
	Value     EnumValue `json:"value"`
}

func (AddEnumValue) ActionName() string { return "addEnumValue" }

// AddLocalizedEnumValue appends a localized enum value to a field.
type AddLocalizedEnumValue struct {
	FieldName string             `json:"fieldName"`
	Value     LocalizedEnumValue `json:"value"`
}

func (AddLocalizedEnumValue) ActionName() string { return "addLocalizedEnumValue" }

// ChangeEnumValueLabel changes the label of a plain enum value.
type ChangeEnumValueLabel struct {
	FieldName string    `json:"fieldName"`
	Value     EnumValue `json:"value"`
}

func (ChangeEnumValueLabel) ActionName() string { return "changeEnumValueLabel" }

// ChangeLocalizedEnumValueLabel changes the label of a localized enum value.
type ChangeLocalizedEnumValueLabel struct {
	FieldName string             `json:"fieldName"`
	Value     LocalizedEnumValue `json:"value"`
}

func (ChangeLocalizedEnumValueLabel) ActionName() string { return "changeLocalizedEnumValueLabel" }

// ChangeEnumValueOrder sets the complete order of plain enum keys.
type ChangeEnumValueOrder struct {
	FieldName string   `json:"fieldName"`
	Keys      []string `json:"keys"`
}

func (ChangeEnumValueOrder) ActionName() string { return "changeEnumValueOrder" }

// ChangeLocalizedEnumValueOrder sets the complete order of localized enum keys.
type ChangeLocalizedEnumValueOrder struct {
	FieldName string   `json:"fieldName"`
	Keys      []string `json:"keys"`
}

func (ChangeLocalizedEnumValueOrder) ActionName() string { return "changeLocalizedEnumValueOrder" }

// ChangeFieldDefinitionOrder sets the complete order of field names.
type ChangeFieldDefinitionOrder struct {
	FieldNames []string `json:"fieldNames"`
}

func (ChangeFieldDefinitionOrder) ActionName() string { return "changeFieldDefinitionOrder" }

// ApplyType returns t with actions applied in order, the way the backend
// would. The version is not touched.
func ApplyType(t Type, actions []Action) (Type, error) {
	out := Type{Meta: t.Meta, TypeDraft: t.TypeDraft.Clone()}
	for _, a := range actions {
		if err := applyTypeAction(&out.TypeDraft, a); err != nil {
			return Type{}, err
		}
	}
	return out, nil
}

func applyTypeAction(d *TypeDraft, a Action) error {
	switch act := a.(type) {
	case ChangeName:
		d.Name = act.Name.Clone()
	case SetDescription:
		d.Description = act.Description.Clone()
	case AddFieldDefinition:
		if findField(d.FieldDefinitions, act.FieldDefinition.Name) >= 0 {
			return fmt.Errorf("field %q already exists", act.FieldDefinition.Name)
		}
		d.FieldDefinitions = append(d.FieldDefinitions, act.FieldDefinition.Clone())
	case RemoveFieldDefinition:
		i := findField(d.FieldDefinitions, act.FieldName)
		if i < 0 {
			return fmt.Errorf("field %q does not exist", act.FieldName)
		}
		d.FieldDefinitions = slices.Delete(d.FieldDefinitions, i, i+1)
	case ChangeLabel:
		return withField(d, act.FieldName, func(f *FieldDefinition) error {
			f.Label = act.Label.Clone()
			return nil
		})
	case ChangeInputHint:
		return withField(d, act.FieldName, func(f *FieldDefinition) error {
			f.InputHint = act.InputHint
			return nil
		})
	case AddEnumValue:
		return withEnum(d, act.FieldName, func(t *FieldType) error {
			return addPlainEnum(t, act.Value)
		})
	case AddLocalizedEnumValue:
		return withEnum(d, act.FieldName, func(t *FieldType) error {
			return addLocalizedEnum(t, act.Value)
		})
	case ChangeEnumValueLabel:
		return withEnum(d, act.FieldName, func(t *FieldType) error {
			return relabelPlainEnum(t, act.Value)
		})
	case ChangeLocalizedEnumValueLabel:
		return withEnum(d, act.FieldName, func(t *FieldType) error {
			return relabelLocalizedEnum(t, act.Value)
		})
	case ChangeEnumValueOrder:
		return withEnum(d, act.FieldName, func(t *FieldType) error {
			return reorderPlainEnum(t, act.Keys)
		})
	case ChangeLocalizedEnumValueOrder:
		return withEnum(d, act.FieldName, func(t *FieldType) error {
			return reorderLocalizedEnum(t, act.Keys)
		})
	case ChangeFieldDefinitionOrder:
		ordered, err := reorderBy(d.FieldDefinitions, act.FieldNames, func(f FieldDefinition) string { return f.Name })
		if err != nil {
			return err
		}
		d.FieldDefinitions = ordered
	default:
		return &UnsupportedActionError{Kind: KindType, Action: a.ActionName()}
	}
	return nil
}

func findField(fields []FieldDefinition, name string) int {
	return slices.IndexFunc(fields, func(f FieldDefinition) bool { return f.Name == name })
}

func withField(d *TypeDraft, name string, fn func(*FieldDefinition) error) error {
	i := findField(d.FieldDefinitions, name)
	if i < 0 {
		return fmt.Errorf("field %q does not exist", name)
	}
	return fn(&d.FieldDefinitions[i])
}

func withEnum(d *TypeDraft, name string, fn func(*FieldType) error) error {
	return withField(d, name, func(f *FieldDefinition) error {
		target := f.Type.EnumTarget()
		if target == nil {
			return fmt.Errorf("field %q is not an enum", name)
		}
		return fn(target)
	})
}

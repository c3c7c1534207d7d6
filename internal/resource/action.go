package resource

import (
	"encoding/json"
	"fmt"
)

// Action is a single update operation targeting one entity.
type Action interface {
	// ActionName is the backend's name for the operation, e.g. "changeName".
	ActionName() string
}

// EncodeAction returns the wire form of a: its fields plus an "action"
// discriminator.
func EncodeAction(a Action) (map[string]any, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", a.ActionName(), err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("encode %s: %w", a.ActionName(), err)
	}
	out["action"] = a.ActionName()
	return out, nil
}

// EncodeActions encodes every action in order.
func EncodeActions(actions []Action) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(actions))
	for _, a := range actions {
		enc, err := EncodeAction(a)
		if err != nil {
			return nil, err
		}
		out = append(out, enc)
	}
	return out, nil
}

// ActionNames lists the names of actions in order.
func ActionNames(actions []Action) []string {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.ActionName()
	}
	return names
}

// UnsupportedActionError is returned by Apply functions for actions that do
// not belong to the entity kind.
type UnsupportedActionError struct {
	Kind   string
	Action string
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("%s does not support action %q", e.Kind, e.Action)
}

// Shared actions for localized content fields.

// ChangeName sets a localized name.
type ChangeName struct {
	Name LocalizedString `json:"name"`
}

func (ChangeName) ActionName() string { return "changeName" }

// ChangeSlug sets a localized slug.
type ChangeSlug struct {
	Slug LocalizedString `json:"slug"`
}

func (ChangeSlug) ActionName() string { return "changeSlug" }

// SetDescription sets or clears a localized description.
type SetDescription struct {
	Description LocalizedString `json:"description,omitempty"`
}

func (SetDescription) ActionName() string { return "setDescription" }

package diff

import (
	"fmt"
	"strings"
)

// DuplicateKeyError reports two sibling elements sharing a key.
type DuplicateKeyError struct {
	// Collection names the child collection, e.g. "fieldDefinitions".
	Collection string
	Key        string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s contains duplicate key %q; keys are expected to be unique", e.Collection, e.Key)
}

// AttributeMetadataMissingError reports a product attribute that its
// product type does not declare. Only that attribute is skipped.
type AttributeMetadataMissingError struct {
	ProductKey  string
	Attribute   string
	ProductType string
}

func (e *AttributeMetadataMissingError) Error() string {
	return fmt.Sprintf("product %q: attribute %q is not defined by product type %q",
		e.ProductKey, e.Attribute, e.ProductType)
}

// UnsupportedChangeWarning reports a difference the backend cannot apply.
type UnsupportedChangeWarning struct {
	Collection string
	Keys       []string
	Reason     string
}

func (w *UnsupportedChangeWarning) Error() string {
	if len(w.Keys) == 0 {
		return fmt.Sprintf("%s: %s", w.Collection, w.Reason)
	}
	return fmt.Sprintf("%s [%s]: %s", w.Collection, strings.Join(w.Keys, ", "), w.Reason)
}

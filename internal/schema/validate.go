package schema

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/catalogsync/internal/resource"
)

// Validation error codes (E100-E199)
const (
	ErrUnsupportedDrafts = "E100" // unsupported draft type

	ErrBlankKey         = "E101" // draft without key
	ErrDuplicateKey     = "E102" // key repeated within a file
	ErrDuplicateName    = "E103" // field, attribute or enum key repeated
	ErrSelfReference    = "E104" // draft references itself
	ErrUUIDKey          = "E105" // reference key shaped like an id
	ErrBlankReference   = "E106" // present or required reference without key or id
	ErrMissingEnumValue = "E107" // enum type without values
)

// ValidationError is a semantic problem in a draft file. Structural
// problems are reported by Decode as DecodeError.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks the drafts of a decoded document. It returns every
// problem found.
//
// Problems reported here do not stop a run: the synchronizer fails the
// affected drafts itself.
func Validate[D any](doc Document[D]) []ValidationError {
	v := &validator{lines: doc.Lines}
	switch drafts := any(doc.Drafts).(type) {
	case []resource.TypeDraft:
		v.keys(len(drafts), func(i int) string { return drafts[i].Key })
		for i, d := range drafts {
			v.typeDraft(i, d)
		}
	case []resource.ProductTypeDraft:
		v.keys(len(drafts), func(i int) string { return drafts[i].Key })
		for i, d := range drafts {
			v.productTypeDraft(i, d)
		}
	case []resource.CategoryDraft:
		v.keys(len(drafts), func(i int) string { return drafts[i].Key })
		for i, d := range drafts {
			v.categoryDraft(i, d)
		}
	case []resource.ProductDraft:
		v.keys(len(drafts), func(i int) string { return drafts[i].Key })
		for i, d := range drafts {
			v.productDraft(i, d)
		}
	default:
		return []ValidationError{{
			Field:   "drafts",
			Message: fmt.Sprintf("unsupported draft type: %T", doc.Drafts),
			Code:    ErrUnsupportedDrafts,
		}}
	}
	return v.errs
}

type validator struct {
	lines []int
	errs  []ValidationError
}

func (v *validator) add(i int, field, code, format string, args ...any) {
	line := 0
	if i < len(v.lines) {
		line = v.lines[i]
	}
	v.errs = append(v.errs, ValidationError{
		Field:   fmt.Sprintf("[%d].%s", i, field),
		Message: fmt.Sprintf(format, args...),
		Code:    code,
		Line:    line,
	})
}

func (v *validator) keys(n int, key func(int) string) {
	seen := make(map[string]int, n)
	for i := range n {
		k := key(i)
		if strings.TrimSpace(k) == "" {
			v.add(i, "key", ErrBlankKey, "key is required and must be non-empty")
			continue
		}
		if first, ok := seen[k]; ok {
			v.add(i, "key", ErrDuplicateKey, "duplicate key %q, first used by draft %d", k, first)
			continue
		}
		seen[k] = i
	}
}

func (v *validator) typeDraft(i int, d resource.TypeDraft) {
	names := map[string]bool{}
	for j, f := range d.FieldDefinitions {
		field := fmt.Sprintf("fieldDefinitions[%d]", j)
		if names[f.Name] {
			v.add(i, field+".name", ErrDuplicateName, "duplicate field definition name: %q", f.Name)
		}
		names[f.Name] = true
		v.fieldType(i, field+".type", f.Type)
	}
}

func (v *validator) productTypeDraft(i int, d resource.ProductTypeDraft) {
	names := map[string]bool{}
	for j, a := range d.Attributes {
		field := fmt.Sprintf("attributes[%d]", j)
		if names[a.Name] {
			v.add(i, field+".name", ErrDuplicateName, "duplicate attribute name: %q", a.Name)
		}
		names[a.Name] = true
		v.fieldType(i, field+".type", a.Type)
	}
}

// fieldType checks enum values, including those of set elements.
func (v *validator) fieldType(i int, field string, t resource.FieldType) {
	target := t.EnumTarget()
	if target == nil {
		return
	}
	var keys []string
	switch target.Name {
	case resource.FieldEnum:
		for _, e := range target.Values {
			keys = append(keys, e.Key)
		}
	case resource.FieldLocalizedEnum:
		for _, e := range target.LocalizedValues {
			keys = append(keys, e.Key)
		}
	}
	if len(keys) == 0 {
		v.add(i, field, ErrMissingEnumValue, "%s type declares no values", target.Name)
		return
	}
	seen := map[string]bool{}
	for _, k := range keys {
		if seen[k] {
			v.add(i, field, ErrDuplicateName, "duplicate enum value key: %q", k)
		}
		seen[k] = true
	}
}

func (v *validator) categoryDraft(i int, d resource.CategoryDraft) {
	if d.Parent != nil {
		if d.Parent.Key != "" && d.Parent.Key == d.Key {
			v.add(i, "parent", ErrSelfReference, "category %q is its own parent", d.Key)
		}
		v.reference(i, "parent", d.Parent, false)
	}
	if d.Custom != nil {
		v.reference(i, "custom.type", d.Custom.Type, true)
	}
}

func (v *validator) productDraft(i int, d resource.ProductDraft) {
	v.reference(i, "productType", d.ProductType, true)
	for j := range d.Categories {
		v.reference(i, fmt.Sprintf("categories[%d]", j), &d.Categories[j], true)
	}
	v.reference(i, "taxCategory", d.TaxCategory, false)

	names := map[string]bool{}
	for j, a := range d.Attributes {
		field := fmt.Sprintf("attributes[%d]", j)
		if names[a.Name] {
			v.add(i, field+".name", ErrDuplicateName, "duplicate attribute name: %q", a.Name)
		}
		names[a.Name] = true
		if a.Reference == nil {
			continue
		}
		if a.Reference.Key != "" && a.Reference.Key == d.Key {
			v.add(i, field, ErrSelfReference, "product %q references itself", d.Key)
		}
		v.reference(i, field, a.Reference, true)
	}
}

func (v *validator) reference(i int, field string, ref *resource.Reference, required bool) {
	if ref == nil && !required {
		return
	}
	if ref.IsBlank() {
		v.add(i, field, ErrBlankReference, "reference requires a key or an id")
		return
	}
	if ref.ID == "" && isUUID(ref.Key) {
		v.add(i, field, ErrUUIDKey, "key %q looks like an id; it is only accepted when UUID keys are allowed", ref.Key)
	}
}

func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

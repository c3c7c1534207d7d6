// Package schema loads draft files and checks them before a run.
//
// Draft files are YAML or JSON lists. Each file is unified with the CUE
// definition of its kind, so structural mistakes are reported with file
// positions before any backend call is made. Decoded drafts can then be
// checked with Validate and AnalyzeCycles.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"cuelang.org/go/encoding/yaml"

	"github.com/roach88/catalogsync/internal/resource"
)

//go:embed schema.cue
var source []byte

// listPaths maps each kind to the CUE list constraint its files unify with.
var listPaths = map[string]string{
	resource.KindType:        "types",
	resource.KindProductType: "productTypes",
	resource.KindCategory:    "categories",
	resource.KindProduct:     "products",
}

// Kinds lists the kinds a draft file can hold.
func Kinds() []string {
	return []string{resource.KindType, resource.KindProductType, resource.KindCategory, resource.KindProduct}
}

// Schema holds the compiled draft definitions.
//
// Thread-safety: a Schema is not safe for concurrent use; the underlying
// CUE context is single-threaded.
type Schema struct {
	ctx  *cue.Context
	root cue.Value
}

// New compiles the embedded definitions.
func New() (*Schema, error) {
	ctx := cuecontext.New()
	root := ctx.CompileBytes(source, cue.Filename("schema.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile draft schema: %w", err)
	}
	return &Schema{ctx: ctx, root: root}, nil
}

// Document is a decoded draft file.
type Document[D any] struct {
	Filename string
	Drafts   []D

	// Lines holds the source line of each draft, 0 when unknown.
	Lines []int
}

// Decode parses data as a draft file of kind and checks it against the
// schema. Schema defaults are filled in before the drafts are decoded.
func Decode[D any](s *Schema, kind, filename string, data []byte) (Document[D], error) {
	doc := Document[D]{Filename: filename}

	v, lines, err := s.check(kind, filename, data)
	if err != nil {
		return doc, err
	}
	doc.Lines = lines

	raw, err := v.MarshalJSON()
	if err != nil {
		return doc, formatCUEError(err, filename)
	}
	if err := json.Unmarshal(raw, &doc.Drafts); err != nil {
		return doc, &DecodeError{Field: kind, Message: err.Error()}
	}
	return doc, nil
}

// check unifies the file with the list constraint of kind. It also returns
// the source line of each list element.
func (s *Schema) check(kind, filename string, data []byte) (cue.Value, []int, error) {
	path, ok := listPaths[kind]
	if !ok {
		return cue.Value{}, nil, &DecodeError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", kind)}
	}
	if strings.TrimSpace(string(data)) == "" {
		return s.ctx.CompileString("[]"), nil, nil
	}

	f, err := yaml.Extract(filename, data)
	if err != nil {
		return cue.Value{}, nil, formatCUEError(err, filename)
	}
	v := s.ctx.BuildFile(f)
	if err := v.Err(); err != nil {
		return cue.Value{}, nil, formatCUEError(err, filename)
	}
	if v.IncompleteKind() != cue.ListKind {
		return cue.Value{}, nil, &DecodeError{
			Field:   path,
			Message: fmt.Sprintf("a %s file must be a list, got %v", kind, v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	var lines []int
	iter, err := v.List()
	if err != nil {
		return cue.Value{}, nil, formatCUEError(err, filename)
	}
	for iter.Next() {
		lines = append(lines, iter.Value().Pos().Line())
	}

	v = v.Unify(s.root.LookupPath(cue.ParsePath(path)))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, nil, formatCUEError(err, filename)
	}
	return v, lines, nil
}

// DecodeError is a structural problem in a draft file, with its source
// position when known.
type DecodeError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *DecodeError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError converts the first CUE error to a DecodeError, preferring
// a position inside filename over one inside the schema.
func formatCUEError(err error, filename string) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	msg, args := first.Msg()
	de := &DecodeError{
		Field:   strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(msg, args...),
	}
	if de.Field == "" {
		de.Field = "document"
	}
	positions := errors.Positions(first)
	for _, p := range positions {
		if p.Filename() == filename {
			de.Pos = p
			return de
		}
	}
	if len(positions) > 0 {
		de.Pos = positions[0]
	}
	return de
}

package harness

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/catalogsync/internal/catalog"
	"github.com/roach88/catalogsync/internal/resource"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nWrites:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s %v %s\n", ev.Seq, ev.Operation, ev.Kind, ev.Key, ev.Actions, ev.Outcome)
		}
	}

	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertWriteContains:
			err = assertWriteContains(result.Trace, assertion)
		case AssertWriteOrder:
			err = assertWriteOrder(result.Trace, assertion)
		case AssertWriteCount:
			err = assertWriteCount(result.Trace, assertion)
		case AssertFinalState:
			err = assertFinalState(result.State, assertion)
		case AssertReference:
			err = assertReference(result.State, assertion)
		default:
			err = fmt.Errorf("unknown assertion type: %s", assertion.Type)
		}

		if err != nil {
			errors = append(errors, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}

	return errors
}

// matches reports whether ev is a write of the assertion's kind, key and
// operation. Empty assertion fields match anything.
func matches(ev TraceEvent, a Assertion) bool {
	if a.Kind != "" && ev.Kind != a.Kind {
		return false
	}
	if a.Key != "" && ev.Key != a.Key {
		return false
	}
	return a.Operation == "" || ev.Operation == a.Operation
}

// assertWriteContains checks that the trace holds a write of key with the
// expected outcome whose actions include every expected action.
func assertWriteContains(trace []TraceEvent, a Assertion) error {
	want := a.Outcome
	if want == "" {
		want = OutcomeOK
	}
	for _, ev := range trace {
		if !matches(ev, a) || ev.Outcome != want {
			continue
		}
		if containsAll(ev.Actions, a.Actions) {
			return nil
		}
	}

	expected := fmt.Sprintf("%s write of %q with outcome %s", orAny(a.Operation), a.Key, want)
	if len(a.Actions) > 0 {
		expected += fmt.Sprintf(" and actions %v", a.Actions)
	}
	return &AssertionError{
		Type:     AssertWriteContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertWriteOrder checks that the first writes of keys appear in the given
// order. Writes don't need to be consecutive.
func assertWriteOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int, len(a.Keys))
	for i, ev := range trace {
		if a.Kind != "" && ev.Kind != a.Kind {
			continue
		}
		if _, seen := positions[ev.Key]; !seen {
			positions[ev.Key] = i
		}
	}

	for _, key := range a.Keys {
		if _, ok := positions[key]; !ok {
			return &AssertionError{
				Type:     AssertWriteOrder,
				Expected: fmt.Sprintf("writes in order %v", a.Keys),
				Actual:   fmt.Sprintf("%q never written", key),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Keys); i++ {
		prev, cur := a.Keys[i-1], a.Keys[i]
		if positions[prev] > positions[cur] {
			return &AssertionError{
				Type:     AssertWriteOrder,
				Expected: fmt.Sprintf("writes in order %v", a.Keys),
				Actual:   fmt.Sprintf("%q (seq %d) written after %q (seq %d)", prev, positions[prev]+1, cur, positions[cur]+1),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertWriteCount checks that key is written exactly Count times.
func assertWriteCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if matches(ev, a) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertWriteCount,
			Expected: fmt.Sprintf("%d %s writes of %q", a.Count, orAny(a.Operation), a.Key),
			Actual:   fmt.Sprintf("%d writes", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks the stored entity against the expected fields
// (subset match) or checks that it does not exist.
func assertFinalState(state catalog.State, a Assertion) error {
	entity, err := findEntity(state, a.Kind, a.Key)
	if err != nil {
		return err
	}

	if a.Absent {
		if entity != nil {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("no %s %q", a.Kind, a.Key),
				Actual:   "entity exists",
			}
		}
		return nil
	}
	if entity == nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s %q", a.Kind, a.Key),
			Actual:   "entity not found",
		}
	}

	if len(a.Expect) == 0 {
		return nil
	}
	expected, err := normalize(a.Expect)
	if err != nil {
		return err
	}
	for field, want := range expected.(map[string]any) {
		got, ok := entity[field]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s %q has field %s", a.Kind, a.Key, field),
				Actual:   "field missing",
			}
		}
		if !subset(got, want) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %v", a.Key, field, want),
				Actual:   fmt.Sprintf("%v", got),
			}
		}
	}
	return nil
}

// assertReference checks that a reference field of an entity holds the id
// of the target entity. A list field passes when any element does.
func assertReference(state catalog.State, a Assertion) error {
	entity, err := findEntity(state, a.Kind, a.Key)
	if err != nil {
		return err
	}
	if entity == nil {
		return &AssertionError{Type: AssertReference, Expected: fmt.Sprintf("%s %q", a.Kind, a.Key), Actual: "entity not found"}
	}

	targetKind := a.TargetKind
	if targetKind == "" {
		targetKind = a.Kind
	}
	target, err := findEntity(state, targetKind, a.Target)
	if err != nil {
		return err
	}
	if target == nil {
		return &AssertionError{Type: AssertReference, Expected: fmt.Sprintf("%s %q", targetKind, a.Target), Actual: "target not found"}
	}
	id, _ := target["id"].(string)

	var refs []any
	switch v := entity[a.Field].(type) {
	case map[string]any:
		refs = []any{v}
	case []any:
		refs = v
	}
	for _, r := range refs {
		if m, ok := r.(map[string]any); ok && m["id"] == id {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertReference,
		Expected: fmt.Sprintf("%s.%s -> %s %q (id %s)", a.Key, a.Field, targetKind, a.Target, id),
		Actual:   fmt.Sprintf("%v", entity[a.Field]),
	}
}

// findEntity returns the JSON form of the entity of kind with key, nil when
// absent.
func findEntity(state catalog.State, kind, key string) (map[string]any, error) {
	var list any
	switch kind {
	case resource.KindType:
		list = state.Types
	case resource.KindProductType:
		list = state.ProductTypes
	case resource.KindCategory:
		list = state.Categories
	case resource.KindProduct:
		list = state.Products
	case resource.KindTaxCategory:
		list = state.TaxCategories
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}

	generic, err := normalize(list)
	if err != nil {
		return nil, err
	}
	entities, _ := generic.([]any)
	for _, e := range entities {
		if m, ok := e.(map[string]any); ok && m["key"] == key {
			return m, nil
		}
	}
	return nil, nil
}

// normalize round-trips v through JSON so YAML and entity values compare
// with the same number and map types.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	return out, nil
}

// subset compares nested values with subset semantics: extra keys in actual
// maps are OK, lists must have the same length and match element-wise.
// Other values must be equal.
func subset(actual, expected any) bool {
	switch ev := expected.(type) {
	case map[string]any:
		am, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, v := range ev {
			av, exists := am[k]
			if !exists || !subset(av, v) {
				return false
			}
		}
		return true
	case []any:
		al, ok := actual.([]any)
		if !ok || len(al) != len(ev) {
			return false
		}
		for i := range ev {
			if !subset(al[i], ev[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(actual, expected)
	}
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		if !slices.Contains(have, w) {
			return false
		}
	}
	return true
}

func orAny(op string) string {
	if op == "" {
		return "any"
	}
	return op
}

package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catalogsync/internal/schema"
)

func TestValidate_ValidFile(t *testing.T) {
	dir := t.TempDir()
	drafts := writeFile(t, dir, "categories.yaml", categoryDrafts)

	stdout, _, err := execute(t, "validate", "category", drafts)
	require.NoError(t, err)
	assert.Equal(t, "✓ "+drafts+": 2 drafts valid\n", stdout)
}

func TestValidate_ReportsFindings(t *testing.T) {
	dir := t.TempDir()
	drafts := writeFile(t, dir, "categories.yaml", `
- key: a
  name: {en: A}
  slug: {en: a}
- key: a
  name: {en: A2}
  slug: {en: a2}
`)

	stdout, _, err := execute(t, "validate", "category", drafts)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ "+drafts+": 1 problem(s) in 2 drafts")
	assert.Contains(t, stdout, `[E102] line 5: [1].key: duplicate key "a", first used by draft 0`)
}

func TestValidate_CyclesAreWarnings(t *testing.T) {
	dir := t.TempDir()
	drafts := writeFile(t, dir, "categories.yaml", `
- key: a
  name: {en: A}
  slug: {en: a}
  parent: {key: b}
- key: b
  name: {en: B}
  slug: {en: b}
  parent: {key: a}
`)

	stdout, stderr, err := execute(t, "validate", "category", drafts)
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 drafts valid")
	assert.Contains(t, stderr, "Warning: "+drafts+": reference cycle: a -> b -> a")
}

func TestValidate_JSONWithSeveralFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "types.yaml", `
- key: delivery
  name: {en: Delivery}
  fieldDefinitions:
    - name: window
      label: {en: Window}
      type: {name: String}
`)
	broken := writeFile(t, dir, "broken.yaml", "key: not-a-list\n")
	missing := filepath.Join(dir, "absent.yaml")

	stdout, _, err := execute(t, "--format", "json", "validate", "type", good, broken, missing)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Files, 3)

	assert.Equal(t, 1, resp.Data.Files[0].Drafts)
	assert.Nil(t, resp.Data.Files[0].LoadError)

	require.NotNil(t, resp.Data.Files[1].LoadError)
	assert.Equal(t, ErrCodeDecodeFailed, resp.Data.Files[1].LoadError.Code)
	assert.Contains(t, resp.Data.Files[1].LoadError.Message, "must be a list")

	require.NotNil(t, resp.Data.Files[2].LoadError)
	assert.Equal(t, ErrCodeNotFound, resp.Data.Files[2].LoadError.Code)
}

func TestValidate_TypeFindings(t *testing.T) {
	dir := t.TempDir()
	drafts := writeFile(t, dir, "types.yaml", `
- key: t
  name: {en: T}
  fieldDefinitions:
    - name: f
      label: {en: F}
      type: {name: String}
    - name: f
      label: {en: F again}
      type: {name: Boolean}
`)

	stdout, _, err := execute(t, "--format", "json", "validate", "type", drafts)
	require.Error(t, err)

	var resp struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data.Files, 1)
	require.Len(t, resp.Data.Files[0].Errors, 1)
	assert.Equal(t, schema.ErrDuplicateName, resp.Data.Files[0].Errors[0].Code)
}

func TestValidate_UnknownKind(t *testing.T) {
	stdout, _, err := execute(t, "validate", "coupon", "x.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E002]: unknown kind \"coupon\"")
}

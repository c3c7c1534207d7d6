package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "One category"
steps:
  - sync: category
    drafts:
      - {key: shoes, name: {en: Shoes}, slug: {en: shoes}}
assertions:
  - type: write_contains
    key: shoes
`

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join(scenarioDir, "category_tree.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "category_tree", s.Name)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, "category", s.Steps[0].Sync)
	assert.Equal(t, 2, s.Steps[0].BatchSize)
	assert.Equal(t, []string{"shoes"}, s.Steps[1].Conflicts)
	require.NotNil(t, s.Steps[0].Expect)
	assert.Equal(t, 3, s.Steps[0].Expect.Created)
	assert.Len(t, s.Assertions, 5)
}

func TestLoadScenario_State(t *testing.T) {
	s, err := LoadScenario(filepath.Join(scenarioDir, "product_references.yaml"))
	require.NoError(t, err)

	require.Len(t, s.State.TaxCategories, 1)
	assert.Equal(t, "tax-std", s.State.TaxCategories[0].ID)
	assert.Equal(t, "standard", s.State.TaxCategories[0].Key)
	require.Len(t, s.State.Products, 1)
	assert.Equal(t, "pt-1", s.State.Products[0].ProductType.ID)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	assert.Nil(t, s.Steps[0].Expect)
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: `
description: d
steps: [{sync: category, drafts: []}]
assertions: [{type: write_count, key: a}]
`,
			want: "name is required",
		},
		{
			name: "missing steps",
			yaml: `
name: n
description: d
assertions: [{type: write_count, key: a}]
`,
			want: "steps list is required",
		},
		{
			name: "unknown kind",
			yaml: `
name: n
description: d
steps: [{sync: coupon, drafts: []}]
assertions: [{type: write_count, key: a}]
`,
			want: `steps[0]: unknown kind "coupon"`,
		},
		{
			name: "drafts not a list",
			yaml: `
name: n
description: d
steps: [{sync: category, drafts: {key: a}}]
assertions: [{type: write_count, key: a}]
`,
			want: "steps[0]: drafts must be a list",
		},
		{
			name: "missing assertions",
			yaml: `
name: n
description: d
steps: [{sync: category, drafts: []}]
`,
			want: "assertions list is required",
		},
		{
			name: "unknown assertion",
			yaml: `
name: n
description: d
steps: [{sync: category, drafts: []}]
assertions: [{type: trace_contains}]
`,
			want: `unknown assertion type "trace_contains"`,
		},
		{
			name: "write_order needs two keys",
			yaml: `
name: n
description: d
steps: [{sync: category, drafts: []}]
assertions: [{type: write_order, keys: [a]}]
`,
			want: "keys needs at least two entries",
		},
		{
			name: "reference needs target",
			yaml: `
name: n
description: d
steps: [{sync: category, drafts: []}]
assertions: [{type: reference, kind: category, key: a, field: parent}]
`,
			want: "kind, key, field and target are required",
		},
		{
			name: "absent with expect",
			yaml: `
name: n
description: d
steps: [{sync: category, drafts: []}]
assertions: [{type: final_state, kind: category, key: a, absent: true, expect: {version: 1}}]
`,
			want: "absent and expect are exclusive",
		},
		{
			name: "unknown operation",
			yaml: `
name: n
description: d
steps: [{sync: category, drafts: []}]
assertions: [{type: write_count, key: a, operation: delete}]
`,
			want: `unknown operation "delete"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestScenarioFilesParse(t *testing.T) {
	files, err := filepath.Glob(filepath.Join(scenarioDir, "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			_, err := LoadScenario(f)
			require.NoError(t, err)
		})
	}
}

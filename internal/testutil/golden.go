package testutil

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catalogsync/internal/canonical"
	"github.com/roach88/catalogsync/internal/resource"
)

// AssertActionsGolden compares the wire form of actions, one canonical JSON
// object per line, against testdata/golden/{name}.golden.
//
// To regenerate golden files, run the package tests with -update.
func AssertActionsGolden(t *testing.T, name string, actions []resource.Action) {
	t.Helper()

	encoded, err := resource.EncodeActions(actions)
	require.NoError(t, err)
	data, err := canonical.MarshalLines(encoded)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd_Commands(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	groups := map[string]string{}
	for _, c := range root.Commands() {
		groups[c.Name()] = c.GroupID
	}

	for name, group := range map[string]string{
		"run":      GroupTesting,
		"validate": GroupTesting,
		"init":     GroupGettingStarted,
		"config":   GroupConfiguration,
		"doctor":   GroupConfiguration,
		"cache":    GroupConfiguration,
		"history":  GroupConfiguration,
		"version":  GroupGettingStarted,
	} {
		got, ok := groups[name]
		if assert.True(t, ok, "missing command %s", name) {
			assert.Equal(t, group, got, name)
		}
	}
}

func TestNewRootCmd_UnknownFlag(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"validate", "--bogus"})

	err := root.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitInvalid, ExitCode(err))
}

func TestNewRootCmd_Version(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--plain"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "cctest dev")
}

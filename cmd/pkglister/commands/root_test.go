package commands_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pkglister/cmd/pkglister/commands"
)

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	cmd := commands.NewRootCommand()

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	for _, want := range []string{"scan", "imports", "validate", "mcp", "version"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"config", "verbose", "quiet", "log-json"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	res := execute(t, "", "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "pkglister ")
	assert.Contains(t, res.stdout, "commit: ")
}

func TestMCPCommand_DebugFlag(t *testing.T) {
	t.Parallel()

	cmd := commands.NewMCPCommand(&commands.GlobalOptions{})
	require.NotNil(t, cmd)
	assert.Equal(t, "mcp", cmd.Use)
	assert.NotEmpty(t, cmd.Long)

	flag := cmd.Flags().Lookup("debug")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestConfigFile_Missing(t *testing.T) {
	t.Parallel()

	cmd := commands.NewRootCommand()
	cmd.SetArgs([]string{"--config", "/nonexistent/pkglister.yaml", "scan", t.TempDir()})

	require.Error(t, cmd.Execute())
}

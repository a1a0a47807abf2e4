package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{
		"vault", "debt", "ghost", "challenge", "transfer",
		"exec", "validate", "dashboard", "timeline", "replay", "test",
	} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRootCommand_NestedSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	tests := [][]string{
		{"vault", "create"},
		{"vault", "deposit"},
		{"vault", "withdraw"},
		{"vault", "merge"},
		{"vault", "request-deposit"},
		{"vault", "request-withdraw"},
		{"vault", "show"},
		{"debt", "create"},
		{"debt", "request-pay"},
		{"debt", "request-split"},
		{"debt", "schedule"},
		{"ghost", "pay"},
		{"ghost", "split"},
		{"challenge", "start"},
		{"challenge", "week"},
		{"challenge", "request-week"},
		{"challenge", "fail"},
		{"challenge", "quit"},
		{"challenge", "catch-up"},
		{"challenge", "show"},
		{"transfer", "succeed"},
		{"transfer", "fail"},
		{"transfer", "run"},
		{"transfer", "pending"},
	}
	for _, path := range tests {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[1], sub.Name())
	}
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"verbose", "format", "db", "config", "today", "idempotency-key"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "v", cmd.PersistentFlags().Lookup("verbose").Shorthand)
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("format").DefValue)
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("yaml"))
	assert.False(t, isValidFormat(""))
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, _, err := run(t, t.TempDir(), "--format", "yaml", "timeline")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.False(t, IsReported(err))
}

func TestRootCommand_InvalidToday(t *testing.T) {
	_, _, err := run(t, t.TempDir(), "--today", "2026-13-01", "timeline")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/nlpfinder/internal/embed"
	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
	"github.com/Aman-CERP/nlpfinder/pkg/version"
)

func TestRootCmd_ShowsHelp(t *testing.T) {
	// Given: a root command
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	// When: executing with --help
	err := cmd.Execute()

	// Then: it should show usage information
	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "nlpfinder")
	assert.Contains(t, output, "Usage:")
}

func TestRootCmd_ShowsVersion(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--version"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, "nlpfinder version "+version.Version+"\n", buf.String())
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	// Given: a root command
	cmd := NewRootCmd()

	// When: listing subcommands
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	// Then: every command is registered
	for _, want := range []string{"serve", "index", "search", "status", "files", "clear", "preview", "open", "config", "mcp", "logs", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_GlobalFlags(t *testing.T) {
	cmd := NewRootCmd()

	assert.NotNil(t, cmd.PersistentFlags().Lookup("debug"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config-dir"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("profile-cpu"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("profile-mem"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("profile-trace"))
}

func TestRootCmd_ProfileFlagsWriteFiles(t *testing.T) {
	// Given: a CLI environment and profile destinations
	env := newCLIEnv(t)
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.prof")
	mem := filepath.Join(dir, "mem.prof")

	// When: running a command with profiling on
	_, _, err := env.run(t, "--profile-cpu", cpu, "--profile-mem", mem, "files")
	require.NoError(t, err)

	// Then: both profiles are written
	assert.FileExists(t, cpu)
	assert.FileExists(t, mem)
}

func TestRootCmd_ProfileStoppedOnCommandError(t *testing.T) {
	// Given: a command that fails
	env := newCLIEnv(t)
	mem := filepath.Join(t.TempDir(), "mem.prof")

	// When: it runs with a heap profile requested
	_, _, err := env.run(t, "--profile-mem", mem, "search", "anything")

	// Then: the error surfaces and the profile is still written
	require.Error(t, err)
	assert.FileExists(t, mem)
}

func TestRootCmd_ArgValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"index needs a directory", []string{"index"}},
		{"search needs a query", []string{"search"}},
		{"preview needs a file", []string{"preview"}},
		{"open takes one file", []string{"open", "a", "b"}},
		{"status takes no args", []string{"status", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newCLIEnv(t)
			_, stderr, err := env.run(t, tt.args...)
			assert.Error(t, err)
			assert.Contains(t, stderr, "Error:")
		})
	}
}

func TestExecute_FormatsErrors(t *testing.T) {
	// Given: a command that fails with a structured error
	root := &cobra.Command{Use: "x", SilenceErrors: true, SilenceUsage: true}
	root.RunE = func(*cobra.Command, []string) error {
		return nferrors.New(nferrors.ErrCodeServiceUnavailable, "embedding service is not running", nil).
			WithSuggestion("Start Ollama with: ollama serve")
	}
	root.SetArgs([]string{})
	stderr := &bytes.Buffer{}

	// When: executing
	err := execute(root, stderr)

	// Then: the message, hint and code are printed
	require.Error(t, err)
	out := stderr.String()
	assert.True(t, strings.HasPrefix(out, "Error: embedding service is not running"))
	assert.Contains(t, out, "Hint: Start Ollama")
	assert.Contains(t, out, "Code: ERR_302_SERVICE_UNAVAILABLE")
}

func TestLogLevel(t *testing.T) {
	t.Cleanup(func() { debugMode = false })

	debugMode = false
	assert.Equal(t, "info", logLevel(nil))

	debugMode = true
	assert.Equal(t, "debug", logLevel(nil))
}

func TestEmbedderStatus(t *testing.T) {
	tests := []struct {
		health embed.Health
		want   string
	}{
		{embed.Health{Reachable: true, ModelAvailable: true}, "ready"},
		{embed.Health{Reachable: true}, "model_missing"},
		{embed.Health{}, "offline"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, embedderStatus(tt.health))
		})
	}
}

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/nlpfinder/internal/config"
	"github.com/Aman-CERP/nlpfinder/internal/embed"
	"github.com/Aman-CERP/nlpfinder/internal/fileops"
)

// letterEmbedder maps the first letter of a text to a one-hot vector.
type letterEmbedder struct {
	mu        sync.Mutex
	reachable bool
}

func (e *letterEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 26)
	t := strings.ToLower(strings.TrimSpace(text))
	if t != "" && t[0] >= 'a' && t[0] <= 'z' {
		v[t[0]-'a'] = 1
	} else {
		v[25] = 1
	}
	return v, nil
}

func (e *letterEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func (e *letterEmbedder) Dimensions() int   { return 26 }
func (e *letterEmbedder) ModelName() string { return "letter-embed" }
func (e *letterEmbedder) Close() error      { return nil }

func (e *letterEmbedder) Health(context.Context) embed.Health {
	e.mu.Lock()
	defer e.mu.Unlock()
	return embed.Health{Reachable: e.reachable, ModelAvailable: e.reachable, Model: "letter-embed"}
}

// openCall records one opener invocation.
type openCall struct {
	name string
	args []string
}

// cliEnv isolates a CLI test: home, user config, data dir and config dir
// are temporary, and the embedder and opener are fakes.
type cliEnv struct {
	configDir string
	dataDir   string
	embedder  *letterEmbedder
	opened    []openCall
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("NLPFINDER_DATA_DIR", filepath.Join(home, "data"))

	env := &cliEnv{
		configDir: t.TempDir(),
		dataDir:   filepath.Join(home, "data"),
		embedder:  &letterEmbedder{reachable: true},
	}

	prevEmbedder, prevOpener := newEmbedder, newOpener
	newEmbedder = func(*config.Config) (embed.Embedder, error) { return env.embedder, nil }
	newOpener = func() *fileops.Opener {
		return fileops.NewOpenerWith("linux", func(_ context.Context, name string, args ...string) error {
			env.opened = append(env.opened, openCall{name: name, args: args})
			return nil
		})
	}
	t.Cleanup(func() {
		newEmbedder, newOpener = prevEmbedder, prevOpener
	})
	return env
}

// run executes the CLI and returns stdout, stderr and the error.
func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(append([]string{"--config-dir", e.configDir}, args...))
	err := execute(root, stderr)
	return stdout.String(), stderr.String(), err
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

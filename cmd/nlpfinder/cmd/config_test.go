package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/nlpfinder/internal/config"
	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

func TestConfigShow_MergesProjectFile(t *testing.T) {
	// Given: a project file overriding top_k
	env := newCLIEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, config.ProjectFileName),
		[]byte("search:\n  top_k: 7\n"), 0o644))

	// When: showing the merged config as YAML
	stdout, _, err := env.run(t, "config", "show")

	// Then: the override and the defaults are both present
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "# source: merged"))
	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &cfg))
	assert.Equal(t, 7, cfg.Search.TopK)
	assert.Equal(t, "nomic-embed-text", cfg.Ollama.EmbeddingModel)
	assert.Equal(t, env.dataDir, cfg.Store.DataDir)
}

func TestConfigShow_JSONDefaults(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run(t, "config", "show", "--json", "--source", "defaults")

	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(stdout), &cfg))
	assert.Equal(t, 20, cfg.Search.TopK)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestConfigShow_InvalidSource(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run(t, "config", "show", "--source", "nope")

	assert.Equal(t, nferrors.ErrCodeInvalidInput, nferrors.GetCode(err))
}

func TestConfigShow_InvalidConfig(t *testing.T) {
	// Given: overlap not smaller than chunk size
	env := newCLIEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, config.ProjectFileName),
		[]byte("indexing:\n  chunk_size: 100\n  chunk_overlap: 100\n"), 0o644))

	// When: showing
	_, _, err := env.run(t, "config", "show")

	// Then: the validation error surfaces
	assert.Equal(t, nferrors.ErrCodeConfigInvalid, nferrors.GetCode(err))
}

func TestConfigInit_WritesLoadableProjectFile(t *testing.T) {
	// Given: no project file
	env := newCLIEnv(t)
	path := filepath.Join(env.configDir, config.ProjectFileName)

	// When: running config init
	stdout, _, err := env.run(t, "config", "init")

	// Then: a commented file that loads cleanly is written
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote "+path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# nlpfinder project configuration."))
	_, err = config.Load(env.configDir)
	assert.NoError(t, err)
}

func TestConfigInit_RefusesExistingWithoutForce(t *testing.T) {
	env := newCLIEnv(t)
	path := filepath.Join(env.configDir, config.ProjectFileName)
	require.NoError(t, os.WriteFile(path, []byte("search:\n  top_k: 3\n"), 0o644))

	_, stderr, err := env.run(t, "config", "init")

	require.Error(t, err)
	assert.Contains(t, stderr, "--force")
	data, _ := os.ReadFile(path)
	assert.Equal(t, "search:\n  top_k: 3\n", string(data))
}

func TestConfigInit_ForceKeepsBackup(t *testing.T) {
	// Given: an existing project file
	env := newCLIEnv(t)
	path := filepath.Join(env.configDir, config.ProjectFileName)
	require.NoError(t, os.WriteFile(path, []byte("search:\n  top_k: 3\n"), 0o644))

	// When: forcing init
	stdout, _, err := env.run(t, "config", "init", "--force")

	// Then: the old file is backed up and replaced
	require.NoError(t, err)
	assert.Contains(t, stdout, "Backup:")
	backups, err := config.ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	old, _ := os.ReadFile(backups[0])
	assert.Equal(t, "search:\n  top_k: 3\n", string(old))
}

func TestConfigInit_User(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run(t, "config", "init", "--user")

	require.NoError(t, err)
	assert.FileExists(t, config.GetUserConfigPath())
	assert.NoFileExists(t, filepath.Join(env.configDir, config.ProjectFileName))
}

func TestConfigPath(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run(t, "config", "path")

	require.NoError(t, err)
	assert.Contains(t, stdout, "user:    "+config.GetUserConfigPath())
	assert.Contains(t, stdout, "project: "+filepath.Join(env.configDir, config.ProjectFileName))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/kilupskalvis/cfgmerge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeAndLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Initialize(dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, ConfigFile))
	assert.DirExists(t, filepath.Join(dir, DataDir))

	// Loading from a nested directory walks up to the config
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	loaded, err := Load(nested)
	require.NoError(t, err)
	assert.Equal(t, cfg.Root(), loaded.Root())
	assert.Equal(t, 50, loaded.MaxDepth)
	assert.Equal(t, models.ConflictAbort, loaded.Strategy)
	assert.True(t, loaded.History.Enabled)
	assert.Equal(t, filepath.Join(cfg.Root(), DataDir, DatabaseFile), loaded.DatabasePath())

	_, err = Initialize(dir)
	assert.Error(t, err)
}

func TestLoad_NoConfigUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Indent)
	assert.False(t, cfg.History.Enabled)
	assert.Empty(t, cfg.Root())
}

func TestLoadFile_PartialOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFile)
	content := "strategy = \"theirs\"\nindent = 4\n\n[history]\nenabled = true\nbackend = \"sqlite\"\npath = \"merges.db\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, models.ConflictTheirs, cfg.Strategy)
	assert.Equal(t, 4, cfg.Indent)
	assert.Equal(t, 50, cfg.MaxDepth)
	assert.Equal(t, BackendSQLite, cfg.History.Backend)
	assert.Equal(t, filepath.Join(dir, "merges.db"), cfg.DatabasePath())
}

func TestSave_RoundTrip(t *testing.T) {
	cfg, err := Initialize(t.TempDir())
	require.NoError(t, err)

	cfg.OutputFormat = "yaml"
	cfg.Concurrency = 8
	require.NoError(t, cfg.Save())

	loaded, err := LoadFile(filepath.Join(cfg.Root(), ConfigFile))
	require.NoError(t, err)
	assert.Equal(t, "yaml", loaded.OutputFormat)
	assert.Equal(t, 8, loaded.Concurrency)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.MaxDepth = 0
	cfg.Strategy = "mine"
	cfg.OutputFormat = "xml"
	cfg.LogLevel = "loud"
	cfg.History.Backend = "redis"

	err := cfg.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 5)
	assert.Contains(t, err.Error(), "max_depth")
	assert.Contains(t, err.Error(), "history.backend")
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFile)

	require.NoError(t, os.WriteFile(path, []byte("max_depth = -1\n"), 0644))
	_, err := LoadFile(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("max_depth = \n"), 0644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}

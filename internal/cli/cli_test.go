package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kilupskalvis/cfgmerge/internal/docio"
	"github.com/kilupskalvis/cfgmerge/internal/models"
	"github.com/kilupskalvis/cfgmerge/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		name       string
		flag       string
		output     string
		configured string
		local      docio.Format
		expected   docio.Format
	}{
		{"flag wins", "toml", "out.json", "yaml", docio.FormatJSON, docio.FormatTOML},
		{"output extension", "", "out.yaml", "toml", docio.FormatJSON, docio.FormatYAML},
		{"extensionless output falls through", "", "merged", "toml", docio.FormatJSON, docio.FormatTOML},
		{"config", "", "", "yaml", docio.FormatJSON, docio.FormatYAML},
		{"local format", "", "", "", docio.FormatTOML, docio.FormatTOML},
		{"nothing known", "", "", "", "", docio.FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := outputFormat(tt.flag, tt.output, tt.configured, tt.local)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}

	_, err := outputFormat("xml", "", "", docio.FormatJSON)
	assert.Error(t, err)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCollectBatchFiles(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "base")
	local := filepath.Join(root, "local")
	remote := filepath.Join(root, "remote")

	writeFile(t, filepath.Join(base, "app.yaml"), "a: 1\n")
	writeFile(t, filepath.Join(base, "svc", "db.json"), "{}")
	writeFile(t, filepath.Join(local, "app.yaml"), "a: 2\n")
	writeFile(t, filepath.Join(local, "README.md"), "not config")
	writeFile(t, filepath.Join(remote, "svc", "cache.toml"), "size = 1\n")

	rels, err := collectBatchFiles(base, local, remote, filepath.Join(root, "missing"))
	require.NoError(t, err)
	assert.Equal(t, []string{"app.yaml", "svc/cache.toml", "svc/db.json"}, rels)
}

func TestMergedAway(t *testing.T) {
	present := &docio.Input{Doc: models.Document{"a": 1}}
	absent := &docio.Input{}
	clean := &models.MergeResult{}
	conflicted := &models.MergeResult{Conflicts: []*models.MergeConflict{{Path: models.Path{"a"}}}}

	assert.True(t, mergedAway(&batchFile{Local: absent, Remote: present}, clean, models.Document{}))
	assert.False(t, mergedAway(&batchFile{Local: absent, Remote: present}, clean, models.Document{"b": 1}))
	assert.False(t, mergedAway(&batchFile{Local: absent, Remote: present}, conflicted, models.Document{}))
	assert.False(t, mergedAway(&batchFile{Local: present, Remote: present}, clean, models.Document{}))
}

func TestSideValue(t *testing.T) {
	assert.Equal(t, "(absent)", sideValue(false, nil))
	assert.Equal(t, "null", sideValue(true, nil))
	assert.Equal(t, `{"port":80}`, sideValue(true, map[string]any{"port": 80}))
}

func TestCmdContextClose_Twice(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	st, err := store.NewBolt(dbPath)
	require.NoError(t, err)

	c := &cmdContext{Store: st}
	c.Close()
	assert.Nil(t, c.Store)
	assert.NotPanics(t, c.Close)

	// The file lock is released, so the database opens again
	again, err := store.NewBolt(dbPath)
	require.NoError(t, err)
	require.NoError(t, again.Close())

	(&cmdContext{}).Close()
}

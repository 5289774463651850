package core

import (
	"encoding/json"
	"testing"

	"github.com/kilupskalvis/cfgmerge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doc parses a JSON object literal into a Document
func doc(t *testing.T, s string) models.Document {
	t.Helper()
	var d models.Document
	require.NoError(t, json.Unmarshal([]byte(s), &d))
	return d
}

// path parses a dotted path
func path(s string) models.Path {
	return models.MustParsePath(s)
}

// paths renders change paths for compact assertions
func paths(changes []*models.Change) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Path.String()
	}
	return out
}

// nested builds {"n": {"n": ... {"leaf": v}}} with depth levels of "n"
func nested(depth int, v any) models.Document {
	root := models.Document{"leaf": v}
	for i := 0; i < depth; i++ {
		root = models.Document{"n": root}
	}
	return root
}

// conflictPaths renders conflict paths in result order
func conflictPaths(result *models.MergeResult) []string {
	out := make([]string, len(result.Conflicts))
	for i, c := range result.Conflicts {
		out[i] = c.Path.String()
	}
	return out
}

// assertAccountedOnce checks that every change either side made against base
// shows up exactly once, as an applied change or inside one conflict
func assertAccountedOnce(t *testing.T, base, local, remote models.Document, result *models.MergeResult) {
	t.Helper()
	localChanges, err := DiffFromBase(base, local, DefaultOptions())
	require.NoError(t, err)
	remoteChanges, err := DiffFromBase(base, remote, DefaultOptions())
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, a := range result.AutoMerged {
		seen[a.Change.Path.String()]++
	}
	for _, c := range result.Conflicts {
		covered := make(map[string]bool)
		for _, ch := range c.Changes {
			covered[ch.Path.String()] = true
		}
		for p := range covered {
			seen[p]++
		}
	}
	for _, ch := range append(localChanges, remoteChanges...) {
		assert.Equal(t, 1, seen[ch.Path.String()], "path %s", ch.Path)
	}
}

package docio

import (
	"testing"

	"github.com/kilupskalvis/cfgmerge/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergePatch(t *testing.T) {
	from, err := Parse([]byte(`{"a": 1, "b": {"c": 2, "keep": true}, "list": [1, 2]}`), FormatJSON)
	require.NoError(t, err)
	to, err := Parse([]byte(`{"a": 1, "b": {"d": 3, "keep": true}, "list": [2]}`), FormatJSON)
	require.NoError(t, err)

	patch, err := MergePatch(from, to)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b": {"c": null, "d": 3}, "list": [2]}`, string(patch))

	applied, err := ApplyMergePatch(from, patch)
	require.NoError(t, err)
	assert.True(t, core.DeepEqual(map[string]any(to), map[string]any(applied)))
}

func TestMergePatch_AbsentDocuments(t *testing.T) {
	patch, err := MergePatch(nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(patch))

	to, err := Parse([]byte(`{"x": "y"}`), FormatJSON)
	require.NoError(t, err)
	patch, err = MergePatch(nil, to)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x": "y"}`, string(patch))
}

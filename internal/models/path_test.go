package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath_String(t *testing.T) {
	tests := []struct {
		path     Path
		expected string
	}{
		{nil, ""},
		{Path{"a"}, "a"},
		{Path{"a", "b", "c"}, "a.b.c"},
		{Path{"a.b", "c"}, `["a.b"].c`},
		{Path{"a", "x.y"}, `a["x.y"]`},
		{Path{""}, `[""]`},
		{Path{"list", "0"}, "list.0"},
		{Path{`x"]y`}, `["x\"]y"]`},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.path.String())

			parsed, err := ParsePath(tt.expected)
			require.NoError(t, err)
			if tt.path.IsRoot() {
				assert.True(t, parsed.IsRoot())
			} else {
				assert.Equal(t, tt.path, parsed)
			}
		})
	}
}

func TestParsePath_Invalid(t *testing.T) {
	for _, s := range []string{".a", "a.", "a..b", `a.["b"]`, `["unterminated`, `[bad"]`} {
		_, err := ParsePath(s)
		assert.Error(t, err, s)
	}
}

func TestPath_Relations(t *testing.T) {
	parent := Path{"a", "b"}
	child := parent.Child("c")

	assert.True(t, child.HasPrefix(parent))
	assert.True(t, child.HasPrefix(nil))
	assert.True(t, parent.IsAncestorOf(child))
	assert.False(t, child.IsAncestorOf(parent))
	assert.False(t, parent.IsAncestorOf(parent))
	assert.True(t, child.Parent().Equal(parent))
	assert.False(t, Path{"a", "bc"}.HasPrefix(Path{"a", "b"}))
}

func TestPath_ChildDoesNotAlias(t *testing.T) {
	base := make(Path, 1, 8)
	base[0] = "root"

	x := base.Child("x")
	y := base.Child("y")
	assert.Equal(t, Path{"root", "x"}, x)
	assert.Equal(t, Path{"root", "y"}, y)
}

func TestPath_JSON(t *testing.T) {
	c := Change{Kind: ChangeModified, Path: Path{"db", "host.name"}, BaseValue: "a", NewValue: "b"}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"path":"db[\"host.name\"]"`)

	var decoded Change
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, c.Path, decoded.Path)
}

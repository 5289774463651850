package core

import (
	"testing"

	"github.com/kilupskalvis/cfgmerge/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestHasCircularRef_Acyclic(t *testing.T) {
	assert.False(t, HasCircularRef(nil))
	assert.False(t, HasCircularRef(models.Document(nil)))
	assert.False(t, HasCircularRef(doc(t, `{"a": {"b": [1, {"c": 2}]}, "d": []}`)))
}

func TestHasCircularRef_DirectSelfReference(t *testing.T) {
	d := models.Document{"x": 1}
	d["self"] = d
	p, found := FindCircularRef(d)
	assert.True(t, found)
	assert.Equal(t, "self", p.String())
}

func TestHasCircularRef_TransitiveThroughArray(t *testing.T) {
	root := models.Document{}
	child := map[string]any{"name": "child"}
	child["items"] = []any{1, root}
	root["child"] = child

	p, found := FindCircularRef(root)
	assert.True(t, found)
	assert.Equal(t, models.Path{"child", "items", "1"}, p)
}

func TestHasCircularRef_SliceContainingItself(t *testing.T) {
	s := make([]any, 2)
	s[0] = "x"
	s[1] = s
	assert.True(t, HasCircularRef(models.Document{"list": s}))
}

func TestHasCircularRef_SharedSubtreeIsNotACycle(t *testing.T) {
	shared := map[string]any{"k": "v"}
	sharedList := []any{1, 2}
	d := models.Document{
		"left":  map[string]any{"ref": shared, "list": sharedList},
		"right": map[string]any{"ref": shared, "list": sharedList},
		"again": shared,
	}
	assert.False(t, HasCircularRef(d))
}

func TestHasCircularRef_StructurallyEqualDistinctObjects(t *testing.T) {
	d := models.Document{
		"a": map[string]any{"x": map[string]any{"y": 1}},
	}
	d["a"].(map[string]any)["x"].(map[string]any)["z"] = map[string]any{"y": 1}
	assert.False(t, HasCircularRef(d))
}

package core

import (
	"reflect"
	"strconv"

	"github.com/kilupskalvis/cfgmerge/internal/models"
)

// nodeID identifies a map or a non-empty slice by the memory it refers to.
// Slices also carry their length: s and s[:1] are different nodes.
type nodeID struct {
	ptr uintptr
	n   int
}

// HasCircularRef reports whether v contains a reference cycle
func HasCircularRef(v any) bool {
	_, found := FindCircularRef(v)
	return found
}

// FindCircularRef walks v depth first and returns the path at which a node
// already open on the current path is reached again. Nodes are closed on
// backtrack, so a node shared by two sibling branches is not a cycle.
func FindCircularRef(v any) (models.Path, bool) {
	open := make(map[nodeID]struct{})
	return findCycle(v, nil, open)
}

func findCycle(v any, path models.Path, open map[nodeID]struct{}) (models.Path, bool) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return nil, false
		}
		id := nodeID{ptr: reflect.ValueOf(t).Pointer(), n: -1}
		if _, seen := open[id]; seen {
			return path, true
		}
		open[id] = struct{}{}
		defer delete(open, id)

		for _, k := range sortedKeys(t) {
			if p, found := findCycle(t[k], path.Child(k), open); found {
				return p, true
			}
		}
	case []any:
		if len(t) == 0 {
			return nil, false
		}
		id := nodeID{ptr: reflect.ValueOf(t).Pointer(), n: len(t)}
		if _, seen := open[id]; seen {
			return path, true
		}
		open[id] = struct{}{}
		defer delete(open, id)

		for i, e := range t {
			if p, found := findCycle(e, path.Child(strconv.Itoa(i)), open); found {
				return p, true
			}
		}
	}
	return nil, false
}

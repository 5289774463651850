package core

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"

	"github.com/kilupskalvis/cfgmerge/internal/models"
	"github.com/samber/lo"
)

// deepCopy returns a copy of v sharing no maps or slices with it
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		if t == nil {
			return []any(nil)
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}

// copyDocument deep-copies a document, returning an empty one for nil
func copyDocument(doc models.Document) models.Document {
	if doc == nil {
		return models.Document{}
	}
	return deepCopy(doc).(map[string]any)
}

// DeepEqual reports whether two document values are structurally equal.
// Numbers compare by value regardless of their Go representation.
func DeepEqual(a, b any) bool {
	ka, kb := models.KindOf(a), models.KindOf(b)
	if ka != kb {
		return false
	}

	switch ka {
	case models.KindNull:
		return true
	case models.KindNumber:
		return numbersEqual(a, b)
	case models.KindDatetime:
		if ta, ok := a.(time.Time); ok {
			tb, ok := b.(time.Time)
			return ok && ta.Equal(tb)
		}
		return a == b
	case models.KindObject:
		ma, mb := a.(map[string]any), b.(map[string]any)
		if len(ma) != len(mb) {
			return false
		}
		for k, va := range ma {
			vb, ok := mb[k]
			if !ok || !DeepEqual(va, vb) {
				return false
			}
		}
		return true
	case models.KindArray:
		sa, sb := a.([]any), b.([]any)
		if len(sa) != len(sb) {
			return false
		}
		for i := range sa {
			if !DeepEqual(sa[i], sb[i]) {
				return false
			}
		}
		return true
	case models.KindUnknown:
		return reflect.DeepEqual(a, b)
	default:
		return a == b
	}
}

// numbersEqual compares integers exactly and everything else as float64.
// NaN equals NaN so a document always equals itself.
func numbersEqual(a, b any) bool {
	na, aok := numberValue(a)
	nb, bok := numberValue(b)
	if !aok || !bok {
		return fmt.Sprint(a) == fmt.Sprint(b)
	}
	if na.isInt && nb.isInt {
		return na.i == nb.i
	}
	if math.IsNaN(na.f) && math.IsNaN(nb.f) {
		return true
	}
	return na.f == nb.f
}

// number is a parsed numeric value; i is set only when isInt
type number struct {
	i     int64
	f     float64
	isInt bool
}

// numberValue parses v. ok is false for a json.Number that is not a
// valid float64 literal.
func numberValue(v any) (number, bool) {
	switch n := v.(type) {
	case int:
		return intValue(int64(n)), true
	case int8:
		return intValue(int64(n)), true
	case int16:
		return intValue(int64(n)), true
	case int32:
		return intValue(int64(n)), true
	case int64:
		return intValue(n), true
	case uint:
		return uintValue(uint64(n)), true
	case uint8:
		return intValue(int64(n)), true
	case uint16:
		return intValue(int64(n)), true
	case uint32:
		return intValue(int64(n)), true
	case uint64:
		return uintValue(n), true
	case float32:
		return number{f: float64(n)}, true
	case float64:
		return number{f: n}, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return intValue(i), true
		}
		f, err := n.Float64()
		if err != nil {
			return number{}, false
		}
		return number{f: f}, true
	}
	return number{}, false
}

func intValue(n int64) number {
	return number{i: n, f: float64(n), isInt: true}
}

func uintValue(n uint64) number {
	if n > math.MaxInt64 {
		return number{f: float64(n)}
	}
	return intValue(int64(n))
}

// sortedKeys returns the keys of m in lexical order
func sortedKeys(m map[string]any) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}

// unionKeys returns the sorted union of the keys of a and b
func unionKeys(a, b map[string]any) []string {
	keys := lo.Union(lo.Keys(a), lo.Keys(b))
	sort.Strings(keys)
	return keys
}

// ValueAt looks up the value at path. The root path returns doc itself.
func ValueAt(doc models.Document, path models.Path) (any, bool) {
	if doc == nil {
		return nil, false
	}
	var cur any = doc
	for _, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// setAt stores value at path, creating intermediate objects as needed.
// A non-object intermediate is replaced by an object.
func setAt(doc models.Document, path models.Path, value any) {
	if path.IsRoot() {
		return
	}
	cur := doc
	for _, seg := range path[:len(path)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok || next == nil {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = value
}

// deleteAt removes the value at path. Missing paths are a no-op.
func deleteAt(doc models.Document, path models.Path) {
	if path.IsRoot() {
		return
	}
	parent, ok := ValueAt(doc, path.Parent())
	if !ok {
		return
	}
	if m, ok := parent.(map[string]any); ok {
		delete(m, path[len(path)-1])
	}
}

// Package core implements the structural three-way merge: diff computation
// against a common ancestor, conflict classification, cycle detection, and
// the merge itself. Everything here is pure and holds no state between calls.
package core

import (
	"github.com/kilupskalvis/cfgmerge/internal/models"
)

// DefaultMaxDepth bounds diff recursion on pathological nesting
const DefaultMaxDepth = 50

// Options configures diff and merge behavior. The zero value uses defaults.
type Options struct {
	MaxDepth int // Deepest object nesting the diff will descend into
}

// DefaultOptions returns the default options
func DefaultOptions() Options {
	return Options{MaxDepth: DefaultMaxDepth}
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// DiffFromBase computes the changes transforming base into current.
// Either document may be nil, meaning it did not exist. Both are checked for
// cycles first.
func DiffFromBase(base, current models.Document, opts Options) ([]*models.Change, error) {
	if p, found := FindCircularRef(base); found {
		return nil, &CircularReferenceError{Input: "base", Path: p}
	}
	if p, found := FindCircularRef(current); found {
		return nil, &CircularReferenceError{Input: "current", Path: p}
	}
	return diffDocuments(base, current, opts)
}

func diffDocuments(base, current models.Document, opts Options) ([]*models.Change, error) {
	d := &differ{maxDepth: opts.maxDepth(), changes: make([]*models.Change, 0)}

	var err error
	switch {
	case base == nil && current == nil:
	case base == nil:
		err = d.emitLeaves(models.ChangeAdded, current, nil)
	case current == nil:
		err = d.emitLeaves(models.ChangeDeleted, base, nil)
	default:
		err = d.diffObjects(base, current, nil)
	}
	if err != nil {
		return nil, err
	}
	return d.changes, nil
}

// differ accumulates changes for a single diff call
type differ struct {
	maxDepth int
	changes  []*models.Change
}

func (d *differ) checkDepth(path models.Path) error {
	if len(path) > d.maxDepth {
		return &MaxDepthExceededError{Path: path, Limit: d.maxDepth}
	}
	return nil
}

func (d *differ) emit(kind models.ChangeKind, path models.Path, baseValue, newValue any) {
	c := &models.Change{Kind: kind, Path: path}
	if kind != models.ChangeAdded {
		c.BaseValue = deepCopy(baseValue)
	}
	if kind != models.ChangeDeleted {
		c.NewValue = deepCopy(newValue)
	}
	d.changes = append(d.changes, c)
}

// emitLeaves emits one change per leaf key of obj. Used when a whole
// document is added or deleted. A nested empty object is a leaf.
func (d *differ) emitLeaves(kind models.ChangeKind, obj map[string]any, path models.Path) error {
	if err := d.checkDepth(path); err != nil {
		return err
	}
	if len(obj) == 0 && !path.IsRoot() {
		d.emitLeaf(kind, path, map[string]any{})
		return nil
	}

	for _, k := range sortedKeys(obj) {
		child := path.Child(k)
		if m, ok := obj[k].(map[string]any); ok {
			if err := d.emitLeaves(kind, m, child); err != nil {
				return err
			}
			continue
		}
		d.emitLeaf(kind, child, obj[k])
	}
	return nil
}

func (d *differ) emitLeaf(kind models.ChangeKind, path models.Path, v any) {
	if kind == models.ChangeAdded {
		d.emit(kind, path, nil, v)
	} else {
		d.emit(kind, path, v, nil)
	}
}

// diffObjects recurses over the union of keys of two objects
func (d *differ) diffObjects(base, current map[string]any, path models.Path) error {
	if err := d.checkDepth(path); err != nil {
		return err
	}

	for _, k := range unionKeys(base, current) {
		child := path.Child(k)
		bv, inBase := base[k]
		cv, inCurrent := current[k]

		switch {
		case !inBase:
			d.emit(models.ChangeAdded, child, nil, cv)
		case !inCurrent:
			d.emit(models.ChangeDeleted, child, bv, nil)
		default:
			if err := d.diffValues(bv, cv, child); err != nil {
				return err
			}
		}
	}
	return nil
}

// diffValues compares a key present on both sides. Objects recurse; any
// other pair, including a type mismatch, is a single modified leaf.
func (d *differ) diffValues(bv, cv any, path models.Path) error {
	bm, baseIsObject := bv.(map[string]any)
	cm, currentIsObject := cv.(map[string]any)
	if baseIsObject && currentIsObject {
		return d.diffObjects(bm, cm, path)
	}
	if !DeepEqual(bv, cv) {
		d.emit(models.ChangeModified, path, bv, cv)
	}
	return nil
}

package core

import (
	"errors"

	"github.com/kilupskalvis/cfgmerge/internal/models"
)

// ThreeWayMerge merges local and remote against their common ancestor base
// using the default options. Any of the three may be nil, meaning the
// document did not exist.
func ThreeWayMerge(base, local, remote models.Document) (*models.MergeResult, error) {
	return Merge(base, local, remote, DefaultOptions())
}

// Merge performs a structural three-way merge. Non-overlapping changes are
// applied to a copy of base; overlapping changes with different outcomes are
// reported as conflicts and base's value is kept at those paths. Inputs are
// never modified and the result shares no maps or slices with them.
func Merge(base, local, remote models.Document, opts Options) (*models.MergeResult, error) {
	// Step 1: Reject cyclic inputs before any diffing
	inputs := []struct {
		name string
		doc  models.Document
	}{{"base", base}, {"local", local}, {"remote", remote}}
	for _, in := range inputs {
		if p, found := FindCircularRef(in.doc); found {
			return nil, &CircularReferenceError{Input: in.name, Path: p}
		}
	}

	// Step 2: Diff both sides against base
	localChanges, err := diffDocuments(base, local, opts)
	if err != nil {
		return nil, withInput(err, "local")
	}
	remoteChanges, err := diffDocuments(base, remote, opts)
	if err != nil {
		return nil, withInput(err, "remote")
	}

	// Step 3: Walk local changes, then whatever remote changes are left
	m := newMerger(base, local, remote, remoteChanges)
	for _, lc := range localChanges {
		m.mergeLocal(lc)
	}
	for _, rc := range remoteChanges {
		if !m.visited[rc.Path.String()] {
			m.apply(rc, remote)
			m.record(rc, models.SourceRemote)
		}
	}

	return m.finish(len(localChanges), len(remoteChanges)), nil
}

func withInput(err error, input string) error {
	var depthErr *MaxDepthExceededError
	if errors.As(err, &depthErr) {
		depthErr.Input = input
	}
	return err
}

// merger holds the state of one Merge call
type merger struct {
	base, local, remote models.Document

	remoteByPath  map[string]*models.Change   // exact path -> remote change
	remoteUnder   map[string][]*models.Change // ancestor path -> remote changes below it
	visited       map[string]bool             // remote change paths already accounted for
	agreed        map[string]bool             // remote ancestor paths both sides left in the same state
	conflictIndex map[string]*models.MergeConflict

	merged     models.Document
	conflicts  []*models.MergeConflict
	autoMerged []*models.AppliedChange
}

func newMerger(base, local, remote models.Document, remoteChanges []*models.Change) *merger {
	m := &merger{
		base:          base,
		local:         local,
		remote:        remote,
		remoteByPath:  make(map[string]*models.Change, len(remoteChanges)),
		remoteUnder:   make(map[string][]*models.Change),
		visited:       make(map[string]bool),
		agreed:        make(map[string]bool),
		conflictIndex: make(map[string]*models.MergeConflict),
		merged:        copyDocument(base),
		conflicts:     make([]*models.MergeConflict, 0),
		autoMerged:    make([]*models.AppliedChange, 0),
	}
	for _, rc := range remoteChanges {
		m.remoteByPath[rc.Path.String()] = rc
		for i := 0; i < len(rc.Path); i++ {
			key := rc.Path[:i].String()
			m.remoteUnder[key] = append(m.remoteUnder[key], rc)
		}
	}
	return m
}

// mergeLocal decides the fate of one local change
func (m *merger) mergeLocal(lc *models.Change) {
	key := lc.Path.String()

	// Same path changed on both sides
	if rc, ok := m.remoteByPath[key]; ok {
		m.visited[key] = true
		if sameState(sideOf(lc), sideOf(rc)) {
			m.apply(lc, m.local, m.remote)
			m.record(lc, models.SourceBothIdentical)
			return
		}
		m.addConflict(lc.Path, sideOf(lc), sideOf(rc), lc, rc)
		return
	}

	// Remote replaced or deleted a subtree this change lives in
	if anc := m.remoteAncestor(lc.Path); anc != nil {
		ancKey := anc.Path.String()
		if c, ok := m.conflictIndex[ancKey]; ok {
			c.Changes = append(c.Changes, lc)
			return
		}
		if m.agreed[ancKey] {
			m.record(lc, models.SourceBothIdentical)
			return
		}
		m.visited[ancKey] = true
		_, inBase := ValueAt(m.base, anc.Path)
		local, remote := sideAt(m.local, anc.Path, inBase), sideOf(anc)
		if sameState(local, remote) {
			m.agreed[ancKey] = true
			m.apply(anc, m.local, m.remote)
			m.record(anc, models.SourceBothIdentical)
			m.record(lc, models.SourceBothIdentical)
			return
		}
		m.addConflict(anc.Path, local, remote, lc, anc)
		return
	}

	// Remote edited inside a subtree this change replaced or deleted
	if below := m.remoteUnder[key]; len(below) > 0 {
		for _, rc := range below {
			m.visited[rc.Path.String()] = true
		}
		_, inBase := ValueAt(m.base, lc.Path)
		local, remote := sideOf(lc), sideAt(m.remote, lc.Path, inBase)
		if sameState(local, remote) {
			m.apply(lc, m.local, m.remote)
			m.record(lc, models.SourceBothIdentical)
			for _, rc := range below {
				m.record(rc, models.SourceBothIdentical)
			}
			return
		}
		m.addConflict(lc.Path, local, remote, append([]*models.Change{lc}, below...)...)
		return
	}

	m.apply(lc, m.local)
	m.record(lc, models.SourceLocal)
}

// remoteAncestor returns the remote change at the nearest strict ancestor of path, if any
func (m *merger) remoteAncestor(path models.Path) *models.Change {
	for i := len(path) - 1; i > 0; i-- {
		if rc, ok := m.remoteByPath[path[:i].String()]; ok {
			return rc
		}
	}
	return nil
}

// sameState reports whether two sides leave a path in the same state:
// both absent, or both present with equal values
func sameState(a, b Side) bool {
	if !a.Present() || !b.Present() {
		return !a.Present() && !b.Present()
	}
	return DeepEqual(a.Value, b.Value)
}

func (m *merger) addConflict(path models.Path, local, remote Side, changes ...*models.Change) {
	conflictType, severity := ClassifyConflict(local, remote)
	baseValue, inBase := ValueAt(m.base, path)

	c := &models.MergeConflict{
		Path:       path,
		Type:       conflictType,
		Severity:   severity,
		HasBase:    inBase,
		HasLocal:   local.Present(),
		HasRemote:  remote.Present(),
		LocalKind:  local.Kind,
		RemoteKind: remote.Kind,
		Changes:    changes,
	}
	if inBase {
		c.Base = deepCopy(baseValue)
	}
	if local.Present() {
		c.Local = local.Value
	}
	if remote.Present() {
		c.Remote = remote.Value
	}

	m.conflicts = append(m.conflicts, c)
	m.conflictIndex[path.String()] = c
}

// apply writes a change into the merged document. Deleting the last key of
// an object also removes that object unless one of sides still has it, so a
// wholly deleted document does not leave empty shells.
func (m *merger) apply(c *models.Change, sides ...models.Document) {
	if c.HasNew() {
		setAt(m.merged, c.Path, deepCopy(c.NewValue))
		return
	}

	deleteAt(m.merged, c.Path)
	for p := c.Path.Parent(); !p.IsRoot(); p = p.Parent() {
		v, ok := ValueAt(m.merged, p)
		if !ok {
			return
		}
		if obj, isObj := v.(map[string]any); !isObj || len(obj) > 0 {
			return
		}
		for _, side := range sides {
			if _, stillThere := ValueAt(side, p); stillThere {
				return
			}
		}
		deleteAt(m.merged, p)
	}
}

func (m *merger) record(c *models.Change, source models.MergeSource) {
	m.autoMerged = append(m.autoMerged, &models.AppliedChange{Change: c, Source: source})
}

func (m *merger) finish(localCount, remoteCount int) *models.MergeResult {
	stats := models.MergeStats{
		LocalChanges:  localCount,
		RemoteChanges: remoteCount,
		AutoMerged:    len(m.autoMerged),
		Conflicts:     len(m.conflicts),
	}
	for _, a := range m.autoMerged {
		switch a.Source {
		case models.SourceLocal:
			stats.FromLocal++
		case models.SourceRemote:
			stats.FromRemote++
		case models.SourceBothIdentical:
			stats.BothIdentical++
		}
	}

	return &models.MergeResult{
		Merged:       m.merged,
		Conflicts:    m.conflicts,
		AutoMerged:   m.autoMerged,
		HasConflicts: len(m.conflicts) > 0,
		Stats:        stats,
	}
}

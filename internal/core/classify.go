package core

import "github.com/kilupskalvis/cfgmerge/internal/models"

// Side is one branch's view of a conflicting path: how it changed BASE and
// the value it ended up with. Value is meaningless when Kind is ChangeDeleted.
type Side struct {
	Kind  models.ChangeKind
	Value any
}

// Present reports whether the path exists on this side
func (s Side) Present() bool {
	return s.Kind != models.ChangeDeleted
}

// ClassifyConflict assigns a conflict type and severity to a disagreement
// between LOCAL and REMOTE at one path. Rules are checked in order.
func ClassifyConflict(local, remote Side) (models.MergeConflictType, models.Severity) {
	switch {
	case local.Present() && remote.Present() && models.KindOf(local.Value) != models.KindOf(remote.Value):
		return models.ConflictTypeMismatch, models.SeverityHigh
	case local.Kind == models.ChangeModified && remote.Kind == models.ChangeModified:
		return models.ConflictModifyModify, models.SeverityHigh
	case local.Kind == models.ChangeAdded && remote.Kind == models.ChangeAdded:
		return models.ConflictAddAdd, models.SeverityMedium
	case local.Kind == models.ChangeDeleted && remote.Kind == models.ChangeModified:
		return models.ConflictDeleteModify, models.SeverityHigh
	case local.Kind == models.ChangeModified && remote.Kind == models.ChangeDeleted:
		return models.ConflictModifyDelete, models.SeverityHigh
	default:
		return models.ConflictModifyModify, models.SeverityHigh
	}
}

// sideOf describes a change's outcome as a Side
func sideOf(c *models.Change) Side {
	return Side{Kind: c.Kind, Value: c.NewValue}
}

// sideAt describes what doc holds at path relative to BASE. Used when a
// side's changes are nested under the conflicting path rather than at it.
func sideAt(doc models.Document, path models.Path, inBase bool) Side {
	v, ok := ValueAt(doc, path)
	switch {
	case !ok:
		return Side{Kind: models.ChangeDeleted}
	case inBase:
		return Side{Kind: models.ChangeModified, Value: deepCopy(v)}
	default:
		return Side{Kind: models.ChangeAdded, Value: deepCopy(v)}
	}
}

package models

import "time"

// MergeRecord is a merge persisted to the history store
type MergeRecord struct {
	ID                string           `json:"id"`
	Timestamp         time.Time        `json:"timestamp"`
	Base              string           `json:"base"`   // Source label of BASE
	Local             string           `json:"local"`  // Source label of LOCAL
	Remote            string           `json:"remote"` // Source label of REMOTE
	Output            string           `json:"output,omitempty"`
	Strategy          ConflictStrategy `json:"strategy"`
	Stats             MergeStats       `json:"stats"`
	ResolvedConflicts int              `json:"resolved_conflicts"`
	Conflicts         []*MergeConflict `json:"conflicts,omitempty"`
}

// ShortID returns a shortened record ID (first 7 characters)
func (r *MergeRecord) ShortID() string {
	if len(r.ID) > 7 {
		return r.ID[:7]
	}
	return r.ID
}

// Clean reports whether the merge finished without unresolved conflicts
func (r *MergeRecord) Clean() bool {
	return r.Stats.Conflicts == r.ResolvedConflicts
}

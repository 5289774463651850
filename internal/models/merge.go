package models

// ConflictStrategy defines how an outer policy resolves merge conflicts
type ConflictStrategy string

const (
	ConflictAbort  ConflictStrategy = "abort"  // Default: leave conflicts unresolved
	ConflictOurs   ConflictStrategy = "ours"   // Prefer the LOCAL version
	ConflictTheirs ConflictStrategy = "theirs" // Prefer the REMOTE version
)

// Valid reports whether s is a known strategy
func (s ConflictStrategy) Valid() bool {
	switch s {
	case ConflictAbort, ConflictOurs, ConflictTheirs:
		return true
	}
	return false
}

// MergeConflictType identifies the type of merge conflict
type MergeConflictType string

const (
	ConflictModifyModify MergeConflictType = "modify-modify" // Both modified differently
	ConflictAddAdd       MergeConflictType = "add-add"       // Both added with different data
	ConflictDeleteModify MergeConflictType = "delete-modify" // Local deleted, remote modified
	ConflictModifyDelete MergeConflictType = "modify-delete" // Local modified, remote deleted
	ConflictTypeMismatch MergeConflictType = "type-mismatch" // Both changed to values of different kinds
)

// Severity ranks how disruptive a conflict is to resolve
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// MergeConflict is a path where LOCAL and REMOTE changed BASE incompatibly.
// Conflicts are read-only outputs; the merger never resolves them.
type MergeConflict struct {
	Path       Path              `json:"path"`
	Type       MergeConflictType `json:"type"`
	Severity   Severity          `json:"severity"`
	Base       any               `json:"base,omitempty"`
	Local      any               `json:"local,omitempty"`
	Remote     any               `json:"remote,omitempty"`
	HasBase    bool              `json:"has_base"`
	HasLocal   bool              `json:"has_local"`
	HasRemote  bool              `json:"has_remote"`
	LocalKind  ChangeKind        `json:"local_kind"`
	RemoteKind ChangeKind        `json:"remote_kind"`
	Changes    []*Change         `json:"changes,omitempty"` // LOCAL and REMOTE changes folded into this conflict
}

// MergeSource records which side an auto-merged change came from
type MergeSource string

const (
	SourceLocal         MergeSource = "local"
	SourceRemote        MergeSource = "remote"
	SourceBothIdentical MergeSource = "both-identical"
)

// AppliedChange is a change the merger applied without human input
type AppliedChange struct {
	Change *Change     `json:"change"`
	Source MergeSource `json:"source"`
}

// MergeStats summarizes a merge
type MergeStats struct {
	LocalChanges  int `json:"local_changes"`
	RemoteChanges int `json:"remote_changes"`
	AutoMerged    int `json:"auto_merged"`
	FromLocal     int `json:"from_local"`
	FromRemote    int `json:"from_remote"`
	BothIdentical int `json:"both_identical"`
	Conflicts     int `json:"conflicts"`
}

// MergeResult contains the outcome of a three-way merge
type MergeResult struct {
	Merged       Document         `json:"merged"`        // BASE with every non-conflicting change applied
	Conflicts    []*MergeConflict `json:"conflicts"`     // Paths needing external resolution
	AutoMerged   []*AppliedChange `json:"auto_merged"`   // Changes applied, in application order
	HasConflicts bool             `json:"has_conflicts"` // len(Conflicts) > 0
	Stats        MergeStats       `json:"stats"`
}

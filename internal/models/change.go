package models

// ChangeKind identifies how a single path differs from BASE
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
)

// Change describes one path's transition from BASE to a derived document.
// BaseValue is meaningful unless Kind is ChangeAdded; NewValue unless ChangeDeleted.
type Change struct {
	Kind      ChangeKind `json:"kind"`
	Path      Path       `json:"path"`
	BaseValue any        `json:"base_value,omitempty"`
	NewValue  any        `json:"new_value,omitempty"`
}

// HasBase reports whether the path existed in BASE
func (c *Change) HasBase() bool {
	return c.Kind != ChangeAdded
}

// HasNew reports whether the path exists in the derived document
func (c *Change) HasNew() bool {
	return c.Kind != ChangeDeleted
}

// DiffStats summarizes a change list by kind
type DiffStats struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Deleted  int `json:"deleted"`
}

// Total returns the total number of changes
func (s DiffStats) Total() int {
	return s.Added + s.Modified + s.Deleted
}

// CountChanges tallies changes by kind
func CountChanges(changes []*Change) DiffStats {
	var s DiffStats
	for _, c := range changes {
		switch c.Kind {
		case ChangeAdded:
			s.Added++
		case ChangeModified:
			s.Modified++
		case ChangeDeleted:
			s.Deleted++
		}
	}
	return s
}

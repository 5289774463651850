package core

import (
	"fmt"

	"github.com/kilupskalvis/cfgmerge/internal/models"
)

// Resolve applies a conflict strategy to a finished merge and returns a new
// document along with the number of conflicts it resolved. The merge result
// itself is left untouched: resolution is a policy decision layered on top of
// the merge, never part of it.
//
// ConflictAbort resolves nothing and returns a copy of the merged document.
func Resolve(result *models.MergeResult, strategy models.ConflictStrategy) (models.Document, int, error) {
	if result == nil {
		return nil, 0, fmt.Errorf("resolve: nil merge result")
	}
	if strategy == "" {
		strategy = models.ConflictAbort
	}
	if !strategy.Valid() {
		return nil, 0, fmt.Errorf("resolve: unknown strategy %q", strategy)
	}

	resolved := copyDocument(result.Merged)
	if strategy == models.ConflictAbort {
		return resolved, 0, nil
	}

	count := 0
	for _, c := range result.Conflicts {
		present, value := c.HasLocal, c.Local
		if strategy == models.ConflictTheirs {
			present, value = c.HasRemote, c.Remote
		}
		if present {
			setAt(resolved, c.Path, deepCopy(value))
		} else {
			deleteAt(resolved, c.Path)
		}
		count++
	}
	return resolved, count, nil
}

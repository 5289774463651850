package cli

import (
	"time"

	"github.com/kilupskalvis/cfgmerge/internal/docio"
	"github.com/kilupskalvis/cfgmerge/internal/models"
	"github.com/kilupskalvis/cfgmerge/internal/store"
)

// mergeRun is one completed merge as the CLI saw it
type mergeRun struct {
	Base, Local, Remote *docio.Input
	Output              string
	Strategy            models.ConflictStrategy
	Result              *models.MergeResult
	Resolved            int
}

// recordMerge saves a merge to history. Failure to record never fails the
// merge itself; it is logged and the record is dropped.
func (c *cmdContext) recordMerge(run *mergeRun) *models.MergeRecord {
	if c.Store == nil {
		return nil
	}

	ts := time.Now().UTC()
	rec := &models.MergeRecord{
		ID:                store.NewRecordID(raw(run.Base), raw(run.Local), raw(run.Remote), ts),
		Timestamp:         ts,
		Base:              run.Base.Source.String(),
		Local:             run.Local.Source.String(),
		Remote:            run.Remote.Source.String(),
		Output:            run.Output,
		Strategy:          run.Strategy,
		Stats:             run.Result.Stats,
		ResolvedConflicts: run.Resolved,
		Conflicts:         run.Result.Conflicts,
	}

	if err := c.Store.SaveMerge(rec); err != nil {
		c.Logger.Warn("failed to record merge", "error", err)
		return nil
	}
	c.Logger.Debug("recorded merge", "id", rec.ShortID())
	return rec
}

func raw(in *docio.Input) []byte {
	if in == nil {
		return nil
	}
	return in.Raw
}

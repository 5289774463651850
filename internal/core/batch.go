package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/kilupskalvis/cfgmerge/internal/models"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of merges MergeBatch runs at once
const DefaultConcurrency = 4

// Job is one independent merge in a batch
type Job struct {
	Name                string
	Base, Local, Remote models.Document
}

// Outcome is the result of one Job. Exactly one of Result and Err is set.
type Outcome struct {
	Name     string
	Result   *models.MergeResult
	Err      error
	Duration time.Duration
}

// BatchOptions configures MergeBatch
type BatchOptions struct {
	Merge       Options
	Concurrency int
	Logger      *slog.Logger
}

// MergeBatch runs independent merges in parallel. Merges share no state, so
// the only coordination is the worker limit. A failing job is reported in its
// Outcome and does not stop the others. If ctx is cancelled, jobs that have
// not started get ctx's error and MergeBatch returns it.
func MergeBatch(ctx context.Context, jobs []Job, opts BatchOptions) ([]Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	outcomes := make([]Outcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range jobs {
		job := &jobs[i]
		g.Go(func() error {
			out := &outcomes[i]
			out.Name = job.Name
			if err := gctx.Err(); err != nil {
				out.Err = err
				return err
			}

			start := time.Now()
			out.Result, out.Err = Merge(job.Base, job.Local, job.Remote, opts.Merge)
			out.Duration = time.Since(start)

			if out.Err != nil {
				logger.Warn("merge failed", "job", job.Name, "error", out.Err)
			} else {
				logger.Debug("merge finished", "job", job.Name,
					"auto_merged", out.Result.Stats.AutoMerged,
					"conflicts", out.Result.Stats.Conflicts,
					"duration", out.Duration)
			}
			return nil
		})
	}

	// Only skipped jobs return an error, and only after ctx was cancelled
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/kilupskalvis/cfgmerge/internal/core"
	"github.com/kilupskalvis/cfgmerge/internal/docio"
	"github.com/kilupskalvis/cfgmerge/internal/models"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Merge whole directory trees of config files",
	Long: `Merge every JSON, YAML and TOML file found under any of the three trees.
Files are matched by their path relative to each tree root; a file missing
from a tree is treated as not existing in that version.

Merged files are written under --out-dir at the same relative path. A file
deleted on one side and unchanged on the other is not written. Files with
unresolved conflicts are reported and not written. Merges run in parallel
(see 'concurrency' in the config file).

Examples:
  cfgmerge batch --base-dir v1 --local-dir ours --remote-dir theirs --out-dir merged`,
	Args: cobra.NoArgs,
	Run:  runBatch,
}

var (
	batchBaseDir   string
	batchLocalDir  string
	batchRemoteDir string
	batchOutDir    string
	batchOurs      bool
	batchTheirs    bool
)

func init() {
	batchCmd.Flags().StringVar(&batchBaseDir, "base-dir", "", "Tree holding the common ancestor versions")
	batchCmd.Flags().StringVar(&batchLocalDir, "local-dir", "", "Tree holding the LOCAL versions")
	batchCmd.Flags().StringVar(&batchRemoteDir, "remote-dir", "", "Tree holding the REMOTE versions")
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "", "Tree to write merged files into")
	batchCmd.Flags().BoolVar(&batchOurs, "ours", false, "On conflict, prefer the LOCAL version")
	batchCmd.Flags().BoolVar(&batchTheirs, "theirs", false, "On conflict, prefer the REMOTE version")
	for _, name := range []string{"base-dir", "local-dir", "remote-dir", "out-dir"} {
		_ = batchCmd.MarkFlagRequired(name)
	}
	batchCmd.MarkFlagsMutuallyExclusive("ours", "theirs")
}

// batchFile is one relative path and its three loaded versions
type batchFile struct {
	Rel                 string
	Format              docio.Format
	Base, Local, Remote *docio.Input
}

func runBatch(cmd *cobra.Command, args []string) {
	c := initContextWithHistory()
	defer c.Close()

	rels, err := collectBatchFiles(batchBaseDir, batchLocalDir, batchRemoteDir)
	if err != nil {
		exitError("%v", err)
	}
	if len(rels) == 0 {
		fmt.Println("No config files found")
		return
	}

	files := make([]*batchFile, len(rels))
	jobs := make([]core.Job, len(rels))
	for i, rel := range rels {
		f, err := loadBatchFile(c.Loader, rel)
		if err != nil {
			exitError("%v", err)
		}
		files[i] = f
		jobs[i] = core.Job{Name: rel, Base: f.Base.Doc, Local: f.Local.Doc, Remote: f.Remote.Doc}
	}

	strategy := c.Config.Strategy
	if batchOurs {
		strategy = models.ConflictOurs
	} else if batchTheirs {
		strategy = models.ConflictTheirs
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcomes, err := core.MergeBatch(ctx, jobs, core.BatchOptions{
		Merge:       c.mergeOptions(0),
		Concurrency: c.Config.Concurrency,
		Logger:      c.Logger,
	})
	if err != nil {
		exitError("batch interrupted: %v", err)
	}

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	failed := 0
	for i, out := range outcomes {
		f := files[i]
		if out.Err != nil {
			red.Printf("failed    %s: %v\n", f.Rel, out.Err)
			failed++
			continue
		}

		merged, resolved, err := core.Resolve(out.Result, strategy)
		if err != nil {
			exitError("%v", err)
		}
		dest := filepath.Join(batchOutDir, f.Rel)
		c.recordMerge(&mergeRun{
			Base: f.Base, Local: f.Local, Remote: f.Remote,
			Output: dest, Strategy: strategy,
			Result: out.Result, Resolved: resolved,
		})

		if unresolved := len(out.Result.Conflicts) - resolved; unresolved > 0 {
			red.Printf("conflict  %s (%d)\n", f.Rel, unresolved)
			printConflicts(os.Stdout, out.Result.Conflicts)
			failed++
			continue
		}

		if mergedAway(f, out.Result, merged) {
			yellow.Printf("deleted   %s\n", f.Rel)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			exitError("failed to create %s: %v", filepath.Dir(dest), err)
		}
		if err := writeDocument(merged, f.Format, c.Config.Indent, dest); err != nil {
			exitError("%v", err)
		}
		green.Printf("merged    %s\n", f.Rel)
	}

	fmt.Printf("\n%d file(s), %d failed or conflicted\n", len(files), failed)
	if failed > 0 {
		c.Close()
		os.Exit(1)
	}
}

// mergedAway reports whether the merge outcome is the file not existing:
// one side deleted it and nothing survived
func mergedAway(f *batchFile, result *models.MergeResult, merged models.Document) bool {
	if f.Local.Doc != nil && f.Remote.Doc != nil {
		return false
	}
	return len(merged) == 0 && len(result.Conflicts) == 0
}

// collectBatchFiles returns the sorted union of config file paths relative
// to each root. Missing roots contribute nothing.
func collectBatchFiles(roots ...string) ([]string, error) {
	var all []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) && path == root {
					return filepath.SkipDir
				}
				return err
			}
			if d.IsDir() {
				return nil
			}
			if _, ferr := docio.FormatFromPath(path); ferr != nil {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			all = append(all, filepath.ToSlash(rel))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	rels := lo.Uniq(all)
	sort.Strings(rels)
	return rels, nil
}

func loadBatchFile(loader *docio.Loader, rel string) (*batchFile, error) {
	format, err := docio.FormatFromPath(rel)
	if err != nil {
		return nil, err
	}

	f := &batchFile{Rel: rel, Format: format}
	dirs := []string{batchBaseDir, batchLocalDir, batchRemoteDir}
	targets := []**docio.Input{&f.Base, &f.Local, &f.Remote}
	for i, dir := range dirs {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		in, err := loadOptional(loader, path, format)
		if err != nil {
			return nil, err
		}
		*targets[i] = in
	}
	return f, nil
}

// loadOptional loads path, returning an absent document if it does not exist
func loadOptional(loader *docio.Loader, path string, format docio.Format) (*docio.Input, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return &docio.Input{Source: docio.Source{Path: path}, Format: format}, nil
	}
	in, err := loader.Load(path, format)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return in, nil
}

package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/kilupskalvis/cfgmerge/internal/core"
	"github.com/kilupskalvis/cfgmerge/internal/docio"
	"github.com/kilupskalvis/cfgmerge/internal/models"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <base> <local> <remote>",
	Short: "Merge two edited copies of a config against their ancestor",
	Long: `Merge LOCAL and REMOTE, two edited versions of a configuration document,
against BASE, the version both started from.

Each argument is a file path or a file at a git revision (git:<rev>:<path>).
A file missing at that revision counts as not existing, so files added on
both sides merge against an empty ancestor.

Changes to different keys are combined. Changes to the same key, or to a key
and something nested under it, are conflicts. With conflicts the merge fails
unless --ours or --theirs picks a side for every conflicting key.

Examples:
  cfgmerge merge base.yaml mine.yaml theirs.yaml -o merged.yaml
  cfgmerge merge git:main:app.json app.json git:feature:app.json
  cfgmerge merge --theirs base.toml local.toml remote.toml
  cfgmerge merge --json base.json a.json b.json     # Machine-readable report
  cfgmerge merge --patch base.json a.json b.json    # Merge patch to apply to LOCAL`,
	Args: cobra.ExactArgs(3),
	Run:  runMerge,
}

var (
	mergeOutput      string
	mergeFormat      string
	mergeInputFormat string
	mergeOurs        bool
	mergeTheirs      bool
	mergeJSON        bool
	mergePatch       bool
	mergeNoRecord    bool
	mergeMaxDepth    int
)

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "Write the merged document to a file instead of stdout")
	mergeCmd.Flags().StringVar(&mergeFormat, "format", "", "Output format: json, yaml or toml (default: from --output, config, or LOCAL)")
	mergeCmd.Flags().StringVar(&mergeInputFormat, "input-format", "", "Format of all inputs (default: from each file extension)")
	mergeCmd.Flags().BoolVar(&mergeOurs, "ours", false, "On conflict, prefer the LOCAL version")
	mergeCmd.Flags().BoolVar(&mergeTheirs, "theirs", false, "On conflict, prefer the REMOTE version")
	mergeCmd.Flags().BoolVar(&mergeJSON, "json", false, "Print a JSON merge report instead of the document")
	mergeCmd.Flags().BoolVar(&mergePatch, "patch", false, "Print the RFC 7386 merge patch that turns LOCAL into the result")
	mergeCmd.Flags().BoolVar(&mergeNoRecord, "no-record", false, "Do not record this merge in history")
	mergeCmd.Flags().IntVar(&mergeMaxDepth, "max-depth", 0, "Maximum nesting depth (default: from config)")
	mergeCmd.MarkFlagsMutuallyExclusive("ours", "theirs")
	mergeCmd.MarkFlagsMutuallyExclusive("json", "patch")
}

// mergeReport is the --json output
type mergeReport struct {
	Merged     models.Document         `json:"merged"`
	Resolved   int                     `json:"resolved_conflicts"`
	Conflicts  []*models.MergeConflict `json:"conflicts"`
	AutoMerged []*models.AppliedChange `json:"auto_merged"`
	Stats      models.MergeStats       `json:"stats"`
	RecordID   string                  `json:"record_id,omitempty"`
}

func runMerge(cmd *cobra.Command, args []string) {
	var c *cmdContext
	if mergeNoRecord {
		c = initContext()
	} else {
		c = initContextWithHistory()
	}
	defer c.Close()

	inputFormat, err := parseOptionalFormat(mergeInputFormat)
	if err != nil {
		exitError("%v", err)
	}
	inputs := loadInputs(c, args, inputFormat)
	base, local, remote := inputs[0], inputs[1], inputs[2]

	result, err := core.Merge(base.Doc, local.Doc, remote.Doc, c.mergeOptions(mergeMaxDepth))
	if err != nil {
		exitError("%v", err)
	}

	strategy := c.Config.Strategy
	if mergeOurs {
		strategy = models.ConflictOurs
	} else if mergeTheirs {
		strategy = models.ConflictTheirs
	}

	merged, resolved, err := core.Resolve(result, strategy)
	if err != nil {
		exitError("%v", err)
	}
	unresolved := len(result.Conflicts) - resolved

	var rec *models.MergeRecord
	if !mergeNoRecord {
		rec = c.recordMerge(&mergeRun{
			Base: base, Local: local, Remote: remote,
			Output: mergeOutput, Strategy: strategy,
			Result: result, Resolved: resolved,
		})
	}

	switch {
	case mergeJSON:
		report := &mergeReport{
			Merged:     merged,
			Resolved:   resolved,
			Conflicts:  result.Conflicts,
			AutoMerged: result.AutoMerged,
			Stats:      result.Stats,
		}
		if rec != nil {
			report.RecordID = rec.ID
		}
		printJSON(report)
		if unresolved > 0 {
			c.Close()
			os.Exit(1)
		}
		return
	case unresolved > 0:
		printConflicts(os.Stderr, result.Conflicts)
		c.Close()
		exitError("automatic merge failed: %d unresolved conflict(s); use --ours or --theirs to pick a side", unresolved)
	case mergePatch:
		patch, err := docio.MergePatch(local.Doc, merged)
		if err != nil {
			exitError("%v", err)
		}
		fmt.Println(string(patch))
	default:
		format, err := outputFormat(mergeFormat, mergeOutput, c.Config.OutputFormat, local.Format)
		if err != nil {
			exitError("%v", err)
		}
		if err := writeDocument(merged, format, c.Config.Indent, mergeOutput); err != nil {
			exitError("%v", err)
		}
	}

	printMergeSummary(result, resolved, strategy)
	if rec != nil {
		fmt.Fprintf(os.Stderr, "Recorded merge %s\n", rec.ShortID())
	}
}

// loadInputs loads BASE, LOCAL and REMOTE in order
func loadInputs(c *cmdContext, sources []string, format docio.Format) []*docio.Input {
	inputs := make([]*docio.Input, len(sources))
	for i, src := range sources {
		in, err := c.Loader.Load(src, format)
		if err != nil {
			exitError("failed to load %s: %v", src, err)
		}
		c.Logger.Debug("loaded document", "source", in.Source.String(), "format", in.Format, "absent", in.Doc == nil)
		inputs[i] = in
	}
	return inputs
}

func parseOptionalFormat(name string) (docio.Format, error) {
	if name == "" {
		return "", nil
	}
	return docio.ParseFormat(name)
}

// outputFormat picks the output format: the flag, then the output file's
// extension, then the config file, then the format LOCAL was read in
func outputFormat(flag, outputPath, configured string, local docio.Format) (docio.Format, error) {
	if flag != "" {
		return docio.ParseFormat(flag)
	}
	if outputPath != "" {
		if f, err := docio.FormatFromPath(outputPath); err == nil {
			return f, nil
		}
	}
	if configured != "" {
		return docio.ParseFormat(configured)
	}
	if local == "" {
		return docio.FormatJSON, nil
	}
	return local, nil
}

// writeDocument encodes doc to path, or to stdout when path is empty
func writeDocument(doc models.Document, format docio.Format, indent int, path string) error {
	data, err := docio.Encode(doc, format, indent)
	if err != nil {
		return err
	}
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func printMergeSummary(result *models.MergeResult, resolved int, strategy models.ConflictStrategy) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	s := result.Stats
	if s.AutoMerged == 0 && s.Conflicts == 0 {
		fmt.Fprintln(os.Stderr, "Already up to date.")
		return
	}

	green.Fprintf(os.Stderr, "Merged %d change(s)", s.AutoMerged)
	fmt.Fprintf(os.Stderr, " (%d local, %d remote, %d identical)\n", s.FromLocal, s.FromRemote, s.BothIdentical)
	if resolved > 0 {
		yellow.Fprintf(os.Stderr, "Auto-resolved %d conflict(s) using '%s' strategy\n", resolved, strategy)
	}
}

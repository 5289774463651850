package cli

import (
	"fmt"
	"os"

	"github.com/kilupskalvis/cfgmerge/internal/core"
	"github.com/kilupskalvis/cfgmerge/internal/docio"
	"github.com/kilupskalvis/cfgmerge/internal/models"
	"github.com/spf13/cobra"
)

var driverCmd = &cobra.Command{
	Use:   "driver <base> <current> <other> [path]",
	Short: "Run as a git merge driver",
	Long: `Merge in place for git. The result is written to <current>.

Register the driver once:
  git config merge.cfgmerge.name "structural config merge"
  git config merge.cfgmerge.driver "cfgmerge driver %O %A %B %P"

and select it in .gitattributes:
  *.json merge=cfgmerge
  *.yaml merge=cfgmerge

git's temporary files have no extension, so the format comes from [path]
(%P) when given. On unresolved conflicts <current> keeps the current
branch's value at each conflicting key, the conflicts are printed, and the
exit status is 1 so git marks the file as conflicted.`,
	Args: cobra.RangeArgs(3, 4),
	Run:  runDriver,
}

var driverFormat string

func init() {
	driverCmd.Flags().StringVar(&driverFormat, "format", "", "Format of the files (default: from [path] or <current>)")
}

func runDriver(cmd *cobra.Command, args []string) {
	c := initContextWithHistory()
	defer c.Close()

	format, err := parseOptionalFormat(driverFormat)
	if err != nil {
		exitError("%v", err)
	}
	if format == "" {
		name := args[1]
		if len(args) == 4 {
			name = args[3]
		}
		if format, err = docio.FormatFromPath(name); err != nil {
			exitError("%v (use --format)", err)
		}
	}

	inputs := loadInputs(c, args[:3], format)
	base, current, other := inputs[0], inputs[1], inputs[2]

	result, err := core.Merge(base.Doc, current.Doc, other.Doc, c.mergeOptions(0))
	if err != nil {
		exitError("%v", err)
	}

	merged, resolved, err := core.Resolve(result, c.Config.Strategy)
	if err != nil {
		exitError("%v", err)
	}
	unresolved := len(result.Conflicts) - resolved
	if unresolved > 0 {
		// Keep the current branch's side; git will flag the file anyway
		if merged, _, err = core.Resolve(result, models.ConflictOurs); err != nil {
			exitError("%v", err)
		}
	}

	label := args[1]
	if len(args) == 4 {
		label = args[3]
	}
	c.recordMerge(&mergeRun{
		Base: base, Local: current, Remote: other,
		Output: label, Strategy: c.Config.Strategy,
		Result: result, Resolved: resolved,
	})

	if err := writeDocument(merged, format, c.Config.Indent, args[1]); err != nil {
		exitError("%v", err)
	}

	if unresolved > 0 {
		fmt.Fprintf(os.Stderr, "cfgmerge: %s\n", label)
		printConflicts(os.Stderr, result.Conflicts)
		c.Close()
		exitError("%d unresolved conflict(s) in %s", unresolved, label)
	}
	c.Logger.Info("merged", "path", label, "changes", result.Stats.AutoMerged, "resolved", resolved)
}

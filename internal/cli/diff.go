package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/kilupskalvis/cfgmerge/internal/core"
	"github.com/kilupskalvis/cfgmerge/internal/models"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff <base> <current>",
	Short: "Show the structural changes between two documents",
	Long: `Show every path at which CURRENT differs from BASE, in sorted order.

Sources accept the same forms as merge: a file path or git:<rev>:<path>.

Examples:
  cfgmerge diff git:HEAD:app.yaml app.yaml
  cfgmerge diff --stat old.json new.json`,
	Args: cobra.ExactArgs(2),
	Run:  runDiff,
}

var (
	diffStat        bool
	diffJSON        bool
	diffInputFormat string
	diffMaxDepth    int
)

func init() {
	diffCmd.Flags().BoolVar(&diffStat, "stat", false, "Show diffstat instead of full diff")
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "Print changes as JSON")
	diffCmd.Flags().StringVar(&diffInputFormat, "input-format", "", "Format of both inputs (default: from each file extension)")
	diffCmd.Flags().IntVar(&diffMaxDepth, "max-depth", 0, "Maximum nesting depth (default: from config)")
	diffCmd.MarkFlagsMutuallyExclusive("stat", "json")
}

func runDiff(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	format, err := parseOptionalFormat(diffInputFormat)
	if err != nil {
		exitError("%v", err)
	}
	inputs := loadInputs(c, args, format)

	changes, err := core.DiffFromBase(inputs[0].Doc, inputs[1].Doc, c.mergeOptions(diffMaxDepth))
	if err != nil {
		exitError("failed to compute diff: %v", err)
	}

	if diffJSON {
		printJSON(changes)
		return
	}

	if len(changes) == 0 {
		fmt.Println("No changes")
		return
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	if diffStat {
		stats := models.CountChanges(changes)
		if stats.Added > 0 {
			green.Printf(" %d additions(+)\n", stats.Added)
		}
		if stats.Modified > 0 {
			yellow.Printf(" %d modifications(~)\n", stats.Modified)
		}
		if stats.Deleted > 0 {
			red.Printf(" %d deletions(-)\n", stats.Deleted)
		}
		fmt.Printf(" %d paths changed\n", stats.Total())
		return
	}

	for _, change := range changes {
		switch change.Kind {
		case models.ChangeAdded:
			green.Printf("+ %s: %s\n", change.Path, formatValue(change.NewValue))
		case models.ChangeDeleted:
			red.Printf("- %s: %s\n", change.Path, formatValue(change.BaseValue))
		case models.ChangeModified:
			yellow.Printf("~ %s: ", change.Path)
			red.Print(formatValue(change.BaseValue))
			fmt.Print(" -> ")
			green.Println(formatValue(change.NewValue))
		}
	}
}

package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/kilupskalvis/cfgmerge/internal/models"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show merge history",
	Long:  `Display recorded merges, newest first.`,
	Args:  cobra.NoArgs,
	Run:   runLog,
}

var (
	logOneline bool
	logLimit   int
)

func init() {
	logCmd.Flags().BoolVar(&logOneline, "oneline", false, "Show each merge on a single line")
	logCmd.Flags().IntVarP(&logLimit, "n", "n", 0, "Limit the number of merges to show")
}

func runLog(cmd *cobra.Command, args []string) {
	c := requireHistory()
	defer c.Close()

	records, err := c.Store.ListMerges(logLimit)
	if err != nil {
		exitError("failed to get merge history: %v", err)
	}

	if len(records) == 0 {
		fmt.Println("No merges yet")
		return
	}

	yellow := color.New(color.FgYellow)

	for _, rec := range records {
		if logOneline {
			yellow.Printf("%s ", rec.ShortID())
			printStatus(rec)
			fmt.Printf(" %s\n", rec.Local)
			continue
		}

		yellow.Printf("merge %s ", rec.ID)
		printStatus(rec)
		fmt.Println()
		fmt.Printf("Date:   %s\n", rec.Timestamp.Local().Format("Mon Jan 2 15:04:05 2006"))
		fmt.Printf("\n    base:   %s\n    local:  %s\n    remote: %s\n", rec.Base, rec.Local, rec.Remote)
		if rec.Output != "" {
			fmt.Printf("    output: %s\n", rec.Output)
		}
		fmt.Printf("    (%d auto-merged, %d conflicts)\n\n", rec.Stats.AutoMerged, rec.Stats.Conflicts)
	}
}

// printStatus prints a colored (clean), (resolved: ours) or (conflicts) tag
func printStatus(rec *models.MergeRecord) {
	switch {
	case rec.Stats.Conflicts == 0:
		color.New(color.FgGreen).Print("(clean)")
	case rec.Clean():
		color.New(color.FgCyan).Printf("(resolved: %s)", rec.Strategy)
	default:
		color.New(color.FgRed).Print("(conflicts)")
	}
}

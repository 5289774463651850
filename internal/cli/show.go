package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/kilupskalvis/cfgmerge/internal/store"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [merge]",
	Short: "Show merge details",
	Long:  `Show details about a recorded merge, including every conflict. Defaults to the latest merge.`,
	Args:  cobra.MaximumNArgs(1),
	Run:   runShow,
}

var showJSON bool

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the record as JSON")
}

func runShow(cmd *cobra.Command, args []string) {
	c := requireHistory()
	defer c.Close()

	var id string
	if len(args) > 0 {
		id = args[0]
	} else {
		latest, err := c.Store.ListMerges(1)
		if err != nil {
			exitError("failed to get merge history: %v", err)
		}
		if len(latest) == 0 {
			exitError("no merges yet")
		}
		id = latest[0].ID
	}

	rec, err := c.Store.GetMerge(id)
	if errors.Is(err, store.ErrAmbiguous) {
		exitError("ambiguous merge id %s: use more characters", id)
	} else if err != nil {
		exitError("merge not found: %s", id)
	}

	if showJSON {
		printJSON(rec)
		return
	}

	yellow := color.New(color.FgYellow)
	yellow.Printf("merge %s ", rec.ID)
	printStatus(rec)
	fmt.Println()
	fmt.Printf("Date:     %s\n", rec.Timestamp.Local().Format("Mon Jan 2 15:04:05 2006"))
	fmt.Printf("Strategy: %s\n", rec.Strategy)
	fmt.Printf("\n    base:   %s\n    local:  %s\n    remote: %s\n", rec.Base, rec.Local, rec.Remote)
	if rec.Output != "" {
		fmt.Printf("    output: %s\n", rec.Output)
	}

	s := rec.Stats
	fmt.Printf("\n%d local and %d remote change(s)\n", s.LocalChanges, s.RemoteChanges)
	color.New(color.FgGreen).Printf("  %d auto-merged", s.AutoMerged)
	fmt.Printf(" (%d local, %d remote, %d identical)\n", s.FromLocal, s.FromRemote, s.BothIdentical)
	if s.Conflicts > 0 {
		fmt.Printf("  %d conflict(s), %d resolved\n", s.Conflicts, rec.ResolvedConflicts)
	}

	printConflicts(os.Stdout, rec.Conflicts)
}

package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/kilupskalvis/cfgmerge/internal/models"
)

func printConflicts(w io.Writer, conflicts []*models.MergeConflict) {
	if len(conflicts) == 0 {
		return
	}

	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)

	red.Fprintf(w, "\nCONFLICTS (%d):\n", len(conflicts))
	for _, c := range conflicts {
		sev := yellow
		if c.Severity == models.SeverityHigh {
			sev = red
		}
		sev.Fprintf(w, "  %-14s", c.Type)
		fmt.Fprintf(w, " %s\n", c.Path)
		fmt.Fprintf(w, "      base:   %s\n", sideValue(c.HasBase, c.Base))
		fmt.Fprintf(w, "      local:  %s\n", sideValue(c.HasLocal, c.Local))
		fmt.Fprintf(w, "      remote: %s\n", sideValue(c.HasRemote, c.Remote))
	}
}

func sideValue(present bool, v any) string {
	if !present {
		return "(absent)"
	}
	return formatValue(v)
}

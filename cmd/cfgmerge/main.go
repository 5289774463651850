// Command cfgmerge merges configuration documents structurally.
package main

import (
	"os"

	"github.com/kilupskalvis/cfgmerge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

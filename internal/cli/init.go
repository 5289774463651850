package cli

import (
	"fmt"

	"github.com/kilupskalvis/cfgmerge/internal/config"
	"github.com/kilupskalvis/cfgmerge/internal/store"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize cfgmerge in the current directory",
	Long: `Write a default ` + config.ConfigFile + ` in the current directory and create the
merge history database under ` + config.DataDir + `/.`,
	Args: cobra.NoArgs,
	Run:  runInit,
}

var initBackend string

func init() {
	initCmd.Flags().StringVar(&initBackend, "backend", config.BackendBolt, "History backend (bbolt or sqlite)")
}

func runInit(cmd *cobra.Command, args []string) {
	if root, err := config.FindRoot("."); err == nil {
		exitError("cfgmerge is already initialized in %s", root)
	}

	cfg, err := config.Initialize(".")
	if err != nil {
		exitError("failed to initialize config: %v", err)
	}

	if initBackend != cfg.History.Backend {
		cfg.History.Backend = initBackend
		if err := cfg.Validate(); err != nil {
			exitError("%v", err)
		}
		if err := cfg.Save(); err != nil {
			exitError("failed to save config: %v", err)
		}
	}

	st, err := store.Open(cfg.History.Backend, cfg.DatabasePath())
	if err != nil {
		exitError("failed to initialize history: %v", err)
	}
	defer st.Close()

	fmt.Printf("Initialized cfgmerge in %s\n", cfg.Root())
	fmt.Printf("History: %s (%s)\n", cfg.DatabasePath(), cfg.History.Backend)
}

// Package cli implements the command-line interface for cfgmerge.
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/kilupskalvis/cfgmerge/internal/config"
	"github.com/kilupskalvis/cfgmerge/internal/core"
	"github.com/kilupskalvis/cfgmerge/internal/docio"
	"github.com/kilupskalvis/cfgmerge/internal/store"
	"github.com/spf13/cobra"
)

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config *config.Config
	Store  store.Store // nil when history is disabled
	Loader *docio.Loader
	Logger *slog.Logger
}

// Close releases resources held by cmdContext. It is safe to call more
// than once; commands call it before exiting non-zero since os.Exit skips
// deferred calls.
func (c *cmdContext) Close() {
	if c.Store != nil {
		c.Store.Close()
		c.Store = nil
	}
}

// mergeOptions returns the core options from config, overridden by a
// non-zero maxDepth flag
func (c *cmdContext) mergeOptions(maxDepth int) core.Options {
	opts := core.Options{MaxDepth: c.Config.MaxDepth}
	if maxDepth > 0 {
		opts.MaxDepth = maxDepth
	}
	return opts
}

var (
	rootConfig   string
	rootVerbose  bool
	rootLogLevel string
)

// initContext loads config and sets up logging (no history store)
func initContext() *cmdContext {
	var (
		cfg *config.Config
		err error
	)
	if rootConfig != "" {
		cfg, err = config.LoadFile(rootConfig)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		exitError("%v", err)
	}

	return &cmdContext{
		Config: cfg,
		Loader: &docio.Loader{},
		Logger: newLogger(cfg),
	}
}

// initContextWithHistory also opens the history store when it is enabled
func initContextWithHistory() *cmdContext {
	ctx := initContext()
	if !ctx.Config.History.Enabled || ctx.Config.Root() == "" {
		return ctx
	}

	st, err := store.Open(ctx.Config.History.Backend, ctx.Config.DatabasePath())
	if err != nil {
		exitError("failed to open history: %v", err)
	}
	ctx.Store = st
	ctx.Logger.Debug("opened history", "backend", ctx.Config.History.Backend, "path", ctx.Config.DatabasePath())
	return ctx
}

// requireHistory is initContextWithHistory for commands that only read history
func requireHistory() *cmdContext {
	ctx := initContextWithHistory()
	if ctx.Store == nil {
		ctx.Close()
		exitError("merge history is not enabled (run 'cfgmerge init' first)")
	}
	return ctx
}

// newLogger builds a leveled logger writing to stderr. --log-level beats
// --verbose, which beats the config file.
func newLogger(cfg *config.Config) *slog.Logger {
	levelName := cfg.LogLevel
	if rootVerbose {
		levelName = "debug"
	}
	if rootLogLevel != "" {
		levelName = rootLogLevel
	}

	level, err := log.ParseLevel(levelName)
	if err != nil {
		level = log.InfoLevel
	}

	handler := log.NewWithOptions(os.Stderr, log.Options{
		Level:  level,
		Prefix: "cfgmerge",
	})
	return slog.New(handler)
}

var rootCmd = &cobra.Command{
	Use:   "cfgmerge",
	Short: "Structural three-way merge for configuration files",
	Long: `cfgmerge merges JSON, YAML and TOML configuration documents the way a
version control system merges text: two edited copies are compared against
their common ancestor, independent edits are combined, and edits that
collide are reported as typed conflicts instead of conflict markers.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfig, "config", "", "Path to config file (default: nearest "+config.ConfigFile+")")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(driverCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(showCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// printJSON writes v to stdout as indented JSON
func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		exitError("failed to encode json: %v", err)
	}
}

// formatValue renders a document value on one line
func formatValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

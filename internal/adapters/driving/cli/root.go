// Package cli implements the notewatch command line.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notewatch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/notewatch/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Global flags.
var (
	configPath string
	notesDir   string
	verbose    bool
)

// app is built before any command that touches the pipeline or the
// audit tables, and closed after it.
var app *App

// newApp builds the application for a loaded configuration. Tests replace it.
var newApp = buildApp

var rootCmd = &cobra.Command{
	Use:   "notewatch",
	Short: "Watch note metadata and run workflows on change",
	Long: `notewatch polls a tree of plain-text notes, diffs their YAML frontmatter
against the last known state, and runs the workflows of matching rules
exactly once per change. Every detected change and every dispatch attempt
is recorded in a local SQLite database.`,
	SilenceUsage:       true,
	PersistentPostRunE: teardown,
}

func init() {
	// Assigned here rather than in the literal: setup refers back to
	// rootCmd through isStandalone, which would be an initialization cycle.
	rootCmd.PersistentPreRunE = setup
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.notewatch/config.toml)")
	rootCmd.PersistentFlags().StringVar(&notesDir, "notes", "", "notes directory (overrides notes_dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logger.Sync() }()
	defer closeApp()
	return rootCmd.Execute()
}

// closeApp releases the application if a failed command skipped teardown.
func closeApp() {
	if app != nil {
		if err := app.Close(); err != nil {
			logger.Warn("close: %v", err)
		}
		app = nil
	}
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// standalone marks commands that run without loading the pipeline.
const standalone = "standalone"

func isStandalone(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[standalone]; ok || c.Name() == "completion" {
			return true
		}
	}
	return cmd.Name() == "help" || cmd == rootCmd
}

func newLoader() (*file.Loader, error) {
	return file.NewLoader(configPath)
}

func setup(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}
	if isStandalone(cmd) {
		return nil
	}

	loader, err := newLoader()
	if err != nil {
		return err
	}
	loader.SetNotesDir(notesDir)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config %s: %w", loader.Path(), err)
	}
	if verbose {
		cfg.Verbose = true
	}
	logger.SetVerbose(cfg.Verbose)

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	app = a
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	err := app.Close()
	app = nil
	return err
}

// requireApp returns the application or an error for commands invoked
// without setup having run.
func requireApp() (*App, error) {
	if app == nil {
		return nil, errors.New("notewatch not configured")
	}
	return app, nil
}

// Package cli implements the untangle command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/untangle/pkg/buildinfo"
	"github.com/matzehuels/untangle/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "untangle"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default config file location (--config).
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Untangle finds and resolves dependency injection cycles",
		Long:         `Untangle analyzes dependency injection wiring graphs: it detects circular dependencies, enumerates the elementary cycles behind them, and proposes the cheapest structural changes that break every cycle.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "path to config file (default ~/.config/untangle/config.toml)")

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.detectCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner for CLI use, honoring the cache
// backend from the config file.
func (c *CLI) newRunner(cmd *cobra.Command, noCache bool) (*pipeline.Runner, *Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	if noCache {
		cfg.Cache.Backend = cacheBackendNone
	}
	store, err := newCache(cmd.Context(), cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	runner := pipeline.NewRunner(store, nil, c.Logger)
	runner.TTL = cfg.Cache.reportTTL()
	return runner, cfg, nil
}

// cacheDir returns the cache directory using the XDG convention
// (~/.cache/untangle/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

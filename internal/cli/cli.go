// Package cli implements the orgtree command-line interface.
//
// # Commands
//
//   - render: draw a record file as SVG, PNG, DOT, Graphviz node-link or
//     JSON layout, with an optional view root and toggled nodes
//   - layout: write the JSON layout of a record file
//   - serve: run the live preview server, optionally reloading on change
//   - tui: browse and toggle the chart in the terminal
//   - convert: rewrite a record file between JSON and YAML
//   - config: print or initialise the orgtree.toml config file
//   - cache: inspect and prune the artifact cache
//
// All commands accept --config to name a config file; without it
// orgtree.toml in the working directory is used when present.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orgtree/pkg/buildinfo"
	"github.com/matzehuels/orgtree/pkg/cache"
	"github.com/matzehuels/orgtree/pkg/config"
	"github.com/matzehuels/orgtree/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "orgtree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogError = log.ErrorLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is the --config flag.
	configPath string
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Orgtree draws interactive org charts",
		Long:         `Orgtree turns flat parent/child records into collapsible, zoomable org charts and renders them as animated SVG, PNG, Graphviz or JSON layouts.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./"+config.DefaultPath+" when present)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig resolves the --config flag.
func (c *CLI) loadConfig() (*config.File, error) {
	f, err := config.Discover(c.configPath)
	if err != nil {
		return nil, err
	}
	if f.Path != "" {
		c.Logger.Debug("loaded config", "path", f.Path)
	}
	return &f, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner with the cache backend the config
// names. Keys are scoped to the build version.
func (c *CLI) newRunner(ctx context.Context, cfg *config.File, noCache bool) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Version+":")
	runner := pipeline.NewRunner(store, keyer, c.Logger)
	runner.TTL = cfg.CacheTTL()
	return runner, nil
}

func (c *CLI) newCache(ctx context.Context, cfg *config.File, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		store, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		}, cache.WithPrefix(cfg.Cache.Prefix))
		if err != nil {
			// A missing cache should not block rendering.
			c.Logger.Warn("redis cache unavailable, rendering without cache", "addr", cfg.Cache.RedisAddr, "error", err)
			return cache.NewNullCache(), nil
		}
		return store, nil
	case config.CacheFile:
		dir, err := cfg.CacheDir()
		if err != nil {
			c.Logger.Debug("no cache directory, rendering without cache", "error", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	default:
		return cache.NewNullCache(), nil
	}
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// sizeFlags registers --width and --height, which override the config.
func sizeFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "container width (default from config)")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "container height (default from config)")
}

// viewFlags registers the view root and toggle flags.
func viewFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().StringVar(&opts.Root, "root", "", "show only the subtree under this node")
	cmd.Flags().StringSliceVarP(&opts.Toggles, "toggle", "t", nil, "toggle these nodes in order after loading (repeatable)")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "", "record format: json or yaml (default from extension)")
}

func fileArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return fmt.Errorf("expected one record file: %w", err)
	}
	return nil
}

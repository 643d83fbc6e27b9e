package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgtree/pkg/cache"
	"github.com/matzehuels/orgtree/pkg/config"
	orgerrors "github.com/matzehuels/orgtree/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the rendered artifact cache",
		Long: `Manage the rendered artifact cache.

These commands act on the file cache named by [cache] dir in the config,
or the user cache directory when unset. Redis entries expire by TTL.`,
	}

	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePruneCommand())

	return cmd
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			dir, err := cfg.CacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.fileCache()
			if err != nil {
				return err
			}
			n, err := store.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Cleared %d cached entries", n)
			printDetail("Directory: %s", store.Dir())
			return nil
		},
	}
}

func (c *CLI) cachePruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired and unreadable cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.fileCache()
			if err != nil {
				return err
			}
			return c.prune(cmd.Context(), store)
		},
	}
}

func (c *CLI) prune(ctx context.Context, store *cache.FileCache) error {
	p := newProgress(c.Logger)
	n, err := store.Prune(ctx)
	if err != nil {
		return fmt.Errorf("prune cache: %w", err)
	}
	p.done("pruned cache", "removed", n)
	if n == 0 {
		printInfo("Nothing to prune")
		return nil
	}
	printSuccess("Pruned %d cache entries", n)
	printDetail("Directory: %s", store.Dir())
	return nil
}

// fileCache opens the file cache of the current config.
func (c *CLI) fileCache() (*cache.FileCache, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Backend != config.CacheFile {
		return nil, orgerrors.New(orgerrors.ErrCodeUnsupported,
			"cache backend %q has no local entries; only the %q backend can be managed", cfg.Cache.Backend, config.CacheFile)
	}
	dir, err := cfg.CacheDir()
	if err != nil {
		return nil, fmt.Errorf("get cache dir: %w", err)
	}
	return cache.NewFileCache(dir)
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/ppiankov/nyaya/internal/cache"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear cached reference data",
	Long: `Acts and law mappings change rarely, so their listings are cached in
memory and under cache.dir (default ~/.nyaya/cache) for cache.disk_ttl.
Judgments and bookmarks are never cached.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cached entries per resource",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if a.cache == nil {
			fmt.Fprintln(os.Stderr, "Caching is disabled (cache.enabled: false)")
			return nil
		}

		stats, err := a.cache.Stats()
		if err != nil {
			return fmt.Errorf("read cache: %w", err)
		}
		if a.printer.Format() == "json" {
			return a.printer.JSON(stats)
		}
		for _, r := range cache.Resources {
			fmt.Printf("%-14s %d\n", r, stats[r])
		}
		fmt.Printf("%-14s %d\n", "total", stats.Total())
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [resource]",
	Short: "Drop cached entries of one resource, or all of them",
	Long: `Clear drops cached listings so the next request goes to the backend.

Resources: ` + strings.Join(cache.Resources, ", "),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resource := ""
		if len(args) == 1 {
			resource = args[0]
			if !slices.Contains(cache.Resources, resource) {
				return fmt.Errorf("unknown resource %q (expected one of %s)", resource, strings.Join(cache.Resources, ", "))
			}
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		if a.cache == nil {
			return errors.New("caching is disabled (cache.enabled: false)")
		}

		n, err := a.client.InvalidateCache(resource)
		if err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Removed %d cached entries\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
}

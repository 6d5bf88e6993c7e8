package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/obentoo/bvc/internal/common/config"
	"github.com/obentoo/bvc/internal/common/logger"
	"github.com/obentoo/bvc/internal/common/output"
	"github.com/obentoo/bvc/internal/index"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the release cache",
	Long: `The release cache keeps the versions published on the index for
index.cache_ttl_minutes (see "bvc config show"). It is disabled when the
TTL is 0 and bypassed by "bvc check --no-cache".`,
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the release cache location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		dir, err := config.CacheDir()
		if err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
		printCachePath(cmd.OutOrStdout(), dir)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached release list",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		dir, err := config.CacheDir()
		if err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
		if err := clearCache(dir); err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
	},
}

func init() {
	cacheCmd.AddCommand(cachePathCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

// printCachePath prints the cache file held in dir, which may not exist yet
func printCachePath(w io.Writer, dir string) {
	fmt.Fprintln(w, filepath.Join(dir, index.CacheFileName))
}

// clearCache empties the cache stored in dir
func clearCache(dir string) error {
	cache, err := index.NewCache(dir, 0)
	if err != nil {
		return err
	}
	entries := cache.Len()
	if err := cache.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	output.PrintSuccess("Removed %d cached release lists from %s", entries, cache.Path())
	return nil
}

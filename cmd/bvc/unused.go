package main

import (
	"os"

	"github.com/obentoo/bvc/internal/buildout"
	"github.com/obentoo/bvc/internal/checker"
	"github.com/obentoo/bvc/internal/common/logger"
	"github.com/obentoo/bvc/internal/common/output"
	"github.com/spf13/cobra"
)

var (
	// unusedEggs is the eggs directory to scan
	unusedEggs string
	// unusedExcludes skips packages by name or pattern
	unusedExcludes []string
	// unusedWrite removes the unused pins from the source
	unusedWrite bool
	// unusedWriter holds --indent and --sorting
	unusedWriter writerFlags
)

var unusedCmd = &cobra.Command{
	Use:   "unused [source]",
	Short: "Find unused pinned eggs",
	Long: `Find the pins of the [versions] section of a buildout file
(default: versions.cfg) with no matching egg in the eggs directory.

Examples:
  bvc unused                          Compare versions.cfg with ./eggs/
  bvc unused --eggs /srv/buildout/eggs
  bvc unused -e setuptools -e "zc.recipe.*"
  bvc unused -w --indent auto         Remove the unused pins from the source`,
	Args: cobra.MaximumNArgs(1),
	Run:  runUnused,
}

func init() {
	flags := unusedCmd.Flags()
	flags.StringVar(&unusedEggs, "eggs", "", "Directory where the eggs are installed (default: ./eggs/)")
	flags.StringArrayVarP(&unusedExcludes, "exclude", "e", nil, "Exclude package or pattern when finding unused versions (can be used multiple times)")
	flags.BoolVarP(&unusedWrite, "write", "w", false, "Remove the unused versions from the source file")
	unusedWriter.register(flags)
	completeWriterFlags(unusedCmd)

	rootCmd.AddCommand(unusedCmd)
}

// unusedOptions are the resolved settings of an unused run
type unusedOptions struct {
	source   string
	eggs     string
	excludes []string
	write    bool
	writer   *buildout.Writer
}

func runUnused(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	opts := &unusedOptions{
		source:   sourceArg(args),
		eggs:     cfg.Unused.Eggs,
		excludes: unusedExcludes,
		write:    unusedWrite,
	}
	if cmd.Flags().Changed("eggs") {
		opts.eggs = unusedEggs
	}

	writer, err := unusedWriter.writer(cmd.Flags(), cfg.Writer.Indent, cfg.Writer.Sorting)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	opts.writer = writer

	if err := executeUnused(opts, reporter()); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// executeUnused reports the unused pins and optionally removes them.
func executeUnused(opts *unusedOptions, report *output.Reporter) error {
	result, err := checker.NewUnusedChecker(opts.eggs, opts.excludes).Check(opts.source)
	if err != nil {
		return err
	}
	if len(result.Unused) == 0 {
		return nil
	}

	for _, name := range result.Unused {
		report.Unused(name)
	}

	if !opts.write {
		return nil
	}

	doc, err := checker.LoadDocument(opts.source)
	if err != nil {
		return err
	}
	checker.RemovePins(doc, result.Unused)
	if err := opts.writer.WriteFile(opts.source, doc); err != nil {
		return err
	}
	logger.Info("- %s updated.", opts.source)
	return nil
}

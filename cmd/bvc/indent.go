package main

import (
	"os"

	"github.com/obentoo/bvc/internal/buildout"
	"github.com/obentoo/bvc/internal/common/logger"
	"github.com/obentoo/bvc/internal/common/output"
	"github.com/spf13/cobra"
)

var (
	// indentSources are the files given with -s
	indentSources []string
	// indentWriter holds --indent and --sorting
	indentWriter writerFlags
)

var indentCmd = &cobra.Command{
	Use:   "indent [-s source]... [source]...",
	Short: "(Re)indent buildout related files",
	Long: `Rewrite buildout files with aligned "key = value" columns.

Examples:
  bvc indent -s buildout.cfg -s versions.cfg
  bvc indent *.cfg --indent auto --sorting alpha`,
	Run: runIndent,
}

func init() {
	flags := indentCmd.Flags()
	flags.StringArrayVarP(&indentSources, "source", "s", nil, "The buildout files to (re)indent (can be used multiple times)")
	indentWriter.register(flags)
	completeWriterFlags(indentCmd)

	rootCmd.AddCommand(indentCmd)
}

func runIndent(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	writer, err := indentWriter.writer(cmd.Flags(), cfg.Writer.Indent, cfg.Writer.Sorting)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	sources := append(append([]string{}, indentSources...), args...)
	if err := executeIndent(sources, writer, reporter()); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// executeIndent rewrites every readable source. Unreadable sources are
// reported and skipped; a failed write stops the run.
func executeIndent(sources []string, writer *buildout.Writer, report *output.Reporter) error {
	if len(sources) == 0 {
		report.Message("No files to (re)indent")
		return nil
	}

	for _, source := range sources {
		doc, err := buildout.ParseFile(source)
		if err != nil {
			logger.Info("%v", err)
			report.Unreadable(source)
			continue
		}

		if err := writer.WriteFile(source, doc); err != nil {
			return err
		}
		report.Indented(source, writer.ResolveIndentation(doc))
	}
	return nil
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/obentoo/bvc/internal/buildout"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// indentValue is a pflag.Value accepting a column width or "auto"
type indentValue struct {
	width int
}

var _ pflag.Value = (*indentValue)(nil)

func (v *indentValue) String() string {
	if v.width == buildout.AutoIndentation {
		return "auto"
	}
	return strconv.Itoa(v.width)
}

func (v *indentValue) Set(s string) error {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "auto") {
		v.width = buildout.AutoIndentation
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("expected a non-negative number of spaces or \"auto\", got %q", s)
	}
	v.width = n
	return nil
}

func (v *indentValue) Type() string {
	return "N|auto"
}

// sortingValue is a pflag.Value restricted to the buildout sortings
type sortingValue struct {
	sorting buildout.Sorting
}

var _ pflag.Value = (*sortingValue)(nil)

func (v *sortingValue) String() string {
	return v.sorting.String()
}

func (v *sortingValue) Set(s string) error {
	sorting, err := buildout.ParseSorting(s)
	if err != nil {
		return err
	}
	v.sorting = sorting
	return nil
}

func (v *sortingValue) Type() string {
	return strings.Join(buildout.SortingNames(), "|")
}

// writerFlags holds the --indent and --sorting flags shared by the commands
// that rewrite buildout files
type writerFlags struct {
	indent  indentValue
	sorting sortingValue
}

func (f *writerFlags) register(flags *pflag.FlagSet) {
	flags.Var(&f.indent, "indent", `Spaces used when indenting "key = value", or "auto" (default: 32)`)
	flags.Var(&f.sorting, "sorting", "Sorting algorithm used on the keys when writing source file")
}

// completeWriterFlags registers shell completion for the flags of register
func completeWriterFlags(cmd *cobra.Command) {
	cmd.RegisterFlagCompletionFunc("indent", cobra.FixedCompletions([]string{"auto", "4", "24", "32"}, cobra.ShellCompDirectiveNoFileComp))
	cmd.RegisterFlagCompletionFunc("sorting", cobra.FixedCompletions(buildout.SortingNames(), cobra.ShellCompDirectiveNoFileComp))
}

// writer returns the buildout writer configured by the flags, falling back
// to the configuration for flags left unset.
func (f *writerFlags) writer(flags *pflag.FlagSet, indent, sorting string) (*buildout.Writer, error) {
	width := f.indent
	if !flags.Changed("indent") {
		if err := width.Set(indent); err != nil {
			return nil, fmt.Errorf("writer.indent: %w", err)
		}
	}

	order := f.sorting
	if !flags.Changed("sorting") {
		if err := order.Set(sorting); err != nil {
			return nil, fmt.Errorf("writer.sorting: %w", err)
		}
	}

	return buildout.NewWriter(width.width, order.sorting), nil
}

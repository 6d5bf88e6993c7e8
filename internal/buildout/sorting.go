package buildout

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// ErrUnknownSorting is returned when a sorting name is not recognized
var ErrUnknownSorting = errors.New("unknown sorting")

// Sorting selects how keys are ordered when a section is written.
type Sorting int

const (
	// SortNone keeps insertion order
	SortNone Sorting = iota
	// SortAlpha orders keys case-insensitively
	SortAlpha
	// SortASCII orders keys by byte value
	SortASCII
	// SortLength orders keys by length, ties in ASCII order
	SortLength
)

var sortingNames = map[Sorting]string{
	SortNone:   "none",
	SortAlpha:  "alpha",
	SortASCII:  "ascii",
	SortLength: "length",
}

// SortingNames lists the accepted sorting names, for flag help and completion.
func SortingNames() []string {
	return []string{"none", "alpha", "ascii", "length"}
}

func (s Sorting) String() string {
	if name, ok := sortingNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Sorting(%d)", int(s))
}

// ParseSorting converts a sorting name. The empty string means SortNone.
func ParseSorting(name string) (Sorting, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return SortNone, nil
	case "alpha":
		return SortAlpha, nil
	case "ascii":
		return SortASCII, nil
	case "length":
		return SortLength, nil
	}
	return SortNone, fmt.Errorf("%w: %q (expected one of %s)",
		ErrUnknownSorting, name, strings.Join(SortingNames(), ", "))
}

// Sort returns the entries ordered by s. The input slice is left untouched.
func (s Sorting) Sort(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	switch s {
	case SortAlpha:
		sortAlpha(sorted)
	case SortASCII:
		sortASCII(sorted)
	case SortLength:
		sortASCII(sorted)
		sort.SliceStable(sorted, func(i, j int) bool {
			return utf8.RuneCountInString(sorted[i].Name()) < utf8.RuneCountInString(sorted[j].Name())
		})
	}

	return sorted
}

func sortASCII(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
}

func sortAlpha(entries []Entry) {
	fold := cases.Fold()
	keys := make(map[string]string, len(entries))
	for _, e := range entries {
		keys[e.Name()] = fold.String(e.Name())
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return keys[entries[i].Name()] < keys[entries[j].Name()]
	})
}

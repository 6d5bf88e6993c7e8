// Package pep440 selects Python package releases. Parsing, ordering and
// specifier matching come from github.com/aquasecurity/go-pep440-version;
// this package adds the lenient handling of index data the checker needs.
package pep440

import (
	"errors"
	"fmt"
	"strings"

	goversion "github.com/aquasecurity/go-pep440-version"
)

// Default is the version reported for packages without a pin or without any
// release on the index
const Default = "0.0.0"

// Error variables for version handling
var (
	// ErrInvalidVersion is returned when a string is not a valid version
	ErrInvalidVersion = errors.New("invalid version")
	// ErrInvalidSpecifier is returned when a specifier string is malformed
	ErrInvalidSpecifier = errors.New("invalid version specifier")
)

// Parse parses a version string, ignoring surrounding whitespace.
func Parse(s string) (goversion.Version, error) {
	v, err := goversion.Parse(strings.TrimSpace(s))
	if err != nil {
		return goversion.Version{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
	}
	return v, nil
}

// CompareStrings compares two version strings; unparsable strings sort lowest.
func CompareStrings(a, b string) int {
	av, aErr := Parse(a)
	bv, bErr := Parse(b)
	switch {
	case aErr != nil && bErr != nil:
		return strings.Compare(a, b)
	case aErr != nil:
		return -1
	case bErr != nil:
		return 1
	}
	return av.Compare(bv)
}

// Latest returns the highest valid version among candidates, in its original
// spelling. It reports false when no candidate parses.
func Latest(candidates []string) (string, bool) {
	var (
		best     goversion.Version
		spelling string
		found    bool
	)
	for _, c := range candidates {
		v, err := Parse(c)
		if err != nil {
			continue
		}
		if !found || v.Compare(best) > 0 {
			best, spelling, found = v, c, true
		}
	}
	return spelling, found
}

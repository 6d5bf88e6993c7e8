package checker

import (
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/cases"
)

// PatternValidator validates exclude patterns for safety.
// Patterns without wildcards are exact package names; patterns with
// wildcards must be specific enough not to exclude the whole versions
// section by accident.
type PatternValidator struct{}

// ValidationError represents a pattern validation failure.
type ValidationError struct {
	Pattern string // The pattern that failed validation
	Reason  string // Human-readable explanation of why validation failed
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid pattern '%s': %s", e.Pattern, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidPattern) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidPattern
}

// NewPatternValidator creates a new PatternValidator instance.
func NewPatternValidator() *PatternValidator {
	return &PatternValidator{}
}

// Validate checks if an exclude pattern is safe to use.
//
// Validation rules:
//   - Patterns without wildcards are always valid
//   - Patterns with wildcards must have at least 3 characters before the first wildcard
//   - A token ending in '-', '_' or '.' right before the wildcard must be at least 2 characters
//   - A bare "*" pattern is rejected as too broad
//   - The pattern must be a well-formed glob
//
// Examples of valid patterns: "collective.*", "plone.app.*", "zope*", "Django"
// Examples of invalid patterns: "*", "z*", "zc*", "a.*", "foo[", ""
func (v *PatternValidator) Validate(pattern string) error {
	if pattern == "" {
		return &ValidationError{
			Pattern: pattern,
			Reason:  "pattern cannot be empty",
		}
	}

	wildcardPos := findFirstWildcard(pattern)
	if wildcardPos == -1 {
		return nil
	}

	if pattern == "*" || pattern == "?" {
		return &ValidationError{
			Pattern: pattern,
			Reason:  "pattern is too broad; must specify at least one complete token before wildcards",
		}
	}

	if wildcardPos < 3 {
		return &ValidationError{
			Pattern: pattern,
			Reason:  fmt.Sprintf("pattern must have at least 3 characters before wildcards (found %d)", wildcardPos),
		}
	}

	if !isTokenComplete(pattern[:wildcardPos]) {
		return &ValidationError{
			Pattern: pattern,
			Reason:  "pattern must have at least one complete token (separated by '-', '_' or '.') before wildcards",
		}
	}

	if _, err := path.Match(pattern, ""); err != nil {
		return &ValidationError{
			Pattern: pattern,
			Reason:  err.Error(),
		}
	}

	return nil
}

// findFirstWildcard returns the position of the first glob metacharacter
// in the pattern, or -1 if there is none.
func findFirstWildcard(pattern string) int {
	return strings.IndexAny(pattern, "*?[")
}

// isTokenComplete checks the text before the first wildcard.
// "plone.app.*" and "zope*" are complete, "a.*" is not.
func isTokenComplete(prefix string) bool {
	last := prefix[len(prefix)-1]
	if last == '-' || last == '_' || last == '.' {
		trimmed := strings.TrimRight(prefix, "-_.")
		i := strings.LastIndexAny(trimmed, "-_.")
		return len(trimmed)-(i+1) >= 2
	}
	return len(prefix) >= 3
}

// nameMatcher matches package names against exact names and glob patterns,
// ignoring case.
type nameMatcher struct {
	exact    map[string]bool
	patterns []string
}

// newNameMatcher validates every pattern and builds the matcher.
func newNameMatcher(patterns []string) (*nameMatcher, error) {
	validator := NewPatternValidator()
	m := &nameMatcher{exact: make(map[string]bool)}

	for _, p := range patterns {
		if err := validator.Validate(p); err != nil {
			return nil, err
		}
		folded := foldName(p)
		if findFirstWildcard(p) == -1 {
			m.exact[folded] = true
		} else {
			m.patterns = append(m.patterns, folded)
		}
	}
	return m, nil
}

// Match reports whether name is matched by one of the names or patterns.
func (m *nameMatcher) Match(name string) bool {
	folded := foldName(name)
	if m.exact[folded] {
		return true
	}
	for _, p := range m.patterns {
		if matched, _ := path.Match(p, folded); matched {
			return true
		}
	}
	return false
}

// foldName returns the caseless form of a package name.
// A Caser keeps state, so one is created per call.
func foldName(name string) string {
	return cases.Fold().String(name)
}

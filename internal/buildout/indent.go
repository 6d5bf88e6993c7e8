package buildout

import (
	"errors"
	"unicode/utf8"
)

// DefaultRounding is the granularity used for perfect indentation.
const DefaultRounding = 4

// Error variables for indentation errors
var (
	// ErrEmptyInput is returned when indentation is computed without any key
	ErrEmptyInput = errors.New("cannot compute indentation of an empty key set")
	// ErrInvalidRounding is returned when the rounding granularity is not positive
	ErrInvalidRounding = errors.New("rounding must be a positive integer")
)

// PerfectIndentation returns the smallest multiple of rounding strictly greater
// than the longest key, measured in characters.
// A key whose length is already a multiple of rounding still gets a full extra step:
// {"Option", "Option-multiline"} with rounding 4 gives 20.
func PerfectIndentation(keys []string, rounding int) (int, error) {
	if rounding <= 0 {
		return 0, ErrInvalidRounding
	}
	if len(keys) == 0 {
		return 0, ErrEmptyInput
	}

	maxLength := 0
	for _, k := range keys {
		if n := utf8.RuneCountInString(k); n > maxLength {
			maxLength = n
		}
	}

	return maxLength + (rounding - maxLength%rounding), nil
}

// Package dist parses Python distribution filenames: eggs, source
// distributions and wheels.
package dist

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// Error variables for filename parsing
var (
	// ErrInvalidFilename is returned when a known format lacks its name or version
	ErrInvalidFilename = errors.New("invalid distribution filename")
	// ErrUnknownFormat is returned for extensions that are not a distribution
	ErrUnknownFormat = errors.New("unknown distribution format")
)

// Kind is the distribution format
type Kind int

const (
	// KindEgg is a setuptools .egg archive
	KindEgg Kind = iota
	// KindSdist is a source archive such as .tar.gz or .zip
	KindSdist
	// KindWheel is a built .whl archive
	KindWheel
)

func (k Kind) String() string {
	switch k {
	case KindEgg:
		return "egg"
	case KindSdist:
		return "sdist"
	case KindWheel:
		return "wheel"
	}
	return "unknown"
}

// eggRegex matches: name-version[-pyX.Y[-platform]].egg
// Dashes inside the project name are escaped as underscores by setuptools
var eggRegex = regexp.MustCompile(`^([^-/]+)-([^-/]+)(?:-py(\d+(?:\.\d+)*)(?:-([^/]+))?)?\.egg$`)

// wheelRegex matches: name-version[-build]-python-abi-platform.whl
var wheelRegex = regexp.MustCompile(`^([^-/]+)-([^-/]+)(?:-(\d[^-/]*))?-([^-/]+)-([^-/]+)-([^-/]+)\.whl$`)

// sdistExtensions lists archive suffixes, longest first
var sdistExtensions = []string{".tar.bz2", ".tar.gz", ".tar.xz", ".tar", ".tbz", ".tgz", ".txz", ".zip"}

// normalizeRegex collapses runs of separators in project names
var normalizeRegex = regexp.MustCompile(`[-_.]+`)

// Filename represents a parsed distribution filename
type Filename struct {
	Project   string // as spelled in the filename, e.g. "zc.buildout"
	Version   string // e.g. "2.13.3"
	Kind      Kind
	Python    string // egg python version or wheel python tag
	Platform  string // egg platform or wheel platform tag
	Extension string // archive suffix of an sdist, e.g. ".tar.gz"
}

// NormalizeName returns the canonical form of a project name:
// lowercased, with runs of "-", "_" and "." replaced by a single "-"
func NormalizeName(name string) string {
	return strings.ToLower(normalizeRegex.ReplaceAllString(name, "-"))
}

// ParseFilename parses a distribution filename. For sdists the project and
// version are split at the first dash followed by a digit; use ParseFilenameFor
// when the project name is known.
func ParseFilename(name string) (*Filename, error) {
	return ParseFilenameFor(name, "")
}

// ParseFilenameFor parses a distribution filename of the given project. The
// project hint disambiguates sdist names containing dashes.
func ParseFilenameFor(name, project string) (*Filename, error) {
	// Normalize path separators and keep only the base name
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return nil, ErrInvalidFilename
	}

	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".egg"):
		return parseEgg(name)
	case strings.HasSuffix(lower, ".whl"):
		return parseWheel(name)
	}

	for _, ext := range sdistExtensions {
		if strings.HasSuffix(lower, ext) {
			return parseSdist(name[:len(name)-len(ext)], name[len(name)-len(ext):], project)
		}
	}

	return nil, ErrUnknownFormat
}

func parseEgg(name string) (*Filename, error) {
	// The extension may have any case on case-insensitive filesystems
	name = name[:len(name)-len(".egg")] + ".egg"

	matches := eggRegex.FindStringSubmatch(name)
	if matches == nil {
		return nil, ErrInvalidFilename
	}

	return &Filename{
		Project:  matches[1],
		Version:  matches[2],
		Kind:     KindEgg,
		Python:   matches[3],
		Platform: matches[4],
	}, nil
}

func parseWheel(name string) (*Filename, error) {
	name = name[:len(name)-len(".whl")] + ".whl"

	matches := wheelRegex.FindStringSubmatch(name)
	if matches == nil {
		return nil, ErrInvalidFilename
	}

	return &Filename{
		Project:  matches[1],
		Version:  matches[2],
		Kind:     KindWheel,
		Python:   matches[4],
		Platform: matches[6],
	}, nil
}

func parseSdist(stem, ext, project string) (*Filename, error) {
	split := -1

	if project != "" {
		want := NormalizeName(project)
		for i, r := range stem {
			if r == '-' && NormalizeName(stem[:i]) == want {
				split = i
				break
			}
		}
	} else {
		for i := 0; i < len(stem)-1; i++ {
			if stem[i] == '-' && unicode.IsDigit(rune(stem[i+1])) {
				split = i
				break
			}
		}
	}

	if split <= 0 || split == len(stem)-1 {
		return nil, ErrInvalidFilename
	}

	return &Filename{
		Project:   stem[:split],
		Version:   stem[split+1:],
		Kind:      KindSdist,
		Extension: ext,
	}, nil
}

// Matches reports whether the distribution belongs to the given project,
// comparing normalized names
func (f *Filename) Matches(project string) bool {
	return NormalizeName(f.Project) == NormalizeName(project)
}

// String returns the filename. Wheels are rendered with generic tags when the
// python tag is unknown.
func (f *Filename) String() string {
	switch f.Kind {
	case KindEgg:
		s := f.Project + "-" + f.Version
		if f.Python != "" {
			s += "-py" + f.Python
			if f.Platform != "" {
				s += "-" + f.Platform
			}
		}
		return s + ".egg"
	case KindWheel:
		python, platform := f.Python, f.Platform
		if python == "" {
			python = "py3"
		}
		if platform == "" {
			platform = "any"
		}
		return f.Project + "-" + f.Version + "-" + python + "-none-" + platform + ".whl"
	}

	ext := f.Extension
	if ext == "" {
		ext = ".tar.gz"
	}
	return f.Project + "-" + f.Version + ext
}

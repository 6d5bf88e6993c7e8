package checker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/obentoo/bvc/internal/buildout"
	"github.com/obentoo/bvc/internal/common/logger"
	"github.com/obentoo/bvc/internal/common/pep440"
	"github.com/obentoo/bvc/internal/index"
)

// VersionsSection is the buildout section holding the pins.
const VersionsSection = "versions"

// Error variables for checker errors
var (
	// ErrSpecifierSyntax is returned when a CLI specifier is not "package:specifier"
	ErrSpecifierSyntax = errors.New("key:value syntax not followed")
	// ErrSpecifierEmpty is returned when the package or specifier part is blank
	ErrSpecifierEmpty = errors.New("key or value are empty")
	// ErrInvalidPattern is matched by every *ValidationError
	ErrInvalidPattern = errors.New("invalid pattern")
)

// Pin is a package pinned to an exact version.
type Pin struct {
	Name    string
	Version string
}

// Pins is an ordered list of pins.
type Pins []Pin

// Names returns the package names in order.
func (p Pins) Names() []string {
	names := make([]string, len(p))
	for i, pin := range p {
		names[i] = pin.Name
	}
	return names
}

// Get returns the version pinned for name, compared exactly.
func (p Pins) Get(name string) (string, bool) {
	for _, pin := range p {
		if pin.Name == name {
			return pin.Version, true
		}
	}
	return "", false
}

// LoadDocument parses the buildout file at path.
// A missing file yields an empty document, like an empty file would.
func LoadDocument(path string) (*buildout.Document, error) {
	doc, err := buildout.ParseFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("%s does not exist.", path)
			return buildout.New(), nil
		}
		return nil, err
	}
	return doc, nil
}

// PinsOf returns the plain entries of the versions section in file order.
// Entries with a list operator and the macro key are not pins.
func PinsOf(doc *buildout.Document) (Pins, error) {
	entries, err := doc.Items(VersionsSection)
	if err != nil {
		return nil, err
	}

	pins := make(Pins, 0, len(entries))
	for _, e := range entries {
		if e.Operator != buildout.OpNone || e.IsMacro() {
			logger.Debug("Skipping %s, not a pin.", e.Name())
			continue
		}
		pins = append(pins, Pin{Name: e.Key, Version: e.Value})
	}
	return pins, nil
}

// ParseVersions returns the pins of the buildout file at path.
// A missing file or versions section is not an error and yields no pins.
func ParseVersions(path string) (Pins, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}

	pins, err := PinsOf(doc)
	if errors.Is(err, buildout.ErrSectionNotFound) {
		logger.Debug("'%s' section not found in %s.", VersionsSection, path)
		return Pins{}, nil
	}
	if err != nil {
		return nil, err
	}

	logger.Info("- %d versions found in %s.", len(pins), path)
	return pins, nil
}

// IncludeExcludeVersions adds the included packages missing from pins with
// the pep440.Default version, then drops the excluded ones. Both lists are
// matched case-insensitively and excludes may be glob patterns.
func IncludeExcludeVersions(pins Pins, includes, excludes []string) (Pins, error) {
	excluded, err := newNameMatcher(excludes)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(pins)+len(includes))
	versions := make(Pins, 0, len(pins)+len(includes))
	for _, pin := range pins {
		seen[foldName(pin.Name)] = true
		versions = append(versions, pin)
	}
	for _, include := range includes {
		folded := foldName(include)
		if include == "" || seen[folded] {
			continue
		}
		seen[folded] = true
		versions = append(versions, Pin{Name: include, Version: pep440.Default})
	}

	kept := versions[:0]
	for _, pin := range versions {
		if excluded.Match(pin.Name) {
			continue
		}
		kept = append(kept, pin)
	}

	logger.Info("- %d packages need to be checked for updates.", len(kept))
	return kept, nil
}

// ParseSpecifierArg splits a "package:specifier" command line value.
func ParseSpecifierArg(value string) (string, string, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%q: %w", value, ErrSpecifierSyntax)
	}
	name := strings.TrimSpace(parts[0])
	spec := strings.TrimSpace(parts[1])
	if name == "" || spec == "" {
		return "", "", fmt.Errorf("%q: %w", value, ErrSpecifierEmpty)
	}
	return name, spec, nil
}

// BuildSpecifiers pairs each package with its specifier, looked up
// case-insensitively. Packages without one accept any version. Every
// specifier is validated, used or not, and a syntax error wraps
// pep440.ErrInvalidSpecifier.
func BuildSpecifiers(packages []string, specifiers map[string]string) ([]index.Request, error) {
	names := make([]string, 0, len(specifiers))
	for name := range specifiers {
		names = append(names, name)
	}
	sort.Strings(names)

	parsed := make(map[string]pep440.SpecifierSet, len(specifiers))
	for _, name := range names {
		set, err := pep440.ParseSpecifierSet(specifiers[name])
		if err != nil {
			return nil, fmt.Errorf("specifier for %s: %w", name, err)
		}
		parsed[foldName(name)] = set
	}

	reqs := make([]index.Request, len(packages))
	for i, pkg := range packages {
		reqs[i] = index.Request{
			Package:   pkg,
			Specifier: parsed[foldName(pkg)],
		}
	}
	return reqs, nil
}

// FindUpdates returns, in pinned order, the packages whose latest version
// differs from the pinned one. Versions are compared as plain strings.
func FindUpdates(versions Pins, lastVersions map[string]string) Pins {
	updates := Pins{}
	for _, pin := range versions {
		last, ok := lastVersions[pin.Name]
		if !ok {
			continue
		}
		if last != pin.Version {
			logger.Debug("=> %s current version (%s) and last version (%s) are different.",
				pin.Name, pin.Version, last)
			updates = append(updates, Pin{Name: pin.Name, Version: last})
		}
	}
	logger.Info("- %d package updates found.", len(updates))
	return updates
}

// ApplyUpdates pins every update into the versions section, creating the
// section when missing.
func ApplyUpdates(doc *buildout.Document, updates Pins) {
	section := doc.AddSection(VersionsSection)
	for _, pin := range updates {
		section.Set(pin.Name, pin.Version)
	}
}

// RemovePins removes the named pins from the versions section and returns
// how many were removed.
func RemovePins(doc *buildout.Document, names []string) int {
	section, ok := doc.Section(VersionsSection)
	if !ok {
		return 0
	}
	removed := 0
	for _, name := range names {
		if section.Remove(name) {
			removed++
		}
	}
	return removed
}

// VersionFetcher finds the latest versions of a batch of packages.
type VersionFetcher interface {
	FetchLastVersions(ctx context.Context, reqs []index.Request) map[string]string
}

// Result holds every stage of a check.
type Result struct {
	// SourceVersions are the pins read from the source
	SourceVersions Pins
	// Versions are the pins left to check after includes and excludes
	Versions Pins
	// LastVersions maps each checked package to its latest version
	LastVersions map[string]string
	// Updates are the pins whose latest version differs
	Updates Pins
}

// VersionsChecker checks the pins of a buildout file against an index.
type VersionsChecker struct {
	fetcher          VersionFetcher
	specifiers       map[string]string
	allowPrereleases bool
	includes         []string
	excludes         []string
}

// CheckerOption is a functional option for configuring VersionsChecker
type CheckerOption func(*VersionsChecker)

// WithSpecifiers restricts the acceptable versions per package
func WithSpecifiers(specifiers map[string]string) CheckerOption {
	return func(c *VersionsChecker) {
		c.specifiers = specifiers
	}
}

// WithPrereleases allows pre-releases and development releases
func WithPrereleases(allow bool) CheckerOption {
	return func(c *VersionsChecker) {
		c.allowPrereleases = allow
	}
}

// WithIncludes adds packages to check even when they are not pinned
func WithIncludes(includes []string) CheckerOption {
	return func(c *VersionsChecker) {
		c.includes = includes
	}
}

// WithExcludes skips packages by name or glob pattern
func WithExcludes(excludes []string) CheckerOption {
	return func(c *VersionsChecker) {
		c.excludes = excludes
	}
}

// NewVersionsChecker creates a checker using fetcher for index lookups.
func NewVersionsChecker(fetcher VersionFetcher, opts ...CheckerOption) *VersionsChecker {
	c := &VersionsChecker{fetcher: fetcher}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check reads the pins of source and looks for updates.
// Invalid specifiers and patterns are reported before any lookup.
func (c *VersionsChecker) Check(ctx context.Context, source string) (*Result, error) {
	sourceVersions, err := ParseVersions(source)
	if err != nil {
		return nil, err
	}

	versions, err := IncludeExcludeVersions(sourceVersions, c.includes, c.excludes)
	if err != nil {
		return nil, err
	}

	reqs, err := BuildSpecifiers(versions.Names(), c.specifiers)
	if err != nil {
		return nil, err
	}
	for i := range reqs {
		reqs[i].AllowPrereleases = c.allowPrereleases
	}

	lastVersions := c.fetcher.FetchLastVersions(ctx, reqs)
	// Interrupted lookups fell back to the default version, they are not results
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("checking %s interrupted: %w", source, err)
	}

	return &Result{
		SourceVersions: sourceVersions,
		Versions:       versions,
		LastVersions:   lastVersions,
		Updates:        FindUpdates(versions, lastVersions),
	}, nil
}

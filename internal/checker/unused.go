package checker

import (
	"fmt"
	"os"
	"strings"

	"github.com/obentoo/bvc/internal/common/dist"
	"github.com/obentoo/bvc/internal/common/logger"
)

// DefaultEggsDirectory is where buildout installs eggs by default.
const DefaultEggsDirectory = "./eggs/"

// ListInstalled returns the project names of the eggs found in dir, in file
// name order.
func ListInstalled(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list eggs directory: %w", err)
	}

	var installed []string
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".egg") {
			continue
		}
		installed = append(installed, eggProject(entry.Name()))
	}

	logger.Info("- %d eggs found in %s.", len(installed), dir)
	return installed, nil
}

// eggProject extracts the project name of an egg, falling back to the text
// before the first dash for names setuptools would not produce.
func eggProject(name string) string {
	if f, err := dist.ParseFilename(name); err == nil && f.Kind == dist.KindEgg {
		return f.Project
	}
	project, _, _ := strings.Cut(name, "-")
	return project
}

// FindUnused returns, in pinned order, the pinned packages with no installed
// egg. Names are compared caselessly and "-" matches "_".
func FindUnused(pinned, installed []string) []string {
	used := make(map[string]bool, len(installed))
	for _, name := range installed {
		used[unusedKey(name)] = true
	}

	unused := []string{}
	for _, name := range pinned {
		if !used[unusedKey(name)] {
			unused = append(unused, name)
		}
	}
	return unused
}

func unusedKey(name string) string {
	return strings.ReplaceAll(foldName(name), "-", "_")
}

// UnusedResult holds every stage of an unused check.
type UnusedResult struct {
	SourceVersions Pins
	Versions       Pins
	Installed      []string
	Unused         []string
}

// UnusedChecker finds pins of a buildout file with no installed egg.
type UnusedChecker struct {
	eggsDirectory string
	excludes      []string
}

// NewUnusedChecker creates a checker scanning eggsDirectory. Excluded
// packages are never reported.
func NewUnusedChecker(eggsDirectory string, excludes []string) *UnusedChecker {
	if eggsDirectory == "" {
		eggsDirectory = DefaultEggsDirectory
	}
	return &UnusedChecker{
		eggsDirectory: eggsDirectory,
		excludes:      excludes,
	}
}

// Check reads the pins of source and compares them with the installed eggs.
func (c *UnusedChecker) Check(source string) (*UnusedResult, error) {
	sourceVersions, err := ParseVersions(source)
	if err != nil {
		return nil, err
	}

	versions, err := IncludeExcludeVersions(sourceVersions, nil, c.excludes)
	if err != nil {
		return nil, err
	}

	installed, err := ListInstalled(c.eggsDirectory)
	if err != nil {
		return nil, err
	}

	return &UnusedResult{
		SourceVersions: sourceVersions,
		Versions:       versions,
		Installed:      installed,
		Unused:         FindUnused(versions.Names(), installed),
	}, nil
}

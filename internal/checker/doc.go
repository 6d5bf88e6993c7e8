// Package checker compares the pins of a buildout versions section with a
// package index and with the eggs actually installed.
//
// The package implements:
//   - Reading pins from the [versions] section of a buildout file
//   - Include and exclude filtering, with validated glob patterns for excludes
//   - Per-package version specifiers from the command line or a bvc.toml policy
//   - Update detection against the latest versions found on an index
//   - Unused pin detection against an eggs directory
//
// Usage:
//
//	source, _ := index.NewSource(index.KindJSON, "https://pypi.org/pypi", nil)
//	c := checker.NewVersionsChecker(index.NewFetcher(source),
//	    checker.WithSpecifiers(map[string]string{"Django": "<1.6"}))
//	result, err := c.Check(ctx, "versions.cfg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, pin := range result.Updates {
//	    fmt.Printf("%s = %s\n", pin.Name, pin.Version)
//	}
package checker

// Package buildout reads and writes buildout-style configuration files.
//
// The package implements:
//   - An ordered document model (sections and entries, case-sensitive keys)
//   - A parser for the buildout dialect: [section] headers, key = value lines,
//     indented continuation lines, the += / -= operators and the < macro key
//   - A writer producing aligned "key = value" columns with optional key sorting
//     and automatic ("perfect") indentation
//
// Writing is deterministic: a parsed file written back with the same indentation
// and sorting produces the same bytes every time.
//
// Usage:
//
//	doc, err := buildout.ParseFile("versions.cfg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	doc.AddSection("versions").Set("Django", "1.5.1")
//	w := buildout.NewWriter(buildout.AutoIndentation, buildout.SortAlpha)
//	err = w.WriteFile("versions.cfg", doc)
package buildout

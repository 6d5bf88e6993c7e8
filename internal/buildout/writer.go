package buildout

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// AutoIndentation asks the writer to compute the perfect indentation
// over all keys of the document.
const AutoIndentation = -1

// ErrWriteFailed is returned when the destination file could not be replaced
var ErrWriteFailed = errors.New("failed to write file")

// Writer serializes documents with aligned "key = value" columns.
type Writer struct {
	// Indentation is the column width reserved for keys, or AutoIndentation
	Indentation int
	// Sorting orders the keys of every section at write time
	Sorting Sorting
}

// NewWriter creates a writer with the given indentation and sorting.
func NewWriter(indentation int, sorting Sorting) *Writer {
	return &Writer{
		Indentation: indentation,
		Sorting:     sorting,
	}
}

// ResolveIndentation returns the width that will be used for doc.
// A document without any key resolves to 0 in auto mode.
func (w *Writer) ResolveIndentation(doc *Document) int {
	if w.Indentation >= 0 {
		return w.Indentation
	}
	indentation, err := PerfectIndentation(doc.Keys(), DefaultRounding)
	if err != nil {
		return 0
	}
	return indentation
}

// Render returns the serialized document.
func (w *Writer) Render(doc *Document) []byte {
	var buf bytes.Buffer
	indentation := w.ResolveIndentation(doc)

	for i, section := range doc.sections {
		if i > 0 {
			buf.WriteString("\n")
		}
		w.writeSection(&buf, section, indentation)
	}

	return buf.Bytes()
}

// Write serializes doc to out in a single write.
func (w *Writer) Write(out io.Writer, doc *Document) error {
	_, err := out.Write(w.Render(doc))
	return err
}

// WriteFile replaces the file at path with the serialized document.
// The content is written to a temporary file in the same directory then renamed
// over path, so a failure never leaves a truncated file behind. A symbolic
// link is written through: its target is replaced and the link kept.
func (w *Writer) WriteFile(path string, doc *Document) error {
	data := w.Render(doc)

	target, err := filepath.EvalSymlinks(path)
	if errors.Is(err, fs.ErrNotExist) {
		target = path
	} else if err != nil {
		return fmt.Errorf("%w %s: %w", ErrWriteFailed, path, err)
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}

	dir, base := filepath.Split(target)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrWriteFailed, path, err)
	}
	tmpPath := tmp.Name()

	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w %s: %w", ErrWriteFailed, path, err)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w %s: %w", ErrWriteFailed, path, err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w %s: %w", ErrWriteFailed, path, err)
	}

	return nil
}

// writeSection writes the header and the entries of one section.
func (w *Writer) writeSection(buf *bytes.Buffer, section *Section, indentation int) {
	buf.WriteString("[" + section.Name + "]\n")
	for _, e := range w.Sorting.Sort(section.entries) {
		buf.WriteString(RenderEntry(e, indentation))
	}
}

// RenderEntry formats a single entry line, trailing newline included.
//
// The value always starts at column indentation+2 ("= " follows the key column),
// continuation lines are aligned under it. The macro key "<" keeps its "<=" at
// the start of the line and pushes the value to the same column instead.
func RenderEntry(e Entry, indentation int) string {
	var b strings.Builder
	value := e.Value

	if e.IsMacro() {
		b.WriteString(MacroKey)
		value = pad(max(indentation-1, 0)) + value
	} else {
		width := indentation
		if e.Operator != OpNone {
			width = max(indentation-1, 0)
		}
		b.WriteString(e.Key)
		b.WriteString(pad(width - utf8.RuneCountInString(e.Key)))
		b.WriteString(string(e.Operator))
	}

	b.WriteString("=")
	if indentation > 0 {
		b.WriteString(" ")
	}
	b.WriteString(strings.ReplaceAll(value, "\n", "\n"+pad(indentation+2)))
	b.WriteString("\n")

	return b.String()
}

func pad(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}

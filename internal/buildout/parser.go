package buildout

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Error variables for parser errors
var (
	// ErrSourceUnreadable is returned when the source cannot be opened, read or decoded
	ErrSourceUnreadable = errors.New("source unreadable")
	// ErrMalformedSource is matched by every *ParseError
	ErrMalformedSource = errors.New("malformed source")
	// ErrMissingSectionHeader is returned for an entry appearing before any [section]
	ErrMissingSectionHeader = errors.New("entry outside of a section")
	// ErrMissingSeparator is returned for a line that is neither a header nor key = value
	ErrMissingSeparator = errors.New("missing '=' separator")
	// ErrEmptyKey is returned for a line starting with '='
	ErrEmptyKey = errors.New("empty key")
)

// sectionRegex matches a section header, greedy up to the last ']'
var sectionRegex = regexp.MustCompile(`^\[(.+)\]`)

// SourceUnreadableError wraps the failure to open, read or decode a source.
type SourceUnreadableError struct {
	Source string
	Err    error
}

func (e *SourceUnreadableError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("cannot read source: %v", e.Err)
	}
	return fmt.Sprintf("cannot read %s: %v", e.Source, e.Err)
}

func (e *SourceUnreadableError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrSourceUnreadable) match.
func (e *SourceUnreadableError) Is(target error) bool {
	return target == ErrSourceUnreadable
}

// ParseError reports a line the parser could not make sense of.
type ParseError struct {
	Source string
	Line   int
	Text   string
	Err    error
}

func (e *ParseError) Error() string {
	source := e.Source
	if source == "" {
		source = "<input>"
	}
	return fmt.Sprintf("%s:%d: %v: %q", source, e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrMalformedSource) match.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedSource
}

// ParseFile reads and parses the file at path.
// Open and decoding failures are reported as *SourceUnreadableError, which
// still matches fs.ErrNotExist for a missing file.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &SourceUnreadableError{Source: path, Err: err}
	}
	defer f.Close()

	doc, err := parse(f, path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseString parses buildout text held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Parse reads buildout text from r.
func Parse(r io.Reader) (*Document, error) {
	return parse(r, "")
}

func parse(r io.Reader, source string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &SourceUnreadableError{Source: source, Err: err}
	}
	if !utf8.Valid(data) {
		return nil, &SourceUnreadableError{Source: source, Err: errors.New("invalid UTF-8 content")}
	}

	// Drop a leading byte order mark written by some editors
	data, _, err = transform.Bytes(unicode.UTF8BOM.NewDecoder(), data)
	if err != nil {
		return nil, &SourceUnreadableError{Source: source, Err: err}
	}

	p := &parser{doc: New(), source: source}
	for i, line := range bytes.Split(data, []byte("\n")) {
		if err := p.parseLine(i+1, strings.TrimSuffix(string(line), "\r")); err != nil {
			return nil, err
		}
	}
	p.flush()

	return p.doc, nil
}

// parser accumulates the entry being read until the next key or header.
type parser struct {
	doc     *Document
	source  string
	section *Section
	// current is the open entry; lines holds its value lines
	current *Entry
	lines   []string
	// blanks counts empty lines seen inside the open entry
	blanks int
}

func (p *parser) parseLine(lineNo int, line string) error {
	trimmed := strings.TrimSpace(line)

	if trimmed == "" {
		if p.current != nil {
			p.blanks++
		}
		return nil
	}

	if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
		return nil
	}

	// Indented line continues the open value
	if p.current != nil && (line[0] == ' ' || line[0] == '\t') {
		for ; p.blanks > 0; p.blanks-- {
			p.lines = append(p.lines, "")
		}
		p.lines = append(p.lines, trimmed)
		return nil
	}

	if m := sectionRegex.FindStringSubmatch(trimmed); m != nil {
		p.flush()
		p.section = p.doc.AddSection(m[1])
		return nil
	}

	p.flush()

	if p.section == nil {
		return p.errorf(lineNo, line, ErrMissingSectionHeader)
	}

	sep := strings.Index(trimmed, "=")
	if sep < 0 {
		return p.errorf(lineNo, line, ErrMissingSeparator)
	}

	key := strings.TrimSpace(trimmed[:sep])
	if key == "" {
		return p.errorf(lineNo, line, ErrEmptyKey)
	}

	entry := Entry{Key: key}
	if len(key) > 1 {
		switch op := Operator(key[len(key)-1:]); op {
		case OpAppend, OpRemove:
			if base := strings.TrimSpace(key[:len(key)-1]); base != "" {
				entry.Key = base
				entry.Operator = op
			}
		}
	}

	p.current = &entry
	p.lines = []string{strings.TrimSpace(trimmed[sep+1:])}
	return nil
}

// flush stores the open entry in the current section.
// Blank lines not followed by a continuation are dropped.
func (p *parser) flush() {
	if p.current != nil {
		p.current.Value = strings.Join(p.lines, "\n")
		p.section.SetEntry(*p.current)
	}
	p.current = nil
	p.lines = nil
	p.blanks = 0
}

func (p *parser) errorf(lineNo int, line string, err error) error {
	return &ParseError{
		Source: p.source,
		Line:   lineNo,
		Text:   line,
		Err:    err,
	}
}

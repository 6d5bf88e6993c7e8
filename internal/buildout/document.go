package buildout

import (
	"errors"
	"fmt"
)

// Error variables for document access
var (
	// ErrSectionNotFound is returned when a requested section does not exist
	ErrSectionNotFound = errors.New("section not found")
)

// SectionNotFoundError reports a lookup of a section absent from the document.
type SectionNotFoundError struct {
	Section string
}

func (e *SectionNotFoundError) Error() string {
	return fmt.Sprintf("no section: %q", e.Section)
}

// Is makes errors.Is(err, ErrSectionNotFound) match.
func (e *SectionNotFoundError) Is(target error) bool {
	return target == ErrSectionNotFound
}

// Operator is the list operator a buildout key may carry before "=".
type Operator string

const (
	// OpNone is a plain assignment
	OpNone Operator = ""
	// OpAppend appends to the inherited list value (key += value)
	OpAppend Operator = "+"
	// OpRemove removes from the inherited list value (key -= value)
	OpRemove Operator = "-"
)

// MacroKey is the key used to extend another section ("<= section").
const MacroKey = "<"

// Entry is a single key/value pair of a section.
type Entry struct {
	// Key is the key without its operator
	Key string
	// Operator is the list operator written right before "="
	Operator Operator
	// Value may span several lines separated by "\n"
	Value string
}

// Name returns the key as written on disk, operator included.
func (e Entry) Name() string {
	return e.Key + string(e.Operator)
}

// IsMacro reports whether the entry is the "<" macro reference.
func (e Entry) IsMacro() bool {
	return e.Key == MacroKey && e.Operator == OpNone
}

// Section is a named, ordered list of entries.
// An entry is identified by its key and operator; keys are case-sensitive.
type Section struct {
	Name    string
	entries []Entry
	index   map[string]int
}

func newSection(name string) *Section {
	return &Section{
		Name:  name,
		index: make(map[string]int),
	}
}

// Entries returns a copy of the entries in insertion order.
func (s *Section) Entries() []Entry {
	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// Keys returns the on-disk names of the entries in insertion order.
func (s *Section) Keys() []string {
	keys := make([]string, len(s.entries))
	for i, e := range s.entries {
		keys[i] = e.Name()
	}
	return keys
}

// Len returns the number of entries.
func (s *Section) Len() int {
	return len(s.entries)
}

// Get returns the value of the plain (operator-less) entry for key.
func (s *Section) Get(key string) (string, bool) {
	e, ok := s.Lookup(key, OpNone)
	return e.Value, ok
}

// Lookup returns the entry for key carrying the given operator.
func (s *Section) Lookup(key string, op Operator) (Entry, bool) {
	i, ok := s.index[key+string(op)]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Set assigns value to the plain entry for key.
func (s *Section) Set(key, value string) {
	s.SetEntry(Entry{Key: key, Value: value})
}

// SetEntry stores e, overwriting the value of an existing entry with the same
// key and operator in place.
func (s *Section) SetEntry(e Entry) {
	name := e.Name()
	if i, ok := s.index[name]; ok {
		s.entries[i].Value = e.Value
		return
	}
	s.index[name] = len(s.entries)
	s.entries = append(s.entries, e)
}

// Remove deletes the plain entry for key. It reports whether an entry was removed.
func (s *Section) Remove(key string) bool {
	return s.RemoveEntry(key, OpNone)
}

// RemoveEntry deletes the entry for key carrying op.
func (s *Section) RemoveEntry(key string, op Operator) bool {
	i, ok := s.index[key+string(op)]
	if !ok {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	delete(s.index, key+string(op))
	for j := i; j < len(s.entries); j++ {
		s.index[s.entries[j].Name()] = j
	}
	return true
}

// Document is an ordered collection of uniquely named sections.
type Document struct {
	sections []*Section
	index    map[string]int
}

// New returns an empty document.
func New() *Document {
	return &Document{
		index: make(map[string]int),
	}
}

// Sections returns the sections in insertion order.
func (d *Document) Sections() []*Section {
	sections := make([]*Section, len(d.sections))
	copy(sections, d.sections)
	return sections
}

// SectionNames returns the section names in insertion order.
func (d *Document) SectionNames() []string {
	names := make([]string, len(d.sections))
	for i, s := range d.sections {
		names[i] = s.Name
	}
	return names
}

// Section returns the section called name. Names are compared exactly.
func (d *Document) Section(name string) (*Section, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.sections[i], true
}

// HasSection reports whether the document contains the section name.
func (d *Document) HasSection(name string) bool {
	_, ok := d.index[name]
	return ok
}

// AddSection appends a new empty section, or returns the existing one.
func (d *Document) AddSection(name string) *Section {
	if s, ok := d.Section(name); ok {
		return s
	}
	s := newSection(name)
	d.index[name] = len(d.sections)
	d.sections = append(d.sections, s)
	return s
}

// RemoveSection deletes the section called name.
func (d *Document) RemoveSection(name string) bool {
	i, ok := d.index[name]
	if !ok {
		return false
	}
	d.sections = append(d.sections[:i], d.sections[i+1:]...)
	delete(d.index, name)
	for j := i; j < len(d.sections); j++ {
		d.index[d.sections[j].Name] = j
	}
	return true
}

// Items returns the entries of the section called name.
// It fails with a *SectionNotFoundError when the section is absent.
func (d *Document) Items(name string) ([]Entry, error) {
	s, ok := d.Section(name)
	if !ok {
		return nil, &SectionNotFoundError{Section: name}
	}
	return s.Entries(), nil
}

// Keys returns the on-disk key names of every section, in document order.
func (d *Document) Keys() []string {
	var keys []string
	for _, s := range d.sections {
		keys = append(keys, s.Keys()...)
	}
	return keys
}

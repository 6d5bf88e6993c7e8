package buildout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionSetKeepsFirstSeenPosition(t *testing.T) {
	s := New().AddSection("versions")
	s.Set("a", "1")
	s.Set("b", "2")
	s.Set("a", "3")

	assert.Equal(t, []Entry{{Key: "a", Value: "3"}, {Key: "b", Value: "2"}}, s.Entries())
}

func TestSectionRemoveReindexes(t *testing.T) {
	s := New().AddSection("versions")
	for _, k := range []string{"a", "b", "c", "d"} {
		s.Set(k, k)
	}

	assert.True(t, s.Remove("b"))
	assert.False(t, s.Remove("b"))
	assert.Equal(t, []string{"a", "c", "d"}, s.Keys())

	// Positions after the removed entry must still resolve
	s.Set("d", "D")
	value, ok := s.Get("d")
	require.True(t, ok)
	assert.Equal(t, "D", value)
	assert.Equal(t, []string{"a", "c", "d"}, s.Keys())
}

func TestSectionRemoveEntryHonorsOperator(t *testing.T) {
	s := New().AddSection("buildout")
	s.Set("eggs", "a")
	s.SetEntry(Entry{Key: "eggs", Operator: OpAppend, Value: "b"})

	assert.False(t, s.RemoveEntry("eggs", OpRemove))
	assert.True(t, s.RemoveEntry("eggs", OpAppend))
	assert.Equal(t, []string{"eggs"}, s.Keys())
}

func TestDocumentSections(t *testing.T) {
	doc := New()
	first := doc.AddSection("buildout")
	doc.AddSection("versions")
	doc.AddSection("instance")

	assert.Same(t, first, doc.AddSection("buildout"))
	assert.Equal(t, []string{"buildout", "versions", "instance"}, doc.SectionNames())

	assert.True(t, doc.RemoveSection("versions"))
	assert.False(t, doc.RemoveSection("versions"))
	assert.Equal(t, []string{"buildout", "instance"}, doc.SectionNames())

	s, ok := doc.Section("instance")
	require.True(t, ok)
	assert.Equal(t, "instance", s.Name)
}

func TestDocumentKeys(t *testing.T) {
	doc := New()
	doc.AddSection("a").Set("one", "1")
	b := doc.AddSection("b")
	b.SetEntry(Entry{Key: "two", Operator: OpRemove, Value: "2"})
	b.SetEntry(Entry{Key: MacroKey, Value: "a"})

	assert.Equal(t, []string{"one", "two-", "<"}, doc.Keys())
}

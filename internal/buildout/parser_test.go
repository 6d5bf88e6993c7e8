package buildout

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCaseSensitiveKeys(t *testing.T) {
	doc, err := ParseString("[Section]\nKEY=VALUE\nKey=Value\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"Section"}, doc.SectionNames())

	section, ok := doc.Section("Section")
	require.True(t, ok)
	assert.Equal(t, []string{"KEY", "Key"}, section.Keys())

	value, ok := section.Get("Key")
	require.True(t, ok)
	assert.Equal(t, "Value", value)
}

func TestParseSectionNamesAreExact(t *testing.T) {
	doc, err := ParseString("[VERSIONS]\negg=0.1\n")
	require.NoError(t, err)

	assert.True(t, doc.HasSection("VERSIONS"))
	assert.False(t, doc.HasSection("versions"))

	_, err = doc.Items("versions")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSectionNotFound))

	var notFound *SectionNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "versions", notFound.Section)
}

func TestParseItems(t *testing.T) {
	doc, err := ParseString("[versions]\negg=0.1\nEgg = 0.2")
	require.NoError(t, err)

	items, err := doc.Items("versions")
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Key: "egg", Value: "0.1"},
		{Key: "Egg", Value: "0.2"},
	}, items)
}

func TestParseOperators(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		entry Entry
	}{
		{"append without spaces", "Ad+=dition", Entry{Key: "Ad", Operator: OpAppend, Value: "dition"}},
		{"append with spaces", "eggs += foo", Entry{Key: "eggs", Operator: OpAppend, Value: "foo"}},
		{"remove", "eggs -= bar", Entry{Key: "eggs", Operator: OpRemove, Value: "bar"}},
		{"space before operator", "eggs + = foo", Entry{Key: "eggs", Operator: OpAppend, Value: "foo"}},
		{"dash inside key", "zope-interface = 4.0", Entry{Key: "zope-interface", Value: "4.0"}},
		{"single dash key", "- = x", Entry{Key: "-", Value: "x"}},
		{"macro", "<=Macro", Entry{Key: MacroKey, Value: "Macro"}},
		{"spaced macro", "<  =  Macro", Entry{Key: MacroKey, Value: "Macro"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseString("[s]\n" + tt.line + "\n")
			require.NoError(t, err)

			items, err := doc.Items("s")
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, tt.entry, items[0])
		})
	}
}

func TestParseOperatorEntriesCoexist(t *testing.T) {
	doc, err := ParseString("[s]\neggs = a\neggs += b\neggs -= c\n")
	require.NoError(t, err)

	section, _ := doc.Section("s")
	assert.Equal(t, []string{"eggs", "eggs+", "eggs-"}, section.Keys())

	e, ok := section.Lookup("eggs", OpRemove)
	require.True(t, ok)
	assert.Equal(t, "c", e.Value)
}

func TestParseMultilineValues(t *testing.T) {
	input := "[buildout]\n" +
		"<=Macro\n" +
		" Template\n" +
		"eggs =\n" +
		"    foo\n" +
		"\n" +
		"\tbar\n" +
		"\n" +
		"parts = one\n" +
		"        two\n" +
		"\n" +
		"\n"

	doc, err := ParseString(input)
	require.NoError(t, err)

	items, err := doc.Items("buildout")
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Key: MacroKey, Value: "Macro\nTemplate"},
		{Key: "eggs", Value: "\nfoo\n\nbar"},
		{Key: "parts", Value: "one\ntwo"},
	}, items)
}

func TestParseCommentsAndCRLF(t *testing.T) {
	input := "# leading comment\r\n[versions]\r\n; pinned\r\nDjango = 1.5.1\r\n  # indented comment\r\npytz = 2013b\r\n"

	doc, err := ParseString(input)
	require.NoError(t, err)

	items, err := doc.Items("versions")
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Key: "Django", Value: "1.5.1"},
		{Key: "pytz", Value: "2013b"},
	}, items)
}

func TestParseLaterAssignmentOverwrites(t *testing.T) {
	doc, err := ParseString("[s]\na = 1\nb = 2\na = 3\n[t]\nx = y\n[s]\nc = 4\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"s", "t"}, doc.SectionNames())
	items, err := doc.Items("s")
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Key: "a", Value: "3"},
		{Key: "b", Value: "2"},
		{Key: "c", Value: "4"},
	}, items)
}

func TestParseStripsByteOrderMark(t *testing.T) {
	doc, err := ParseString("\ufeff[versions]\negg = 1.0\n")
	require.NoError(t, err)
	assert.True(t, doc.HasSection("versions"))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		err   error
		line  int
	}{
		{"entry before header", "key = value\n", ErrMissingSectionHeader, 1},
		{"missing separator", "[s]\nkey = value\njunk\n", ErrMissingSeparator, 3},
		{"empty key", "[s]\n= value\n", ErrEmptyKey, 2},
		{"unterminated header", "[s\n", ErrMissingSectionHeader, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
			assert.True(t, errors.Is(err, ErrMalformedSource))

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.line, parseErr.Line)
		})
	}
}

func TestParseInvalidUTF8(t *testing.T) {
	_, err := ParseString("[s]\nkey = \xff\xfe\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceUnreadable))
	assert.False(t, errors.Is(err, ErrMalformedSource))
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "versions.cfg")
	require.NoError(t, os.WriteFile(path, []byte("[versions]\negg = 0.1\n"), 0644))

	doc, err := ParseFile(path)
	require.NoError(t, err)
	value, ok := doc.Section("versions")
	require.True(t, ok)
	assert.Equal(t, 1, value.Len())

	_, err = ParseFile(filepath.Join(dir, "missing.cfg"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceUnreadable))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestParseFileReportsSourceInErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.cfg")
	require.NoError(t, os.WriteFile(path, []byte("[s]\nbroken\n"), 0644))

	_, err := ParseFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path+":2")
}

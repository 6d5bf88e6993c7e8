package checker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obentoo/bvc/internal/buildout"
	"github.com/obentoo/bvc/internal/common/pep440"
	"github.com/obentoo/bvc/internal/index"
)

// writeSource writes a buildout file in a temporary directory
func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "versions.cfg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseVersions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Pins
	}{
		{"no versions section", "[sections]\nKey=Value\n", Pins{}},
		{"section names are case-sensitive", "[VERSIONS]\negg=0.1\nEgg = 0.2", Pins{}},
		{"pins in file order", "[versions]\negg=0.1\nEgg = 0.2", Pins{{"egg", "0.1"}, {"Egg", "0.2"}}},
		{"operators and macro skipped", "[versions]\n<= base\negg=0.1\neggs += more\n", Pins{{"egg", "0.1"}}},
		{"empty file", "", Pins{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVersions(writeSource(t, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVersionsMissingFile(t *testing.T) {
	got, err := ParseVersions(filepath.Join(t.TempDir(), "absent.cfg"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseVersionsMalformed(t *testing.T) {
	_, err := ParseVersions(writeSource(t, "egg = 1.0\n[versions]\n"))
	assert.ErrorIs(t, err, buildout.ErrMalformedSource)
}

func TestIncludeExcludeVersions(t *testing.T) {
	source := Pins{{"egg", "0.1"}, {"Egg", "0.2"}}
	larger := Pins{{"egg", "0.1"}, {"Egg", "0.2"}, {"Django", "1.5.1"}, {"pytz", "2013b"}}

	tests := []struct {
		name     string
		pins     Pins
		includes []string
		excludes []string
		want     Pins
	}{
		{"unchanged", source, nil, nil, source},
		{"includes added once", source, []string{"Django", "egg"}, nil,
			Pins{{"egg", "0.1"}, {"Egg", "0.2"}, {"Django", pep440.Default}}},
		{"excludes ignore case", larger, nil, []string{"Django", "egg"}, Pins{{"pytz", "2013b"}}},
		{"excludes win over includes", larger, []string{"Django", "egg"}, []string{"Django", "egg"}, Pins{{"pytz", "2013b"}}},
		{"new include kept", larger, []string{"zc.buildout"}, []string{"Django", "egg"},
			Pins{{"pytz", "2013b"}, {"zc.buildout", pep440.Default}}},
		{"glob exclude", Pins{{"collective.recipe", "1"}, {"Collective.Foo", "2"}, {"plone", "4"}}, nil, []string{"collective.*"},
			Pins{{"plone", "4"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IncludeExcludeVersions(tt.pins, tt.includes, tt.excludes)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIncludeExcludeVersionsDoesNotMutateInput(t *testing.T) {
	pins := Pins{{"egg", "0.1"}, {"pytz", "2013b"}}
	_, err := IncludeExcludeVersions(pins, nil, []string{"egg"})
	require.NoError(t, err)
	assert.Equal(t, Pins{{"egg", "0.1"}, {"pytz", "2013b"}}, pins)
}

func TestIncludeExcludeVersionsRejectsBroadPattern(t *testing.T) {
	_, err := IncludeExcludeVersions(Pins{{"egg", "0.1"}}, nil, []string{"*"})
	assert.ErrorIs(t, err, ErrInvalidPattern)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "*", verr.Pattern)
}

func TestParseSpecifierArg(t *testing.T) {
	tests := []struct {
		value    string
		wantName string
		wantSpec string
		wantErr  error
	}{
		{"Django:>=1.4,<1.5", "Django", ">=1.4,<1.5", nil},
		{" package : >=1.0,!=1.3.4.*,< 2.0 ", "package", ">=1.0,!=1.3.4.*,< 2.0", nil},
		{"Django", "", "", ErrSpecifierSyntax},
		{"a:b:c", "", "", ErrSpecifierSyntax},
		{"Django:", "", "", ErrSpecifierEmpty},
		{" :>1", "", "", ErrSpecifierEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			name, spec, err := ParseSpecifierArg(tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantSpec, spec)
		})
	}
}

func TestSpecifierErrorMessages(t *testing.T) {
	_, _, err := ParseSpecifierArg("Django")
	assert.Contains(t, err.Error(), "key:value syntax not followed")

	_, _, err = ParseSpecifierArg("Django:  ")
	assert.Contains(t, err.Error(), "key or value are empty")
}

func TestBuildSpecifiers(t *testing.T) {
	reqs, err := BuildSpecifiers(
		[]string{"Django", "pytz", "zc.buildout"},
		map[string]string{"django": "<1.6", "ZC.BUILDOUT": ">=2, <3", "unused": "==1.0"},
	)
	require.NoError(t, err)
	require.Len(t, reqs, 3)

	assert.Equal(t, "Django", reqs[0].Package)
	assert.Equal(t, "<1.6", reqs[0].Specifier.String())
	assert.Equal(t, 0, reqs[1].Specifier.Len())
	assert.Equal(t, 2, reqs[2].Specifier.Len())
}

func TestBuildSpecifiersInvalid(t *testing.T) {
	_, err := BuildSpecifiers([]string{"Django"}, map[string]string{"other": ">>1"})
	assert.ErrorIs(t, err, pep440.ErrInvalidSpecifier)
}

func TestFindUpdates(t *testing.T) {
	versions := Pins{{"egg", "1.5.1"}, {"Egg", "0.0.0"}}
	last := map[string]string{"egg": "1.5.1", "Egg": "1.0"}

	assert.Equal(t, Pins{{"Egg", "1.0"}}, FindUpdates(versions, last))
}

func TestFindUpdatesIsStringInequality(t *testing.T) {
	versions := Pins{{"a", "1.0"}, {"b", "2.0"}, {"c", "1.0.0"}}
	last := map[string]string{"a": "1.0", "b": "1.5", "c": "1.0"}

	// A downgrade and an equal-but-differently-spelled version both count
	assert.Equal(t, Pins{{"b", "1.5"}, {"c", "1.0"}}, FindUpdates(versions, last))
}

// TestFindUpdatesProperties checks updates keep pinned order and only list
// packages whose version changed
func TestFindUpdatesProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	genVersion := gen.OneConstOf("0.0.0", "1.0", "1.1", "2.0b1")

	properties.Property("updates are an ordered subset of changed pins", prop.ForAll(
		func(current, latest []string) bool {
			n := min(len(current), len(latest))
			versions := make(Pins, n)
			last := make(map[string]string, n)
			for i := 0; i < n; i++ {
				name := string(rune('a' + i))
				versions[i] = Pin{name, current[i]}
				last[name] = latest[i]
			}

			updates := FindUpdates(versions, last)
			j := 0
			for _, pin := range versions {
				changed := pin.Version != last[pin.Name]
				if !changed {
					continue
				}
				if j >= len(updates) || updates[j].Name != pin.Name || updates[j].Version != last[pin.Name] {
					return false
				}
				j++
			}
			return j == len(updates)
		},
		gen.SliceOfN(20, genVersion),
		gen.SliceOfN(20, genVersion),
	))

	properties.TestingRun(t)
}

func TestApplyUpdates(t *testing.T) {
	doc, err := buildout.ParseString("[buildout]\nparts = test\n")
	require.NoError(t, err)

	ApplyUpdates(doc, Pins{{"Django", "1.5.1"}, {"pytz", "2013b"}})
	entries, err := doc.Items(VersionsSection)
	require.NoError(t, err)
	assert.Equal(t, []buildout.Entry{{Key: "Django", Value: "1.5.1"}, {Key: "pytz", Value: "2013b"}}, entries)

	ApplyUpdates(doc, Pins{{"Django", "1.6"}})
	value, _ := doc.AddSection(VersionsSection).Get("Django")
	assert.Equal(t, "1.6", value)
	assert.Equal(t, []string{"buildout", "versions"}, doc.SectionNames())
}

func TestRemovePins(t *testing.T) {
	doc, err := buildout.ParseString("[versions]\negg = 1.0\nunused = 2.0\nother = 3.0\n")
	require.NoError(t, err)

	assert.Equal(t, 1, RemovePins(doc, []string{"unused", "absent"}))
	section, _ := doc.Section(VersionsSection)
	assert.Equal(t, []string{"egg", "other"}, section.Keys())

	assert.Equal(t, 0, RemovePins(buildout.New(), []string{"egg"}))
}

// stubFetcher answers from a fixed map and records the requests it received
type stubFetcher struct {
	latest map[string]string
	reqs   []index.Request
}

func (f *stubFetcher) FetchLastVersions(_ context.Context, reqs []index.Request) map[string]string {
	f.reqs = reqs
	result := make(map[string]string, len(reqs))
	for _, req := range reqs {
		v, ok := f.latest[req.Package]
		if !ok {
			v = pep440.Default
		}
		result[req.Package] = v
	}
	return result
}

func TestVersionsCheckerCheck(t *testing.T) {
	source := writeSource(t, "[versions]\nDjango = 1.4\npytz = 2013b\negg = 0.1\n")
	fetcher := &stubFetcher{latest: map[string]string{
		"Django":      "1.5.1",
		"pytz":        "2013b",
		"zc.buildout": "2.13.3",
	}}

	c := NewVersionsChecker(fetcher,
		WithSpecifiers(map[string]string{"django": "<1.6"}),
		WithPrereleases(true),
		WithIncludes([]string{"zc.buildout"}),
		WithExcludes([]string{"egg"}),
	)

	result, err := c.Check(context.Background(), source)
	require.NoError(t, err)

	assert.Len(t, result.SourceVersions, 3)
	assert.Equal(t, []string{"Django", "pytz", "zc.buildout"}, result.Versions.Names())
	assert.Equal(t, Pins{{"Django", "1.5.1"}, {"zc.buildout", "2.13.3"}}, result.Updates)

	require.Len(t, fetcher.reqs, 3)
	assert.Equal(t, "<1.6", fetcher.reqs[0].Specifier.String())
	for _, req := range fetcher.reqs {
		assert.True(t, req.AllowPrereleases)
	}
}

func TestVersionsCheckerInvalidSpecifierSkipsLookups(t *testing.T) {
	source := writeSource(t, "[versions]\nDjango = 1.4\n")
	fetcher := &stubFetcher{}

	_, err := NewVersionsChecker(fetcher, WithSpecifiers(map[string]string{"Django": "~=1"})).
		Check(context.Background(), source)
	assert.ErrorIs(t, err, pep440.ErrInvalidSpecifier)
	assert.Nil(t, fetcher.reqs)
}

func TestVersionsCheckerFaultTolerance(t *testing.T) {
	source := writeSource(t, "[versions]\ngood = 1.0\nmissing = 1.0\n")
	fetcher := &stubFetcher{latest: map[string]string{"good": "1.1"}}

	result, err := NewVersionsChecker(fetcher).Check(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"good": "1.1", "missing": pep440.Default}, result.LastVersions)
	assert.Equal(t, Pins{{"good", "1.1"}, {"missing", pep440.Default}}, result.Updates)
}

func TestVersionsCheckerCancelled(t *testing.T) {
	source := writeSource(t, "[versions]\nDjango = 1.4\n")
	// Interrupted lookups answer the default version
	fetcher := &stubFetcher{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewVersionsChecker(fetcher).Check(ctx, source)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

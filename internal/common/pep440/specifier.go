package pep440

import (
	"fmt"
	"regexp"
	"strings"

	goversion "github.com/aquasecurity/go-pep440-version"
)

// clauseRegex is the shape of one clause once its whitespace is removed
var clauseRegex = regexp.MustCompile(`^(~=|===|==|!=|<=|>=|<|>)(\S+)$`)

// SpecifierSet is a conjunction of clauses such as ">=1.0,!=1.3.4.*,<2.0".
// The zero value accepts any version.
type SpecifierSet struct {
	clauses []string
	specs   *goversion.Specifiers
}

// ParseSpecifierSet parses a comma separated list of clauses.
// An empty or blank string yields a set accepting every version.
func ParseSpecifierSet(s string) (SpecifierSet, error) {
	if strings.TrimSpace(s) == "" {
		return SpecifierSet{}, nil
	}

	var clauses []string
	for _, clause := range strings.Split(s, ",") {
		clause = strings.Join(strings.Fields(clause), "")
		m := clauseRegex.FindStringSubmatch(clause)
		if m == nil {
			return SpecifierSet{}, fmt.Errorf("%w: %q", ErrInvalidSpecifier, clause)
		}
		if strings.HasSuffix(m[2], ".*") && m[1] != "==" && m[1] != "!=" {
			return SpecifierSet{}, fmt.Errorf("%w: %q: wildcard only allowed with == and !=", ErrInvalidSpecifier, clause)
		}
		clauses = append(clauses, clause)
	}

	// Pre-releases are filtered by Filter, the clauses only match versions
	specs, err := goversion.NewSpecifiers(strings.Join(clauses, ","), goversion.WithPreRelease(true))
	if err != nil {
		return SpecifierSet{}, fmt.Errorf("%w: %q: %v", ErrInvalidSpecifier, s, err)
	}
	return SpecifierSet{clauses: clauses, specs: &specs}, nil
}

// Len returns the number of clauses.
func (s SpecifierSet) Len() int {
	return len(s.clauses)
}

func (s SpecifierSet) String() string {
	return strings.Join(s.clauses, ",")
}

// Contains reports whether version satisfies every clause. Pre-releases and
// development releases are rejected unless allowPre is set; invalid
// versions never match.
func (s SpecifierSet) Contains(version string, allowPre bool) bool {
	v, err := Parse(version)
	if err != nil {
		return false
	}
	if v.IsPreRelease() && !allowPre {
		return false
	}
	return s.specs == nil || s.specs.Check(v)
}

// Filter returns the candidates satisfying the set, in input order.
func (s SpecifierSet) Filter(candidates []string, allowPre bool) []string {
	var kept []string
	for _, c := range candidates {
		if s.Contains(c, allowPre) {
			kept = append(kept, c)
		}
	}
	return kept
}

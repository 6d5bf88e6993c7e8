package checker

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultPolicyFile is looked up next to the buildout source when no policy
// file is given.
const DefaultPolicyFile = "bvc.toml"

// ErrPolicyNotFound is returned when an explicitly requested policy file is missing
var ErrPolicyNotFound = errors.New("policy file not found")

// Policy holds the per-project check settings kept under version control
// alongside the buildout files.
//
//	include = ["zc.buildout"]
//	exclude = ["collective.*"]
//
//	[specifiers]
//	Django = ">=1.4,<1.5"
type Policy struct {
	// Specifiers maps package names to the versions they accept
	Specifiers map[string]string `toml:"specifiers"`
	// Include lists packages checked even when not pinned
	Include []string `toml:"include"`
	// Exclude lists package names or patterns never checked
	Exclude []string `toml:"exclude"`
}

// LoadPolicy loads the policy file at path.
// When explicit is false a missing file yields an empty policy.
func LoadPolicy(path string, explicit bool) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if explicit {
				return nil, fmt.Errorf("%s: %w", path, ErrPolicyNotFound)
			}
			return &Policy{}, nil
		}
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var policy Policy
	if err := toml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}

	validator := NewPatternValidator()
	for _, pattern := range policy.Exclude {
		if err := validator.Validate(pattern); err != nil {
			return nil, fmt.Errorf("policy file %s: %w", path, err)
		}
	}

	return &policy, nil
}

// Merge combines the policy with command line values. Command line
// specifiers override the policy's for the same package; includes and
// excludes are concatenated.
func (p *Policy) Merge(specifiers map[string]string, includes, excludes []string) (map[string]string, []string, []string) {
	merged := make(map[string]string, len(p.Specifiers)+len(specifiers))
	overridden := make(map[string]bool, len(specifiers))
	for name := range specifiers {
		overridden[foldName(name)] = true
	}
	for name, spec := range p.Specifiers {
		if !overridden[foldName(name)] {
			merged[name] = spec
		}
	}
	for name, spec := range specifiers {
		merged[name] = spec
	}

	allIncludes := append(append([]string{}, p.Include...), includes...)
	allExcludes := append(append([]string{}, p.Exclude...), excludes...)
	return merged, allIncludes, allExcludes
}

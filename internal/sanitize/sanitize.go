package sanitize

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule rewrites occurrences of a term to a replacement. Matching is
// case-insensitive; replacement preserves nothing of the original casing.
type Rule struct {
	Term        string
	Replacement string

	re *regexp.Regexp
}

// Sanitizer applies an ordered list of rewrite rules to string values.
// Rules are applied in order; earlier rules win on overlapping terms, so
// longer or more specific terms must come first.
type Sanitizer struct {
	rules []Rule
}

// New compiles the given rules into a Sanitizer. Rules with an empty term are
// rejected.
func New(rules []Rule) (*Sanitizer, error) {
	compiled := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if strings.TrimSpace(r.Term) == "" {
			return nil, fmt.Errorf("sanitize rule with empty term")
		}
		r.re = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(r.Term))
		compiled = append(compiled, r)
	}

	s := &Sanitizer{rules: compiled}
	if err := s.verify(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewBrandRules builds the standard rule set that rewrites legacy brand names
// to the current brand. Legacy names are ordered longest first so composite
// names are rewritten before their substrings.
func NewBrandRules(brand string, legacy []string) []Rule {
	names := make([]string, 0, len(legacy))
	for _, n := range legacy {
		if strings.TrimSpace(n) != "" {
			names = append(names, n)
		}
	}
	// Insertion sort by descending length keeps ordering stable for ties.
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && len(names[j]) > len(names[j-1]); j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}

	rules := make([]Rule, 0, len(names))
	for _, n := range names {
		rules = append(rules, Rule{Term: n, Replacement: brand})
	}
	return rules
}

// String applies all rules to a single string.
func (s *Sanitizer) String(v string) string {
	for _, r := range s.rules {
		v = r.re.ReplaceAllString(v, r.Replacement)
	}
	return v
}

// Apply walks a JSON-shaped value (maps, slices, strings) and rewrites every
// string leaf. Non-string leaves are returned unchanged. The input is not
// mutated; maps and slices are rebuilt.
func (s *Sanitizer) Apply(v any) any {
	switch val := v.(type) {
	case string:
		return s.String(val)
	case []string:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = s.String(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = s.Apply(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = s.Apply(item)
		}
		return out
	default:
		return v
	}
}

// verify rejects rule sets whose replacements still match a rule, which would
// make repeated application diverge instead of settling.
func (s *Sanitizer) verify() error {
	for _, r := range s.rules {
		for _, other := range s.rules {
			if other.re.MatchString(r.Replacement) {
				return fmt.Errorf("sanitize rule %q: replacement %q matches rule %q",
					r.Term, r.Replacement, other.Term)
			}
		}
	}
	return nil
}

// Package category resolves visits to user categories and collapses fine
// category labels into dashboard buckets.
package category

import (
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"github.com/runnerr0/footprint/internal/activity"
)

// Matcher resolves a domain to the category of the longest matching rule
// pattern. It is built once per rule set and is safe for concurrent use.
type Matcher struct {
	ac *ahocorasick.Matcher

	// One entry per distinct pattern, in first-seen order.
	patterns   []string
	categories []string
	firstRule  []int
}

// NewMatcher builds an Aho-Corasick automaton over the non-empty, lowercased
// rule patterns. When the same pattern appears more than once, the earliest
// rule keeps it.
func NewMatcher(rules []activity.DomainRule) *Matcher {
	m := &Matcher{}
	seen := make(map[string]int, len(rules))

	for i, r := range rules {
		p := strings.ToLower(strings.TrimSpace(r.Pattern))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = len(m.patterns)
		m.patterns = append(m.patterns, p)
		m.categories = append(m.categories, r.Category)
		m.firstRule = append(m.firstRule, i)
	}

	if len(m.patterns) > 0 {
		m.ac = ahocorasick.NewStringMatcher(m.patterns)
	}
	return m
}

// Len returns the number of distinct patterns in the matcher.
func (m *Matcher) Len() int {
	return len(m.patterns)
}

// Resolve returns the category of the longest pattern contained in domain.
// Equal-length matches go to the rule that came first.
func (m *Matcher) Resolve(domain string) (string, bool) {
	if m == nil || m.ac == nil || domain == "" {
		return "", false
	}

	hits := m.ac.MatchThreadSafe([]byte(strings.ToLower(domain)))

	best := -1
	for _, idx := range hits {
		if best < 0 {
			best = idx
			continue
		}
		bl, il := len(m.patterns[best]), len(m.patterns[idx])
		if il > bl || (il == bl && m.firstRule[idx] < m.firstRule[best]) {
			best = idx
		}
	}
	if best < 0 {
		return "", false
	}
	return m.categories[best], true
}

// ResolveCategory is a one-shot form of NewMatcher(rules).Resolve(domain).
func ResolveCategory(domain string, rules []activity.DomainRule) (string, bool) {
	return NewMatcher(rules).Resolve(domain)
}

package category

import (
	"testing"

	"github.com/runnerr0/footprint/internal/activity"
	"github.com/stretchr/testify/assert"
)

func rules(pairs ...string) []activity.DomainRule {
	var out []activity.DomainRule
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, activity.DomainRule{ID: int64(i/2 + 1), Pattern: pairs[i], Category: pairs[i+1]})
	}
	return out
}

func TestResolveCategory_LongestPatternWins(t *testing.T) {
	rs := rules("example.com", "Social Media", "docs.example.com", "Education")

	cat, ok := ResolveCategory("docs.example.com", rs)
	assert.True(t, ok)
	assert.Equal(t, "Education", cat)

	cat, ok = ResolveCategory("www.example.com", rs)
	assert.True(t, ok)
	assert.Equal(t, "Social Media", cat)
}

func TestResolveCategory_OrderDoesNotBeatLength(t *testing.T) {
	rs := rules("docs.example.com", "Education", "example.com", "Social Media")

	cat, ok := ResolveCategory("docs.example.com", rs)
	assert.True(t, ok)
	assert.Equal(t, "Education", cat)
}

func TestResolveCategory_EqualLengthFirstRuleWins(t *testing.T) {
	rs := rules("tube", "Entertainment", "you.", "Social")

	cat, ok := ResolveCategory("you.tube.example", rs)
	assert.True(t, ok)
	assert.Equal(t, "Entertainment", cat)

	rs = rules("you.", "Social", "tube", "Entertainment")
	cat, ok = ResolveCategory("you.tube.example", rs)
	assert.True(t, ok)
	assert.Equal(t, "Social", cat)
}

func TestResolveCategory_DuplicatePatternKeepsFirst(t *testing.T) {
	rs := rules("reddit.com", "Social", "reddit.com", "Entertainment")

	cat, ok := ResolveCategory("old.reddit.com", rs)
	assert.True(t, ok)
	assert.Equal(t, "Social", cat)
}

func TestResolveCategory_CaseAndEmpty(t *testing.T) {
	rs := rules("", "Ignored", "GitHub.com", "Programming")

	cat, ok := ResolveCategory("WWW.GITHUB.COM", rs)
	assert.True(t, ok)
	assert.Equal(t, "Programming", cat)

	_, ok = ResolveCategory("gitlab.com", rs)
	assert.False(t, ok)

	_, ok = ResolveCategory("", rs)
	assert.False(t, ok)

	_, ok = ResolveCategory("github.com", nil)
	assert.False(t, ok)
}

func TestMatcher_Deterministic(t *testing.T) {
	m := NewMatcher(rules("a.com", "Social", "b.a.com", "Gaming", "c", "News"))
	assert.Equal(t, 3, m.Len())

	for i := 0; i < 5; i++ {
		cat, ok := m.Resolve("x.b.a.com")
		assert.True(t, ok)
		assert.Equal(t, "Gaming", cat)
	}
}

func TestResolveLabel_Priority(t *testing.T) {
	assert.Equal(t, "Gaming", ResolveLabel("Education", "Gaming"))
	assert.Equal(t, "Education", ResolveLabel("Education", ""))
	assert.Equal(t, "Education", ResolveLabel("Education", "   "))
	assert.Equal(t, Uncategorized, ResolveLabel("", ""))
}

func TestResolveBucket(t *testing.T) {
	tests := []struct {
		name    string
		rule    string
		machine string
		want    activity.Bucket
	}{
		{"machine label wins", "Social Media", "Programming", activity.BucketProductive},
		{"rule label used without machine", "Social Media", "", activity.BucketSocial},
		{"table lookup is case-insensitive", "GAMING", "", activity.BucketEntertainment},
		{"social alias", "social-media", "", activity.BucketSocial},
		{"bucket name taken literally", "", "Entertainment", activity.BucketEntertainment},
		{"unknown label falls back to productive", "Knitting", "", activity.BucketProductive},
		{"nothing at all falls back to productive", "", "", activity.BucketProductive},
		{"zero-shot Other falls back to productive", "", "Other", activity.BucketProductive},
		{"zero-shot Shopping", "", "Shopping", activity.BucketEntertainment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveBucket(tt.rule, tt.machine))
		})
	}
}

func TestGroups_ReturnsCopy(t *testing.T) {
	gs := Groups()
	assert.Len(t, gs, 3)
	gs[0].Labels[0] = "mutated"

	b, ok := Lookup("productive")
	assert.True(t, ok)
	assert.Equal(t, activity.BucketProductive, b)
	assert.NotEqual(t, "mutated", Groups()[0].Labels[0])
}

func TestTable_NoLabelInTwoGroups(t *testing.T) {
	seen := map[string]string{}
	for _, g := range Groups() {
		for _, l := range g.Labels {
			prev, dup := seen[normalize(l)]
			assert.False(t, dup, "label %q in both %s and %s", l, prev, g.Name)
			seen[normalize(l)] = g.Name
		}
	}
}

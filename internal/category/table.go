package category

import (
	"strings"

	"github.com/runnerr0/footprint/internal/activity"
)

// Group is a curated set of fine labels that collapse into one bucket.
type Group struct {
	Name   string
	Bucket activity.Bucket
	Labels []string
}

var groups = []Group{
	{
		Name:   "Productive",
		Bucket: activity.BucketProductive,
		Labels: []string{
			"productive", "productivity", "work", "business", "office",
			"education", "learning", "e-learning", "online courses", "school",
			"university", "research", "science", "reference", "documentation",
			"docs", "technology", "tech", "programming", "software development",
			"development", "coding", "engineering", "developer tools",
			"design", "data science", "finance", "banking", "investing",
			"health & wellness", "health", "fitness", "news", "career",
			"jobs", "email", "calendar", "project management", "writing",
		},
	},
	{
		Name:   "Social",
		Bucket: activity.BucketSocial,
		Labels: []string{
			"social", "social media", "social_media", "socialmedia",
			"social-media", "social networking", "social network",
			"messaging", "chat", "instant messaging", "forums", "forum",
			"community", "communities", "dating", "microblogging",
			"photo sharing", "discussion", "networking", "comments",
		},
	},
	{
		Name:   "Entertainment",
		Bucket: activity.BucketEntertainment,
		Labels: []string{
			"entertainment", "distracting", "gaming", "games", "video games",
			"video", "videos", "streaming", "music", "movies", "film", "tv",
			"television", "anime", "comics", "memes", "humor", "celebrity",
			"gossip", "sports", "shopping", "e-commerce", "fashion",
			"lifestyle", "travel", "food", "podcasts", "esports", "gambling",
			"adult", "hobbies",
		},
	},
}

// table is built once at package init and only read afterwards.
var table = buildTable(groups)

func buildTable(gs []Group) map[string]activity.Bucket {
	t := make(map[string]activity.Bucket)
	for _, g := range gs {
		for _, l := range g.Labels {
			t[normalize(l)] = g.Bucket
		}
	}
	return t
}

func normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Lookup returns the bucket a fine label belongs to in the static table.
func Lookup(label string) (activity.Bucket, bool) {
	b, ok := table[normalize(label)]
	return b, ok
}

// Groups returns a copy of the curated label groups.
func Groups() []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = Group{Name: g.Name, Bucket: g.Bucket, Labels: append([]string(nil), g.Labels...)}
	}
	return out
}

// Package activity holds the records and derived values shared by the
// bucketing, aggregation and insights packages.
package activity

import (
	"strings"
	"time"
)

// Visit is a single page-view session as read from the store. Timestamps are
// kept as raw text; the aggregator parses them and drops malformed pairs.
type Visit struct {
	Domain    string
	URL       string
	StartTime string
	EndTime   string
}

// DomainRule maps a lowercase domain substring to a user-chosen category.
type DomainRule struct {
	ID        int64
	Pattern   string
	Category  string
	CreatedAt time.Time
}

// DomainLimit is a per-day allowance for a domain.
type DomainLimit struct {
	Domain         string
	AllowedMinutes int
}

// ContentAnalysis is one classified page produced by the analyzer.
type ContentAnalysis struct {
	PageURL           string
	SuggestedCategory string // empty when the classifier produced nothing
	Happy             float64
	Sad               float64
	Angry             float64
	Neutral           float64
	DominantEmotion   string
	ScrapedAt         time.Time
}

// Bucket is one of the coarse dashboard categories.
type Bucket string

const (
	BucketProductive    Bucket = "productive"
	BucketSocial        Bucket = "social"
	BucketEntertainment Bucket = "entertainment"
	BucketUncategorized Bucket = "uncategorized"
)

// ParseBucket returns the bucket whose name equals s, ignoring case.
func ParseBucket(s string) (Bucket, bool) {
	switch Bucket(strings.ToLower(strings.TrimSpace(s))) {
	case BucketProductive:
		return BucketProductive, true
	case BucketSocial:
		return BucketSocial, true
	case BucketEntertainment:
		return BucketEntertainment, true
	case BucketUncategorized:
		return BucketUncategorized, true
	}
	return "", false
}

// BucketTotals holds durations in seconds for one period or one day.
type BucketTotals struct {
	Total         float64
	Productive    float64
	Social        float64
	Entertainment float64
}

// Add credits seconds to the total and to the given bucket. Uncategorized
// time only counts toward the total.
func (t *BucketTotals) Add(b Bucket, seconds float64) {
	t.Total += seconds
	switch b {
	case BucketProductive:
		t.Productive += seconds
	case BucketSocial:
		t.Social += seconds
	case BucketEntertainment:
		t.Entertainment += seconds
	}
}

// Bucketed returns the sum of the three named buckets.
func (t BucketTotals) Bucketed() float64 {
	return t.Productive + t.Social + t.Entertainment
}

// Trend is the direction of a period-over-period change.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// ImprovementLabel is the qualitative reading of a percent change.
type ImprovementLabel string

const (
	MuchBetter     ImprovementLabel = "much_better"
	SlightlyBetter ImprovementLabel = "slightly_better"
	NoChange       ImprovementLabel = "no_change"
	SlightWorse    ImprovementLabel = "slight_worse"
	MuchWorse      ImprovementLabel = "much_worse"
)

// Metric is one dashboard tile.
type Metric struct {
	Title            string           `json:"title"`
	Value            int64            `json:"value"`
	ChangePercent    float64          `json:"change_percent"`
	Trend            Trend            `json:"trend"`
	ImprovementLabel ImprovementLabel `json:"improvement_label"`
}

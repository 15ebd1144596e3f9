// Package emotion scores the emotional tone of analyzed content.
package emotion

import (
	"github.com/runnerr0/footprint/internal/activity"
	"github.com/runnerr0/footprint/internal/aggregate"
)

// Segment types, in the order they are reported.
const (
	SegmentPositive = "positive"
	SegmentNeutral  = "neutral"
	SegmentNegative = "negative"
	SegmentBiased   = "biased"
)

// Segment is one slice of the emotional balance chart.
type Segment struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// Balance summarizes emotion intensity across content rows. Percentages are
// rounded to two decimals.
type Balance struct {
	BalanceScore int       `json:"balanceScore"`
	Segments     []Segment `json:"segments"`

	Positive float64 `json:"-"`
	Neutral  float64 `json:"-"`
	Negative float64 `json:"-"`
}

// Score sums happy, sad+angry and neutral intensities and converts them to
// shares of their combined total. The biased segment has no signal yet and
// is always 0.
func Score(rows []activity.ContentAnalysis) Balance {
	var pos, neg, neu float64
	for _, r := range rows {
		pos += r.Happy
		neg += r.Sad + r.Angry
		neu += r.Neutral
	}

	var b Balance
	if total := pos + neg + neu; total > 0 {
		b.Positive = aggregate.Round2(pos / total * 100)
		b.Neutral = aggregate.Round2(neu / total * 100)
		b.Negative = aggregate.Round2(neg / total * 100)
	}

	b.BalanceScore = aggregate.RoundInt(b.Positive*0.6 + (100-b.Negative)*0.4)
	b.Segments = []Segment{
		{Type: SegmentPositive, Value: b.Positive},
		{Type: SegmentNeutral, Value: b.Neutral},
		{Type: SegmentNegative, Value: b.Negative},
		{Type: SegmentBiased, Value: 0},
	}
	return b
}

package aggregate

import (
	"testing"
	"time"

	"github.com/runnerr0/footprint/internal/activity"
	"github.com/runnerr0/footprint/internal/category"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2024-03-04 00:00 UTC.
var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func week() Window {
	return Window{Start: monday, End: monday.AddDate(0, 0, 7)}
}

func visit(domain, url string, start time.Time, d time.Duration) activity.Visit {
	return activity.Visit{
		Domain:    domain,
		URL:       url,
		StartTime: start.Format(time.RFC3339),
		EndTime:   start.Add(d).Format(time.RFC3339),
	}
}

func testRules() *category.Matcher {
	return category.NewMatcher([]activity.DomainRule{
		{Pattern: "github.com", Category: "Programming"},
		{Pattern: "twitter.com", Category: "Social Media"},
		{Pattern: "youtube.com", Category: "Entertainment"},
	})
}

func TestWeekWindow(t *testing.T) {
	wed := time.Date(2024, 3, 6, 15, 30, 0, 0, time.UTC)

	w := WeekWindow(ThisWeek, wed)
	assert.Equal(t, monday, w.Start)
	assert.Equal(t, monday.AddDate(0, 0, 7), w.End)
	assert.Equal(t, 7, w.Days())

	lw := WeekWindow(LastWeek, wed)
	assert.Equal(t, monday.AddDate(0, 0, -7), lw.Start)
	assert.Equal(t, monday, lw.End)

	assert.Equal(t, w, WeekWindow("fortnight", wed))
	assert.Equal(t, lw, w.Previous())
}

func TestStartOfWeek_Sunday(t *testing.T) {
	sun := time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, monday, StartOfWeek(sun))

	// Converted to UTC before finding the Monday.
	est := time.FixedZone("EST", -5*3600)
	sundayEveningEST := time.Date(2024, 3, 10, 20, 0, 0, 0, est)
	assert.Equal(t, monday.AddDate(0, 0, 7), StartOfWeek(sundayEveningEST))
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{
		"2024-03-04T10:00:00Z",
		"2024-03-04T10:00:00+00:00",
		"2024-03-04T10:00:00.123456+00:00",
		"2024-03-04 10:00:00",
		"2024-03-04T10:00:00",
		"2024-03-04T10:00:00.5",
	} {
		ts, err := ParseTimestamp(s)
		require.NoError(t, err, s)
		assert.Equal(t, 2024, ts.Year())
	}

	for _, s := range []string{"", "yesterday", "2024-13-45T00:00:00Z"} {
		_, err := ParseTimestamp(s)
		assert.Error(t, err, s)
	}
}

func TestAggregate_TotalsAndDays(t *testing.T) {
	visits := []activity.Visit{
		visit("github.com", "https://github.com/a", monday.Add(9*time.Hour), time.Hour),
		visit("twitter.com", "https://twitter.com/x", monday.Add(33*time.Hour), 30*time.Minute),
		visit("www.youtube.com", "https://youtube.com/w", monday.AddDate(0, 0, 6).Add(20*time.Hour), 15*time.Minute),
		visit("unknown.example", "", monday.Add(10*time.Hour), 10*time.Minute),
	}

	res := Aggregator{Rules: testRules()}.Aggregate(visits, week())

	assert.Equal(t, 3600.0+600, res.Totals.Productive)
	assert.Equal(t, 1800.0, res.Totals.Social)
	assert.Equal(t, 900.0, res.Totals.Entertainment)
	assert.Equal(t, 3600.0+1800+900+600, res.Totals.Total)
	assert.Equal(t, res.Totals.Total, res.Totals.Bucketed())

	assert.Equal(t, 4200.0, res.Days[0].Productive)
	assert.Equal(t, 1800.0, res.Days[1].Social)
	assert.Equal(t, 900.0, res.Days[6].Entertainment)
	assert.Equal(t, res.Totals.Total, res.DaySum())
	assert.Zero(t, res.Skipped)
}

func TestAggregate_SkipsMalformed(t *testing.T) {
	visits := []activity.Visit{
		{Domain: "github.com", StartTime: "not a time", EndTime: "2024-03-04T10:00:00Z"},
		{Domain: "github.com", StartTime: "2024-03-04T10:00:00Z", EndTime: ""},
		visit("github.com", "", monday.Add(time.Hour), time.Minute),
	}

	res := Aggregator{Rules: testRules()}.Aggregate(visits, week())

	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 60.0, res.Totals.Total)
}

func TestAggregate_InvertedTimestampsCountZero(t *testing.T) {
	v := activity.Visit{
		Domain:    "github.com",
		StartTime: monday.Add(2 * time.Hour).Format(time.RFC3339),
		EndTime:   monday.Add(time.Hour).Format(time.RFC3339),
	}

	res := Aggregator{Rules: testRules()}.Aggregate([]activity.Visit{v}, week())

	assert.Zero(t, res.Skipped)
	assert.Equal(t, 0.0, res.Totals.Total)
}

func TestAggregate_EndExclusiveWindow(t *testing.T) {
	w := week()
	visits := []activity.Visit{
		visit("github.com", "", w.End, time.Hour),
		visit("github.com", "", w.Start.Add(-time.Second), time.Hour),
		visit("github.com", "", w.Start, time.Minute),
	}

	res := Aggregator{Rules: testRules()}.Aggregate(visits, w)

	assert.Equal(t, 60.0, res.Totals.Total)
	assert.Equal(t, 60.0, res.Days[0].Total)
}

func TestAggregate_LongWindowKeepsTotalBeyondWeek(t *testing.T) {
	w := Window{Start: monday, End: monday.AddDate(0, 0, 14)}
	visits := []activity.Visit{
		visit("github.com", "", monday.Add(time.Hour), time.Minute),
		visit("github.com", "", monday.AddDate(0, 0, 10), time.Minute),
	}

	res := Aggregator{Rules: testRules()}.Aggregate(visits, w)

	assert.Equal(t, 120.0, res.Totals.Total)
	assert.Equal(t, 60.0, res.DaySum())
	assert.LessOrEqual(t, res.DaySum(), res.Totals.Total)
}

func TestAggregate_MachineLabelsOverrideRules(t *testing.T) {
	visits := []activity.Visit{
		visit("www.youtube.com", "https://youtube.com/lecture", monday.Add(time.Hour), time.Hour),
		visit("www.youtube.com", "https://youtube.com/cats", monday.Add(2*time.Hour), time.Hour),
	}
	labels := Labels{"https://youtube.com/lecture": "Education"}

	ruleOnly := Aggregator{Rules: testRules()}.Aggregate(visits, week())
	withLabels := Aggregator{Rules: testRules(), Labels: labels}.Aggregate(visits, week())

	assert.Equal(t, 7200.0, ruleOnly.Totals.Entertainment)
	assert.Equal(t, 3600.0, withLabels.Totals.Entertainment)
	assert.Equal(t, 3600.0, withLabels.Totals.Productive)
}

func TestAggregate_Idempotent(t *testing.T) {
	visits := []activity.Visit{
		visit("github.com", "", monday.Add(time.Hour), 90*time.Second),
		visit("twitter.com", "", monday.Add(50*time.Hour), 7*time.Minute),
		{Domain: "bad", StartTime: "x", EndTime: "y"},
	}
	agg := Aggregator{Rules: testRules()}

	assert.Equal(t, agg.Aggregate(visits, week()), agg.Aggregate(visits, week()))
}

func TestUsageFor(t *testing.T) {
	visits := []activity.Visit{
		visit("www.YouTube.com", "", monday.Add(time.Hour), time.Hour),
		visit("m.youtube.com", "", monday.Add(3*time.Hour), 30*time.Minute),
		visit("github.com", "", monday.Add(5*time.Hour), time.Hour),
	}

	res := Aggregator{Rules: testRules()}.Aggregate(visits, week())

	assert.Equal(t, 5400.0, res.UsageFor("YouTube.com"))
	assert.Equal(t, 0.0, res.UsageFor(""))
	assert.Equal(t, 0.0, res.UsageFor("reddit.com"))
}

func TestChange(t *testing.T) {
	tests := []struct {
		cur, prev float64
		pct       float64
		trend     activity.Trend
		label     activity.ImprovementLabel
	}{
		{0, 0, 0, activity.TrendFlat, activity.NoChange},
		{110, 100, 10, activity.TrendUp, activity.MuchBetter},
		{95, 100, -5, activity.TrendDown, activity.SlightWorse},
		{50, 0, 0, activity.TrendFlat, activity.NoChange},
		{50, -3, 0, activity.TrendFlat, activity.NoChange},
		{105, 100, 5, activity.TrendUp, activity.SlightlyBetter},
		{90, 100, -10, activity.TrendDown, activity.MuchWorse},
		{1, 3, -66.67, activity.TrendDown, activity.MuchWorse},
	}

	for _, tt := range tests {
		pct, trend, label := Change(tt.cur, tt.prev)
		assert.Equal(t, tt.pct, pct, "change(%v, %v)", tt.cur, tt.prev)
		assert.Equal(t, tt.trend, trend)
		assert.Equal(t, tt.label, label)
	}
}

func TestLabelThresholds(t *testing.T) {
	assert.Equal(t, activity.MuchBetter, Label(10))
	assert.Equal(t, activity.SlightlyBetter, Label(9.99))
	assert.Equal(t, activity.SlightlyBetter, Label(0.01))
	assert.Equal(t, activity.NoChange, Label(0))
	assert.Equal(t, activity.SlightWorse, Label(-0.01))
	assert.Equal(t, activity.SlightWorse, Label(-9.99))
	assert.Equal(t, activity.MuchWorse, Label(-10))
}

func TestMakeMetric(t *testing.T) {
	m := MakeMetric("Total Time", 3661.9, 3000)
	assert.Equal(t, "Total Time", m.Title)
	assert.Equal(t, int64(3661), m.Value)
	assert.Equal(t, 22.06, m.ChangePercent)
	assert.Equal(t, activity.TrendUp, m.Trend)
	assert.Equal(t, activity.MuchBetter, m.ImprovementLabel)
}

func TestRoundHalvesToEven(t *testing.T) {
	assert.Equal(t, 0.12, Round2(0.125))
	assert.Equal(t, 0.38, Round2(0.375))
	assert.Equal(t, 2.67, Round2(2.675)) // 2.675 is stored just below the half
	assert.Equal(t, 2, RoundInt(2.5))
	assert.Equal(t, 4, RoundInt(3.5))
	assert.Equal(t, -2, RoundInt(-2.5))
	assert.Equal(t, 85, RoundInt(84.6))
}

func TestParseTimestamp_StoredLayout(t *testing.T) {
	ts, err := ParseTimestamp("2024-03-04T10:00:00.250000Z")
	require.NoError(t, err)
	assert.True(t, ts.Equal(time.Date(2024, 3, 4, 10, 0, 0, 250_000_000, time.UTC)))
}

func TestRatioAndClamp(t *testing.T) {
	assert.Equal(t, 0.0, Ratio(5, 0))
	assert.Equal(t, 33.33, Ratio(1, 3))
	assert.Equal(t, 100.0, Clamp(150, 0, 100))
	assert.Equal(t, 0.0, Clamp(-4, 0, 100))
	assert.Equal(t, 42.0, Clamp(42, 0, 100))
}

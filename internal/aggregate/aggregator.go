package aggregate

import (
	"sort"
	"strings"

	"github.com/runnerr0/footprint/internal/activity"
	"github.com/runnerr0/footprint/internal/category"
)

// LabelLookup returns the machine-suggested category for a page URL.
type LabelLookup interface {
	Label(url string) (string, bool)
}

// Labels is a LabelLookup backed by a map from URL to category.
type Labels map[string]string

// Label implements LabelLookup.
func (l Labels) Label(url string) (string, bool) {
	c, ok := l[url]
	return c, ok
}

// Result is the outcome of aggregating one window.
type Result struct {
	Totals activity.BucketTotals
	Days   [DaysInWeek]activity.BucketTotals

	// DomainSeconds is time per lowercase domain, used for limit checks.
	DomainSeconds map[string]float64

	// Skipped counts records dropped for unparsable timestamps.
	Skipped int
}

// DaySum returns the total across the daily breakdown.
func (r Result) DaySum() float64 {
	var s float64
	for _, d := range r.Days {
		s += d.Total
	}
	return s
}

// Aggregator buckets visits and sums their durations. Labels may be nil, in
// which case only the domain rules are consulted.
type Aggregator struct {
	Rules  *category.Matcher
	Labels LabelLookup
}

// Aggregate sums durations of the visits that start inside window.
// Records with unparsable timestamps are skipped, never reported as errors.
func (a Aggregator) Aggregate(visits []activity.Visit, window Window) Result {
	res := Result{DomainSeconds: make(map[string]float64)}

	for _, v := range visits {
		st, secs, err := Duration(v.StartTime, v.EndTime)
		if err != nil {
			res.Skipped++
			continue
		}
		if !window.Contains(st) {
			continue
		}

		b := a.bucket(v)
		res.Totals.Add(b, secs)
		res.DomainSeconds[strings.ToLower(v.Domain)] += secs

		if i := dayIndex(window.Start, st); i >= 0 && i < DaysInWeek {
			res.Days[i].Add(b, secs)
		}
	}

	return res
}

func (a Aggregator) bucket(v activity.Visit) activity.Bucket {
	var ruleCat, machineCat string
	if c, ok := a.Rules.Resolve(v.Domain); ok {
		ruleCat = c
	}
	if a.Labels != nil && v.URL != "" {
		if c, ok := a.Labels.Label(v.URL); ok {
			machineCat = c
		}
	}
	return category.ResolveBucket(ruleCat, machineCat)
}

// UsageFor sums the seconds of every domain that contains pattern.
func (r Result) UsageFor(pattern string) float64 {
	pattern = strings.ToLower(pattern)
	if pattern == "" {
		return 0
	}
	domains := make([]string, 0, len(r.DomainSeconds))
	for d := range r.DomainSeconds {
		if strings.Contains(d, pattern) {
			domains = append(domains, d)
		}
	}
	sort.Strings(domains)

	var used float64
	for _, d := range domains {
		used += r.DomainSeconds[d]
	}
	return used
}

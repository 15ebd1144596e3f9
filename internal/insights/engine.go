// Package insights composes aggregated totals and emotional balance into a
// health summary, alerts, goal progress and content category shares.
package insights

import (
	"fmt"
	"sort"
	"strings"

	"github.com/runnerr0/footprint/internal/activity"
	"github.com/runnerr0/footprint/internal/aggregate"
	"github.com/runnerr0/footprint/internal/emotion"
)

// Alert thresholds.
const (
	NegativeIncreaseThreshold = 5.0  // percentage points vs previous period
	BubbleShareThreshold      = 60.0 // percent of analyzed documents
	ProgressThreshold         = 10.0 // productive-ratio points vs previous period
)

// Alert types.
const (
	AlertWarning = "warning"
	AlertInfo    = "info"
	AlertSuccess = "success"
)

// Goal ids.
const (
	GoalReduceSocial       = "reduce_social_media"
	GoalIncreaseProductive = "increase_productive_hours"
	GoalDiversifyContent   = "diversify_content"
)

// Summary is the headline block of the insights view.
type Summary struct {
	OverallHealthScore       int `json:"overallHealthScore"`
	ProductiveTimeRatio      int `json:"productiveTimeRatio"`
	WeeklyImprovementPercent int `json:"weeklyImprovementPercent"`
}

// Alert is a single notice raised for the period.
type Alert struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// GoalProgress is a heuristic 0-100 indicator. The values are linear
// projections of period-over-period change, not measured completion.
type GoalProgress struct {
	GoalID          string `json:"goalId"`
	Label           string `json:"label"`
	ProgressPercent int    `json:"progressPercent"`
}

// CategoryShare is the share of analyzed documents in one content category.
type CategoryShare struct {
	Category   string  `json:"category"`
	Percentage float64 `json:"percentage"`
}

// Input carries everything the engine needs for one period.
type Input struct {
	Window   aggregate.Window
	Current  aggregate.Result
	Previous aggregate.Result

	Balance         emotion.Balance
	PreviousBalance emotion.Balance
	Content         []activity.ContentAnalysis

	Limits []activity.DomainLimit
}

// Report is the engine output.
type Report struct {
	Summary           Summary         `json:"summary"`
	Alerts            []Alert         `json:"alerts"`
	WeeklyProgress    []GoalProgress  `json:"weeklyProgress"`
	EmotionalBalance  emotion.Balance `json:"emotionalBalance"`
	ContentCategories []CategoryShare `json:"contentCategories"`
}

// Build evaluates every rule independently and returns the report.
func Build(in Input) Report {
	cur, prev := in.Current.Totals, in.Previous.Totals

	categories := ContentCategories(in.Content)
	var topShare float64
	if len(categories) > 0 {
		topShare = categories[0].Percentage
	}

	prodRatio := aggregate.Ratio(cur.Productive, cur.Total)
	prevProdRatio := aggregate.Ratio(prev.Productive, prev.Total)
	improvement := aggregate.Round2(prodRatio - prevProdRatio)
	socialRatio := aggregate.Ratio(cur.Social, cur.Total)

	report := Report{
		Summary: Summary{
			OverallHealthScore:       HealthScore(prodRatio, socialRatio, in.Balance.Positive),
			ProductiveTimeRatio:      aggregate.RoundInt(prodRatio),
			WeeklyImprovementPercent: aggregate.RoundInt(improvement),
		},
		Alerts:            []Alert{},
		EmotionalBalance:  in.Balance,
		ContentCategories: categories,
	}

	negIncrease := aggregate.Round2(in.Balance.Negative - in.PreviousBalance.Negative)
	if negIncrease >= NegativeIncreaseThreshold {
		report.Alerts = append(report.Alerts, Alert{
			ID:    "alert_neg_content",
			Type:  AlertWarning,
			Title: "Negative Content Alert",
			Description: fmt.Sprintf("Your negative content consumption increased by %s%% this period. "+
				"Consider diversifying your sources.", formatFloat(negIncrease)),
		})
	}

	if len(categories) > 0 && topShare >= BubbleShareThreshold {
		report.Alerts = append(report.Alerts, Alert{
			ID:    "alert_bubble",
			Type:  AlertInfo,
			Title: "Content Bubble Detected",
			Description: fmt.Sprintf("You've been in a %s content bubble. "+
				"Try exploring other topics for a balanced perspective.", categories[0].Category),
		})
	}

	if improvement >= ProgressThreshold {
		report.Alerts = append(report.Alerts, Alert{
			ID:    "alert_progress",
			Type:  AlertSuccess,
			Title: "Great Progress!",
			Description: fmt.Sprintf("Great job! Your productive screen time increased by %d%% "+
				"compared to last period.", aggregate.RoundInt(improvement)),
		})
	}

	report.Alerts = append(report.Alerts, LimitAlerts(in.Limits, in.Current, in.Window)...)

	socialChange := aggregate.PercentChange(cur.Social, prev.Social)
	prodChange := aggregate.PercentChange(cur.Productive, prev.Productive)
	report.WeeklyProgress = Goals(socialChange, prodChange, topShare)

	return report
}

// HealthScore blends productive share, non-social share and positive
// emotion into a 0-100 score.
func HealthScore(productiveRatio, socialRatio, positivePct float64) int {
	score := aggregate.RoundInt(0.5*productiveRatio + 0.3*(100-socialRatio) + 0.2*positivePct)
	return int(aggregate.Clamp(float64(score), 0, 100))
}

// LimitAlerts raises a warning for every limit whose usage in the window
// exceeds the allowance scaled by the number of days in the window.
func LimitAlerts(limits []activity.DomainLimit, cur aggregate.Result, w aggregate.Window) []Alert {
	days := w.Days()
	if days < 1 {
		days = 1
	}

	var alerts []Alert
	for _, lim := range limits {
		dom := strings.ToLower(strings.TrimSpace(lim.Domain))
		if dom == "" {
			continue
		}
		allowed := float64(lim.AllowedMinutes) * 60 * float64(days)
		used := cur.UsageFor(dom)
		if allowed <= 0 || used <= allowed {
			continue
		}
		over := aggregate.RoundInt((used - allowed) * 100 / allowed)
		alerts = append(alerts, Alert{
			ID:    "alert_limit_" + dom,
			Type:  AlertWarning,
			Title: "Domain Limit Exceeded",
			Description: fmt.Sprintf("Your usage for '%s' is %d%% above your target for this period. "+
				"Consider setting app limits.", dom, over),
		})
	}
	return alerts
}

// Goals projects period-over-period changes onto 0-100 progress bars.
func Goals(socialChange, productiveChange, topCategoryShare float64) []GoalProgress {
	return []GoalProgress{
		{
			GoalID:          GoalReduceSocial,
			Label:           "Reduce Social Media Time",
			ProgressPercent: aggregate.RoundInt(aggregate.Clamp(50-socialChange*0.5, 0, 100)),
		},
		{
			GoalID:          GoalIncreaseProductive,
			Label:           "Increase Productive Hours",
			ProgressPercent: aggregate.RoundInt(aggregate.Clamp(50+productiveChange*0.5, 0, 100)),
		},
		{
			GoalID:          GoalDiversifyContent,
			Label:           "Diversify Content Sources",
			ProgressPercent: aggregate.RoundInt(aggregate.Clamp(100-topCategoryShare, 0, 100)),
		},
	}
}

// ContentCategories counts analyzed documents per lowercase suggested
// category ("other" when missing), largest first. Equal counts keep the
// order in which the categories were first seen.
func ContentCategories(rows []activity.ContentAnalysis) []CategoryShare {
	counts := make(map[string]int)
	var order []string
	for _, r := range rows {
		c := strings.ToLower(strings.TrimSpace(r.SuggestedCategory))
		if c == "" {
			c = "other"
		}
		if _, ok := counts[c]; !ok {
			order = append(order, c)
		}
		counts[c]++
	}

	out := []CategoryShare{}
	if len(rows) == 0 {
		return out
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	for _, c := range order {
		out = append(out, CategoryShare{
			Category:   c,
			Percentage: aggregate.Round2(float64(counts[c]) * 100 / float64(len(rows))),
		})
	}
	return out
}

func formatFloat(x float64) string {
	return fmt.Sprintf("%g", x)
}

package dashboard

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/footprint/internal/activity"
	"github.com/runnerr0/footprint/internal/aggregate"
	"github.com/runnerr0/footprint/internal/category"
	"github.com/runnerr0/footprint/internal/emotion"
	"github.com/runnerr0/footprint/internal/insights"
)

// User identifies who a view was built for.
type User struct {
	ID string `json:"id"`
}

// DayRow is one day of the weekly breakdown, in whole seconds.
type DayRow struct {
	Day           string `json:"day"`
	Productive    int64  `json:"Productive"`
	Social        int64  `json:"Social"`
	Entertainment int64  `json:"Entertainment"`
}

// DashboardResponse is the dashboard view.
type DashboardResponse struct {
	User       User              `json:"user"`
	TimeRange  string            `json:"timeRange"`
	Metrics    []activity.Metric `json:"metrics"`
	WeeklyData []DayRow          `json:"weeklyData"`
}

// InsightsResponse is the insights view.
type InsightsResponse struct {
	TimeRange string `json:"timeRange"`
	insights.Report
}

// Website is one row of the settings view. Category and Limit are null when
// no rule or limit applies.
type Website struct {
	Name     string  `json:"name"`
	Category *string `json:"category"`
	Limit    *int    `json:"limit"`
}

// SettingsResponse is the settings view.
type SettingsResponse struct {
	Websites []Website `json:"websites"`
}

// Dashboard builds the four headline metrics and the Mon..Sun breakdown for
// the selected week.
func (s *Service) Dashboard(ctx context.Context, userID, rangeName string) (*DashboardResponse, error) {
	userID, err := checkUser(userID)
	if err != nil {
		return nil, err
	}
	rangeName = aggregate.NormalizeRange(rangeName)
	cur := aggregate.WeekWindow(rangeName, s.opts.Now())
	prev := cur.Previous()

	d, err := s.fetchPeriods(ctx, userID, cur, prev)
	if err != nil {
		return nil, err
	}

	agg := s.aggregator(ctx, userID, d.rules, d.current, d.previous)
	curRes := s.aggregate(agg, d.current, cur)
	prevRes := s.aggregate(agg, d.previous, prev)

	c, p := curRes.Totals, prevRes.Totals
	resp := &DashboardResponse{
		User:      User{ID: userID},
		TimeRange: rangeName,
		Metrics: []activity.Metric{
			aggregate.MakeMetric("Total Time", c.Total, p.Total),
			aggregate.MakeMetric("Productive Time", c.Productive, p.Productive),
			aggregate.MakeMetric("Social Time", c.Social, p.Social),
			aggregate.MakeMetric("Entertainment Time", c.Entertainment, p.Entertainment),
		},
		WeeklyData: make([]DayRow, 0, aggregate.DaysInWeek),
	}
	for i, day := range curRes.Days {
		resp.WeeklyData = append(resp.WeeklyData, DayRow{
			Day:           aggregate.WeekdayNames[i],
			Productive:    int64(day.Productive),
			Social:        int64(day.Social),
			Entertainment: int64(day.Entertainment),
		})
	}

	s.metrics.RecordView("dashboard")
	s.logger.Debug("dashboard built",
		zap.String("user_id", userID),
		zap.String("range", rangeName),
		zap.Int("visits", len(d.current)),
		zap.Float64("total_seconds", c.Total))
	return resp, nil
}

// Insights builds the health summary, alerts, goals, emotional balance and
// content categories for the selected week.
func (s *Service) Insights(ctx context.Context, userID, rangeName string) (*InsightsResponse, error) {
	userID, err := checkUser(userID)
	if err != nil {
		return nil, err
	}
	rangeName = aggregate.NormalizeRange(rangeName)
	cur := aggregate.WeekWindow(rangeName, s.opts.Now())
	prev := cur.Previous()

	var (
		d                 *periodData
		content, prevCont []activity.ContentAnalysis
		limits            []activity.DomainLimit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d, err = s.fetchPeriods(gctx, userID, cur, prev)
		return err
	})
	g.Go(func() error {
		rows, err := s.src.ContentAnalysisInRange(gctx, userID, cur.Start, cur.End)
		if err != nil {
			return s.upstream("content analysis", err)
		}
		content = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.src.ContentAnalysisInRange(gctx, userID, prev.Start, prev.End)
		if err != nil {
			return s.upstream("previous content analysis", err)
		}
		prevCont = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.src.DomainLimits(gctx, userID)
		if err != nil {
			return s.upstream("domain limits", err)
		}
		limits = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agg := s.aggregator(ctx, userID, d.rules, d.current, d.previous)
	report := insights.Build(insights.Input{
		Window:          cur,
		Current:         s.aggregate(agg, d.current, cur),
		Previous:        s.aggregate(agg, d.previous, prev),
		Balance:         emotion.Score(content),
		PreviousBalance: emotion.Score(prevCont),
		Content:         content,
		Limits:          limits,
	})

	s.metrics.RecordView("insights")
	s.logger.Debug("insights built",
		zap.String("user_id", userID),
		zap.String("range", rangeName),
		zap.Int("alerts", len(report.Alerts)),
		zap.Int("health_score", report.Summary.OverallHealthScore))
	return &InsightsResponse{TimeRange: rangeName, Report: report}, nil
}

// Settings lists every site the user has visited recently, limited or
// written a rule for, in that order without duplicates.
func (s *Service) Settings(ctx context.Context, userID string) (*SettingsResponse, error) {
	userID, err := checkUser(userID)
	if err != nil {
		return nil, err
	}

	var (
		domains []string
		limits  []activity.DomainLimit
		rules   []activity.DomainRule
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.src.RecentSessionDomains(gctx, userID, s.opts.RecentDomainLimit)
		if err != nil {
			return s.upstream("recent domains", err)
		}
		domains = v
		return nil
	})
	g.Go(func() error {
		v, err := s.src.DomainLimits(gctx, userID)
		if err != nil {
			return s.upstream("domain limits", err)
		}
		limits = v
		return nil
	})
	g.Go(func() error {
		v, err := s.src.DomainRules(gctx, userID)
		if err != nil {
			return s.upstream("domain rules", err)
		}
		rules = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	limitByDomain := make(map[string]int, len(limits))
	names := newOrderedSet()
	for _, d := range domains {
		names.add(d)
	}
	for _, l := range limits {
		d := strings.ToLower(strings.TrimSpace(l.Domain))
		if d == "" {
			continue
		}
		limitByDomain[d] = l.AllowedMinutes
		names.add(d)
	}
	for _, r := range rules {
		names.add(r.Pattern)
	}

	matcher := category.NewMatcher(rules)
	resp := &SettingsResponse{Websites: make([]Website, 0, len(names.items))}
	for _, name := range names.items {
		w := Website{Name: name}
		if c, ok := matcher.Resolve(name); ok {
			w.Category = &c
		}
		if l, ok := limitByDomain[name]; ok {
			w.Limit = &l
		}
		resp.Websites = append(resp.Websites, w)
	}

	s.metrics.RecordView("settings")
	return resp, nil
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

// add lowercases v and appends it unless empty or already present.
func (o *orderedSet) add(v string) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return
	}
	if _, ok := o.seen[v]; ok {
		return
	}
	o.seen[v] = struct{}{}
	o.items = append(o.items, v)
}

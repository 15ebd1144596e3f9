package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/runnerr0/footprint/internal/config"
	"github.com/runnerr0/footprint/internal/dashboard"
	"github.com/runnerr0/footprint/internal/storage"
)

// viewService builds the dashboard service for one CLI invocation. The
// returned func flushes its logger.
func viewService(globals *GlobalFlags, store *storage.SQLiteStore, cfg *config.Config) (*dashboard.Service, string, func(), error) {
	user, err := resolveUser(globals, cfg)
	if err != nil {
		return nil, "", nil, err
	}
	logger, cleanup, err := newLogger(globals, cfg)
	if err != nil {
		return nil, "", nil, err
	}
	svc, err := newViews(store, cfg, logger, nil)
	if err != nil {
		cleanup()
		return nil, "", nil, err
	}
	return svc, user, cleanup, nil
}

// Execute implements the go-flags Commander interface for DashboardCommand.
func (c *DashboardCommand) Execute(args []string) error {
	return withStore(c.globals, c.executeWithStore)
}

// executeWithStore prints the dashboard view from a provided store (used by tests).
func (c *DashboardCommand) executeWithStore(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config) error {
	svc, user, cleanup, err := viewService(c.globals, store, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	resp, err := svc.Dashboard(ctx, user, c.Range)
	if err != nil {
		return err
	}
	if isJSON(c.globals) {
		return printJSON(resp)
	}

	fmt.Printf("Dashboard for %s (%s)\n", resp.User.ID, strings.ReplaceAll(resp.TimeRange, "_", " "))
	fmt.Println(strings.Repeat("=", 40))
	for _, m := range resp.Metrics {
		fmt.Printf("%-20s %10s  %+7.2f%%  %-5s %s\n",
			m.Title, formatSeconds(m.Value), m.ChangePercent, m.Trend, m.ImprovementLabel)
	}

	fmt.Println()
	fmt.Printf("%-4s %12s %12s %14s\n", "Day", "Productive", "Social", "Entertainment")
	for _, d := range resp.WeeklyData {
		fmt.Printf("%-4s %12s %12s %14s\n",
			d.Day, formatSeconds(d.Productive), formatSeconds(d.Social), formatSeconds(d.Entertainment))
	}
	return nil
}

// Execute implements the go-flags Commander interface for InsightsCommand.
func (c *InsightsCommand) Execute(args []string) error {
	return withStore(c.globals, c.executeWithStore)
}

// executeWithStore prints the insights view from a provided store (used by tests).
func (c *InsightsCommand) executeWithStore(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config) error {
	svc, user, cleanup, err := viewService(c.globals, store, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	resp, err := svc.Insights(ctx, user, c.Range)
	if err != nil {
		return err
	}
	if isJSON(c.globals) {
		return printJSON(resp)
	}

	s := resp.Summary
	fmt.Printf("Insights (%s)\n", strings.ReplaceAll(resp.TimeRange, "_", " "))
	fmt.Println("==================")
	fmt.Printf("Health score:        %d\n", s.OverallHealthScore)
	fmt.Printf("Productive ratio:    %d%%\n", s.ProductiveTimeRatio)
	fmt.Printf("Weekly improvement:  %+d%%\n", s.WeeklyImprovementPercent)
	fmt.Printf("Emotional balance:   %d\n", resp.EmotionalBalance.BalanceScore)

	if len(resp.Alerts) > 0 {
		fmt.Println()
		fmt.Println("Alerts:")
		for _, a := range resp.Alerts {
			fmt.Printf("  [%s] %s: %s\n", a.Type, a.Title, a.Description)
		}
	}

	fmt.Println()
	fmt.Println("Goals:")
	for _, g := range resp.WeeklyProgress {
		fmt.Printf("  %-28s %3d%%\n", g.Label, g.ProgressPercent)
	}

	if len(resp.ContentCategories) > 0 {
		fmt.Println()
		fmt.Println("Content:")
		for _, cs := range resp.ContentCategories {
			fmt.Printf("  %-20s %6.2f%%\n", cs.Category, cs.Percentage)
		}
	}
	return nil
}

// Execute implements the go-flags Commander interface for SettingsCommand.
func (c *SettingsCommand) Execute(args []string) error {
	return withStore(c.globals, c.executeWithStore)
}

// executeWithStore prints the settings view from a provided store (used by tests).
func (c *SettingsCommand) executeWithStore(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config) error {
	svc, user, cleanup, err := viewService(c.globals, store, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	resp, err := svc.Settings(ctx, user)
	if err != nil {
		return err
	}
	if isJSON(c.globals) {
		return printJSON(resp)
	}

	if len(resp.Websites) == 0 {
		fmt.Println("No websites yet.")
		return nil
	}
	fmt.Printf("%-32s %-20s %s\n", "Website", "Category", "Limit")
	for _, w := range resp.Websites {
		category, limit := "-", "-"
		if w.Category != nil {
			category = *w.Category
		}
		if w.Limit != nil {
			limit = fmt.Sprintf("%d min", *w.Limit)
		}
		fmt.Printf("%-32s %-20s %s\n", w.Name, category, limit)
	}
	return nil
}

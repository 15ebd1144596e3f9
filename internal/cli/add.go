package cli

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/runnerr0/footprint/internal/aggregate"
	"github.com/runnerr0/footprint/internal/config"
	"github.com/runnerr0/footprint/internal/storage"
)

// Execute implements the go-flags Commander interface for AddCommand.
func (c *AddCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for add command")
	}
	return withStore(c.globals, c.executeWithStore)
}

// executeWithStore runs the add logic against a provided store (used by tests).
func (c *AddCommand) executeWithStore(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config) error {
	user, err := resolveUser(c.globals, cfg)
	if err != nil {
		return err
	}

	parsed, err := url.ParseRequestURI(c.URL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid URL: %s", c.URL)
	}

	length, err := parseDuration(c.Duration)
	if err != nil {
		return fmt.Errorf("invalid --duration value %q: %w", c.Duration, err)
	}

	start := time.Now().Add(-length)
	if c.Start != "" {
		start, err = aggregate.ParseTimestamp(c.Start)
		if err != nil {
			return fmt.Errorf("invalid --start value: %w", err)
		}
	}

	sess := &storage.Session{
		UserID:    user,
		Domain:    c.Domain,
		URL:       c.URL,
		StartTime: start,
		EndTime:   start.Add(length),
	}
	if err := store.AddSession(ctx, sess); err != nil {
		return fmt.Errorf("storing visit: %w", err)
	}
	// The store skips excluded domains silently; the CLI user gets an error.
	if sess.ID == 0 {
		return fmt.Errorf("domain %q is excluded by exclusion rules", sess.Domain)
	}

	if isJSON(c.globals) {
		return printJSON(map[string]interface{}{
			"id":       sess.ID,
			"user_id":  sess.UserID,
			"url":      sess.URL,
			"domain":   sess.Domain,
			"start":    sess.StartTime.UTC().Format(time.RFC3339),
			"end":      sess.EndTime.UTC().Format(time.RFC3339),
			"duration": int64(length.Seconds()),
		})
	}

	fmt.Printf("Added visit %d for %s\n", sess.ID, sess.UserID)
	fmt.Printf("  URL:      %s\n", sess.URL)
	fmt.Printf("  Domain:   %s\n", sess.Domain)
	fmt.Printf("  Start:    %s\n", sess.StartTime.UTC().Format(time.RFC3339))
	fmt.Printf("  Duration: %s\n", formatSeconds(int64(length.Seconds())))

	return nil
}

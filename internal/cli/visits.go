package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/footprint/internal/config"
	"github.com/runnerr0/footprint/internal/storage"
)

// Execute implements the go-flags Commander interface for VisitsCommand.
func (c *VisitsCommand) Execute(args []string) error {
	return withStore(c.globals, c.executeWithStore)
}

// executeWithStore lists visits from a provided store (used by tests).
func (c *VisitsCommand) executeWithStore(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config) error {
	user, err := resolveUser(c.globals, cfg)
	if err != nil {
		return err
	}

	var since time.Time
	if c.Since != "" {
		dur, err := parseDuration(c.Since)
		if err != nil {
			return fmt.Errorf("invalid --since value %q: %w", c.Since, err)
		}
		since = time.Now().Add(-dur)
	}

	// Filters run client side, so over-fetch when any are set.
	fetch := c.Limit
	if len(c.Domain) > 0 || !since.IsZero() {
		fetch = c.Limit * 10
	}
	sessions, err := store.ListSessions(ctx, user, fetch)
	if err != nil {
		return fmt.Errorf("listing visits: %w", err)
	}

	results := make([]storage.Session, 0, len(sessions))
	for _, s := range sessions {
		if !since.IsZero() && s.StartTime.Before(since) {
			continue
		}
		if !matchesDomain(s.Domain, c.Domain) {
			continue
		}
		results = append(results, s)
		if len(results) == c.Limit {
			break
		}
	}

	if isJSON(c.globals) {
		return c.printJSON(results)
	}
	return c.printHuman(results)
}

func matchesDomain(domain string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if strings.Contains(domain, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

func (c *VisitsCommand) printHuman(results []storage.Session) error {
	if len(results) == 0 {
		fmt.Printf("No visits found (since %s)\n", c.Since)
		return nil
	}

	resultWord := "visits"
	if len(results) == 1 {
		resultWord = "visit"
	}
	fmt.Printf("Found %d %s (since %s)\n\n", len(results), resultWord, c.Since)

	for i, s := range results {
		secs := int64(s.EndTime.Sub(s.StartTime).Seconds())
		fmt.Printf("%d. %s\n", i+1, s.Domain)
		fmt.Printf("   %s\n", s.URL)
		fmt.Printf("   %s · %s\n", s.StartTime.Local().Format("2006-01-02 15:04"), formatSeconds(secs))

		if i < len(results)-1 {
			fmt.Println()
		}
	}

	return nil
}

type jsonVisit struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	Domain    string `json:"domain"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Seconds   int64  `json:"seconds"`
}

type jsonVisitsOutput struct {
	Count  int         `json:"count"`
	Visits []jsonVisit `json:"visits"`
}

func (c *VisitsCommand) printJSON(results []storage.Session) error {
	out := jsonVisitsOutput{
		Count:  len(results),
		Visits: make([]jsonVisit, len(results)),
	}

	for i, s := range results {
		out.Visits[i] = jsonVisit{
			ID:        s.ID,
			URL:       s.URL,
			Domain:    s.Domain,
			StartTime: s.StartTime.UTC().Format(time.RFC3339),
			EndTime:   s.EndTime.UTC().Format(time.RFC3339),
			Seconds:   int64(s.EndTime.Sub(s.StartTime).Seconds()),
		}
	}

	return printJSON(out)
}

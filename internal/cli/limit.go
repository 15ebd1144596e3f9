package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/footprint/internal/config"
	"github.com/runnerr0/footprint/internal/storage"
)

type limitJSON struct {
	Domain         string `json:"domain"`
	AllowedMinutes int    `json:"allowed_minutes"`
}

// Execute implements the go-flags Commander interface for LimitCommand.
func (c *LimitCommand) Execute(args []string) error {
	if c.Domain != "" && c.Minutes < 0 {
		return fmt.Errorf("--minutes is required with --domain and cannot be negative")
	}
	return withStore(c.globals, c.executeWithStore)
}

// executeWithStore sets a limit when --domain is given, otherwise lists them.
func (c *LimitCommand) executeWithStore(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config) error {
	user, err := resolveUser(c.globals, cfg)
	if err != nil {
		return err
	}

	if c.Domain != "" {
		if err := store.SetDomainLimit(ctx, user, c.Domain, c.Minutes); err != nil {
			return fmt.Errorf("storing limit: %w", err)
		}
		if isJSON(c.globals) {
			return printJSON(limitJSON{Domain: c.Domain, AllowedMinutes: c.Minutes})
		}
		fmt.Printf("Limit set: %s %d min/day\n", c.Domain, c.Minutes)
		return nil
	}

	limits, err := store.DomainLimits(ctx, user)
	if err != nil {
		return fmt.Errorf("listing limits: %w", err)
	}
	if isJSON(c.globals) {
		out := make([]limitJSON, len(limits))
		for i, l := range limits {
			out[i] = limitJSON{Domain: l.Domain, AllowedMinutes: l.AllowedMinutes}
		}
		return printJSON(out)
	}
	if len(limits) == 0 {
		fmt.Println("No limits.")
		return nil
	}
	for _, l := range limits {
		fmt.Printf("%-32s %d min/day\n", l.Domain, l.AllowedMinutes)
	}
	return nil
}

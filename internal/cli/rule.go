package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/runnerr0/footprint/internal/activity"
	"github.com/runnerr0/footprint/internal/category"
	"github.com/runnerr0/footprint/internal/config"
	"github.com/runnerr0/footprint/internal/storage"
)

type ruleJSON struct {
	ID        int64  `json:"id"`
	Pattern   string `json:"domain_pattern"`
	Category  string `json:"category"`
	Bucket    string `json:"bucket"`
	CreatedAt string `json:"created_at"`
}

func toRuleJSON(r activity.DomainRule) ruleJSON {
	return ruleJSON{
		ID:        r.ID,
		Pattern:   r.Pattern,
		Category:  r.Category,
		Bucket:    string(category.BucketFor(r.Category)),
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Execute implements the go-flags Commander interface for RuleCommand.
func (c *RuleCommand) Execute(args []string) error {
	if c.Delete == 0 && !c.List && (c.Pattern == "" || c.Category == "") {
		return fmt.Errorf("rule needs --pattern and --category, --list, or --delete")
	}
	return withStore(c.globals, c.executeWithStore)
}

// executeWithStore runs the rule logic against a provided store (used by tests).
func (c *RuleCommand) executeWithStore(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config) error {
	user, err := resolveUser(c.globals, cfg)
	if err != nil {
		return err
	}

	switch {
	case c.Delete != 0:
		err := store.DeleteDomainRule(ctx, user, c.Delete)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("rule %d not found", c.Delete)
		}
		if err != nil {
			return fmt.Errorf("deleting rule: %w", err)
		}
		if isJSON(c.globals) {
			return printJSON(map[string]interface{}{"deleted": c.Delete})
		}
		fmt.Printf("Deleted rule %d\n", c.Delete)
		return nil

	case c.Pattern != "":
		rule, err := store.AddDomainRule(ctx, user, c.Pattern, c.Category)
		if err != nil {
			return fmt.Errorf("storing rule: %w", err)
		}
		if isJSON(c.globals) {
			return printJSON(toRuleJSON(*rule))
		}
		fmt.Printf("Added rule %d: %s -> %s (%s)\n",
			rule.ID, rule.Pattern, rule.Category, category.BucketFor(rule.Category))
		return nil
	}

	rules, err := store.DomainRules(ctx, user)
	if err != nil {
		return fmt.Errorf("listing rules: %w", err)
	}
	if isJSON(c.globals) {
		out := make([]ruleJSON, len(rules))
		for i, r := range rules {
			out[i] = toRuleJSON(r)
		}
		return printJSON(out)
	}
	if len(rules) == 0 {
		fmt.Println("No rules.")
		return nil
	}
	for _, r := range rules {
		fmt.Printf("%4d  %-28s %-20s %s\n", r.ID, r.Pattern, r.Category, category.BucketFor(r.Category))
	}
	return nil
}

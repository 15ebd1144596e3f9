package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/footprint/internal/config"
	"github.com/runnerr0/footprint/internal/storage"
)

// pruneStore is the part of the store the pruner needs.
type pruneStore interface {
	PruneBefore(ctx context.Context, olderThan time.Time) (int64, error)
}

// pruner deletes visits and analyses older than the retention period.
type pruner struct {
	store     pruneStore
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func newPruner(store pruneStore, retention time.Duration, logger *zap.Logger) *pruner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &pruner{store: store, retention: retention, logger: logger, now: time.Now}
}

// runOnce prunes rows older than now minus the retention period and returns
// the count and the cutoff used.
func (p *pruner) runOnce(ctx context.Context) (int64, time.Time, error) {
	cutoff := p.now().Add(-p.retention)
	n, err := p.store.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, cutoff, fmt.Errorf("prune before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return n, cutoff, nil
}

// run prunes immediately and then every interval until ctx is done.
func (p *pruner) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, cutoff, err := p.runOnce(ctx)
		if err != nil {
			p.logger.Error("retention prune failed", zap.Error(err))
		} else if n > 0 {
			p.logger.Info("retention prune",
				zap.Int64("deleted", n),
				zap.Time("cutoff", cutoff))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	return withStore(c.globals, c.executeWithStore)
}

// executeWithStore prunes a provided store (used by tests).
func (c *PruneCommand) executeWithStore(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config) error {
	retention := time.Duration(cfg.Retention.Days) * 24 * time.Hour
	if c.OlderThan != "" {
		d, err := parseDuration(c.OlderThan)
		if err != nil {
			return fmt.Errorf("invalid --older-than value %q: %w", c.OlderThan, err)
		}
		retention = d
	}
	if retention <= 0 {
		return fmt.Errorf("retention is disabled; pass --older-than to prune anyway")
	}

	n, cutoff, err := newPruner(store, retention, nil).runOnce(ctx)
	if err != nil {
		return err
	}

	if isJSON(c.globals) {
		return printJSON(map[string]interface{}{
			"deleted":    n,
			"cutoff":     cutoff.UTC().Format(time.RFC3339),
			"older_than": formatDurationHuman(retention),
		})
	}
	fmt.Printf("Pruned %d rows older than %s\n", n, formatDurationHuman(retention))
	return nil
}

package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/footprint/internal/config"
	"github.com/runnerr0/footprint/internal/dashboard"
	"github.com/runnerr0/footprint/internal/logging"
	"github.com/runnerr0/footprint/internal/storage"
	"github.com/runnerr0/footprint/internal/telemetry"
)

// exclusionReason tags capture exclusions seeded from the config file.
const exclusionReason = "config"

// loadConfig reads --config when given, otherwise the default config file
// (created with defaults on first use).
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	if globals != nil && globals.Config != "" {
		return config.Load(globals.Config)
	}
	return config.LoadOrCreate()
}

// resolveDBPath determines the SQLite database file path.
// Priority: --db flag > config file.
func resolveDBPath(globals *GlobalFlags, cfg *config.Config) (string, error) {
	if globals != nil && globals.DB != "" {
		return config.ExpandPath(globals.DB)
	}
	return cfg.DBPath()
}

// openStore opens the configured database and seeds the capture exclusions:
// the built-in denylist groups plus the config file's domains and regexes.
func openStore(globals *GlobalFlags, cfg *config.Config) (*storage.SQLiteStore, *sql.DB, error) {
	dbPath, err := resolveDBPath(globals, cfg)
	if err != nil {
		return nil, nil, err
	}
	store, db, err := storage.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := seedExclusions(context.Background(), store, cfg); err != nil {
		store.Close()
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

func seedExclusions(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config) error {
	if cfg.Capture.UseDefaultDenylist {
		for _, g := range config.DefaultDenylist() {
			if err := store.AddExclusions(ctx, "domain", g.Domains, "default:"+g.Reason); err != nil {
				return fmt.Errorf("seeding %s exclusions: %w", g.Reason, err)
			}
		}
	}
	if err := store.AddExclusions(ctx, "domain", cfg.Capture.DenylistDomains, exclusionReason); err != nil {
		return fmt.Errorf("seeding domain exclusions: %w", err)
	}
	if err := store.AddExclusions(ctx, "regex", cfg.Capture.DenylistRegex, exclusionReason); err != nil {
		return fmt.Errorf("seeding regex exclusions: %w", err)
	}
	return nil
}

// withStore loads config, opens the store and runs fn against both.
func withStore(globals *GlobalFlags, fn func(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config) error) error {
	cfg, err := loadConfig(globals)
	if err != nil {
		return err
	}
	store, db, err := openStore(globals, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return fn(context.Background(), store, cfg)
}

// resolveUser picks --user, falling back to the configured default user.
func resolveUser(globals *GlobalFlags, cfg *config.Config) (string, error) {
	user := cfg.Dashboard.DefaultUserID
	if globals != nil && globals.User != "" {
		user = globals.User
	}
	user = strings.TrimSpace(user)
	if user == "" {
		return "", fmt.Errorf("no user id: pass --user or set dashboard.default_user_id")
	}
	return user, nil
}

// newLogger builds the CLI logger; --verbose forces debug level.
func newLogger(globals *GlobalFlags, cfg *config.Config) (*zap.Logger, func(), error) {
	lc := cfg.Logging
	if globals != nil && globals.Verbose {
		lc.Level = "debug"
	}
	return logging.New(lc, os.Stderr)
}

// newViews builds the dashboard service from config.
func newViews(store dashboard.Source, cfg *config.Config, logger *zap.Logger, metrics *telemetry.Metrics) (*dashboard.Service, error) {
	opts := dashboard.DefaultOptions()
	opts.UseMachineLabels = cfg.Dashboard.UseMachineLabels
	opts.LabelBatchSize = cfg.Dashboard.LabelBatchSize
	opts.RecentDomainLimit = cfg.Dashboard.RecentDomainLimit
	return dashboard.NewService(store, logger, metrics, opts)
}

func isJSON(globals *GlobalFlags) bool {
	return globals != nil && globals.JSON
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 's':
		return time.Duration(n) * time.Second, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use w, d, h, m or s suffix)", s)
	}
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}

// formatSeconds renders a seconds total as "2h 05m", "12m" or "40s".
func formatSeconds(secs int64) string {
	switch {
	case secs >= 3600:
		return fmt.Sprintf("%dh %02dm", secs/3600, (secs%3600)/60)
	case secs >= 60:
		return fmt.Sprintf("%dm", secs/60)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

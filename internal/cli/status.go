package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/footprint/internal/config"
	"github.com/runnerr0/footprint/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string            `json:"version"`
	DatabasePath      string            `json:"database_path"`
	DatabaseSizeBytes int64             `json:"database_size_bytes"`
	SchemaVersion     int               `json:"schema_version"`
	TotalSessions     int64             `json:"total_sessions"`
	TotalRules        int64             `json:"total_rules"`
	TotalLimits       int64             `json:"total_limits"`
	TotalAnalyses     int64             `json:"total_analyses"`
	Users             int64             `json:"users"`
	OldestSession     string            `json:"oldest_session,omitempty"`
	NewestSession     string            `json:"newest_session,omitempty"`
	RetentionDays     int               `json:"retention_days"`
	Exclusions        int               `json:"exclusions"`
	ModelsBackend     string            `json:"models_backend"`
	TopDomains        []domainCountJSON `json:"top_domains"`
}

type domainCountJSON struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	store, db, err := openStore(c.globals, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	dbPath, err := resolveDBPath(c.globals, cfg)
	if err != nil {
		return err
	}
	return c.executeWithStore(store, db, cfg, dbPath)
}

// executeWithStore runs status against a provided store and db (for testing).
func (c *StatusCommand) executeWithStore(store *storage.SQLiteStore, db *sql.DB, cfg *config.Config, dbPath string) error {
	ctx := context.Background()

	stats, err := store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	schema, err := storage.NewMigrationRunner(db).Version()
	if err != nil {
		return fmt.Errorf("schema version: %w", err)
	}

	out := statusJSON{
		Version:           c.version,
		DatabasePath:      dbPath,
		DatabaseSizeBytes: getDatabaseSize(db, dbPath),
		SchemaVersion:     schema,
		TotalSessions:     stats.TotalSessions,
		TotalRules:        stats.TotalRules,
		TotalLimits:       stats.TotalLimits,
		TotalAnalyses:     stats.TotalAnalyses,
		Users:             stats.Users,
		RetentionDays:     cfg.Retention.Days,
		Exclusions:        len(cfg.Denylist()) + len(cfg.Capture.DenylistRegex),
		ModelsBackend:     cfg.Models.Backend,
		TopDomains:        make([]domainCountJSON, len(stats.TopDomains)),
	}
	if stats.TotalSessions > 0 {
		out.OldestSession = stats.OldestSession.UTC().Format(time.RFC3339)
		out.NewestSession = stats.NewestSession.UTC().Format(time.RFC3339)
	}
	for i, d := range stats.TopDomains {
		out.TopDomains[i] = domainCountJSON{Domain: d.Domain, Count: d.Count}
	}

	if isJSON(c.globals) {
		return printJSON(out)
	}
	c.printStatusHuman(out, stats)
	return nil
}

func (c *StatusCommand) printStatusHuman(out statusJSON, stats *storage.Stats) {
	fmt.Println("Footprint Status")
	fmt.Println("================")
	fmt.Printf("Version:       %s\n", out.Version)
	fmt.Printf("Database:      %s (%s, schema v%d)\n", out.DatabasePath, formatBytes(out.DatabaseSizeBytes), out.SchemaVersion)
	fmt.Printf("Visits:        %s\n", formatNumber(out.TotalSessions))
	fmt.Printf("Users:         %s\n", formatNumber(out.Users))
	fmt.Printf("Rules:         %s\n", formatNumber(out.TotalRules))
	fmt.Printf("Limits:        %s\n", formatNumber(out.TotalLimits))
	fmt.Printf("Analyses:      %s\n", formatNumber(out.TotalAnalyses))

	// Time range
	if out.TotalSessions > 0 {
		fmt.Printf("Oldest:        %s\n", stats.OldestSession.Local().Format("2006-01-02"))
		fmt.Printf("Newest:        %s\n", stats.NewestSession.Local().Format("2006-01-02"))
	}

	fmt.Printf("Retention:     %d days\n", out.RetentionDays)
	fmt.Printf("Exclusions:    %d rules\n", out.Exclusions)
	fmt.Printf("Models:        %s\n", out.ModelsBackend)

	// Top domains
	if len(out.TopDomains) > 0 {
		fmt.Println()
		fmt.Println("Top Domains:")
		for _, d := range out.TopDomains {
			fmt.Printf("  %-20s %s\n", d.Domain, formatNumber(d.Count))
		}
	}
}

// getDatabaseSize returns the database file size in bytes.
// For on-disk databases, it uses os.Stat. For in-memory databases,
// it queries page_count * page_size.
func getDatabaseSize(db *sql.DB, dbPath string) int64 {
	if info, err := os.Stat(dbPath); err == nil {
		return info.Size()
	}

	var pageCount, pageSize int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

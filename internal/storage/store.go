package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/runnerr0/footprint/internal/activity"
	"github.com/runnerr0/footprint/internal/aggregate"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the footprint data operations.
type Store interface {
	AddSession(ctx context.Context, s *Session) error
	ListSessions(ctx context.Context, userID string, limit int) ([]Session, error)
	SessionsInRange(ctx context.Context, userID string, start, end time.Time) ([]activity.Visit, error)
	RecentSessionDomains(ctx context.Context, userID string, limit int) ([]string, error)

	AddDomainRule(ctx context.Context, userID, pattern, category string) (*activity.DomainRule, error)
	DeleteDomainRule(ctx context.Context, userID string, id int64) error
	DomainRules(ctx context.Context, userID string) ([]activity.DomainRule, error)

	SetDomainLimit(ctx context.Context, userID, domain string, allowedMinutes int) error
	DomainLimits(ctx context.Context, userID string) ([]activity.DomainLimit, error)

	AddContentAnalysis(ctx context.Context, userID string, rec activity.ContentAnalysis) error
	ContentAnalysisInRange(ctx context.Context, userID string, start, end time.Time) ([]activity.ContentAnalysis, error)
	SuggestedCategories(ctx context.Context, userID string, urls []string) (map[string]string, error)

	AddExclusion(ctx context.Context, ruleType, value, reason string) error
	AddExclusions(ctx context.Context, ruleType string, values []string, reason string) error
	PruneBefore(ctx context.Context, olderThan time.Time) (int64, error)
	PurgeAll(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements
	insertSession  *sql.Stmt
	insertRule     *sql.Stmt
	upsertLimit    *sql.Stmt
	insertAnalysis *sql.Stmt

	// Cached exclusion rules, refreshed on AddExclusion
	mu               sync.RWMutex
	domainExclusions []string
	regexExclusions  []*regexp.Regexp
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	if err := s.loadExclusions(context.Background()); err != nil {
		return nil, fmt.Errorf("load exclusions: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertSession, err = s.db.Prepare(`
		INSERT INTO page_view_sessions (user_id, domain, url, start_time, end_time)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.insertRule, err = s.db.Prepare(`
		INSERT INTO user_domain_categories (user_id, domain_pattern, category, created_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.upsertLimit, err = s.db.Prepare(`
		INSERT INTO user_domain_limits (user_id, domain, allowed_minutes)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, domain) DO UPDATE SET
			allowed_minutes = excluded.allowed_minutes,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return err
	}

	s.insertAnalysis, err = s.db.Prepare(`
		INSERT INTO content_analysis (user_id, page_url, system_suggested_category,
			happy_score, sad_score, angry_score, neutral_score, dominant_emotion, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	return nil
}

func (s *SQLiteStore) loadExclusions(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "SELECT rule_type, rule_value FROM exclusions")
	if err != nil {
		return err
	}
	defer rows.Close()

	var domains []string
	var regexes []*regexp.Regexp
	for rows.Next() {
		var ruleType, ruleValue string
		if err := rows.Scan(&ruleType, &ruleValue); err != nil {
			return err
		}
		switch ruleType {
		case "domain":
			domains = append(domains, strings.ToLower(ruleValue))
		case "regex":
			re, err := regexp.Compile(ruleValue)
			if err != nil {
				continue // skip invalid regex
			}
			regexes = append(regexes, re)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.domainExclusions, s.regexExclusions = domains, regexes
	s.mu.Unlock()
	return nil
}

// isExcluded reports whether domain, or a parent of it, is excluded.
func (s *SQLiteStore) isExcluded(domain string) bool {
	domain = strings.ToLower(domain)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.domainExclusions {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	for _, re := range s.regexExclusions {
		if re.MatchString(domain) {
			return true
		}
	}
	return false
}

// AddExclusion stores a capture exclusion. Re-adding an existing rule is a
// no-op. A regex rule must compile.
func (s *SQLiteStore) AddExclusion(ctx context.Context, ruleType, value, reason string) error {
	return s.AddExclusions(ctx, ruleType, []string{value}, reason)
}

// AddExclusions stores several rules of one type in a single transaction
// and reloads the cache once. Nothing is stored if any value is invalid.
func (s *SQLiteStore) AddExclusions(ctx context.Context, ruleType string, values []string, reason string) error {
	clean := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			return fmt.Errorf("exclusion value cannot be empty")
		}
		switch ruleType {
		case "domain":
			value = strings.ToLower(value)
		case "regex":
			if _, err := regexp.Compile(value); err != nil {
				return fmt.Errorf("invalid exclusion regex %q: %w", value, err)
			}
		default:
			return fmt.Errorf("unknown exclusion type %q", ruleType)
		}
		clean = append(clean, value)
	}
	if len(clean) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, value := range clean {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO exclusions (rule_type, rule_value, reason) VALUES (?, ?, ?)",
			ruleType, value, reason,
		)
		if err != nil {
			return fmt.Errorf("insert exclusion: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit exclusions: %w", err)
	}
	return s.loadExclusions(ctx)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// extractDomain pulls the lowercase hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	return nil
}

// AddSession inserts a page view. The domain is taken from the URL when
// unset. If the domain is excluded, the session is silently skipped (ID
// remains 0, no error).
func (s *SQLiteStore) AddSession(ctx context.Context, sess *Session) error {
	if err := requireUser(sess.UserID); err != nil {
		return err
	}
	if sess.StartTime.IsZero() {
		return fmt.Errorf("session start time is required")
	}
	if sess.Domain == "" {
		sess.Domain = extractDomain(sess.URL)
	}
	sess.Domain = strings.ToLower(sess.Domain)

	if s.isExcluded(sess.Domain) {
		return nil
	}
	if sess.EndTime.IsZero() {
		sess.EndTime = sess.StartTime
	}

	res, err := s.insertSession.ExecContext(ctx,
		sess.UserID, sess.Domain, sess.URL, formatTime(sess.StartTime), formatTime(sess.EndTime),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	sess.ID, err = res.LastInsertId()
	return err
}

// ListSessions returns the newest sessions for a user.
func (s *SQLiteStore) ListSessions(ctx context.Context, userID string, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, domain, url, start_time, end_time
		FROM page_view_sessions
		WHERE user_id = ?
		ORDER BY start_time DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		var startStr, endStr string
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.Domain, &sess.URL, &startStr, &endStr); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.StartTime, _ = aggregate.ParseTimestamp(startStr)
		sess.EndTime, _ = aggregate.ParseTimestamp(endStr)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// SessionsInRange returns visits starting in [start, end). Timestamps are
// returned as stored.
func (s *SQLiteStore) SessionsInRange(ctx context.Context, userID string, start, end time.Time) ([]activity.Visit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, url, start_time, end_time
		FROM page_view_sessions
		WHERE user_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time, id
	`, userID, formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	visits := []activity.Visit{}
	for rows.Next() {
		var v activity.Visit
		if err := rows.Scan(&v.Domain, &v.URL, &v.StartTime, &v.EndTime); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// RecentSessionDomains returns the domain of each of the newest limit
// sessions, newest first. Domains repeat.
func (s *SQLiteStore) RecentSessionDomains(ctx context.Context, userID string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT domain FROM page_view_sessions
		WHERE user_id = ? AND domain != ''
		ORDER BY start_time DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent domains: %w", err)
	}
	defer rows.Close()

	domains := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

// AddDomainRule stores a lowercase pattern mapping to category.
func (s *SQLiteStore) AddDomainRule(ctx context.Context, userID, pattern, category string) (*activity.DomainRule, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	category = strings.TrimSpace(category)
	if pattern == "" {
		return nil, fmt.Errorf("domain pattern cannot be empty")
	}
	if category == "" {
		return nil, fmt.Errorf("category cannot be empty")
	}

	now := time.Now().UTC()
	res, err := s.insertRule.ExecContext(ctx, userID, pattern, category, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("insert domain rule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &activity.DomainRule{ID: id, Pattern: pattern, Category: category, CreatedAt: now}, nil
}

// DeleteDomainRule removes one of the user's rules.
func (s *SQLiteStore) DeleteDomainRule(ctx context.Context, userID string, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM user_domain_categories WHERE user_id = ? AND id = ?", userID, id,
	)
	if err != nil {
		return fmt.Errorf("delete domain rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("domain rule %d: %w", id, ErrNotFound)
	}
	return nil
}

// DomainRules returns the user's rules, oldest first. The order settles
// ties between equally long matching patterns.
func (s *SQLiteStore) DomainRules(ctx context.Context, userID string) ([]activity.DomainRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, domain_pattern, category, created_at
		FROM user_domain_categories
		WHERE user_id = ?
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query domain rules: %w", err)
	}
	defer rows.Close()

	rules := []activity.DomainRule{}
	for rows.Next() {
		var r activity.DomainRule
		var created string
		if err := rows.Scan(&r.ID, &r.Pattern, &r.Category, &created); err != nil {
			return nil, fmt.Errorf("scan domain rule: %w", err)
		}
		r.CreatedAt, _ = aggregate.ParseTimestamp(created)
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// SetDomainLimit creates or replaces the daily allowance for a domain.
func (s *SQLiteStore) SetDomainLimit(ctx context.Context, userID, domain string, allowedMinutes int) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}
	if allowedMinutes < 0 {
		return fmt.Errorf("allowed minutes cannot be negative")
	}
	if _, err := s.upsertLimit.ExecContext(ctx, userID, domain, allowedMinutes); err != nil {
		return fmt.Errorf("set domain limit: %w", err)
	}
	return nil
}

// DomainLimits returns the user's limits ordered by domain.
func (s *SQLiteStore) DomainLimits(ctx context.Context, userID string) ([]activity.DomainLimit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, allowed_minutes FROM user_domain_limits
		WHERE user_id = ?
		ORDER BY domain
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query domain limits: %w", err)
	}
	defer rows.Close()

	limits := []activity.DomainLimit{}
	for rows.Next() {
		var l activity.DomainLimit
		if err := rows.Scan(&l.Domain, &l.AllowedMinutes); err != nil {
			return nil, fmt.Errorf("scan domain limit: %w", err)
		}
		limits = append(limits, l)
	}
	return limits, rows.Err()
}

// AddContentAnalysis stores one analysis record. A zero ScrapedAt is set to
// the current time.
func (s *SQLiteStore) AddContentAnalysis(ctx context.Context, userID string, rec activity.ContentAnalysis) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if rec.PageURL == "" {
		return fmt.Errorf("page url cannot be empty")
	}
	if rec.ScrapedAt.IsZero() {
		rec.ScrapedAt = time.Now()
	}
	_, err := s.insertAnalysis.ExecContext(ctx,
		userID, rec.PageURL, rec.SuggestedCategory,
		rec.Happy, rec.Sad, rec.Angry, rec.Neutral, rec.DominantEmotion,
		formatTime(rec.ScrapedAt),
	)
	if err != nil {
		return fmt.Errorf("insert content analysis: %w", err)
	}
	return nil
}

// ContentAnalysisInRange returns analyses scraped in [start, end).
func (s *SQLiteStore) ContentAnalysisInRange(ctx context.Context, userID string, start, end time.Time) ([]activity.ContentAnalysis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT page_url, system_suggested_category, happy_score, sad_score,
		       angry_score, neutral_score, dominant_emotion, scraped_at
		FROM content_analysis
		WHERE user_id = ? AND scraped_at >= ? AND scraped_at < ?
		ORDER BY scraped_at, id
	`, userID, formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("query content analysis: %w", err)
	}
	defer rows.Close()

	out := []activity.ContentAnalysis{}
	for rows.Next() {
		var c activity.ContentAnalysis
		var scraped string
		if err := rows.Scan(&c.PageURL, &c.SuggestedCategory, &c.Happy, &c.Sad,
			&c.Angry, &c.Neutral, &c.DominantEmotion, &scraped); err != nil {
			return nil, fmt.Errorf("scan content analysis: %w", err)
		}
		c.ScrapedAt, _ = aggregate.ParseTimestamp(scraped)
		out = append(out, c)
	}
	return out, rows.Err()
}

// SuggestedCategories maps each URL to the category of its newest analysis.
// URLs without an analysis, or whose newest one has no category, are absent.
func (s *SQLiteStore) SuggestedCategories(ctx context.Context, userID string, urls []string) (map[string]string, error) {
	out := make(map[string]string, len(urls))
	if len(urls) == 0 {
		return out, nil
	}

	args := make([]interface{}, 0, len(urls)+1)
	args = append(args, userID)
	for _, u := range urls {
		args = append(args, u)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(urls)), ",")

	rows, err := s.db.QueryContext(ctx, `
		SELECT page_url, system_suggested_category
		FROM content_analysis
		WHERE user_id = ? AND page_url IN (`+placeholders+`)
		ORDER BY scraped_at, id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query suggested categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u, c string
		if err := rows.Scan(&u, &c); err != nil {
			return nil, err
		}
		if c == "" {
			delete(out, u)
			continue
		}
		out[u] = c
	}
	return out, rows.Err()
}

// PruneBefore deletes sessions that started, and analyses scraped, before
// olderThan. It returns the number of rows removed.
func (s *SQLiteStore) PruneBefore(ctx context.Context, olderThan time.Time) (int64, error) {
	ts := formatTime(olderThan)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var total int64
	for _, stmt := range []string{
		"DELETE FROM page_view_sessions WHERE start_time < ?",
		"DELETE FROM content_analysis WHERE scraped_at < ?",
	} {
		res, err := tx.ExecContext(ctx, stmt, ts)
		if err != nil {
			return 0, fmt.Errorf("prune (%s): %w", stmt, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += n
	}

	return total, tx.Commit()
}

// PurgeAll deletes all activity, rules, limits and analyses. Exclusions
// are kept.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	stmts := []string{
		"DELETE FROM content_analysis",
		"DELETE FROM user_domain_limits",
		"DELETE FROM user_domain_categories",
		"DELETE FROM page_view_sessions",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	return nil
}

// GetStats returns aggregate statistics about the database.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		query string
		dst   *int64
	}{
		{"SELECT COUNT(*) FROM page_view_sessions", &stats.TotalSessions},
		{"SELECT COUNT(*) FROM user_domain_categories", &stats.TotalRules},
		{"SELECT COUNT(*) FROM user_domain_limits", &stats.TotalLimits},
		{"SELECT COUNT(*) FROM content_analysis", &stats.TotalAnalyses},
		{"SELECT COUNT(DISTINCT user_id) FROM page_view_sessions", &stats.Users},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("%s: %w", c.query, err)
		}
	}

	// Oldest and newest (handle empty DB)
	if stats.TotalSessions > 0 {
		var oldestStr, newestStr string
		err := s.db.QueryRowContext(ctx,
			"SELECT MIN(start_time), MAX(start_time) FROM page_view_sessions",
		).Scan(&oldestStr, &newestStr)
		if err != nil {
			return nil, fmt.Errorf("session time range: %w", err)
		}
		stats.OldestSession, _ = aggregate.ParseTimestamp(oldestStr)
		stats.NewestSession, _ = aggregate.ParseTimestamp(newestStr)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT domain, COUNT(*) AS cnt FROM page_view_sessions GROUP BY domain ORDER BY cnt DESC, domain LIMIT 10",
	)
	if err != nil {
		return nil, fmt.Errorf("top domains: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dc DomainCount
		if err := rows.Scan(&dc.Domain, &dc.Count); err != nil {
			return nil, err
		}
		stats.TopDomains = append(stats.TopDomains, dc)
	}

	return stats, rows.Err()
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.insertSession, s.insertRule, s.upsertLimit, s.insertAnalysis,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}

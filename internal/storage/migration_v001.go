package storage

import "database/sql"

// migrateV001 creates the activity tables: page view sessions, domain
// rules, domain limits and content analysis. Every statement uses IF NOT
// EXISTS for idempotency.
//
// Timestamps are TEXT in a fixed-width UTC layout so that range filters
// compare correctly as strings.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS page_view_sessions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			domain     TEXT NOT NULL DEFAULT '',
			url        TEXT NOT NULL DEFAULT '',
			start_time TEXT NOT NULL,
			end_time   TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS user_domain_categories (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id        TEXT NOT NULL,
			domain_pattern TEXT NOT NULL,
			category       TEXT NOT NULL,
			created_at     TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS user_domain_limits (
			user_id         TEXT NOT NULL,
			domain          TEXT NOT NULL,
			allowed_minutes INTEGER NOT NULL CHECK (allowed_minutes >= 0),
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, domain)
		)`,

		`CREATE TABLE IF NOT EXISTS content_analysis (
			id                        INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id                   TEXT NOT NULL,
			page_url                  TEXT NOT NULL,
			system_suggested_category TEXT NOT NULL DEFAULT '',
			happy_score               REAL NOT NULL DEFAULT 0,
			sad_score                 REAL NOT NULL DEFAULT 0,
			angry_score               REAL NOT NULL DEFAULT 0,
			neutral_score             REAL NOT NULL DEFAULT 0,
			dominant_emotion          TEXT NOT NULL DEFAULT '',
			scraped_at                TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_user_start ON page_view_sessions(user_id, start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_domain     ON page_view_sessions(domain)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_user     ON user_domain_categories(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_user_time  ON content_analysis(user_id, scraped_at)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_user_url   ON content_analysis(user_id, page_url)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrateV002 adds capture exclusions: domains and patterns whose sessions
// are never recorded.
func migrateV002(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS exclusions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			rule_type  TEXT NOT NULL CHECK (rule_type IN ('domain', 'regex')),
			rule_value TEXT NOT NULL,
			reason     TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(rule_type, rule_value)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exclusions_rule ON exclusions(rule_type, rule_value)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

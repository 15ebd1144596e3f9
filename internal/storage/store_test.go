package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/footprint/internal/activity"
)

// openTestStore creates a migrated in-memory Store for testing.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

var base = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func addSession(t *testing.T, s *SQLiteStore, user, rawURL string, start time.Time, d time.Duration) *Session {
	t.Helper()
	sess := &Session{UserID: user, URL: rawURL, StartTime: start, EndTime: start.Add(d)}
	require.NoError(t, s.AddSession(context.Background(), sess))
	return sess
}

// --- Sessions ---

func TestAddSession_ExtractsDomain(t *testing.T) {
	store := openTestStore(t)

	sess := addSession(t, store, "u1", "https://Docs.GitHub.com/en/actions", base, time.Hour)

	assert.NotZero(t, sess.ID)
	assert.Equal(t, "docs.github.com", sess.Domain)
}

func TestAddSession_Validation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.AddSession(ctx, &Session{URL: "https://a.com", StartTime: base}))
	assert.Error(t, store.AddSession(ctx, &Session{UserID: "u1", URL: "https://a.com"}))
}

func TestAddSession_MissingEndUsesStart(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddSession(ctx, &Session{UserID: "u1", URL: "https://a.com", StartTime: base}))

	visits, err := store.SessionsInRange(ctx, "u1", base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, visits[0].StartTime, visits[0].EndTime)
}

func TestSessionsInRange(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	addSession(t, store, "u1", "https://a.com/1", base, time.Hour)
	addSession(t, store, "u1", "https://b.com/1", base.Add(24*time.Hour), 30*time.Minute)
	addSession(t, store, "u1", "https://c.com/1", base.Add(7*24*time.Hour), time.Minute) // end boundary
	addSession(t, store, "u2", "https://a.com/2", base, time.Hour)

	visits, err := store.SessionsInRange(ctx, "u1", base, base.Add(7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, visits, 2)

	assert.Equal(t, activity.Visit{
		Domain:    "a.com",
		URL:       "https://a.com/1",
		StartTime: "2024-03-04T09:00:00.000000Z",
		EndTime:   "2024-03-04T10:00:00.000000Z",
	}, visits[0])
	assert.Equal(t, "b.com", visits[1].Domain)
}

func TestSessionsInRange_Empty(t *testing.T) {
	store := openTestStore(t)

	visits, err := store.SessionsInRange(context.Background(), "nobody", base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.NotNil(t, visits)
	assert.Empty(t, visits)
}

func TestSessionsInRange_NonUTCBounds(t *testing.T) {
	store := openTestStore(t)
	est := time.FixedZone("EST", -5*3600)

	addSession(t, store, "u1", "https://a.com", base, time.Hour)

	// 04:00 EST == 09:00 UTC
	visits, err := store.SessionsInRange(context.Background(), "u1",
		time.Date(2024, 3, 4, 4, 0, 0, 0, est), time.Date(2024, 3, 4, 5, 0, 0, 0, est))
	require.NoError(t, err)
	assert.Len(t, visits, 1)
}

func TestListSessions_NewestFirst(t *testing.T) {
	store := openTestStore(t)

	addSession(t, store, "u1", "https://a.com", base, time.Hour)
	addSession(t, store, "u1", "https://b.com", base.Add(time.Hour), time.Hour)
	addSession(t, store, "u1", "https://c.com", base.Add(2*time.Hour), time.Hour)

	got, err := store.ListSessions(context.Background(), "u1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c.com", got[0].Domain)
	assert.Equal(t, "b.com", got[1].Domain)
	assert.True(t, got[0].StartTime.Equal(base.Add(2*time.Hour)))
}

func TestListSessions_ParsesForeignTimestamps(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// Rows written by other tools use offsets, space separators or no zone.
	for _, ts := range []string{
		"2024-03-04T10:00:00+00:00",
		"2024-03-04 11:00:00",
		"2024-03-04T12:00:00",
	} {
		_, err := store.db.ExecContext(ctx, `
			INSERT INTO page_view_sessions (user_id, domain, url, start_time, end_time)
			VALUES ('u1', 'a.com', 'https://a.com', ?, ?)`, ts, ts)
		require.NoError(t, err)
	}

	got, err := store.ListSessions(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, sess := range got {
		assert.False(t, sess.StartTime.IsZero(), "start of session %d", sess.ID)
		assert.Equal(t, 2024, sess.StartTime.Year())
	}
}

func TestRecentSessionDomains(t *testing.T) {
	store := openTestStore(t)

	addSession(t, store, "u1", "https://a.com", base, time.Hour)
	addSession(t, store, "u1", "https://b.com", base.Add(time.Hour), time.Hour)
	addSession(t, store, "u1", "https://a.com/x", base.Add(2*time.Hour), time.Hour)

	got, err := store.RecentSessionDomains(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.com", "b.com", "a.com"}, got)

	got, err = store.RecentSessionDomains(context.Background(), "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.com"}, got)
}

// --- Exclusions ---

func TestAddExclusion_SkipsSessions(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddExclusion(ctx, "domain", "Chase.com", "banking"))
	require.NoError(t, store.AddExclusion(ctx, "regex", `.*\.xxx$`, "adult"))
	require.NoError(t, store.AddExclusion(ctx, "domain", "chase.com", "duplicate"))

	for _, u := range []string{"https://chase.com/login", "https://secure.chase.com", "https://site.xxx"} {
		sess := &Session{UserID: "u1", URL: u, StartTime: base}
		require.NoError(t, store.AddSession(ctx, sess))
		assert.Zero(t, sess.ID, "session for %s should be skipped", u)
	}

	sess := addSession(t, store, "u1", "https://notchase.com", base, time.Minute)
	assert.NotZero(t, sess.ID)

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalSessions)
}

func TestAddExclusion_Invalid(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.AddExclusion(ctx, "regex", "([", ""))
	assert.Error(t, store.AddExclusion(ctx, "glob", "*.com", ""))
	assert.Error(t, store.AddExclusion(ctx, "domain", "  ", ""))
}

func TestAddExclusions_Batch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddExclusions(ctx, "domain", []string{"chase.com", "Mint.com", "chase.com"}, "config"))
	assert.True(t, store.isExcluded("secure.chase.com"))
	assert.True(t, store.isExcluded("mint.com"))

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM exclusions").Scan(&count))
	assert.Equal(t, 2, count)

	// one bad value rejects the whole batch
	assert.Error(t, store.AddExclusions(ctx, "regex", []string{`\.xxx$`, "(["}, "config"))
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM exclusions").Scan(&count))
	assert.Equal(t, 2, count)

	assert.NoError(t, store.AddExclusions(ctx, "domain", nil, "config"))
}

// --- Rules ---

func TestDomainRules_OrderedByCreation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	r1, err := store.AddDomainRule(ctx, "u1", " YouTube.com ", "entertainment")
	require.NoError(t, err)
	_, err = store.AddDomainRule(ctx, "u1", "github.com", "productive")
	require.NoError(t, err)
	_, err = store.AddDomainRule(ctx, "u2", "reddit.com", "social")
	require.NoError(t, err)

	assert.Equal(t, "youtube.com", r1.Pattern)

	rules, err := store.DomainRules(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "youtube.com", rules[0].Pattern)
	assert.Equal(t, "github.com", rules[1].Pattern)
	assert.False(t, rules[0].CreatedAt.IsZero())
}

func TestAddDomainRule_Validation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.AddDomainRule(ctx, "u1", "", "social")
	assert.Error(t, err)
	_, err = store.AddDomainRule(ctx, "u1", "a.com", " ")
	assert.Error(t, err)
	_, err = store.AddDomainRule(ctx, "", "a.com", "social")
	assert.Error(t, err)
}

func TestDeleteDomainRule(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	r, err := store.AddDomainRule(ctx, "u1", "a.com", "social")
	require.NoError(t, err)

	// another user's id does not match
	assert.ErrorIs(t, store.DeleteDomainRule(ctx, "u2", r.ID), ErrNotFound)

	require.NoError(t, store.DeleteDomainRule(ctx, "u1", r.ID))
	assert.ErrorIs(t, store.DeleteDomainRule(ctx, "u1", r.ID), ErrNotFound)
}

// --- Limits ---

func TestSetDomainLimit_Upsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetDomainLimit(ctx, "u1", "YouTube.com", 30))
	require.NoError(t, store.SetDomainLimit(ctx, "u1", "reddit.com", 15))
	require.NoError(t, store.SetDomainLimit(ctx, "u1", "youtube.com", 45))

	limits, err := store.DomainLimits(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []activity.DomainLimit{
		{Domain: "reddit.com", AllowedMinutes: 15},
		{Domain: "youtube.com", AllowedMinutes: 45},
	}, limits)

	assert.Error(t, store.SetDomainLimit(ctx, "u1", "a.com", -1))
	assert.Error(t, store.SetDomainLimit(ctx, "u1", "", 10))
}

// --- Content analysis ---

func TestContentAnalysis_RoundtripAndRange(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := activity.ContentAnalysis{
		PageURL:           "https://news.example/a",
		SuggestedCategory: "News",
		Happy:             0.1,
		Sad:               0.6,
		Angry:             0.2,
		Neutral:           0.1,
		DominantEmotion:   "sadness",
		ScrapedAt:         base,
	}
	require.NoError(t, store.AddContentAnalysis(ctx, "u1", rec))
	require.NoError(t, store.AddContentAnalysis(ctx, "u1", activity.ContentAnalysis{
		PageURL: "https://old.example", ScrapedAt: base.AddDate(0, 0, -30),
	}))

	got, err := store.ContentAnalysisInRange(ctx, "u1", base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0])

	assert.Error(t, store.AddContentAnalysis(ctx, "u1", activity.ContentAnalysis{}))
}

func TestSuggestedCategories_NewestWins(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	add := func(url, cat string, at time.Time) {
		require.NoError(t, store.AddContentAnalysis(ctx, "u1", activity.ContentAnalysis{
			PageURL: url, SuggestedCategory: cat, ScrapedAt: at,
		}))
	}
	add("https://a.com", "News", base)
	add("https://a.com", "Technology", base.Add(time.Hour))
	add("https://b.com", "Shopping", base)
	add("https://b.com", "", base.Add(time.Hour))
	add("https://c.com", "Finance", base)

	got, err := store.SuggestedCategories(ctx, "u1", []string{"https://a.com", "https://b.com", "https://missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"https://a.com": "Technology"}, got)

	got, err = store.SuggestedCategories(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = store.SuggestedCategories(ctx, "u2", []string{"https://c.com"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

// --- Maintenance ---

func TestPruneBefore(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	addSession(t, store, "u1", "https://old.com", base.AddDate(0, 0, -40), time.Hour)
	addSession(t, store, "u1", "https://new.com", base, time.Hour)
	require.NoError(t, store.AddContentAnalysis(ctx, "u1", activity.ContentAnalysis{
		PageURL: "https://old.com", ScrapedAt: base.AddDate(0, 0, -40),
	}))

	n, err := store.PruneBefore(ctx, base.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalSessions)
	assert.Equal(t, int64(0), stats.TotalAnalyses)
}

func TestPurgeAll(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	addSession(t, store, "u1", "https://a.com", base, time.Hour)
	_, err := store.AddDomainRule(ctx, "u1", "a.com", "social")
	require.NoError(t, err)
	require.NoError(t, store.SetDomainLimit(ctx, "u1", "a.com", 10))
	require.NoError(t, store.AddExclusion(ctx, "domain", "bank.com", ""))

	require.NoError(t, store.PurgeAll(ctx))

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalSessions)
	assert.Zero(t, stats.TotalRules)
	assert.Zero(t, stats.TotalLimits)

	// exclusions survive a purge
	sess := &Session{UserID: "u1", URL: "https://bank.com", StartTime: base}
	require.NoError(t, store.AddSession(ctx, sess))
	assert.Zero(t, sess.ID)
}

func TestGetStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalSessions)
	assert.True(t, stats.OldestSession.IsZero())

	addSession(t, store, "u1", "https://a.com/1", base, time.Hour)
	addSession(t, store, "u1", "https://a.com/2", base.Add(time.Hour), time.Hour)
	addSession(t, store, "u2", "https://b.com", base.Add(2*time.Hour), time.Hour)

	stats, err = store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalSessions)
	assert.Equal(t, int64(2), stats.Users)
	assert.True(t, stats.OldestSession.Equal(base))
	assert.True(t, stats.NewestSession.Equal(base.Add(2*time.Hour)))
	require.Len(t, stats.TopDomains, 2)
	assert.Equal(t, DomainCount{Domain: "a.com", Count: 2}, stats.TopDomains[0])
}

// --- Open ---

func TestOpen_CreatesDirectoryAndMigrates(t *testing.T) {
	path := t.TempDir() + "/nested/footprint.db"

	store, db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()
	defer store.Close()

	v, err := NewMigrationRunner(db).Version()
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	addSession(t, store, "u1", "https://a.com", base, time.Minute)
	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalSessions)
}

func TestOpen_Memory(t *testing.T) {
	store, db, err := Open(MemoryPath)
	require.NoError(t, err)
	defer db.Close()
	defer store.Close()

	_, err = store.AddDomainRule(context.Background(), "u1", "github.com", "Development")
	require.NoError(t, err)
	rules, err := store.DomainRules(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

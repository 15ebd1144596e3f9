package cli

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runnerr0/footprint/internal/aggregate"
	"github.com/runnerr0/footprint/internal/config"
	"github.com/runnerr0/footprint/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// testStore opens a migrated in-memory store.
func testStore(t *testing.T) (*storage.SQLiteStore, *sql.DB) {
	t.Helper()
	store, db, err := storage.Open(storage.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		db.Close()
	})
	return store, db
}

// testConfig returns defaults with logging kept quiet.
func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "error"
	return cfg
}

// thisWeek returns the start of the current dashboard week.
func thisWeek() time.Time {
	return aggregate.WeekWindow(aggregate.ThisWeek, time.Now()).Start
}

func seedVisit(t *testing.T, store *storage.SQLiteStore, user, rawURL string, start time.Time, d time.Duration) {
	t.Helper()
	sess := &storage.Session{UserID: user, URL: rawURL, StartTime: start, EndTime: start.Add(d)}
	require.NoError(t, store.AddSession(context.Background(), sess))
	require.NotZero(t, sess.ID)
}

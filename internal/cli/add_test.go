package cli

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCommand_RecordsVisit(t *testing.T) {
	store, _ := testStore(t)
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	cmd := &AddCommand{
		URL:      "https://GitHub.com/runnerr0/footprint",
		Start:    start.Format(time.RFC3339),
		Duration: "30m",
		globals:  &GlobalFlags{User: "alice"},
	}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), store, testConfig()))
	})
	assert.Contains(t, output, "Added visit 1 for alice")
	assert.Contains(t, output, "Domain:   github.com")
	assert.Contains(t, output, "Duration: 30m")

	visits, err := store.SessionsInRange(context.Background(), "alice", start, start.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, "github.com", visits[0].Domain)
}

func TestAddCommand_DefaultUser(t *testing.T) {
	store, _ := testStore(t)
	cmd := &AddCommand{URL: "https://example.com", Duration: "1m", globals: &GlobalFlags{}}

	captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), store, testConfig()))
	})

	sessions, err := store.ListSessions(context.Background(), "local", 10)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestAddCommand_JSONOutput(t *testing.T) {
	store, _ := testStore(t)
	cmd := &AddCommand{
		URL:      "https://example.com/a",
		Domain:   "Example.com",
		Start:    "2024-03-04 09:00:00",
		Duration: "2h",
		globals:  &GlobalFlags{JSON: true},
	}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), store, testConfig()))
	})

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &result))
	assert.Equal(t, "example.com", result["domain"])
	assert.Equal(t, "2024-03-04T09:00:00Z", result["start"])
	assert.Equal(t, "2024-03-04T11:00:00Z", result["end"])
	assert.Equal(t, float64(7200), result["duration"])
}

func TestAddCommand_ExcludedDomain(t *testing.T) {
	store, _ := testStore(t)
	cfg := testConfig()
	require.NoError(t, seedExclusions(context.Background(), store, cfg))

	cmd := &AddCommand{URL: "https://secure.chase.com/login", Duration: "1m", globals: &GlobalFlags{}}
	err := cmd.executeWithStore(context.Background(), store, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "excluded")
}

func TestAddCommand_Validation(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	err := (&AddCommand{URL: "not a url", Duration: "1m", globals: &GlobalFlags{}}).executeWithStore(ctx, store, testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid URL")

	err = (&AddCommand{URL: "https://a.com", Duration: "soon", globals: &GlobalFlags{}}).executeWithStore(ctx, store, testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--duration")

	err = (&AddCommand{URL: "https://a.com", Duration: "1m", Start: "yesterday", globals: &GlobalFlags{}}).executeWithStore(ctx, store, testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--start")

	cfg := testConfig()
	cfg.Dashboard.DefaultUserID = ""
	err = (&AddCommand{URL: "https://a.com", Duration: "1m", globals: &GlobalFlags{}}).executeWithStore(ctx, store, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no user id")
}

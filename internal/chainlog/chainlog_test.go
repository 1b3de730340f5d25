package chainlog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_AppendAndEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chainlog.jsonl")
	log, err := Open(path)
	require.NoError(t, err)

	fixed := time.Date(2024, 4, 1, 10, 30, 0, 0, time.FixedZone("IST", 19800))
	log.now = func() time.Time { return fixed }

	ctx := context.Background()
	require.NoError(t, log.Append(ctx, Entry{
		Action: ActionIngest,
		Actor:  "A. Sharma",
		Target: "uploads/ledger.csv",
		SHA256: Digest("abc123"),
		Meta:   map[string]any{"rows": 120},
	}))
	require.NoError(t, log.Append(ctx, Entry{Action: ActionAnalyze, Actor: "system", Target: "ds-1"}))

	entries, err := log.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, ActionIngest, first.Action)
	assert.True(t, fixed.Equal(first.Timestamp))
	assert.Equal(t, time.UTC, first.Timestamp.Location())
	require.NotNil(t, first.SHA256)
	assert.Equal(t, "abc123", *first.SHA256)
	assert.Equal(t, float64(120), first.Meta["rows"])

	second := entries[1]
	assert.Nil(t, second.SHA256)
	assert.NotNil(t, second.Meta)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestLog_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chainlog.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("not json\n"), 0o644))

	log, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(context.Background(), Entry{Action: ActionReviewAlert}))

	entries, err := log.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionReviewAlert, entries[0].Action)
}

func TestLog_EntriesMissingFile(t *testing.T) {
	log, err := Open(filepath.Join(t.TempDir(), "chainlog.jsonl"))
	require.NoError(t, err)

	entries, err := log.Entries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLog_ConcurrentAppends(t *testing.T) {
	log, err := Open(filepath.Join(t.TempDir(), "chainlog.jsonl"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, log.Append(context.Background(), Entry{Action: ActionAnalyze}))
		}()
	}
	wg.Wait()

	entries, err := log.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}

func TestLog_AppendCancelled(t *testing.T) {
	log, err := Open(filepath.Join(t.TempDir(), "chainlog.jsonl"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, log.Append(ctx, Entry{Action: ActionIngest}), context.Canceled)
}

func TestNewLog_UsesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom", "audit.jsonl")
	t.Setenv("CHAINLOG_PATH", path)

	log, err := NewLog()
	require.NoError(t, err)
	assert.Equal(t, path, log.path)
}

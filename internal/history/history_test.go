package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	run := uuid.NewString()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, Entry{RunID: run, Unit: "squat", Status: "written", At: base}))
	require.NoError(t, s.Record(ctx, Entry{RunID: run, Unit: "curl", Status: "failed", Code: "UNIT-002", Message: "no pose", At: base.Add(time.Second)}))
	require.NoError(t, s.Record(ctx, Entry{RunID: run, Unit: "squat", Status: "rejected", At: base.Add(2 * time.Second)}))

	got, err := s.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "rejected", got[0].Status)
	assert.Equal(t, "written", got[2].Status)

	want := Entry{RunID: run, Unit: "curl", Status: "failed", Code: "UNIT-002", Message: "no pose", At: base.Add(time.Second)}
	if diff := cmp.Diff(want, got[1]); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}

	squat, err := s.Recent(ctx, "squat", 1)
	require.NoError(t, err)
	require.Len(t, squat, 1)
	assert.Equal(t, "rejected", squat[0].Status)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.Record(ctx, Entry{RunID: "a", Unit: "u1", Status: "written"}))
	require.NoError(t, s.Record(ctx, Entry{RunID: "a", Unit: "u2", Status: "written"}))
	require.NoError(t, s.Record(ctx, Entry{RunID: "a", Unit: "u3", Status: "failed"}))
	require.NoError(t, s.Record(ctx, Entry{RunID: "b", Unit: "u1", Status: "failed"}))

	counts, err := s.Summary(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"written": 2, "failed": 1}, counts)
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, Entry{RunID: "r", Unit: "lunge", Status: "written"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Recent(ctx, "lunge", 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

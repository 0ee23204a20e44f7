package runstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/beaconcheck/internal/model"
	"github.com/raysh454/beaconcheck/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "runs.db"), &testutil.DummyLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(id string, started time.Time) *model.Run {
	r := model.RowFrom(model.ColumnURL, "https://shop.test/", model.ColumnFieldname, "promo", model.ColumnValue, "SAVE10")
	r.SetStatus(model.StatusPass)
	run := &model.Run{
		ID:        id,
		FileName:  "urls.csv",
		FilePath:  "uploads/urls.csv",
		RowCount:  1,
		Passed:    1,
		Captured:  3,
		StartedAt: started,
		Rows:      []*model.Row{r},
	}
	run.Finish(model.RunDone, started.Add(10*time.Second))
	return run
}

func TestStore_SaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, sampleRun("run-1", started)))

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "urls.csv", got.FileName)
	assert.Equal(t, model.RunDone, got.Status)
	assert.Equal(t, 3, got.Captured)
	assert.True(t, got.StartedAt.Equal(started))
	require.NotNil(t, got.FinishedAt)
	assert.True(t, got.FinishedAt.Equal(started.Add(10*time.Second)))
	require.Len(t, got.Rows, 1)
	assert.Equal(t, model.StatusPass, got.Rows[0].Status())
	assert.Equal(t, []string{"Url", "Fieldname", "Value", "Status"}, got.Rows[0].Keys())
}

func TestStore_SaveUpdatesExistingRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := &model.Run{ID: "run-1", FileName: "a.csv", FilePath: "uploads/a.csv", Status: model.RunRunning, StartedAt: time.Now()}
	require.NoError(t, s.Save(ctx, run))

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Nil(t, got.FinishedAt)

	run.Error = "navigate: timeout"
	run.Finish(model.RunFailed, time.Now())
	require.NoError(t, s.Save(ctx, run))

	got, err = s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, got.Status)
	assert.NotNil(t, got.FinishedAt)
	assert.Equal(t, "navigate: timeout", got.Error)
	assert.Empty(t, got.Rows)
}

func TestStore_GetNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, s.Save(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Minute))))
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].ID)
	assert.Equal(t, "old", all[2].ID)
	assert.Nil(t, all[0].Rows)

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStore_ListEmpty(t *testing.T) {
	s := newTestStore(t)
	runs, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestNew_NilDB(t *testing.T) {
	_, err := New(nil, &testutil.DummyLogger{})
	assert.Error(t, err)
}

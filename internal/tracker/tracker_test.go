package tracker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestTrackerTickAndRollover(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{now: time.Date(2026, time.March, 30, 10, 0, 0, 0, time.UTC)}
	tr := New(NewMemoryStore(), clk.Now)

	rec, err := tr.Tick(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, DayRecord{Date: "2026-03-30", CompletedCount: 1}, rec)

	rec, err = tr.Tick(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.CompletedCount)

	clk.now = clk.now.AddDate(0, 0, 1)
	_, err = tr.Tick(ctx, 1)
	require.NoError(t, err)

	m, err := tr.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-03", m.Month)
	assert.Equal(t, 4, m.Total)
	assert.Equal(t, 2, m.ActiveDays)
	assert.False(t, m.Rolled)

	clk.now = time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	m, err = tr.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-04", m.Month)
	assert.True(t, m.Rolled)
	assert.Empty(t, m.Days)

	m, err = tr.Current(ctx)
	require.NoError(t, err)
	assert.False(t, m.Rolled)
}

func TestTrackerSet(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{now: time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)}
	tr := New(NewMemoryStore(), clk.Now)

	_, err := tr.Set(ctx, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), 5)
	require.NoError(t, err)
	_, err = tr.Set(ctx, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)

	m, err := tr.Current(ctx)
	require.NoError(t, err)
	require.Len(t, m.Days, 2)
	assert.Equal(t, "2026-03-01", m.Days[0].Date)
	assert.Equal(t, 1, m.ActiveDays)

	_, err = tr.Set(ctx, time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC), 1)
	assert.Error(t, err)
	_, err = tr.Set(ctx, clk.now, -1)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestTrackerIgnoresCorruptData(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{now: time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)}
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, MonthKey, []byte(`"2026-03"`)))
	require.NoError(t, store.Put(ctx, DataKey, []byte(`{not json`)))

	m, err := New(store, clk.Now).Current(ctx)
	require.NoError(t, err)
	assert.Empty(t, m.Days)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := OpenSQLite(ctx, path)
	require.NoError(t, err)

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "k", []byte(`[1]`)))
	require.NoError(t, store.Put(ctx, "k", []byte(`[2]`)))
	v, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[2]`, string(v))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	clk := &fakeClock{now: time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)}
	tr := New(reopened, clk.Now)
	_, err = tr.Tick(ctx, 1)
	require.NoError(t, err)
	m, err := tr.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Total)
}

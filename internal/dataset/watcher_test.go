package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superstore-dashboard/internal/errors"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	path := writeCSV(t, sampleCSV)
	store := newTestStore(path, nil)
	_, err := store.Get(context.Background())
	require.NoError(t, err)

	w := NewWatcher(store, quietLogger())

	changed, err := w.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, os.WriteFile(path, []byte("Order Date,Sales,Profit\n1/2/2015,10,1\n"), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	changed, err = w.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, store.Peek())
	assert.Equal(t, 1, store.Peek().Len())
}

func TestWatcherDoesNotRetryBrokenFile(t *testing.T) {
	path := writeCSV(t, sampleCSV)
	store := newTestStore(path, nil)
	_, err := store.Get(context.Background())
	require.NoError(t, err)

	w := NewWatcher(store, quietLogger())

	require.NoError(t, os.WriteFile(path, []byte("Order ID,Profit\nA,1\n"), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	changed, err := w.Check(context.Background())
	assert.True(t, changed)
	assert.True(t, errors.IsCode(err, errors.CodeData))
	assert.Nil(t, store.Peek())

	changed, err = w.Check(context.Background())
	assert.NoError(t, err)
	assert.False(t, changed)
}

func TestWatcherMissingFile(t *testing.T) {
	store := newTestStore(filepath.Join(t.TempDir(), "gone.csv"), nil)
	w := NewWatcher(store, quietLogger())

	_, err := w.Check(context.Background())
	assert.Error(t, err)
}

func TestWatcherSchedule(t *testing.T) {
	store := newTestStore(writeCSV(t, sampleCSV), nil)
	w := NewWatcher(store, quietLogger())

	c := cron.New()
	require.NoError(t, w.Schedule(c, ""))
	assert.Empty(t, c.Entries())

	require.NoError(t, w.Schedule(c, "@every 1m"))
	assert.Len(t, c.Entries(), 1)

	assert.Error(t, w.Schedule(c, "not a schedule"))
}

package artifactstore

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/AzielCF/az-invert/domains/artifact"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemStore(t *testing.T, now time.Time) (*FSStore, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	s, err := NewFSStore(fs, "uploads", WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return s, fs
}

func TestFSStore_PutGetStat(t *testing.T) {
	ctx := context.Background()
	s, _ := newMemStore(t, time.Now())

	require.NoError(t, s.Put(ctx, "inverted_abc.png", []byte("one")))
	require.NoError(t, s.Put(ctx, "inverted_abc.png", []byte("two!")))

	data, entry, err := s.Get(ctx, "inverted_abc.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("two!"), data)
	assert.Equal(t, "inverted_abc.png", entry.Name)
	assert.EqualValues(t, 4, entry.Size)

	stat, err := s.Stat(ctx, "inverted_abc.png")
	require.NoError(t, err)
	assert.EqualValues(t, 4, stat.Size)
}

func TestFSStore_Missing(t *testing.T) {
	ctx := context.Background()
	s, _ := newMemStore(t, time.Now())

	_, err := s.Stat(ctx, "nope.png")
	assert.ErrorIs(t, err, artifact.ErrNotFound)

	_, _, err = s.Get(ctx, "nope.png")
	assert.ErrorIs(t, err, artifact.ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "nope.png"), artifact.ErrNotFound)
}

func TestFSStore_InvalidNames(t *testing.T) {
	ctx := context.Background()
	s, _ := newMemStore(t, time.Now())

	for _, name := range []string{"", ".", "..", "../x.png", "a/b.png", `a\b.png`} {
		_, err := s.Stat(ctx, name)
		assert.ErrorIs(t, err, artifact.ErrInvalidName, name)
		assert.ErrorIs(t, s.Put(ctx, name, []byte("x")), artifact.ErrInvalidName, name)
	}
}

func TestFSStore_PutNew(t *testing.T) {
	ctx := context.Background()
	s, _ := newMemStore(t, time.Now())

	require.NoError(t, s.PutNew(ctx, "a.png", []byte("first")))
	assert.ErrorIs(t, s.PutNew(ctx, "a.png", []byte("second")), artifact.ErrExists)

	data, _, err := s.Get(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)
}

func TestFSStore_ListHidesTempFiles(t *testing.T) {
	ctx := context.Background()
	s, fs := newMemStore(t, time.Now())

	require.NoError(t, s.Put(ctx, "a.png", []byte("a")))
	require.NoError(t, afero.WriteFile(fs, filepath.Join("uploads", tmpPrefix+"dead"), []byte("x"), 0644))
	require.NoError(t, fs.Mkdir(filepath.Join("uploads", "sub"), 0755))

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.png", entries[0].Name)
}

func TestFSStore_SweepRetention(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s, fs := newMemStore(t, now)

	files := map[string]time.Duration{
		"old.png":           25 * time.Hour,
		"inverted_old.png":  25 * time.Hour,
		"fresh.png":         23 * time.Hour,
		"inverted_new.png":  time.Minute,
		".gitignore":        72 * time.Hour,
		tmpPrefix + "stale": 48 * time.Hour,
	}
	for name, age := range files {
		p := filepath.Join("uploads", name)
		require.NoError(t, afero.WriteFile(fs, p, []byte(name), 0644))
		require.NoError(t, fs.Chtimes(p, now.Add(-age), now.Add(-age)))
	}

	report, err := s.Sweep(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Deleted)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 5, report.Scanned)

	for _, gone := range []string{"old.png", "inverted_old.png"} {
		_, err := s.Stat(ctx, gone)
		assert.ErrorIs(t, err, artifact.ErrNotFound, gone)
	}
	for _, kept := range []string{"fresh.png", "inverted_new.png", ".gitignore"} {
		_, err := s.Stat(ctx, kept)
		assert.NoError(t, err, kept)
	}
	exists, err := afero.Exists(fs, filepath.Join("uploads", tmpPrefix+"stale"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSweepEntries_FailuresDoNotStopBatch(t *testing.T) {
	cutoff := time.Now()
	old := cutoff.Add(-time.Hour)
	entries := []artifact.Entry{
		{Name: "a.png", ModTime: old},
		{Name: "b.png", ModTime: old},
		{Name: "c.png", ModTime: old},
		{Name: "d.png", ModTime: cutoff.Add(time.Minute)},
	}

	var deleted []string
	del := func(_ context.Context, name string) error {
		if name == "b.png" {
			return errors.New("permission denied")
		}
		deleted = append(deleted, name)
		return nil
	}

	report := sweepEntries(context.Background(), entries, cutoff, del)
	assert.Equal(t, artifact.SweepReport{Scanned: 4, Deleted: 2, Failed: 1}, report)
	assert.Equal(t, []string{"a.png", "c.png"}, deleted)
}

func TestSweepEntries_IgnoresCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cutoff := time.Now()
	entries := []artifact.Entry{
		{Name: "a.png", ModTime: cutoff.Add(-time.Hour)},
		{Name: "b.png", ModTime: cutoff.Add(-time.Hour)},
	}

	del := func(ctx context.Context, name string) error {
		cancel()
		return ctx.Err()
	}

	report := sweepEntries(ctx, entries, cutoff, del)
	assert.Equal(t, artifact.SweepReport{Scanned: 2, Deleted: 2}, report)
}

func TestFSStore_SweepWithCancelledContext(t *testing.T) {
	now := time.Now()
	s, fs := newMemStore(t, now)
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		p := filepath.Join("uploads", name)
		require.NoError(t, afero.WriteFile(fs, p, []byte(name), 0644))
		require.NoError(t, fs.Chtimes(p, now.Add(-48*time.Hour), now.Add(-48*time.Hour)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := s.Sweep(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Deleted)
}

func TestFSStore_LockSerializesKey(t *testing.T) {
	ctx := context.Background()
	s, _ := newMemStore(t, time.Now())

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := s.Lock(ctx, "inverted_x.png")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, s.locks.locks)
}

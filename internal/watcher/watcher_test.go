package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, w *Watcher) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	// give fsnotify time to register the directory
	time.Sleep(100 * time.Millisecond)
	return cancel
}

func TestWatchDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "soc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("id: a\n"), 0o644))

	changed := make(chan string, 8)
	startWatcher(t, New(func(p string) { changed <- p }, path).WithDebounce(50*time.Millisecond))

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("id: b\n"), 0o644))
	}

	select {
	case got := <-changed:
		assert.Equal(t, path, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case extra := <-changed:
		t.Fatalf("burst reported twice: %s", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchSeesRenameOnSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "soc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("id: a\n"), 0o644))

	var calls atomic.Int32
	startWatcher(t, New(func(string) { calls.Add(1) }, path).WithDebounce(20*time.Millisecond))

	tmp := filepath.Join(dir, ".soc.yaml.swp")
	require.NoError(t, os.WriteFile(tmp, []byte("id: c\n"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "soc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("id: a\n"), 0o644))

	var calls atomic.Int32
	startWatcher(t, New(func(string) { calls.Add(1) }, path).WithDebounce(20*time.Millisecond))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
	time.Sleep(150 * time.Millisecond)

	assert.Zero(t, calls.Load())
}

func TestWatchRequiresPaths(t *testing.T) {
	err := New(func(string) {}).Watch(context.Background())

	assert.Error(t, err)
}

func TestWithDebounceIgnoresNonPositive(t *testing.T) {
	w := New(func(string) {}, "x.yaml").WithDebounce(0)

	assert.Equal(t, DefaultDebounce, w.debounce)
}

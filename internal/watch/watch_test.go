package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRun_RescanOnWrite(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var rescans atomic.Int64
	go func() {
		_ = Run(ctx, dir, 50*time.Millisecond, quietLogger(), func() {
			rescans.Add(1)
		})
	}()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "new.md"), []byte("# New"), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return rescans.Load() >= 1
	}, "write did not trigger a rescan")
}

func TestRun_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var rescans atomic.Int64
	go func() {
		_ = Run(ctx, dir, 200*time.Millisecond, quietLogger(), func() {
			rescans.Add(1)
		})
	}()
	time.Sleep(100 * time.Millisecond)

	// A burst of writes within the debounce window collapses to one rescan.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(filepath.Join(dir, "burst.md"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return rescans.Load() >= 1
	}, "burst did not trigger a rescan")
	time.Sleep(300 * time.Millisecond)
	if n := rescans.Load(); n > 2 {
		t.Errorf("rescans = %d, want the burst debounced", n)
	}
}

func TestRun_NewDirWatched(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var rescans atomic.Int64
	go func() {
		_ = Run(ctx, dir, 50*time.Millisecond, quietLogger(), func() {
			rescans.Add(1)
		})
	}()
	time.Sleep(100 * time.Millisecond)

	sub := filepath.Join(dir, "subdir")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	eventually(t, 2*time.Second, 25*time.Millisecond, func() bool {
		return rescans.Load() >= 1
	}, "new dir did not trigger a rescan")

	before := rescans.Load()
	if err := os.WriteFile(filepath.Join(sub, "deep.md"), []byte("# Deep"), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return rescans.Load() > before
	}, "file in new subdir did not trigger a rescan")
}

func TestRun_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, dir, 50*time.Millisecond, quietLogger(), func() {})
	}()
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v on cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Run did not stop after cancel")
	}
}

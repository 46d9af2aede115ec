package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestIsBattleLog(t *testing.T) {
	tests := map[string]bool{
		"log.json":     true,
		"log.JSONL":    true,
		"dir/x.jsonl":  true,
		"notes.txt":    false,
		"log.json.swp": false,
		"battles":      false,
	}
	for in, want := range tests {
		if got := IsBattleLog(in); got != want {
			t.Errorf("IsBattleLog(%q) = %v, want %v", in, got, want)
		}
	}
}

func runWatcher(t *testing.T, w *Watcher, refresh func(context.Context) error) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, refresh) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	return cancel
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestRun_RefreshesOnBattleLogWrite(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	w := New(dir, Options{Debounce: 50 * time.Millisecond, Log: zerolog.Nop()})
	runWatcher(t, w, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "log.json"), []byte("[]"), 0o600); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return calls.Load() >= 1 })
}

func TestRun_Polls(t *testing.T) {
	var calls atomic.Int32
	w := New(t.TempDir(), Options{Poll: 30 * time.Millisecond, Log: zerolog.Nop()})
	runWatcher(t, w, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	waitFor(t, func() bool { return calls.Load() >= 2 })
}

func TestRun_MissingDir(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "absent"), Options{})
	if err := w.Run(context.Background(), func(context.Context) error { return nil }); err == nil {
		t.Error("expected error for missing directory")
	}
}

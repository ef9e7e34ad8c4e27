// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/buildgraph/buildgraph/internal/loader"
	"github.com/buildgraph/buildgraph/internal/testutil"
)

// recorder collects OnChange calls.
type recorder struct {
	mu    sync.Mutex
	calls [][]string
	fired chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fired: make(chan struct{}, 16)}
}

func (r *recorder) onChange(_ context.Context, changed []string) error {
	r.mu.Lock()
	r.calls = append(r.calls, changed)
	r.mu.Unlock()
	r.fired <- struct{}{}
	return nil
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// start runs w until the test ends.
func start(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-errCh; err != nil {
			t.Errorf("Run() error: %v", err)
		}
	})
}

func TestWatcher_CoalescesChanges(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "lib", "keep"), "")

	rec := newRecorder()
	w, err := New(Config{Root: dir, Debounce: 100 * time.Millisecond, OnChange: rec.onChange})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	start(t, w)

	testutil.MustWriteFile(t, filepath.Join(dir, "BUILD.cue"), "packages: []\n")
	time.Sleep(10 * time.Millisecond)
	testutil.MustWriteFile(t, filepath.Join(dir, "lib", "BUILD.hcl"), "")

	select {
	case <-rec.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	time.Sleep(300 * time.Millisecond)

	calls := rec.snapshot()
	if len(calls) != 1 {
		t.Fatalf("expected 1 debounced callback, got %d: %v", len(calls), calls)
	}
	if want := []string{"BUILD.cue", "lib/BUILD.hcl"}; !slices.Equal(calls[0], want) {
		t.Errorf("changed = %v, want %v", calls[0], want)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	rec := newRecorder()
	w, err := New(Config{
		Root:     dir,
		Exclude:  []string{"vendor/**"},
		Debounce: 50 * time.Millisecond,
		OnChange: rec.onChange,
	})
	if err != nil {
		t.Fatal(err)
	}
	start(t, w)

	testutil.MustWriteFile(t, filepath.Join(dir, "main.c"), "int main;")
	testutil.MustWriteFile(t, filepath.Join(dir, "vendor", "BUILD.cue"), "packages: []\n")

	select {
	case <-rec.fired:
		t.Fatalf("unexpected callback: %v", rec.snapshot())
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	rec := newRecorder()
	w, err := New(Config{Root: dir, Debounce: 50 * time.Millisecond, OnChange: rec.onChange})
	if err != nil {
		t.Fatal(err)
	}
	start(t, w)

	if err := os.Mkdir(filepath.Join(dir, "tools"), 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher time to register the new directory.
	time.Sleep(100 * time.Millisecond)
	testutil.MustWriteFile(t, filepath.Join(dir, "tools", "BUILD.cue"), "packages: []\n")

	select {
	case <-rec.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	if calls := rec.snapshot(); !slices.Contains(calls[0], "tools/BUILD.cue") {
		t.Errorf("changed = %v, want tools/BUILD.cue", calls[0])
	}
}

func TestWatcher_RunOnce(t *testing.T) {
	t.Parallel()
	w, err := New(Config{Root: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("first Run() = %v, want nil after cancellation", err)
	}
	if err := w.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() = %v, want ErrAlreadyRunning", err)
	}
}

func TestWatcher_RunWaitsForCallback(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	entered := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	var once sync.Once
	w, err := New(Config{
		Root:     dir,
		Debounce: 20 * time.Millisecond,
		OnChange: func(context.Context, []string) error {
			once.Do(func() { close(entered) })
			<-release
			finished.Store(true)
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	testutil.MustWriteFile(t, filepath.Join(dir, "BUILD.cue"), "packages: []\n")
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		cancel()
		close(release)
		t.Fatal("timed out waiting for callback")
	}

	cancel()
	select {
	case err := <-errCh:
		close(release)
		t.Fatalf("Run() returned %v while OnChange was running", err)
	case <-time.After(150 * time.Millisecond):
	}

	close(release)
	if err := <-errCh; err != nil {
		t.Errorf("Run() error: %v", err)
	}
	if !finished.Load() {
		t.Error("Run() returned before OnChange finished")
	}
}

func TestNew_InvalidPatterns(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "pattern", cfg: Config{Patterns: []string{"[unclosed"}}},
		{name: "exclude", cfg: Config{Exclude: []string{"{a,b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.cfg.Root = t.TempDir()
			if _, err := New(tt.cfg); !errors.Is(err, loader.ErrInvalidPattern) {
				t.Errorf("New() = %v, want ErrInvalidPattern", err)
			}
		})
	}
}

func TestMatchAny(t *testing.T) {
	t.Parallel()
	tests := []struct {
		rel  string
		want bool
	}{
		{"BUILD.cue", true},
		{"a/b/BUILD.hcl", true},
		{"a/BUILD.cue.bak", false},
		{"main.c", false},
	}
	for _, tt := range tests {
		if got := matchAny(loader.DefaultPatterns, tt.rel); got != tt.want {
			t.Errorf("matchAny(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}

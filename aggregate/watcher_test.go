package aggregate

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testWatcher(t *testing.T, root string) *Watcher {
	t.Helper()
	config := WatchConfig{DebounceDelay: "50ms", ExcludeDirs: []string{"node_modules"}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	watcher, err := NewWatcher(config, []string{root}, logger)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	t.Cleanup(func() { watcher.Stop() })

	// Give watcher time to set up
	time.Sleep(100 * time.Millisecond)
	return watcher
}

func expectEvent(t *testing.T, watcher *Watcher, op WatchOperation, path string) {
	t.Helper()
	select {
	case event := <-watcher.Events():
		if event.Operation != op {
			t.Errorf("expected %s operation, got %s", op, event.Operation)
		}
		if event.Path != path {
			t.Errorf("expected path %s, got %s", path, event.Path)
		}
	case <-time.After(1 * time.Second):
		t.Errorf("timeout waiting for %s event", op)
	}
}

func expectNoEvent(t *testing.T, watcher *Watcher) {
	t.Helper()
	select {
	case event := <-watcher.Events():
		t.Errorf("unexpected event: %+v", event)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchConfig_GetDebounceDelay(t *testing.T) {
	tests := []struct {
		name   string
		delay  string
		expect time.Duration
	}{
		{
			name:   "valid duration",
			delay:  "100ms",
			expect: 100 * time.Millisecond,
		},
		{
			name:   "empty string uses default",
			delay:  "",
			expect: 500 * time.Millisecond,
		},
		{
			name:   "invalid duration uses default",
			delay:  "invalid",
			expect: 500 * time.Millisecond,
		},
		{
			name:   "negative duration uses default",
			delay:  "-1s",
			expect: 500 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := WatchConfig{DebounceDelay: tt.delay}
			got := config.GetDebounceDelay()
			if got != tt.expect {
				t.Errorf("GetDebounceDelay() = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestWatcher_FileCreation(t *testing.T) {
	root := t.TempDir()
	pages := filepath.Join(root, "modules", "ROOT", "pages")
	if err := os.MkdirAll(pages, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	watcher := testWatcher(t, root)

	if err := os.WriteFile(filepath.Join(pages, "new.adoc"), []byte("= New"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	expectEvent(t, watcher, WatchOpCreate, "modules/ROOT/pages/new.adoc")
}

func TestWatcher_NewDirectory(t *testing.T) {
	root := t.TempDir()
	watcher := testWatcher(t, root)

	// Files written right after the directory appears may land before its
	// watch is added; they are still reported.
	dir := filepath.Join(root, "modules", "admin")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "nav.adoc"), []byte("* xref:index.adoc[]"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	expectEvent(t, watcher, WatchOpCreate, "modules/admin/nav.adoc")
}

func TestWatcher_FileModification(t *testing.T) {
	root := t.TempDir()
	testFile := filepath.Join(root, "antora.yml")
	if err := os.WriteFile(testFile, []byte("name: the-component\nversion: ~\n"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	watcher := testWatcher(t, root)

	if err := os.WriteFile(testFile, []byte("name: the-component\nversion: '1.0'\n"), 0644); err != nil {
		t.Fatalf("failed to modify test file: %v", err)
	}
	expectEvent(t, watcher, WatchOpModify, "antora.yml")
}

func TestWatcher_FileDeletion(t *testing.T) {
	root := t.TempDir()
	testFile := filepath.Join(root, "old.adoc")
	if err := os.WriteFile(testFile, []byte("= To Be Deleted"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	watcher := testWatcher(t, root)

	if err := os.Remove(testFile); err != nil {
		t.Fatalf("failed to remove test file: %v", err)
	}
	expectEvent(t, watcher, WatchOpDelete, "old.adoc")
}

func TestWatcher_UnchangedContent(t *testing.T) {
	root := t.TempDir()
	testFile := filepath.Join(root, "same.adoc")
	content := []byte("= Same Content")
	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	watcher := testWatcher(t, root)

	// Touch the file with the same content
	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	expectNoEvent(t, watcher)
}

func TestWatcher_IgnoresExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{".git", "node_modules"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			t.Fatalf("failed to create excluded dir: %v", err)
		}
	}
	watcher := testWatcher(t, root)

	for _, p := range []string{".git/HEAD", "node_modules/pkg.json", ".hidden.adoc"} {
		if err := os.WriteFile(filepath.Join(root, filepath.FromSlash(p)), []byte("x"), 0644); err != nil {
			t.Fatalf("failed to write test file: %v", err)
		}
	}
	expectNoEvent(t, watcher)
}

func TestWatcher_OutsideRoots(t *testing.T) {
	watcher, err := NewWatcher(DefaultWatchConfig(), []string{t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	if _, _, ok := watcher.locate(filepath.Join(t.TempDir(), "x.adoc")); ok {
		t.Error("expected path outside the roots to be ignored")
	}
	if watcher.DroppedEvents() != 0 {
		t.Errorf("expected 0 dropped events, got %d", watcher.DroppedEvents())
	}
}

package aggregate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// eventChannelBuffer is the size of the watch event channel.
	eventChannelBuffer = 500

	defaultDebounceDelay = 500 * time.Millisecond
)

// WatchConfig configures content watching.
type WatchConfig struct {
	// DebounceDelay is how long to wait for more changes before reporting.
	DebounceDelay string

	// ExcludeDirs lists directory names to skip (e.g., ["node_modules"]).
	// Hidden directories are always skipped.
	ExcludeDirs []string
}

// DefaultWatchConfig returns default watch configuration.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		DebounceDelay: "500ms",
		ExcludeDirs:   []string{"node_modules", "build"},
	}
}

// GetDebounceDelay returns the debounce delay as a duration.
func (c *WatchConfig) GetDebounceDelay() time.Duration {
	if c.DebounceDelay == "" {
		return defaultDebounceDelay
	}
	d, err := time.ParseDuration(c.DebounceDelay)
	if err != nil || d <= 0 {
		return defaultDebounceDelay
	}
	return d
}

// WatchOperation indicates the type of file operation.
type WatchOperation string

// WatchOpCreate, WatchOpModify, and WatchOpDelete enumerate the file watch operation types.
const (
	WatchOpCreate WatchOperation = "create"
	WatchOpModify WatchOperation = "modify"
	WatchOpDelete WatchOperation = "delete"
)

// WatchEvent is a content file change.
type WatchEvent struct {
	// Root is the watched worktree the file belongs to.
	Root string

	// Path is the file path relative to Root, slash separated.
	Path string

	// Operation is the type of change.
	Operation WatchOperation

	// AbsPath is the absolute file path.
	AbsPath string
}

// Watcher watches content worktrees and emits debounced change events.
// Writes that leave a file's contents unchanged are not reported.
type Watcher struct {
	config   WatchConfig
	roots    []string
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	excludes map[string]bool

	// Debouncing: collect changes before reporting
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	// Hash-based change detection, keyed by absolute path
	hashMu sync.RWMutex
	hashes map[string]string

	events chan WatchEvent

	droppedEvents atomic.Int64
}

// NewWatcher creates a watcher over the given worktree roots.
func NewWatcher(config WatchConfig, roots []string, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	excludes := make(map[string]bool, len(config.ExcludeDirs))
	for _, dir := range config.ExcludeDirs {
		excludes[dir] = true
	}

	absRoots := make([]string, 0, len(roots))
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		absRoots = append(absRoots, abs)
	}

	return &Watcher{
		config:   config,
		roots:    absRoots,
		watcher:  fsw,
		logger:   logger,
		excludes: excludes,
		pending:  make(map[string]fsnotify.Op),
		hashes:   make(map[string]string),
		events:   make(chan WatchEvent, eventChannelBuffer),
	}, nil
}

// Events returns the channel of watch events. It is closed when the watcher
// stops.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Start records the current contents of every root, adds watches and begins
// processing events in the background.
func (w *Watcher) Start(ctx context.Context) error {
	for _, root := range w.roots {
		if err := w.addWatchesRecursive(root, true); err != nil {
			return err
		}
	}

	go w.processEvents(ctx)

	w.logger.Info("Content watcher started",
		"roots", w.roots,
		"debounce", w.config.GetDebounceDelay())
	return nil
}

// Stop stops the watcher.
// The events channel is closed by processEvents when it exits.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// addWatchesRecursive watches every directory under root. With seed set the
// files already present are hashed so rewriting them unchanged is not
// reported; otherwise they are queued as changes.
func (w *Watcher) addWatchesRecursive(root string, seed bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if !seed {
				w.queue(path, fsnotify.Create)
			} else if content, err := os.ReadFile(path); err == nil {
				w.setHash(path, contentHash(content))
			}
			return nil
		}
		if path != root && w.skipDir(filepath.Base(path)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}
		return nil
	})
}

func (w *Watcher) skipDir(base string) bool {
	return w.excludes[base] || strings.HasPrefix(base, ".")
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.config.GetDebounceDelay())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// handleFSEvent processes a single fsnotify event.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name
	root, rel, ok := w.locate(path)
	if !ok {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.handleNewDirectory(path)
			return
		}
	}

	// Skip hidden files and files in excluded directories
	for _, segment := range strings.Split(rel, "/") {
		if w.skipDir(segment) {
			return
		}
	}

	w.queue(path, event.Op)
	w.logger.Debug("Content change detected",
		"root", root,
		"path", rel,
		"op", event.Op.String())
}

func (w *Watcher) queue(path string, op fsnotify.Op) {
	w.pendingMu.Lock()
	w.pending[path] |= op
	w.pendingMu.Unlock()
}

// locate finds the root a path belongs to.
func (w *Watcher) locate(path string) (root, rel string, ok bool) {
	for _, r := range w.roots {
		relPath, err := filepath.Rel(r, path)
		if err != nil || relPath == "." || strings.HasPrefix(relPath, "..") {
			continue
		}
		return r, filepath.ToSlash(relPath), true
	}
	return "", "", false
}

// handleNewDirectory adds a watch to a newly created directory.
func (w *Watcher) handleNewDirectory(path string) {
	if w.skipDir(filepath.Base(path)) {
		return
	}
	if err := w.addWatchesRecursive(path, false); err != nil {
		w.logger.Warn("Failed to watch new directory",
			"path", path,
			"error", err)
		return
	}
	w.logger.Debug("Added watch for new directory", "path", path)
}

// flushPending reports accumulated changes.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path := range toProcess {
		if ctx.Err() != nil {
			return
		}
		root, rel, ok := w.locate(path)
		if !ok {
			continue
		}
		event := WatchEvent{Root: root, Path: rel, AbsPath: path}

		content, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			if _, known := w.getHash(path); !known {
				continue
			}
			w.deleteHash(path)
			event.Operation = WatchOpDelete
			w.sendEvent(event)
			continue
		}
		if err != nil {
			w.logger.Warn("Failed to read file for hash check",
				"path", rel,
				"error", err)
			continue
		}

		newHash := contentHash(content)
		oldHash, hadHash := w.getHash(path)
		if hadHash && oldHash == newHash {
			continue
		}
		w.setHash(path, newHash)

		if hadHash {
			event.Operation = WatchOpModify
		} else {
			event.Operation = WatchOpCreate
		}
		w.sendEvent(event)
	}
}

// sendEvent sends an event to the output channel.
func (w *Watcher) sendEvent(event WatchEvent) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event",
			"path", event.Path,
			"op", event.Operation)
	default:
		dropped := w.droppedEvents.Add(1)
		w.logger.Warn("Event channel full, dropping event",
			"path", event.Path,
			"total_dropped", dropped)
	}
}

// DroppedEvents returns the number of events dropped due to channel overflow.
func (w *Watcher) DroppedEvents() int64 {
	return w.droppedEvents.Load()
}

func (w *Watcher) setHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

func (w *Watcher) getHash(path string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	hash, ok := w.hashes[path]
	return hash, ok
}

func (w *Watcher) deleteHash(path string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	delete(w.hashes, path)
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

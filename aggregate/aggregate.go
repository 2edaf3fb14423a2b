// Package aggregate reads documentation content from local worktrees and
// groups it by component version for the catalog.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/semdocs/catalog"
	"github.com/c360studio/semdocs/config"
)

// DefaultBranch labels files from a source that names no branch.
const DefaultBranch = "HEAD"

// ErrRemoteSource is returned for sources that are not local directories.
var ErrRemoteSource = errors.New("remote content sources are not supported")

// Aggregator reads content sources into component version groups.
type Aggregator struct {
	logger      *slog.Logger
	concurrency int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithConcurrency limits how many sources are read at once.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// New creates an aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{logger: slog.Default(), concurrency: 4}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate reads every source and returns the groups in source order, then
// start path order within a source, regardless of which read finishes first.
func (a *Aggregator) Aggregate(ctx context.Context, sources []config.SourceConfig) ([]*catalog.Group, error) {
	start := time.Now()
	results := make([][]*catalog.Group, len(sources))
	errs := make([]error, len(sources))

	sem := make(chan struct{}, a.concurrency)
	var wg sync.WaitGroup
	for i := range sources {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}
			results[i], errs[i] = a.ReadSource(ctx, sources[i])
		}(i)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	var groups []*catalog.Group
	files := 0
	for _, r := range results {
		for _, g := range r {
			files += len(g.Files)
		}
		groups = append(groups, r...)
	}
	a.logger.Info("Aggregated content",
		"sources", len(sources),
		"component_versions", len(groups),
		"files", files,
		"duration", time.Since(start))
	return groups, nil
}

// ReadSource reads one source, returning a group per start path.
func (a *Aggregator) ReadSource(ctx context.Context, src config.SourceConfig) ([]*catalog.Group, error) {
	if src.URL == "" || config.IsRemote(src.URL) {
		return nil, fmt.Errorf("%w: %s", ErrRemoteSource, src.URL)
	}
	worktree, err := filepath.Abs(src.URL)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(worktree)
	if err != nil {
		return nil, fmt.Errorf("content source: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content source is not a directory: %s", worktree)
	}

	startPaths, err := resolveStartPaths(worktree, src)
	if err != nil {
		return nil, err
	}
	branch := src.Branch
	if branch == "" {
		branch = DefaultBranch
	}

	groups := make([]*catalog.Group, 0, len(startPaths))
	for _, startPath := range startPaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		origin := &catalog.Origin{
			URL:       src.URL,
			Branch:    branch,
			StartPath: startPath,
			Worktree:  worktree,
		}
		group, err := a.readComponent(ctx, origin, src.Exclude)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// readComponent reads the descriptor and module files under one start path.
func (a *Aggregator) readComponent(ctx context.Context, origin *catalog.Origin, exclude []string) (*catalog.Group, error) {
	root := filepath.Join(origin.Worktree, filepath.FromSlash(origin.StartPath))
	desc, err := LoadDescriptor(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", root, err)
	}

	var files []*catalog.File
	err = doublestar.GlobWalk(os.DirFS(root), "modules/**", func(p string, d fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if isHidden(p) || matchesAny(exclude, p) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		file, err := readFile(root, p, origin)
		if err != nil {
			return err
		}
		files = append(files, file)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", root, err)
	}
	navFiles, err := readNavFiles(root, desc.Nav, origin)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", root, err)
	}
	files = append(files, navFiles...)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	group := desc.Group(origin.Ref(), files)
	a.logger.Debug("Read component version",
		"component", group.Name,
		"version", group.Version,
		"start_path", origin.StartPath,
		"files", len(files))
	return group, nil
}

func readFile(root, p string, origin *catalog.Origin) (*catalog.File, error) {
	abspath := filepath.Join(root, filepath.FromSlash(p))
	contents, err := os.ReadFile(abspath)
	if err != nil {
		return nil, err
	}
	base := path.Base(p)
	ext := path.Ext(base)
	return &catalog.File{
		Path:     p,
		Contents: contents,
		Src: catalog.FileSrc{
			Basename: base,
			Stem:     strings.TrimSuffix(base, ext),
			Extname:  ext,
			Abspath:  abspath,
			Origin:   origin,
		},
	}, nil
}

// readNavFiles reads the nav files a descriptor lists outside modules/, which
// the module walk does not reach. Missing files and paths leaving the start
// path are skipped.
func readNavFiles(root string, nav []string, origin *catalog.Origin) ([]*catalog.File, error) {
	var files []*catalog.File
	seen := make(map[string]bool)
	for _, p := range nav {
		p = path.Clean(filepath.ToSlash(p))
		if p == "." || strings.HasPrefix(p, "../") || p == ".." || path.IsAbs(p) ||
			strings.HasPrefix(p, "modules/") || seen[p] {
			continue
		}
		seen[p] = true
		file, err := readFile(root, p, origin)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// resolveStartPaths expands start_path and start_paths into slash-separated
// paths relative to the worktree that contain a component descriptor.
func resolveStartPaths(worktree string, src config.SourceConfig) ([]string, error) {
	if len(src.StartPaths) == 0 {
		return []string{cleanStartPath(src.StartPath)}, nil
	}

	fsys := os.DirFS(worktree)
	var resolved []string
	seen := make(map[string]bool)
	for _, pattern := range src.StartPaths {
		pattern = cleanStartPath(pattern)
		matches, err := doublestar.Glob(fsys, path.Join(pattern, DescriptorFile))
		if err != nil {
			return nil, fmt.Errorf("resolve start path %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no component descriptor matches start path %q in %s", pattern, worktree)
		}
		sort.Strings(matches)
		for _, m := range matches {
			dir := cleanStartPath(path.Dir(m))
			if !seen[dir] {
				seen[dir] = true
				resolved = append(resolved, dir)
			}
		}
	}
	return resolved, nil
}

func cleanStartPath(p string) string {
	p = path.Clean(strings.Trim(filepath.ToSlash(p), "/"))
	if p == "." {
		return ""
	}
	return p
}

func isHidden(p string) bool {
	for _, segment := range strings.Split(p, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}

func matchesAny(patterns []string, p string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

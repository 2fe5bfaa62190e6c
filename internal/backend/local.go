package backend

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"filefinder/internal/disks"
)

// Local is an in-process stand-in for the native host, so the client can run
// without one. It walks the filesystem on every search; there is no index.
type Local struct {
	logger *zap.Logger

	// listDisks is swapped in tests; defaults to gopsutil discovery.
	listDisks func(ctx context.Context) ([]disks.Summary, error)
	// reveal launches the platform file manager.
	reveal func(path string) error
}

// NewLocal creates the in-process backend.
func NewLocal(logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{
		logger:    logger,
		listDisks: disks.Detect,
		reveal:    revealInFileManager,
	}
}

var _ Backend = (*Local)(nil)

// GetDisks lists mounted disks and their capacity.
func (l *Local) GetDisks(ctx context.Context) ([]disks.Summary, error) {
	return l.listDisks(ctx)
}

// SearchForFile matches names case-insensitively under one disk, or under
// every disk concurrently when req.Disk is empty.
func (l *Local) SearchForFile(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	q := matcher{
		query:     strings.ToLower(req.SearchQuery),
		extension: strings.ToLower(req.Extension),
		folders:   req.SearchFolders,
	}

	roots := []string{req.Disk}
	if req.Disk == "" {
		list, err := l.listDisks(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list disks: %w", err)
		}
		roots = disks.DisplayIDs(list)
	}

	var (
		mu      sync.Mutex
		results = []SearchResult{}
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, root := range roots {
		root := root
		g.Go(func() error {
			hits, err := walkDisk(gctx, root, q)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, hits...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	l.logger.Debug("local search finished",
		zap.String("query", req.SearchQuery),
		zap.Int("roots", len(roots)),
		zap.Int("results", len(results)))

	return results, nil
}

// ShowInExplorer spawns the platform reveal command without waiting for it.
func (l *Local) ShowInExplorer(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	return l.reveal(path)
}

// matcher holds the lowercased search filters.
type matcher struct {
	query     string
	extension string
	folders   bool
}

// match reports whether an entry with this name and kind is a hit.
func (m matcher) match(name string, isDir bool) bool {
	if isDir && !m.folders {
		return false
	}
	lower := strings.ToLower(name)
	if !isDir && m.extension != "" && !strings.HasSuffix(lower, m.extension) {
		return false
	}
	return strings.Contains(lower, m.query)
}

// walkDisk walks one root, skipping hidden entries and unreadable paths.
// A root that does not exist yields no results rather than an error.
func walkDisk(ctx context.Context, root string, m matcher) ([]SearchResult, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, nil
	}

	var hits []SearchResult
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Permission denied and friends: skip, keep walking
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		// Symlinks are never followed; they match as plain entries
		isDir := d.IsDir()
		if !m.match(name, isDir) {
			return nil
		}

		var size uint64
		if !isDir {
			if info, err := d.Info(); err == nil {
				size = uint64(info.Size())
			}
		}
		hits = append(hits, SearchResult{Path: path, Name: name, Size: size, Disk: root})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// revealCommand returns the program and arguments that select path in the
// platform file manager.
func revealCommand(goos, path string) (string, []string) {
	switch goos {
	case "windows":
		return "explorer", []string{"/select,", path}
	case "darwin":
		return "open", []string{"-R", path}
	default:
		return "xdg-open", []string{filepath.Dir(path)}
	}
}

// RevealProgram returns the file-manager program used on this platform.
func RevealProgram() string {
	prog, _ := revealCommand(runtime.GOOS, "")
	return prog
}

// CheckProgramExists reports whether program is on PATH.
func CheckProgramExists(program string) bool {
	_, err := exec.LookPath(program)
	return err == nil
}

func revealInFileManager(path string) error {
	prog, args := revealCommand(runtime.GOOS, path)
	cmd := exec.Command(prog, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", prog, err)
	}
	// Reap the child in the background; nothing is read from it
	go cmd.Wait()
	return nil
}

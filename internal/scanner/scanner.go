// Package scanner walks supplied filesystem paths and populates a
// pathstore.Store, reporting throttled progress and honoring cooperative
// cancellation (spec §4.2). The breadth-first walk, symlink handling and
// worker-pool shape are adapted directly from the teacher's
// WalkDirectory/ScanMultiplePaths; fingerprinting and ignore-glob
// filtering are new.
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"pathindex/internal/pathstore"
)

// ErrScanFailed is returned when the top-level input path of an index
// call cannot be scanned at all (spec §7 scan_failed).
var ErrScanFailed = errors.New("scan_failed")

// defaultIgnoreGlobs skips common VCS/build noise directories during a
// walk, the same idea as the hardcoded skip lists seen across the pack's
// tree walkers, expressed as glob data instead of code.
var defaultIgnoreGlobs = []string{
	"**/.git",
	"**/node_modules",
	"**/.DS_Store",
	"**/vendor",
}

// Scanner walks input paths into a pathstore.Store under a bounded
// worker pool, matching the teacher's NormalScanner shape.
type Scanner struct {
	store    *pathstore.Store
	workers  int
	ignore   []string
	progress ProgressCallback

	mu     sync.Mutex
	cancel context.CancelFunc
	token  uuid.UUID
}

// New creates a Scanner backed by store, using workers concurrent
// goroutines for directory walks (defaulting to 2x CPU cores, as the
// teacher does for I/O bound work).
func New(store *pathstore.Store, workers int) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	return &Scanner{
		store:   store,
		workers: workers,
		ignore:  append([]string(nil), defaultIgnoreGlobs...),
	}
}

// SetProgressCallback installs the callback invoked at bounded frequency
// during a scan.
func (s *Scanner) SetProgressCallback(cb ProgressCallback) {
	s.progress = cb
}

// SetIgnoreGlobs replaces the directory-name glob patterns skipped
// during a walk.
func (s *Scanner) SetIgnoreGlobs(globs []string) {
	s.ignore = globs
}

// Cancel aborts the in-flight scan, if any. A cancelled scan leaves
// PathStore with whatever was upserted before the cancellation was
// observed (partial commit; see SPEC_FULL.md open-question decision).
func (s *Scanner) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Index scans each of inputPaths and upserts discovered Nodes into the
// store. It returns the per-path walk results (including accumulated
// skip diagnostics) and fails fast with an error wrapping ErrScanFailed,
// carrying the triggering error's message, if a top-level input path
// cannot be stat'ed.
func (s *Scanner) Index(ctx context.Context, inputPaths []string) ([]WalkResult, error) {
	scanCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	s.token = uuid.New()
	s.mu.Unlock()
	defer cancel()

	emit := s.throttledEmitter()
	results := make([]WalkResult, len(inputPaths))

	done := 0
	for i, p := range inputPaths {
		if scanCtx.Err() != nil {
			break
		}

		info, err := os.Lstat(p)
		if err != nil {
			return nil, errors.Wrapf(ErrScanFailed, "stat %s: %v", p, err)
		}

		var result WalkResult
		if info.IsDir() {
			result = s.walkDirectory(scanCtx, p, emit, &done, len(inputPaths))
		} else {
			s.upsertFile(p, info)
			done++
			result = WalkResult{Path: p, FileCount: 1}
			emit(p, done, len(inputPaths))
		}
		results[i] = result
	}

	// The Complete event goes through a fresh 50ms debouncer. Every walk
	// goroutine has already finished here, so this delays the single
	// Complete notification by 50ms; each Index call emits its own.
	debounced := debounce.New(50 * time.Millisecond)
	completeCh := make(chan struct{})
	debounced(func() { close(completeCh) })
	<-completeCh

	if s.progress != nil {
		s.progress(Progress{CurrentPath: Complete, DoneCount: done, TotalEstimate: len(inputPaths)})
	}

	return results, nil
}

// throttledEmitter returns a function that forwards progress to the
// installed callback at most once per 50ms, per spec §4.2 step 3.
func (s *Scanner) throttledEmitter() func(path string, done, total int) {
	var last time.Time
	var mu sync.Mutex
	return func(path string, done, total int) {
		if s.progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		now := time.Now()
		if now.Sub(last) < 50*time.Millisecond {
			return
		}
		last = now
		s.progress(Progress{CurrentPath: path, DoneCount: done, TotalEstimate: total})
	}
}

// walkDirectory breadth-first walks root, upserting every discovered
// entry (skipping symlinks, per the teacher's walker). Per-entry
// permission errors are recorded as SkippedEntry diagnostics and the
// walk continues; they never fail the overall call.
func (s *Scanner) walkDirectory(ctx context.Context, root string, emit func(string, int, int), done *int, total int) WalkResult {
	result := WalkResult{Path: root}

	rootInfo, err := os.Lstat(root)
	if err != nil {
		result.Err = err
		return result
	}
	s.upsertDir(root, rootInfo)

	type job struct {
		path string
		info os.FileInfo
	}

	queue := []job{{root, rootInfo}}
	var skippedMu sync.Mutex
	var countMu sync.Mutex

	for len(queue) > 0 {
		if ctx.Err() != nil {
			break
		}
		current := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(current.path)
		if err != nil {
			skippedMu.Lock()
			result.Skipped = append(result.Skipped, SkippedEntry{Path: current.path, Reason: SkipPermission, Err: err})
			skippedMu.Unlock()
			continue
		}

		jobs := make(chan os.DirEntry, len(entries))
		next := make(chan job, len(entries))
		var wg sync.WaitGroup

		for w := 0; w < s.workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for entry := range jobs {
					if s.isIgnored(entry.Name()) {
						continue
					}
					if entry.Type()&os.ModeSymlink != 0 {
						continue
					}
					childPath := filepath.Join(current.path, entry.Name())
					info, err := entry.Info()
					if err != nil {
						skippedMu.Lock()
						result.Skipped = append(result.Skipped, SkippedEntry{Path: childPath, Reason: SkipPermission, Err: err})
						skippedMu.Unlock()
						continue
					}

					if entry.IsDir() {
						s.upsertDir(childPath, info)
						countMu.Lock()
						result.DirCount++
						countMu.Unlock()
						next <- job{childPath, info}
					} else {
						s.upsertFile(childPath, info)
						countMu.Lock()
						result.FileCount++
						countMu.Unlock()
					}

					countMu.Lock()
					*done++
					doneSoFar := *done
					countMu.Unlock()
					emit(childPath, doneSoFar, total)
				}
			}()
		}

		for _, e := range entries {
			jobs <- e
		}
		close(jobs)
		wg.Wait()
		close(next)

		for j := range next {
			queue = append(queue, j)
		}
	}

	return result
}

func (s *Scanner) isIgnored(name string) bool {
	for _, pattern := range s.ignore {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
		if ok, _ := doublestar.Match("**/"+pattern, name); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) upsertDir(path string, info os.FileInfo) {
	norm := pathstore.Normalize(path)
	s.store.Upsert(pathstore.Node{
		Path:       norm,
		ParentPath: pathstore.Parent(norm),
		Name:       pathstore.Name(norm),
		IsDir:      true,
		MTime:      info.ModTime().Unix(),
	})
}

func (s *Scanner) upsertFile(path string, info os.FileInfo) {
	norm := pathstore.Normalize(path)
	s.store.Upsert(pathstore.Node{
		Path:       norm,
		ParentPath: pathstore.Parent(norm),
		Name:       pathstore.Name(norm),
		IsDir:      false,
		Size:       info.Size(),
		MTime:      info.ModTime().Unix(),
		// Fingerprint is computed lazily on first read, not during scan
		// (spec §4.2 step 2).
	})
}

// EnsureParentChain upserts synthetic directory Nodes for every
// ancestor segment of path, up to (but not including) stopAt, so a
// newly indexed file always has a resolvable parent chain (spec §4.2
// step 1).
func (s *Scanner) EnsureParentChain(path, stopAt string) {
	norm := pathstore.Normalize(path)
	parent := pathstore.Parent(norm)
	for parent != "" && parent != stopAt && !s.store.Contains(parent) {
		s.store.Upsert(pathstore.Node{
			Path:       parent,
			ParentPath: pathstore.Parent(parent),
			Name:       pathstore.Name(parent),
			IsDir:      true,
			Synthetic:  true,
		})
		parent = pathstore.Parent(parent)
	}
}

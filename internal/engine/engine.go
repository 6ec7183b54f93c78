// Package engine is the Command Bus tying PathStore, RootSet, Overlay,
// Propagator, TreeModel, FlatView, Redactor and Export together under a
// single-writer discipline (spec §5, §6). External callers never touch
// the component packages directly; they go through Engine's command and
// query methods, mirroring the teacher's App struct as the single bound
// surface Wails exposes to the frontend.
package engine

import (
	"context"
	"log"

	"pathindex/internal/cache"
	"pathindex/internal/export"
	"pathindex/internal/flatview"
	"pathindex/internal/overlay"
	"pathindex/internal/pathstore"
	"pathindex/internal/redactor"
	"pathindex/internal/rootset"
	"pathindex/internal/scanner"
	"pathindex/internal/settings"
	"pathindex/internal/treemodel"
)

// Engine owns every mutable component and serializes all writes through
// a single command-processing goroutine (spec §5: "the core is
// structured as a single-threaded cooperative command loop fed by a
// multi-producer command queue").
type Engine struct {
	store   *pathstore.Store
	roots   *rootset.Set
	overlay *overlay.Overlay
	prop    *overlay.Propagator
	tree    *treemodel.View
	scan    *scanner.Scanner
	red     *redactor.Redactor
	sCache  *cache.Store
	cfg     *settings.Settings
	emit    EventEmitter

	cmds chan func()
	stop chan struct{}
}

// New builds an Engine, loading persisted settings and the redaction
// memoization cache from disk (teacher idiom: settings/cache are loaded
// eagerly at startup, saved on every mutating command).
func New(emit EventEmitter) (*Engine, error) {
	cfg, err := settings.Load()
	if err != nil {
		return nil, err
	}
	sCache := cache.Load()

	red := redactor.NewWithCache(sCache)
	for id, enabled := range cfg.SensitiveBuiltinOverrides {
		red.SetBuiltinEnabled(id, enabled)
	}
	for _, cp := range cfg.SensitiveCustomPatterns {
		if err := red.AddCustomPattern(redactor.Pattern{
			ID: cp.ID, Name: cp.Name, Regex: cp.Regex, Placeholder: cp.Placeholder, Enabled: cp.Enabled,
		}); err != nil {
			log.Printf("engine: dropping persisted pattern %s: %v", cp.ID, err)
		}
	}

	store := pathstore.New()

	e := &Engine{
		store:   store,
		roots:   rootset.New(),
		overlay: overlay.New(),
		tree:    treemodel.New(store),
		red:     red,
		sCache:  sCache,
		cfg:     cfg,
		emit:    emit,
		cmds:    make(chan func()),
		stop:    make(chan struct{}),
	}
	e.prop = overlay.NewPropagator(store, e.overlay, e.selectable)
	e.scan = scanner.New(store, 0)
	e.scan.SetProgressCallback(func(p scanner.Progress) {
		e.emitEvent("indexing-progress", p)
	})

	go e.loop()
	return e, nil
}

// Shutdown stops the command loop and persists the redaction cache.
func (e *Engine) Shutdown() {
	close(e.stop)
	if err := e.sCache.Save(); err != nil {
		log.Printf("engine: saving redaction cache: %v", err)
	}
}

func (e *Engine) loop() {
	for {
		select {
		case fn := <-e.cmds:
			fn()
		case <-e.stop:
			return
		}
	}
}

// run submits fn to the command loop and blocks until it has executed,
// giving callers synchronous, serialized access to mutable state.
func (e *Engine) run(fn func()) {
	done := make(chan struct{})
	e.cmds <- func() {
		fn()
		close(done)
	}
	<-done
}

func (e *Engine) emitEvent(name string, data interface{}) {
	if e.emit != nil {
		e.emit.Emit(name, data)
	}
}

// selectable implements overlay.SelectabilityFunc: a file is selectable
// unless sensitive protection and prevent-selection are both enabled and
// the file is currently marked sensitive (spec §4.7).
func (e *Engine) selectable(path string) bool {
	if !e.cfg.SensitiveDataEnabled || !e.cfg.SensitivePreventSelection {
		return true
	}
	return e.overlay.Get(path).Sensitive != overlay.Marked
}

// Index scans inputPaths into the store and, once scanning settles,
// commits a refresh cycle: overlay garbage collection sweep, RootSet
// recompute, synthetic root materialization, root-shift and new-file
// auto-expansion, sensitivity rescan, checked-ancestor expansion, and
// marking overlay entries for the next sweep, in that order (spec §4.2,
// §4.3 step 4, §4.5, §3 lifecycle). It returns once the Complete event has been committed.
func (e *Engine) Index(ctx context.Context, inputPaths []string) ([]scanner.WalkResult, error) {
	norm := make([]string, len(inputPaths))
	for i, p := range inputPaths {
		norm[i] = pathstore.Normalize(p)
	}

	var before map[string]bool
	e.run(func() {
		for _, p := range norm {
			e.roots.AddAnchor(p)
		}
		before = e.presentPathsLocked()
	})

	results, err := e.scan.Index(ctx, norm)
	if err != nil {
		return nil, err
	}

	e.run(func() {
		e.commitScanCycle(before)
	})

	return results, nil
}

func (e *Engine) presentPathsLocked() map[string]bool {
	present := make(map[string]bool)
	for _, n := range e.store.All() {
		present[n.Path] = true
	}
	return present
}

// commitScanCycle runs inside the command loop. See the overlay GC
// sequencing note on MarkAllPendingRemoval/GCPending: entries for paths
// this cycle's scan put back into PathStore are touched before the
// sweep, and the sweep happens before this cycle's mark, so an entry
// survives exactly one full cycle absent from PathStore before being
// dropped. before is the set of paths present prior to this cycle's
// scan, used to distinguish newly discovered files from ones merely
// re-upserted unchanged.
func (e *Engine) commitScanCycle(before map[string]bool) {
	e.overlay.TouchExisting(e.storePaths())
	e.overlay.GCPending()

	res := e.roots.Recompute(e.store)
	for _, synthPath := range res.Synthetic {
		if e.store.Contains(synthPath) {
			continue
		}
		e.store.Upsert(pathstore.Node{
			Path:       synthPath,
			ParentPath: pathstore.Parent(synthPath),
			Name:       pathstore.Name(synthPath),
			IsDir:      true,
			Synthetic:  true,
		})
	}

	// A file indexed directly (not discovered by a directory walk) may
	// have intermediate ancestor directories that were never upserted —
	// e.g. indexing /p/t1/plan.ts directly only creates the plan.ts Node.
	// Synthesize the missing chain up to (not including) the owning root
	// so invariant 2 holds and FlatView has directory rows to traverse.
	for _, n := range e.store.All() {
		if n.IsDir {
			continue
		}
		if root := e.roots.OwningRoot(n.Path); root != "" {
			e.scan.EnsureParentChain(n.Path, root)
		}
	}

	for _, r := range res.Roots {
		e.overlay.AutoExpand(r)
	}

	// Root-shift preservation takes precedence over the blanket
	// scan-complete expansion law for any root admitted this cycle by a
	// shift: previously-visible content stays expanded, but a sibling
	// directory newly discovered under the shifted-to root starts
	// collapsed (spec §4.5), so such roots are excluded below.
	shiftedIntoRoot := make(map[string]bool, len(res.ShiftedUp))
	for oldRoot, newRoot := range res.ShiftedUp {
		shiftedIntoRoot[newRoot] = true
		e.prop.ExpandRootShift(newRoot, []string{oldRoot})
	}

	for _, n := range e.store.All() {
		if n.IsDir || before[n.Path] {
			continue
		}
		root := e.roots.OwningRoot(n.Path)
		if root == "" || shiftedIntoRoot[root] {
			continue
		}
		e.prop.ExpandNewFileChain(root, n.Path)
	}

	e.rescanSensitivityLocked()

	var dirs []string
	for _, n := range e.store.All() {
		if n.IsDir {
			dirs = append(dirs, n.Path)
		}
	}
	e.prop.ExpandCheckedAncestors(dirs)

	e.overlay.MarkAllPendingRemoval()
	e.overlay.TouchExisting(e.storePaths())

	e.emitEvent("refresh-file-tree", nil)
}

func (e *Engine) storePaths() []string {
	all := e.store.All()
	out := make([]string, len(all))
	for i, n := range all {
		out[i] = n.Path
	}
	return out
}

// ClearIndex empties PathStore and RootSet, cancels any in-flight scan,
// and retains StateOverlay for one more refresh cycle before it becomes
// eligible for garbage collection (spec §6 clear_index).
func (e *Engine) ClearIndex() {
	e.scan.Cancel()
	e.run(func() {
		e.overlay.GCPending()
		e.store.Clear()
		for _, a := range e.roots.Anchors() {
			e.roots.RemoveAnchor(a)
		}
		e.roots.Recompute(e.store)
		e.overlay.MarkAllPendingRemoval()
		e.emitEvent("refresh-file-tree", nil)
	})
}

// ClearContext resets every selection to unchecked without touching
// PathStore or expansion state (spec §6 clear_context).
func (e *Engine) ClearContext() {
	e.run(func() {
		e.overlay.ClearSelections()
		e.emitEvent("refresh-file-tree", nil)
	})
}

// SetExpansion is an explicit user expand/collapse; explicit collapses
// are sticky and override later auto-expansion (spec §4.5).
func (e *Engine) SetExpansion(path string, expanded bool) {
	norm := pathstore.Normalize(path)
	exp := overlay.Collapsed
	if expanded {
		exp = overlay.Expanded
	}
	e.run(func() {
		e.overlay.SetExpansion(norm, exp, true)
	})
}

// ToggleSelection flips a file's selection, or a directory's tristate
// between fully-checked and fully-unchecked (spec §6 toggle_selection).
func (e *Engine) ToggleSelection(path string) {
	norm := pathstore.Normalize(path)
	e.run(func() {
		node, ok := e.store.Get(norm)
		if !ok {
			return
		}
		if node.IsDir {
			checked := e.overlay.Get(norm).Selection != overlay.Checked
			e.prop.SetDirectorySelection(norm, checked)
		} else {
			e.prop.ToggleFile(norm)
		}
	})
}

// SetSensitiveDataEnabled toggles the master sensitive-protection switch,
// rescanning (or clearing) sensitivity marks accordingly.
func (e *Engine) SetSensitiveDataEnabled(enabled bool) {
	e.run(func() {
		e.cfg.SensitiveDataEnabled = enabled
		if err := settings.Save(e.cfg); err != nil {
			log.Printf("engine: saving settings: %v", err)
		}
		e.rescanSensitivityLocked()
		e.emitEvent("sensitive-settings-changed", nil)
	})
}

// SetPreventSelection toggles whether sensitive files may be selected.
func (e *Engine) SetPreventSelection(enabled bool) {
	e.run(func() {
		e.cfg.SensitivePreventSelection = enabled
		if err := settings.Save(e.cfg); err != nil {
			log.Printf("engine: saving settings: %v", err)
		}
		e.emitEvent("sensitive-settings-changed", nil)
	})
}

// AddCustomPattern compiles and registers a user-defined redaction
// pattern, then rescans known files against the updated pattern set.
func (e *Engine) AddCustomPattern(p redactor.Pattern) error {
	var err error
	e.run(func() {
		if err = e.red.AddCustomPattern(p); err != nil {
			return
		}
		e.syncCustomPatternsLocked()
		e.rescanSensitivityLocked()
		e.emitEvent("sensitive-settings-changed", nil)
	})
	return err
}

// UpdateCustomPattern replaces the fields of an existing custom pattern
// by id and rescans known files.
func (e *Engine) UpdateCustomPattern(id string, fields redactor.Pattern) error {
	var err error
	e.run(func() {
		if err = e.red.UpdateCustomPattern(id, fields); err != nil {
			return
		}
		e.syncCustomPatternsLocked()
		e.rescanSensitivityLocked()
		e.emitEvent("sensitive-settings-changed", nil)
	})
	return err
}

// DeleteCustomPattern removes a custom pattern by id and rescans known
// files.
func (e *Engine) DeleteCustomPattern(id string) {
	e.run(func() {
		e.red.DeleteCustomPattern(id)
		e.syncCustomPatternsLocked()
		e.rescanSensitivityLocked()
		e.emitEvent("sensitive-settings-changed", nil)
	})
}

// SetBuiltinPatternEnabled toggles a builtin pattern's enabled flag,
// persisting the override into the settings schema's
// sensitive_builtin_overrides map (spec §6 persisted state).
func (e *Engine) SetBuiltinPatternEnabled(id string, enabled bool) {
	e.run(func() {
		e.red.SetBuiltinEnabled(id, enabled)
		if e.cfg.SensitiveBuiltinOverrides == nil {
			e.cfg.SensitiveBuiltinOverrides = make(map[string]bool)
		}
		e.cfg.SensitiveBuiltinOverrides[id] = enabled
		if err := settings.Save(e.cfg); err != nil {
			log.Printf("engine: saving settings: %v", err)
		}
		e.rescanSensitivityLocked()
		e.emitEvent("sensitive-settings-changed", nil)
	})
}

func (e *Engine) syncCustomPatternsLocked() {
	var custom []settings.CustomPattern
	for _, p := range e.red.Patterns() {
		if p.Builtin {
			continue
		}
		custom = append(custom, settings.CustomPattern{
			ID: p.ID, Name: p.Name, Regex: p.Regex, Placeholder: p.Placeholder, Enabled: p.Enabled,
		})
	}
	e.cfg.SensitiveCustomPatterns = custom
	if err := settings.Save(e.cfg); err != nil {
		log.Printf("engine: saving settings: %v", err)
	}
}

// rescanSensitivityLocked must run inside the command loop. When
// sensitive protection is off, every mark is cleared without touching
// disk; when on, every indexed file is scanned (memoized by fingerprint,
// so an unchanged file costs one map lookup, not a re-read).
func (e *Engine) rescanSensitivityLocked() {
	if !e.cfg.SensitiveDataEnabled {
		for _, n := range e.store.All() {
			if !n.IsDir {
				e.overlay.SetSensitive(n.Path, overlay.Plain)
			}
		}
		return
	}

	for _, n := range e.store.All() {
		if n.IsDir {
			continue
		}
		fp := e.ensureFingerprintLocked(n)
		result, err := e.red.ScanFile(n.Path, fp)
		if err != nil {
			log.Printf("engine: scanning %s for sensitive content: %v", n.Path, err)
			continue
		}
		if result.Marked {
			e.overlay.SetSensitive(n.Path, overlay.Marked)
		} else {
			e.overlay.SetSensitive(n.Path, overlay.Plain)
		}
	}

	if err := e.sCache.Save(); err != nil {
		log.Printf("engine: persisting redaction cache: %v", err)
	}
}

// ensureFingerprintLocked computes and persists a Node's fingerprint on
// first need, per spec §4.2's "fingerprints are computed lazily on first
// read, not during scan".
func (e *Engine) ensureFingerprintLocked(n pathstore.Node) string {
	if n.Fingerprint != "" {
		return n.Fingerprint
	}
	n.Fingerprint = scanner.FingerprintFast(n.Size, n.MTime)
	e.store.Upsert(n)
	return n.Fingerprint
}

// GetTreeRoots returns the current RootSet's Nodes (spec §6).
func (e *Engine) GetTreeRoots() []pathstore.Node {
	return e.tree.Roots(e.roots.Roots())
}

// GetChildren returns the ordered direct children of parentPath.
func (e *Engine) GetChildren(parentPath string) []pathstore.Node {
	return e.tree.Children(pathstore.Normalize(parentPath))
}

// GetFlatView returns the ordered (path, depth) row list for the current
// RootSet, optionally filtered by query (spec §4.6).
func (e *Engine) GetFlatView(query string) []flatview.Row {
	return flatview.Build(e.store, e.overlay, e.roots.Roots(), query)
}

// GetOverlay returns a snapshot of a single path's overlay entry, for
// collaborators rendering selection/expansion/sensitivity state.
func (e *Engine) GetOverlay(path string) overlay.Entry {
	return e.overlay.Get(pathstore.Normalize(path))
}

// GetSensitivePatterns returns builtins first, then custom patterns in
// insertion order (spec §6 get_sensitive_patterns).
func (e *Engine) GetSensitivePatterns() []redactor.Pattern {
	return e.red.Patterns()
}

// GetSensitiveMarkedPaths filters paths down to those currently marked
// sensitive (spec §6).
func (e *Engine) GetSensitiveMarkedPaths(paths []string) []string {
	var out []string
	for _, p := range paths {
		norm := pathstore.Normalize(p)
		if e.overlay.Get(norm).Sensitive == overlay.Marked {
			out = append(out, norm)
		}
	}
	return out
}

// BuildPromptFromFiles runs the export pipeline over the current store
// and redactor (spec §4.8, §6 build_prompt_from_files).
func (e *Engine) BuildPromptFromFiles(req export.Request) (string, error) {
	norm := make([]string, len(req.FilePaths))
	for i, p := range req.FilePaths {
		norm[i] = pathstore.Normalize(p)
	}
	req.FilePaths = norm
	return export.Build(e.store, e.red, e.cfg.SensitiveDataEnabled, req)
}

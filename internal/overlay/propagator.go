package overlay

import "pathindex/internal/pathstore"

// SelectabilityFunc reports whether a file is eligible for selection —
// false for a sensitive file under prevent-selection policy (spec §4.7).
type SelectabilityFunc func(filePath string) bool

// Propagator applies the selection and auto-expansion propagation laws
// of spec §4.5 to a PathStore + Overlay pair. It runs to fixpoint before
// returning, per the spec's "propagation runs to fixpoint before any
// change notification is emitted" requirement.
type Propagator struct {
	store      *pathstore.Store
	overlay    *Overlay
	selectable SelectabilityFunc
}

// NewPropagator builds a Propagator. selectable may be nil, in which
// case every file is treated as selectable.
func NewPropagator(store *pathstore.Store, ov *Overlay, selectable SelectabilityFunc) *Propagator {
	if selectable == nil {
		selectable = func(string) bool { return true }
	}
	return &Propagator{store: store, overlay: ov, selectable: selectable}
}

// ToggleFile flips a file's selection and recomputes every directory
// ancestor's tristate from its descendant files (spec §4.5 first rule).
func (p *Propagator) ToggleFile(path string) {
	node, ok := p.store.Get(path)
	if !ok || node.IsDir {
		return
	}
	entry := p.overlay.Get(path)
	if entry.Selection == Checked {
		p.overlay.SetSelection(path, Unchecked)
	} else {
		if !p.selectable(path) {
			return
		}
		p.overlay.SetSelection(path, Checked)
	}
	p.recomputeAncestors(node.ParentPath)
}

// SetDirectorySelection is the user checking/unchecking a directory: it
// propagates the requested value to every descendant file, excluding
// files that are not selectable (sensitive + prevented), then
// recomputes the directory's own tristate bottom-up — which may yield
// Indeterminate or Unchecked even though Checked was requested (spec
// §4.5 second rule).
func (p *Propagator) SetDirectorySelection(dirPath string, checked bool) {
	files := p.store.DescendantFiles(dirPath)
	for _, f := range files {
		if checked {
			if !p.selectable(f.Path) {
				continue
			}
			p.overlay.SetSelection(f.Path, Checked)
		} else {
			p.overlay.SetSelection(f.Path, Unchecked)
		}
	}
	// Every subdirectory strictly between dirPath and the descendant
	// files needs its own tristate recomputed too, not just dirPath
	// itself (invariant 5 applies to each of them independently).
	for _, sub := range p.store.DescendantDirs(dirPath) {
		p.recomputeSelectionAt(sub.Path)
	}
	p.recomputeSelectionAt(dirPath)
	node, ok := p.store.Get(dirPath)
	if ok {
		p.recomputeAncestors(node.ParentPath)
	}
}

// recomputeAncestors walks up from dirPath recomputing each directory's
// tristate until the root.
func (p *Propagator) recomputeAncestors(dirPath string) {
	for dirPath != "" {
		p.recomputeSelectionAt(dirPath)
		node, ok := p.store.Get(dirPath)
		if !ok {
			break
		}
		dirPath = node.ParentPath
	}
}

// recomputeSelectionAt derives dirPath's tristate from its descendant
// files, per invariant 5: all checked -> Checked, all unchecked ->
// Unchecked, else Indeterminate. A directory with no descendant files
// is left Unchecked.
func (p *Propagator) recomputeSelectionAt(dirPath string) {
	files := p.store.DescendantFiles(dirPath)
	if len(files) == 0 {
		p.overlay.SetSelection(dirPath, Unchecked)
		return
	}

	checkedCount := 0
	for _, f := range files {
		if p.overlay.Get(f.Path).Selection == Checked {
			checkedCount++
		}
	}

	switch checkedCount {
	case 0:
		p.overlay.SetSelection(dirPath, Unchecked)
	case len(files):
		p.overlay.SetSelection(dirPath, Checked)
	default:
		p.overlay.SetSelection(dirPath, Indeterminate)
	}
}

// ExpandNewFileChain implements the scan-complete expansion law: every
// directory from root down to the file's immediate parent is expanded,
// unless explicitly collapsed.
func (p *Propagator) ExpandNewFileChain(root, filePath string) {
	node, ok := p.store.Get(filePath)
	if !ok {
		return
	}
	dir := node.ParentPath
	for dir != "" {
		p.overlay.AutoExpand(dir)
		if dir == root {
			break
		}
		parent, ok := p.store.Get(dir)
		if !ok {
			break
		}
		dir = parent.ParentPath
	}
}

// ExpandRootShift implements the root-shift preservation law (spec
// §4.5): directories previously visible remain expanded (untouched
// here — their Expanded state already persists in the overlay);
// directories newly introduced between newRoot and any previously
// visible path are auto-expanded; everything else newly introduced
// under newRoot starts collapsed (the overlay's zero value), which
// ExpandRootShift achieves simply by not touching them.
func (p *Propagator) ExpandRootShift(newRoot string, previouslyVisible []string) {
	p.overlay.AutoExpand(newRoot)
	for _, visible := range previouslyVisible {
		dir := visible
		for dir != "" && dir != newRoot {
			p.overlay.AutoExpand(dir)
			parent, ok := p.store.Get(dir)
			if !ok {
				break
			}
			dir = parent.ParentPath
		}
	}
}

// ExpandCheckedAncestors implements the checked-ancestor expansion law:
// every directory with at least one checked descendant file is
// expanded, unless explicitly collapsed. Call this after a refresh.
func (p *Propagator) ExpandCheckedAncestors(dirPaths []string) {
	for _, dir := range dirPaths {
		files := p.store.DescendantFiles(dir)
		for _, f := range files {
			if p.overlay.Get(f.Path).Selection == Checked {
				p.overlay.AutoExpand(dir)
				break
			}
		}
	}
}

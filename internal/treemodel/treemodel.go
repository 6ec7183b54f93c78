// Package treemodel is a pure, stateless projection over a
// pathstore.Store: for any known path it derives display-facing fields
// without owning any state of its own (spec §4.4).
package treemodel

import "pathindex/internal/pathstore"

// View wraps a Store to answer tree-shaped queries.
type View struct {
	store *pathstore.Store
}

// New returns a View over store.
func New(store *pathstore.Store) *View {
	return &View{store: store}
}

// Roots returns the Node for each path in roots that exists in the
// store, in the PathStore's directories-first, case-insensitive order.
func (v *View) Roots(roots []string) []pathstore.Node {
	return v.store.Children("", roots)
}

// Children returns the ordered direct children of parentPath.
func (v *View) Children(parentPath string) []pathstore.Node {
	return v.store.Children(parentPath, nil)
}

// Node returns the Node at path and whether it exists.
func (v *View) Node(path string) (pathstore.Node, bool) {
	return v.store.Get(path)
}

// IsSynthetic reports whether path was materialized by the engine as a
// common-ancestor placeholder rather than a real filesystem entry.
func (v *View) IsSynthetic(path string) bool {
	n, ok := v.store.Get(path)
	return ok && n.Synthetic
}

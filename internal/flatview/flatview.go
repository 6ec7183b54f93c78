// Package flatview produces the ordered, virtualization-friendly row
// list consumed by the renderer (spec §4.6).
package flatview

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"pathindex/internal/overlay"
	"pathindex/internal/pathstore"
)

// Row is a single (path, depth) pair. FlatView is deliberately lazy
// about everything else — the renderer joins Row.Path against PathStore
// and Overlay for display fields.
type Row struct {
	Path  string
	Depth int
}

// Build produces the ordered row list for the given roots. With an empty
// query it walks expanded directories per the overlay; with a non-empty
// query it switches to filtered mode (spec §4.6 Search filter): only
// nodes whose name contains the query, plus their ancestors, are
// emitted, and every emitted ancestor is treated as expanded regardless
// of overlay state. The overlay is never mutated by a Build call.
func Build(store *pathstore.Store, ov *overlay.Overlay, roots []string, query string) []Row {
	sortedRoots := append([]string(nil), roots...)
	sort.Slice(sortedRoots, func(i, j int) bool {
		return strings.ToLower(sortedRoots[i]) < strings.ToLower(sortedRoots[j])
	})

	if query == "" {
		var rows []Row
		for _, r := range sortedRoots {
			rows = append(rows, walkExpanded(store, ov, r, 0)...)
		}
		return rows
	}

	q := strings.ToLower(query)
	matchSet := collectMatches(store, sortedRoots, q)

	var rows []Row
	for _, r := range sortedRoots {
		rows = append(rows, walkFiltered(store, r, 0, matchSet)...)
	}
	return rows
}

func walkExpanded(store *pathstore.Store, ov *overlay.Overlay, path string, depth int) []Row {
	rows := []Row{{Path: path, Depth: depth}}

	node, ok := store.Get(path)
	if !ok || !node.IsDir {
		return rows
	}
	if ov.Get(path).Expansion != overlay.Expanded {
		return rows
	}

	for _, child := range store.Children(path, nil) {
		rows = append(rows, walkExpanded(store, ov, child.Path, depth+1)...)
	}
	return rows
}

// collectMatches returns the set of paths that must appear in filtered
// output: every node whose name contains q, plus every ancestor of such
// a node, restricted to the given roots' subtrees.
func collectMatches(store *pathstore.Store, roots []string, q string) map[string]bool {
	all := store.All()
	inScope := lo.Filter(all, func(n pathstore.Node, _ int) bool {
		return lo.SomeBy(roots, func(r string) bool {
			return pathstore.IsAncestorOrSelf(r, n.Path)
		})
	})
	matched := lo.Filter(inScope, func(n pathstore.Node, _ int) bool {
		return strings.Contains(strings.ToLower(n.Name), q)
	})

	required := make(map[string]bool, len(matched)*2)
	for _, n := range matched {
		required[n.Path] = true
		p := n.ParentPath
		for p != "" {
			required[p] = true
			parent, ok := store.Get(p)
			if !ok {
				break
			}
			p = parent.ParentPath
		}
	}
	return required
}

func walkFiltered(store *pathstore.Store, path string, depth int, required map[string]bool) []Row {
	if !required[path] {
		return nil
	}
	rows := []Row{{Path: path, Depth: depth}}

	node, ok := store.Get(path)
	if !ok || !node.IsDir {
		return rows
	}

	for _, child := range store.Children(path, nil) {
		rows = append(rows, walkFiltered(store, child.Path, depth+1, required)...)
	}
	return rows
}

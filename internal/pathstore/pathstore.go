// Package pathstore holds the content-addressed, single-writer store of
// indexed file and directory nodes that backs the path index engine.
package pathstore

import (
	"sort"
	"strings"
	"sync"
)

// Node is a file or directory discovered by a scan, keyed by its
// normalized absolute path. See spec §3.
type Node struct {
	Path        string
	ParentPath  string // filesystem parent's path, set whether or not that parent is indexed; "" only for a filesystem or drive root
	Name        string
	IsDir       bool
	Size        int64
	MTime       int64 // seconds since epoch
	Fingerprint string // "" for directories, or until computed
	ChildCount  int
	Synthetic   bool // materialized to give multiple anchors a common root
}

// Store is the single-writer, many-reader node table. Callers external
// to the command loop must not mutate a *Node in place; Upsert always
// copies.
type Store struct {
	mu    sync.RWMutex
	nodes map[string]*Node
}

// New returns an empty Store.
func New() *Store {
	return &Store{nodes: make(map[string]*Node)}
}

// Upsert inserts or overwrites a Node by path, maintaining the
// ChildCount invariant both for n's parent and for n itself. The
// caller supplies a normalized path already; Upsert does not
// re-normalize.
func (s *Store) Upsert(n Node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.nodes[n.Path]
	cp := n

	if existed {
		// Overwriting a node leaves its children in place, so it keeps
		// its current count rather than the caller's value.
		cp.ChildCount = prev.ChildCount
	} else {
		// A synthesized ancestor directory (e.g. EnsureParentChain) can
		// be inserted after children that already point at it, so a
		// freshly inserted node must count its own children rather than
		// assume the zero value.
		count := 0
		for _, other := range s.nodes {
			if other.ParentPath == n.Path {
				count++
			}
		}
		cp.ChildCount = count
	}

	s.nodes[n.Path] = &cp

	if !existed && n.ParentPath != "" {
		if parent, ok := s.nodes[n.ParentPath]; ok {
			parent.ChildCount++
		}
	}
}

// Remove deletes the Node at path. If recursive is true, every Node
// whose path is a descendant of path is removed too. Returns the set of
// removed paths.
func (s *Store) Remove(path string, recursive bool) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.removeLocked(path, recursive)

	// Recompute affected parents' child counts directly, since multiple
	// removed children may share a surviving parent.
	touched := make(map[string]bool)
	for _, p := range removed {
		parent := Parent(p)
		if parent != "" {
			touched[parent] = true
		}
	}
	for parent := range touched {
		if pn, ok := s.nodes[parent]; ok {
			count := 0
			for _, n := range s.nodes {
				if n.ParentPath == parent {
					count++
				}
			}
			pn.ChildCount = count
		}
	}

	return removed
}

func (s *Store) removeLocked(path string, recursive bool) []string {
	var removed []string
	if _, ok := s.nodes[path]; ok {
		delete(s.nodes, path)
		removed = append(removed, path)
	}
	if recursive {
		for p := range s.nodes {
			if IsAncestor(path, p) {
				delete(s.nodes, p)
				removed = append(removed, p)
			}
		}
	}
	return removed
}

// Clear removes every Node from the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[string]*Node)
}

// Get returns a copy of the Node at path, or false if absent.
func (s *Store) Get(path string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[path]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Contains reports whether path is indexed.
func (s *Store) Contains(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodes[path]
	return ok
}

// Children returns the ordered list of direct children of parentPath.
// If roots is non-nil, a nil parentPath ("") instead returns the Nodes
// named by roots (the RootSet), in the same directories-first,
// case-insensitive order. Ordering: directories before files, then
// case-insensitive lexicographic by Name, ties broken by Path.
func (s *Store) Children(parentPath string, roots []string) []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Node
	if parentPath == "" {
		for _, r := range roots {
			if n, ok := s.nodes[r]; ok {
				out = append(out, *n)
			}
		}
	} else {
		for _, n := range s.nodes {
			if n.ParentPath == parentPath {
				out = append(out, *n)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
		return a.Path < b.Path
	})

	return out
}

// ContainsDescendant reports whether descendant is a path within the
// ancestor subtree (ancestor itself does not count).
func (s *Store) ContainsDescendant(ancestor, descendant string) bool {
	return IsAncestor(ancestor, descendant)
}

// All returns a snapshot copy of every Node in the store. Used by
// components (RootSet, FlatView) that need a consistent full view
// between commits.
func (s *Store) All() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, *n)
	}
	return out
}

// Len returns the number of indexed nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// DescendantFiles returns every indexed file Node (not directories)
// that is a descendant of dirPath.
func (s *Store) DescendantFiles(dirPath string) []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Node
	for _, n := range s.nodes {
		if !n.IsDir && IsAncestor(dirPath, n.Path) {
			out = append(out, *n)
		}
	}
	return out
}

// DescendantDirs returns every indexed directory Node, excluding
// dirPath itself, that is a descendant of dirPath.
func (s *Store) DescendantDirs(dirPath string) []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Node
	for _, n := range s.nodes {
		if n.IsDir && IsAncestor(dirPath, n.Path) {
			out = append(out, *n)
		}
	}
	return out
}

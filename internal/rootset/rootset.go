// Package rootset maintains the minimal covering set of root anchor
// paths described in spec §3 and §4.3: every indexed node has exactly
// one ancestor (possibly itself) in the set, and overlapping anchors are
// coalesced under their nearest common ancestor.
package rootset

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"pathindex/internal/pathstore"
)

// Set is the coalesced root anchor collection. It is recomputed from
// scratch on every mutation (§4.3) rather than incrementally maintained;
// node counts in a desktop-scale index make this cheap and it avoids an
// entire class of incremental-maintenance bugs.
type Set struct {
	anchors []string // user-explicitly-indexed candidates, in insertion order
	roots   []string // coalesced covering set, case-insensitive lexicographic
}

// New returns an empty Set.
func New() *Set {
	return &Set{}
}

// AddAnchor records path as a user-indexed candidate. Recompute must be
// called afterward to fold it into the covering set.
func (s *Set) AddAnchor(path string) {
	if lo.Contains(s.anchors, path) {
		return
	}
	s.anchors = append(s.anchors, path)
}

// RemoveAnchor drops path from the candidate list (used by Remove-Root).
func (s *Set) RemoveAnchor(path string) {
	s.anchors = lo.Filter(s.anchors, func(a string, _ int) bool { return a != path })
}

// Anchors returns the current candidate list.
func (s *Set) Anchors() []string {
	return append([]string(nil), s.anchors...)
}

// Roots returns the current coalesced covering set, case-insensitive
// lexicographic order.
func (s *Set) Roots() []string {
	return append([]string(nil), s.roots...)
}

// RecomputeResult reports the outcome of folding the anchor list into a
// covering set: the new roots, which of them have no backing Node yet
// (and need a synthesized directory), and which previous roots were
// absorbed into a higher ancestor.
type RecomputeResult struct {
	Roots        []string
	Synthetic    []string // roots with no real Node backing them
	ShiftedUp    map[string]string // old root -> new covering root, for root-shift preservation (§4.3 step 4)
}

// Recompute rebuilds the covering set from the current anchor list,
// applying the root-coalescing rule: anchors sharing a nearest common
// ancestor are replaced by that ancestor (materialized as synthetic if
// store has no Node for it).
func (s *Set) Recompute(store *pathstore.Store) RecomputeResult {
	prevRoots := append([]string(nil), s.roots...)

	candidates := lo.Filter(s.anchors, func(a string, _ int) bool {
		return store.Contains(a)
	})

	// Drop anchors that are proper ancestors of other anchors already —
	// a deeper anchor under an already-indexed shallower one collapses
	// into the shallower one directly.
	promoted := promoteMinimalAncestors(candidates)

	// Coalesce pairs with a shared common ancestor, repeatedly, until
	// stable.
	roots := coalesce(promoted)

	synthetic := lo.Filter(roots, func(r string, _ int) bool {
		return !store.Contains(r)
	})

	sort.Slice(roots, func(i, j int) bool {
		return strings.ToLower(roots[i]) < strings.ToLower(roots[j])
	})

	s.roots = roots

	shifted := map[string]string{}
	for _, old := range prevRoots {
		if lo.Contains(roots, old) {
			continue
		}
		for _, r := range roots {
			if pathstore.IsAncestorOrSelf(r, old) {
				shifted[old] = r
				break
			}
		}
	}

	return RecomputeResult{Roots: roots, Synthetic: synthetic, ShiftedUp: shifted}
}

// promoteMinimalAncestors removes any candidate that has a proper
// ancestor already present among the candidates.
func promoteMinimalAncestors(candidates []string) []string {
	return lo.Filter(candidates, func(c string, _ int) bool {
		for _, other := range candidates {
			if other != c && pathstore.IsAncestor(other, c) {
				return false
			}
		}
		return true
	})
}

// coalesce repeatedly merges any two roots that share a common ancestor
// distinct from either, until no more merges are possible.
func coalesce(roots []string) []string {
	current := append([]string(nil), roots...)

	for {
		merged := false
		for i := 0; i < len(current) && !merged; i++ {
			for j := i + 1; j < len(current); j++ {
				a, b := current[i], current[j]
				if pathstore.IsAncestorOrSelf(a, b) || pathstore.IsAncestorOrSelf(b, a) {
					continue
				}
				ancestor := pathstore.CommonAncestor(a, b)
				if ancestor == "" {
					continue
				}
				next := make([]string, 0, len(current))
				next = append(next, ancestor)
				for k, r := range current {
					if k != i && k != j {
						next = append(next, r)
					}
				}
				current = dedupeAgainstAncestors(next)
				merged = true
				break
			}
		}
		if !merged {
			break
		}
	}

	return current
}

// dedupeAgainstAncestors drops any root that is now a descendant of
// another root in the list (can happen after a merge introduces a new
// common ancestor covering a root that wasn't part of the merge).
func dedupeAgainstAncestors(roots []string) []string {
	return lo.Filter(roots, func(r string, _ int) bool {
		for _, other := range roots {
			if other != r && pathstore.IsAncestor(other, r) {
				return false
			}
		}
		return true
	})
}

// OwningRoot returns the root in the set that is an ancestor of
// (or equal to) path, or "" if none covers it.
func (s *Set) OwningRoot(path string) string {
	for _, r := range s.roots {
		if pathstore.IsAncestorOrSelf(r, path) {
			return r
		}
	}
	return ""
}

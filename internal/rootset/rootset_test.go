package rootset

import (
	"reflect"
	"testing"

	"pathindex/internal/pathstore"
)

func TestRecomputeCoalescesSiblings(t *testing.T) {
	store := pathstore.New()
	store.Upsert(pathstore.Node{Path: "/p", IsDir: true})
	store.Upsert(pathstore.Node{Path: "/p/t1", IsDir: true, ParentPath: "/p"})
	store.Upsert(pathstore.Node{Path: "/p/t2", IsDir: true, ParentPath: "/p"})

	s := New()
	s.AddAnchor("/p/t1")
	s.AddAnchor("/p/t2")

	result := s.Recompute(store)

	if !reflect.DeepEqual(result.Roots, []string{"/p"}) {
		t.Errorf("Roots = %v, want [/p]", result.Roots)
	}
}

func TestRecomputeSynthesizesMissingAncestor(t *testing.T) {
	store := pathstore.New()
	store.Upsert(pathstore.Node{Path: "/p/t1", IsDir: true})
	store.Upsert(pathstore.Node{Path: "/p/t2", IsDir: true})
	// note: /p itself is not in the store

	s := New()
	s.AddAnchor("/p/t1")
	s.AddAnchor("/p/t2")

	result := s.Recompute(store)

	if len(result.Synthetic) != 1 || result.Synthetic[0] != "/p" {
		t.Errorf("Synthetic = %v, want [/p]", result.Synthetic)
	}
}

func TestRecomputeDisjointRootsStaySeparate(t *testing.T) {
	store := pathstore.New()
	store.Upsert(pathstore.Node{Path: "/a", IsDir: true})
	store.Upsert(pathstore.Node{Path: "/b", IsDir: true})

	s := New()
	s.AddAnchor("/a")
	s.AddAnchor("/b")

	result := s.Recompute(store)

	if !reflect.DeepEqual(result.Roots, []string{"/a", "/b"}) {
		t.Errorf("Roots = %v, want [/a /b]", result.Roots)
	}
}

func TestRecomputeNestedAnchorCollapses(t *testing.T) {
	store := pathstore.New()
	store.Upsert(pathstore.Node{Path: "/p", IsDir: true})
	store.Upsert(pathstore.Node{Path: "/p/sub", IsDir: true, ParentPath: "/p"})

	s := New()
	s.AddAnchor("/p")
	s.AddAnchor("/p/sub")

	result := s.Recompute(store)

	if !reflect.DeepEqual(result.Roots, []string{"/p"}) {
		t.Errorf("Roots = %v, want [/p] (deeper anchor absorbed by shallower)", result.Roots)
	}
}

func TestRootShift(t *testing.T) {
	store := pathstore.New()
	store.Upsert(pathstore.Node{Path: "/hierarchical/p", IsDir: true})
	store.Upsert(pathstore.Node{Path: "/hierarchical/p/t1", IsDir: true, ParentPath: "/hierarchical/p"})
	store.Upsert(pathstore.Node{Path: "/hierarchical/p/t2", IsDir: true, ParentPath: "/hierarchical/p"})

	s := New()
	s.AddAnchor("/hierarchical/p/t1")
	s.AddAnchor("/hierarchical/p/t2")
	s.Recompute(store)

	// A new, higher anchor on disk is indexed; it must absorb the
	// existing coalesced root.
	store.Upsert(pathstore.Node{Path: "/hierarchical", IsDir: true})
	s.AddAnchor("/hierarchical")

	result := s.Recompute(store)

	if !reflect.DeepEqual(result.Roots, []string{"/hierarchical"}) {
		t.Errorf("Roots = %v, want [/hierarchical]", result.Roots)
	}
	if result.ShiftedUp["/hierarchical/p"] != "/hierarchical" {
		t.Errorf("ShiftedUp[/hierarchical/p] = %q, want /hierarchical", result.ShiftedUp["/hierarchical/p"])
	}
}

func TestOwningRoot(t *testing.T) {
	s := New()
	s.roots = []string{"/p"}

	if got := s.OwningRoot("/p/t1/plan.ts"); got != "/p" {
		t.Errorf("OwningRoot = %q, want /p", got)
	}
	if got := s.OwningRoot("/other"); got != "" {
		t.Errorf("OwningRoot = %q, want empty", got)
	}
}

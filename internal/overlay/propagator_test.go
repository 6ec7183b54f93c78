package overlay

import (
	"testing"

	"pathindex/internal/pathstore"
)

func buildTristateFixture() (*pathstore.Store, *Overlay) {
	store := pathstore.New()
	store.Upsert(pathstore.Node{Path: "/p", IsDir: true})
	store.Upsert(pathstore.Node{Path: "/p/a.txt", ParentPath: "/p"})
	store.Upsert(pathstore.Node{Path: "/p/b.txt", ParentPath: "/p"})
	store.Upsert(pathstore.Node{Path: "/p/c.txt", ParentPath: "/p"})
	return store, New()
}

func TestTristatePropagation(t *testing.T) {
	store, ov := buildTristateFixture()
	p := NewPropagator(store, ov, nil)

	p.ToggleFile("/p/b.txt")
	if got := ov.Get("/p").Selection; got != Indeterminate {
		t.Fatalf("after toggling one of three files, dir = %v, want Indeterminate", got)
	}

	p.ToggleFile("/p/a.txt")
	p.ToggleFile("/p/c.txt")
	if got := ov.Get("/p").Selection; got != Checked {
		t.Fatalf("after checking all three files, dir = %v, want Checked", got)
	}

	p.SetDirectorySelection("/p", false)
	for _, f := range []string{"/p/a.txt", "/p/b.txt", "/p/c.txt"} {
		if got := ov.Get(f).Selection; got != Unchecked {
			t.Errorf("%s selection = %v, want Unchecked after unchecking directory", f, got)
		}
	}
}

func TestSetDirectorySelectionRecomputesNestedSubdirectories(t *testing.T) {
	store := pathstore.New()
	store.Upsert(pathstore.Node{Path: "/dir", IsDir: true})
	store.Upsert(pathstore.Node{Path: "/dir/c.txt", ParentPath: "/dir"})
	store.Upsert(pathstore.Node{Path: "/dir/sub1", IsDir: true, ParentPath: "/dir"})
	store.Upsert(pathstore.Node{Path: "/dir/sub1/a.txt", ParentPath: "/dir/sub1"})
	store.Upsert(pathstore.Node{Path: "/dir/sub1/b.txt", ParentPath: "/dir/sub1"})

	ov := New()
	p := NewPropagator(store, ov, nil)

	p.SetDirectorySelection("/dir", true)

	if got := ov.Get("/dir/sub1").Selection; got != Checked {
		t.Errorf("sub1 selection = %v, want Checked", got)
	}
	if got := ov.Get("/dir").Selection; got != Checked {
		t.Errorf("dir selection = %v, want Checked", got)
	}

	p.SetDirectorySelection("/dir", false)
	if got := ov.Get("/dir/sub1").Selection; got != Unchecked {
		t.Errorf("sub1 selection = %v, want Unchecked", got)
	}
}

func TestSensitivePreventionExcludedFromDirectoryCheck(t *testing.T) {
	store := pathstore.New()
	store.Upsert(pathstore.Node{Path: "/p", IsDir: true})
	store.Upsert(pathstore.Node{Path: "/p/safe.ts", ParentPath: "/p"})
	store.Upsert(pathstore.Node{Path: "/p/leak.ts", ParentPath: "/p"})

	ov := New()
	ov.SetSensitive("/p/leak.ts", Marked)

	preventedSensitive := func(path string) bool {
		return ov.Get(path).Sensitive != Marked
	}
	p := NewPropagator(store, ov, preventedSensitive)

	p.SetDirectorySelection("/p", true)

	if got := ov.Get("/p/safe.ts").Selection; got != Checked {
		t.Errorf("safe.ts selection = %v, want Checked", got)
	}
	if got := ov.Get("/p/leak.ts").Selection; got != Unchecked {
		t.Errorf("leak.ts selection = %v, want Unchecked (prevented)", got)
	}
	if got := ov.Get("/p").Selection; got != Indeterminate {
		t.Errorf("dir selection = %v, want Indeterminate (mixed due to prevention)", got)
	}
}

func TestToggleFileRejectsUnselectableFile(t *testing.T) {
	store := pathstore.New()
	store.Upsert(pathstore.Node{Path: "/p", IsDir: true})
	store.Upsert(pathstore.Node{Path: "/p/leak.ts", ParentPath: "/p"})

	ov := New()
	ov.SetSensitive("/p/leak.ts", Marked)
	p := NewPropagator(store, ov, func(path string) bool {
		return ov.Get(path).Sensitive != Marked
	})

	p.ToggleFile("/p/leak.ts")

	if got := ov.Get("/p/leak.ts").Selection; got != Unchecked {
		t.Errorf("Selection = %v, want Unchecked (file not selectable)", got)
	}
}

func TestExpandNewFileChain(t *testing.T) {
	store := pathstore.New()
	store.Upsert(pathstore.Node{Path: "/p", IsDir: true})
	store.Upsert(pathstore.Node{Path: "/p/t1", IsDir: true, ParentPath: "/p"})
	store.Upsert(pathstore.Node{Path: "/p/t1/plan.ts", ParentPath: "/p/t1"})

	ov := New()
	p := NewPropagator(store, ov, nil)

	p.ExpandNewFileChain("/p", "/p/t1/plan.ts")

	if got := ov.Get("/p").Expansion; got != Expanded {
		t.Error("root should be auto-expanded")
	}
	if got := ov.Get("/p/t1").Expansion; got != Expanded {
		t.Error("intermediate dir should be auto-expanded")
	}
}

func TestExpandNewFileChainRespectsExplicitCollapse(t *testing.T) {
	store := pathstore.New()
	store.Upsert(pathstore.Node{Path: "/p", IsDir: true})
	store.Upsert(pathstore.Node{Path: "/p/t1", IsDir: true, ParentPath: "/p"})
	store.Upsert(pathstore.Node{Path: "/p/t1/plan.ts", ParentPath: "/p/t1"})

	ov := New()
	ov.SetExpansion("/p/t1", Collapsed, true)
	p := NewPropagator(store, ov, nil)

	p.ExpandNewFileChain("/p", "/p/t1/plan.ts")

	if got := ov.Get("/p/t1").Expansion; got != Collapsed {
		t.Error("explicitly collapsed directory must stay collapsed across auto-expansion")
	}
}

func TestExpandCheckedAncestors(t *testing.T) {
	store, ov := buildTristateFixture()
	p := NewPropagator(store, ov, nil)

	p.ToggleFile("/p/a.txt")
	p.ExpandCheckedAncestors([]string{"/p"})

	if got := ov.Get("/p").Expansion; got != Expanded {
		t.Error("directory with a checked descendant should auto-expand")
	}
}

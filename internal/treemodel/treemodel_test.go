package treemodel

import (
	"testing"

	"pathindex/internal/pathstore"
)

func TestViewChildrenAndSynthetic(t *testing.T) {
	store := pathstore.New()
	store.Upsert(pathstore.Node{Path: "/p", IsDir: true, Synthetic: true})
	store.Upsert(pathstore.Node{Path: "/p/t1", IsDir: true, ParentPath: "/p", Name: "t1"})

	v := New(store)

	if !v.IsSynthetic("/p") {
		t.Error("expected /p to be synthetic")
	}
	if v.IsSynthetic("/p/t1") {
		t.Error("expected /p/t1 to not be synthetic")
	}

	children := v.Children("/p")
	if len(children) != 1 || children[0].Name != "t1" {
		t.Errorf("Children(/p) = %+v, want [t1]", children)
	}

	roots := v.Roots([]string{"/p"})
	if len(roots) != 1 || roots[0].Path != "/p" {
		t.Errorf("Roots = %+v, want [/p]", roots)
	}
}

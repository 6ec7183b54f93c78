package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pathindex/internal/export"
	"pathindex/internal/overlay"
	"pathindex/internal/pathstore"
	"pathindex/internal/redactor"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	e, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Shutdown)
	return e
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// Scenario 1: synthetic parent coalescing.
func TestSyntheticParentCoalescing(t *testing.T) {
	e := newTestEngine(t)
	tmp := t.TempDir()
	plan := filepath.Join(tmp, "p", "t1", "plan.ts")
	spec := filepath.Join(tmp, "p", "t2", "spec.ts")
	writeFile(t, plan, "plan")
	writeFile(t, spec, "spec")

	if _, err := e.Index(context.Background(), []string{plan, spec}); err != nil {
		t.Fatal(err)
	}

	roots := e.GetTreeRoots()
	wantRoot := pathstore.Normalize(filepath.Join(tmp, "p"))
	if len(roots) != 1 || roots[0].Path != wantRoot {
		t.Fatalf("roots = %+v, want single synthetic root %s", roots, wantRoot)
	}
	if !roots[0].Synthetic {
		t.Error("expected coalesced root to be synthetic")
	}

	rows := e.GetFlatView("")
	wantDepths := []int{0, 1, 2, 1, 2}
	if len(rows) != len(wantDepths) {
		t.Fatalf("rows = %+v, want %d rows", rows, len(wantDepths))
	}
	for i, d := range wantDepths {
		if rows[i].Depth != d {
			t.Errorf("rows[%d] = %+v, want depth %d", i, rows[i], d)
		}
	}
	for _, dir := range []string{wantRoot, pathstore.Normalize(filepath.Join(tmp, "p", "t1")), pathstore.Normalize(filepath.Join(tmp, "p", "t2"))} {
		if e.GetOverlay(dir).Expansion != overlay.Expanded {
			t.Errorf("%s expansion = %v, want Expanded", dir, e.GetOverlay(dir).Expansion)
		}
	}
}

// Scenario 2: root shift preserves selection and expansion state, and a
// sibling newly discovered under the shifted-to root starts collapsed.
func TestRootShiftPreservesState(t *testing.T) {
	e := newTestEngine(t)
	tmp := t.TempDir()
	plan := filepath.Join(tmp, "hierarchical", "p", "t1", "plan.ts")
	spec := filepath.Join(tmp, "hierarchical", "p", "t2", "spec.ts")
	writeFile(t, plan, "plan")
	writeFile(t, spec, "spec")

	if _, err := e.Index(context.Background(), []string{plan, spec}); err != nil {
		t.Fatal(err)
	}

	planNorm := pathstore.Normalize(plan)
	e.ToggleSelection(planNorm)
	if e.GetOverlay(planNorm).Selection != overlay.Checked {
		t.Fatal("expected plan.ts to be checked before the root shift")
	}

	oldRoot := pathstore.Normalize(filepath.Join(tmp, "hierarchical", "p"))
	t1 := pathstore.Normalize(filepath.Join(tmp, "hierarchical", "p", "t1"))

	// Introduce a sibling under the higher ancestor, then index that
	// ancestor directly: RootSet admits "/hierarchical" as the new root.
	other := filepath.Join(tmp, "hierarchical", "other", "extra.txt")
	writeFile(t, other, "extra")

	if _, err := e.Index(context.Background(), []string{filepath.Join(tmp, "hierarchical")}); err != nil {
		t.Fatal(err)
	}

	roots := e.GetTreeRoots()
	wantRoot := pathstore.Normalize(filepath.Join(tmp, "hierarchical"))
	if len(roots) != 1 || roots[0].Path != wantRoot {
		t.Fatalf("roots = %+v, want single root %s", roots, wantRoot)
	}

	if e.GetOverlay(planNorm).Selection != overlay.Checked {
		t.Error("plan.ts must remain checked across the root shift")
	}
	if e.GetOverlay(oldRoot).Expansion != overlay.Expanded {
		t.Error("old root must remain expanded across the root shift")
	}
	if e.GetOverlay(t1).Expansion != overlay.Expanded {
		t.Error("previously visible t1 must remain expanded across the root shift")
	}
	if e.GetOverlay(wantRoot).Expansion != overlay.Expanded {
		t.Error("newly admitted root must be auto-expanded")
	}

	sibling := pathstore.Normalize(filepath.Join(tmp, "hierarchical", "other"))
	if e.GetOverlay(sibling).Expansion != overlay.Collapsed {
		t.Error("newly discovered sibling directory must start collapsed")
	}
}

// Scenario 3: tristate propagation.
func TestTristatePropagationEndToEnd(t *testing.T) {
	e := newTestEngine(t)
	tmp := t.TempDir()
	a := filepath.Join(tmp, "dir", "a.txt")
	b := filepath.Join(tmp, "dir", "b.txt")
	c := filepath.Join(tmp, "dir", "c.txt")
	writeFile(t, a, "a")
	writeFile(t, b, "b")
	writeFile(t, c, "c")

	if _, err := e.Index(context.Background(), []string{filepath.Join(tmp, "dir")}); err != nil {
		t.Fatal(err)
	}

	dir := pathstore.Normalize(filepath.Join(tmp, "dir"))
	e.ToggleSelection(pathstore.Normalize(b))
	if got := e.GetOverlay(dir).Selection; got != overlay.Indeterminate {
		t.Fatalf("dir selection after toggling b = %v, want Indeterminate", got)
	}

	e.ToggleSelection(pathstore.Normalize(a))
	e.ToggleSelection(pathstore.Normalize(c))
	if got := e.GetOverlay(dir).Selection; got != overlay.Checked {
		t.Fatalf("dir selection after toggling all = %v, want Checked", got)
	}

	e.ToggleSelection(dir)
	for _, f := range []string{a, b, c} {
		if got := e.GetOverlay(pathstore.Normalize(f)).Selection; got != overlay.Unchecked {
			t.Errorf("%s selection = %v, want Unchecked after unchecking directory", f, got)
		}
	}
}

// Scenario 4: sensitive prevention and redacted export.
func TestSensitivePreventionEndToEnd(t *testing.T) {
	e := newTestEngine(t)
	tmp := t.TempDir()
	safe := filepath.Join(tmp, "dir", "safe.ts")
	leak := filepath.Join(tmp, "dir", "leak.ts")
	writeFile(t, safe, "export const x = 1;")
	writeFile(t, leak, "const token = CUSTOM_ABC;")

	e.SetSensitiveDataEnabled(true)
	e.SetPreventSelection(true)
	if err := e.AddCustomPattern(redactor.Pattern{
		ID: "p1", Name: "custom", Regex: `CUSTOM_[A-Z0-9]+`, Placeholder: "[REDACTED]", Enabled: true,
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := e.Index(context.Background(), []string{filepath.Join(tmp, "dir")}); err != nil {
		t.Fatal(err)
	}

	leakNorm := pathstore.Normalize(leak)
	safeNorm := pathstore.Normalize(safe)
	if e.GetOverlay(leakNorm).Sensitive != overlay.Marked {
		t.Fatal("expected leak.ts to be marked sensitive")
	}

	dir := pathstore.Normalize(filepath.Join(tmp, "dir"))
	e.ToggleSelection(dir)
	if e.GetOverlay(safeNorm).Selection != overlay.Checked {
		t.Error("expected safe.ts to be checked")
	}
	if e.GetOverlay(leakNorm).Selection != overlay.Unchecked {
		t.Error("expected leak.ts to remain unchecked (prevented)")
	}

	prompt, err := e.BuildPromptFromFiles(export.Request{
		TemplateID: "default",
		FilePaths:  []string{safe, leak},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !contains(prompt, "export const x = 1;") {
		t.Error("expected safe.ts content verbatim in export")
	}
	if contains(prompt, "CUSTOM_ABC") {
		t.Error("expected leak.ts content to be redacted in export")
	}
	if !contains(prompt, "[REDACTED]") {
		t.Error("expected redaction placeholder in export")
	}
}

// Scenario 6: export empty-request handling.
func TestExportEmptyRequestEndToEnd(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.BuildPromptFromFiles(export.Request{TemplateID: "default"})
	if err != export.ErrEmptyRequest {
		t.Fatalf("err = %v, want ErrEmptyRequest", err)
	}

	got, err := e.BuildPromptFromFiles(export.Request{TemplateID: "default", CustomInstructions: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Errorf("BuildPromptFromFiles() = %q, want %q", got, "hello")
	}
}

func TestClearIndexRetainsOverlayForOneCycle(t *testing.T) {
	e := newTestEngine(t)
	tmp := t.TempDir()
	f := filepath.Join(tmp, "dir", "a.txt")
	writeFile(t, f, "a")

	if _, err := e.Index(context.Background(), []string{filepath.Join(tmp, "dir")}); err != nil {
		t.Fatal(err)
	}
	e.ToggleSelection(pathstore.Normalize(f))

	e.ClearIndex()
	if len(e.GetTreeRoots()) != 0 {
		t.Fatal("expected empty RootSet after ClearIndex")
	}

	// Re-index the same file before a second cycle passes: selection
	// should survive (spec §3 lifecycle, §8 "preserves overlay state").
	if _, err := e.Index(context.Background(), []string{filepath.Join(tmp, "dir")}); err != nil {
		t.Fatal(err)
	}
	if e.GetOverlay(pathstore.Normalize(f)).Selection != overlay.Checked {
		t.Error("expected selection to survive a re-index within one refresh cycle")
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

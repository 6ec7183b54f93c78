package main

import (
	"context"

	"pathindex/internal/engine"
	"pathindex/internal/export"
	"pathindex/internal/flatview"
	"pathindex/internal/overlay"
	"pathindex/internal/pathstore"
	"pathindex/internal/redactor"
	"pathindex/internal/scanner"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// App binds Engine's command and query surface to the Wails frontend
// bridge. It holds no state of its own beyond the Engine and the Wails
// context needed to emit events.
type App struct {
	ctx context.Context
	eng *engine.Engine
}

// NewApp creates the App without an Engine; startup builds the Engine
// once the Wails context is available for its emitter.
func NewApp() *App {
	return &App{}
}

// startup is called when the Wails runtime is ready; the Engine is
// constructed here so its EventEmitter can reach the bound context.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	eng, err := engine.New(&wailsEmitter{ctx: ctx})
	if err != nil {
		runtime.LogErrorf(ctx, "engine startup: %v", err)
		return
	}
	a.eng = eng
}

// shutdown persists the redaction cache and stops the command loop.
func (a *App) shutdown(ctx context.Context) {
	if a.eng != nil {
		a.eng.Shutdown()
	}
}

// wailsEmitter adapts engine.EventEmitter to runtime.EventsEmit.
type wailsEmitter struct {
	ctx context.Context
}

func (w *wailsEmitter) Emit(event string, data interface{}) {
	runtime.EventsEmit(w.ctx, event, data)
}

// Index ingests drag-dropped paths into the engine (spec §6 index).
func (a *App) Index(paths []string) ([]scanner.WalkResult, error) {
	return a.eng.Index(a.ctx, paths)
}

// ClearIndex empties PathStore and RootSet (spec §6 clear_index).
func (a *App) ClearIndex() {
	a.eng.ClearIndex()
}

// ClearContext resets every selection to unchecked (spec §6 clear_context).
func (a *App) ClearContext() {
	a.eng.ClearContext()
}

// SetExpansion explicitly expands or collapses a directory.
func (a *App) SetExpansion(path string, expanded bool) {
	a.eng.SetExpansion(path, expanded)
}

// ToggleSelection flips a file's selection or a directory's tristate.
func (a *App) ToggleSelection(path string) {
	a.eng.ToggleSelection(path)
}

// GetTreeRoots returns the current RootSet's Nodes.
func (a *App) GetTreeRoots() []pathstore.Node {
	return a.eng.GetTreeRoots()
}

// GetChildren returns the ordered direct children of a directory.
func (a *App) GetChildren(parentPath string) []pathstore.Node {
	return a.eng.GetChildren(parentPath)
}

// GetFlatView returns the ordered, optionally search-filtered row list.
func (a *App) GetFlatView(query string) []flatview.Row {
	return a.eng.GetFlatView(query)
}

// GetOverlay returns a single path's selection/expansion/sensitive state.
func (a *App) GetOverlay(path string) overlay.Entry {
	return a.eng.GetOverlay(path)
}

// SetSensitiveDataEnabled toggles the master sensitive-protection switch.
func (a *App) SetSensitiveDataEnabled(enabled bool) {
	a.eng.SetSensitiveDataEnabled(enabled)
}

// SetPreventSelection toggles whether sensitive files may be selected.
func (a *App) SetPreventSelection(enabled bool) {
	a.eng.SetPreventSelection(enabled)
}

// AddCustomPattern registers a user-defined redaction pattern.
func (a *App) AddCustomPattern(p redactor.Pattern) error {
	return a.eng.AddCustomPattern(p)
}

// UpdateCustomPattern replaces an existing custom pattern's fields.
func (a *App) UpdateCustomPattern(id string, fields redactor.Pattern) error {
	return a.eng.UpdateCustomPattern(id, fields)
}

// DeleteCustomPattern removes a custom pattern by id.
func (a *App) DeleteCustomPattern(id string) {
	a.eng.DeleteCustomPattern(id)
}

// SetBuiltinPatternEnabled toggles a builtin pattern's enabled flag.
func (a *App) SetBuiltinPatternEnabled(id string, enabled bool) {
	a.eng.SetBuiltinPatternEnabled(id, enabled)
}

// GetSensitivePatterns returns builtins first, then custom patterns.
func (a *App) GetSensitivePatterns() []redactor.Pattern {
	return a.eng.GetSensitivePatterns()
}

// GetSensitiveMarkedPaths filters paths down to those marked sensitive.
func (a *App) GetSensitiveMarkedPaths(paths []string) []string {
	return a.eng.GetSensitiveMarkedPaths(paths)
}

// BuildPromptFromFiles runs the export pipeline (spec §4.8).
func (a *App) BuildPromptFromFiles(req export.Request) (string, error) {
	return a.eng.BuildPromptFromFiles(req)
}

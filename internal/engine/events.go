package engine

// EventEmitter forwards engine events to a collaborator — in the desktop
// shell this is wails' runtime.EventsEmit, in cmd/corectl it can be a
// no-op or a stdout logger (spec §6 event surface).
type EventEmitter interface {
	Emit(event string, data interface{})
}

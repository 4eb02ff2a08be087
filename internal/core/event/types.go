package event

// Key identifies a keyboard key by its conventional name ("W", "F2", "Escape").
type Key string

type KeyPressed struct {
	Key   Key
	Frame uint64
}

type KeyReleased struct {
	Key   Key
	Frame uint64
}

// QuitRequested is emitted when the process is asked to stop, e.g. by an OS
// signal.
type QuitRequested struct {
	Reason string
}

type HUDToggled struct {
	Visible bool
}

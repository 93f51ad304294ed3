package tui

import "github.com/Iron-Ham/drawbridge/internal/event"

// eventMsg carries one bus event into the program.
type eventMsg struct {
	event event.Event
}

package trace

import (
	"sync"

	"github.com/Iron-Ham/drawbridge/internal/event"
)

// Recorder stores every event published on a bus, in publication order.
type Recorder struct {
	mu     sync.Mutex
	events []event.Event
	bus    *event.Bus
	subID  string
}

// NewRecorder subscribes a new Recorder to all events on bus.
func NewRecorder(bus *event.Bus) *Recorder {
	r := &Recorder{bus: bus}
	r.subID = bus.SubscribeAll(r.record)
	return r
}

func (r *Recorder) record(e event.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Close stops recording. Recorded events stay available.
func (r *Recorder) Close() {
	r.bus.Unsubscribe(r.subID)
}

package sim

import (
	"time"

	"github.com/Iron-Ham/drawbridge/internal/bridge"
	"github.com/Iron-Ham/drawbridge/internal/errors"
)

// ActorResult is the outcome of a single car or ship.
type ActorResult struct {
	Species bridge.Species
	ID      int
	Arrived time.Time
	Entered time.Time // Zero if the actor never got the crossing
	Left    time.Time
	Err     error
}

// Crossed reports whether the actor got across.
func (r ActorResult) Crossed() bool {
	return !r.Left.IsZero()
}

// Waited is the time from arrival until the actor took the crossing.
func (r ActorResult) Waited() time.Duration {
	if r.Entered.IsZero() {
		return 0
	}
	return r.Entered.Sub(r.Arrived)
}

// Report summarizes a simulation run.
type Report struct {
	Started  time.Time
	Finished time.Time
	Actors   []ActorResult // In spawn order
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Crossed counts actors of the given species that got across.
func (r *Report) Crossed(species bridge.Species) int {
	n := 0
	for _, a := range r.Actors {
		if a.Species == species && a.Crossed() {
			n++
		}
	}
	return n
}

// Withdrawn counts actors that gave up waiting because the run was
// cancelled.
func (r *Report) Withdrawn() int {
	n := 0
	for _, a := range r.Actors {
		if a.Err != nil && errors.IsCanceled(a.Err) {
			n++
		}
	}
	return n
}

// Failures returns actors that ended with an error other than cancellation.
func (r *Report) Failures() []ActorResult {
	var out []ActorResult
	for _, a := range r.Actors {
		if a.Err != nil && !errors.IsCanceled(a.Err) {
			out = append(out, a)
		}
	}
	return out
}

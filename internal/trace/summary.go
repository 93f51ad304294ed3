package trace

import (
	"time"

	"github.com/Iron-Ham/drawbridge/internal/event"
)

// SpeciesSummary aggregates one species over a run.
type SpeciesSummary struct {
	Species   string
	Arrived   int
	Crossed   int
	Withdrawn int
	TotalWait time.Duration
	MaxWait   time.Duration
}

// MeanWait is the average time from arrival to entering the crossing.
func (s SpeciesSummary) MeanWait() time.Duration {
	if s.Crossed == 0 {
		return 0
	}
	return s.TotalWait / time.Duration(s.Crossed)
}

// Summary aggregates a whole run.
type Summary struct {
	Cars     SpeciesSummary
	Ships    SpeciesSummary
	Raises   int
	Lowers   int
	Duration time.Duration // First to last recorded event
}

// Summarize computes per-species statistics from a trace.
func Summarize(events []event.Event) Summary {
	s := Summary{
		Cars:  SpeciesSummary{Species: speciesCar},
		Ships: SpeciesSummary{Species: speciesShip},
	}
	pick := func(species string) *SpeciesSummary {
		if species == speciesShip {
			return &s.Ships
		}
		return &s.Cars
	}

	var first, last time.Time
	for _, e := range events {
		ts := e.Timestamp()
		if first.IsZero() || ts.Before(first) {
			first = ts
		}
		if ts.After(last) {
			last = ts
		}

		switch ev := e.(type) {
		case *event.ActorArrivedEvent:
			pick(ev.Species).Arrived++
		case *event.ActorWithdrawnEvent:
			pick(ev.Species).Withdrawn++
		case *event.CrossingEnteredEvent:
			sp := pick(ev.Species)
			sp.Crossed++
			sp.TotalWait += ev.Waited
			if ev.Waited > sp.MaxWait {
				sp.MaxWait = ev.Waited
			}
		case *event.BridgeRaisedEvent:
			s.Raises++
		case *event.BridgeLoweredEvent:
			s.Lowers++
		}
	}
	if !first.IsZero() {
		s.Duration = last.Sub(first)
	}
	return s
}

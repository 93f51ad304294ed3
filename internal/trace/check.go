package trace

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/Iron-Ham/drawbridge/internal/errors"
	"github.com/Iron-Ham/drawbridge/internal/event"
)

// Rules reported in a Violation.
const (
	RuleMutualExclusion = "mutual exclusion"
	RuleOrientation     = "orientation"
	RuleRaiseWhenClear  = "raise only when clear"
	RuleLowerWhenEmpty  = "lower only when drained"
	RuleFIFO            = "fifo admission"
	RuleBalance         = "balance"
)

const (
	speciesCar  = "car"
	speciesShip = "ship"
)

// Violation is one broken rule at one point of a trace.
type Violation struct {
	Seq     uint64
	Rule    string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("#%d %s: %s", v.Seq, v.Rule, v.Message)
}

// Violations is the error returned by Check. It matches
// errors.ErrInvariantViolated.
type Violations []Violation

func (v Violations) Error() string {
	if len(v) == 1 {
		return fmt.Sprintf("%v: %s", errors.ErrInvariantViolated, v[0])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%v: %d violations:\n", errors.ErrInvariantViolated, len(v))
	for i, viol := range v {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, viol)
	}
	return sb.String()
}

// Is lets errors.Is match ErrInvariantViolated.
func (v Violations) Is(target error) bool {
	return target == errors.ErrInvariantViolated
}

// Rules returns the distinct rules broken, sorted.
func (v Violations) Rules() []string {
	seen := make(map[string]bool)
	var out []string
	for _, viol := range v {
		if !seen[viol.Rule] {
			seen[viol.Rule] = true
			out = append(out, viol.Rule)
		}
	}
	sort.Strings(out)
	return out
}

type actor struct {
	species string
	id      int
}

// replay is the bridge state rebuilt from events.
type replay struct {
	raised   bool
	occupant *actor
	queues   map[string][]int
	out      Violations
}

func (r *replay) fail(seq uint64, rule, format string, args ...any) {
	r.out = append(r.out, Violation{Seq: seq, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

func (r *replay) removeFromQueue(species string, id int) bool {
	q := r.queues[species]
	i := slices.Index(q, id)
	if i < 0 {
		return false
	}
	r.queues[species] = slices.Delete(q, i, i+1)
	return true
}

// Check replays events in sequence order and returns nil if every rule held,
// or Violations listing each breach. Events not about the bridge are ignored.
// Actors still waiting at the end of the trace are not an error.
func Check(events []event.Event) error {
	ordered := append([]event.Event(nil), events...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq() < ordered[j].Seq() })

	r := &replay{queues: map[string][]int{speciesCar: nil, speciesShip: nil}}
	for _, e := range ordered {
		r.apply(e)
	}
	if r.occupant != nil {
		r.fail(0, RuleBalance, "%s %d never left the crossing", r.occupant.species, r.occupant.id)
	}

	if len(r.out) == 0 {
		return nil
	}
	return r.out
}

func (r *replay) apply(e event.Event) {
	seq := e.Seq()

	switch ev := e.(type) {
	case *event.ActorArrivedEvent:
		if slices.Contains(r.queues[ev.Species], ev.ActorID) {
			r.fail(seq, RuleBalance, "%s %d arrived twice", ev.Species, ev.ActorID)
			return
		}
		r.queues[ev.Species] = append(r.queues[ev.Species], ev.ActorID)

	case *event.ActorWithdrawnEvent:
		if r.occupant != nil && *r.occupant == (actor{ev.Species, ev.ActorID}) {
			r.fail(seq, RuleBalance, "%s %d withdrew while on the crossing", ev.Species, ev.ActorID)
		}
		if !r.removeFromQueue(ev.Species, ev.ActorID) {
			r.fail(seq, RuleBalance, "%s %d withdrew without arriving", ev.Species, ev.ActorID)
		}

	case *event.CrossingEnteredEvent:
		if r.occupant != nil {
			r.fail(seq, RuleMutualExclusion, "%s %d entered while %s %d was on the crossing",
				ev.Species, ev.ActorID, r.occupant.species, r.occupant.id)
		}
		switch {
		case ev.Species == speciesCar && r.raised:
			r.fail(seq, RuleOrientation, "car %d entered while the bridge was raised", ev.ActorID)
		case ev.Species == speciesShip && !r.raised:
			r.fail(seq, RuleOrientation, "ship %d entered while the bridge was lowered", ev.ActorID)
		}
		q := r.queues[ev.Species]
		switch {
		case !slices.Contains(q, ev.ActorID):
			r.fail(seq, RuleBalance, "%s %d entered without arriving", ev.Species, ev.ActorID)
		case q[0] != ev.ActorID:
			r.fail(seq, RuleFIFO, "%s %d entered ahead of %s %d", ev.Species, ev.ActorID, ev.Species, q[0])
		}
		r.occupant = &actor{species: ev.Species, id: ev.ActorID}

	case *event.CrossingLeftEvent:
		if r.occupant == nil || *r.occupant != (actor{ev.Species, ev.ActorID}) {
			r.fail(seq, RuleBalance, "%s %d left without holding the crossing", ev.Species, ev.ActorID)
		} else {
			r.occupant = nil
		}
		r.removeFromQueue(ev.Species, ev.ActorID)

	case *event.BridgeRaisedEvent:
		if r.raised {
			r.fail(seq, RuleBalance, "bridge raised twice")
		}
		if r.occupant != nil {
			r.fail(seq, RuleRaiseWhenClear, "bridge raised with %s %d on the crossing",
				r.occupant.species, r.occupant.id)
		}
		r.raised = true

	case *event.BridgeLoweredEvent:
		if !r.raised {
			r.fail(seq, RuleBalance, "bridge lowered twice")
		}
		if n := len(r.queues[speciesShip]); n > 0 {
			r.fail(seq, RuleLowerWhenEmpty, "bridge lowered with %d ships queued", n)
		}
		r.raised = false
	}
}

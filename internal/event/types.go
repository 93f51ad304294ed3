package event

import "time"

// Event kinds.
const (
	KindActorArrived       = "actor.arrived"
	KindActorWithdrawn     = "actor.withdrawn"
	KindCrossingEntered    = "crossing.entered"
	KindCrossingLeft       = "crossing.left"
	KindBridgeRaised       = "bridge.raised"
	KindBridgeLowered      = "bridge.lowered"
	KindSimulationStarted  = "simulation.started"
	KindSimulationFinished = "simulation.finished"
)

// Event is the interface that all events implement.
// Events are published as pointers so the bus can stamp the sequence number.
type Event interface {
	// Kind returns the "category.action" identifier of the event.
	Kind() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time

	// Seq returns the bus-wide sequence number, starting at 1.
	// Zero means the event has not been published yet.
	Seq() uint64

	stamp(seq uint64)
}

// baseEvent provides common fields for all events.
type baseEvent struct {
	kind      string
	timestamp time.Time
	seq       uint64
}

func (e *baseEvent) Kind() string         { return e.kind }
func (e *baseEvent) Timestamp() time.Time { return e.timestamp }
func (e *baseEvent) Seq() uint64          { return e.seq }
func (e *baseEvent) stamp(seq uint64)     { e.seq = seq }

func newBaseEvent(kind string) baseEvent {
	return baseEvent{kind: kind, timestamp: time.Now()}
}

// -----------------------------------------------------------------------------
// Actor Events
// -----------------------------------------------------------------------------

// ActorArrivedEvent is emitted when an actor joins its species queue.
type ActorArrivedEvent struct {
	baseEvent
	Species string
	ActorID int
	Waiting int // Queue length of the species after enqueueing
}

// NewActorArrivedEvent creates an ActorArrivedEvent.
func NewActorArrivedEvent(species string, id, waiting int) *ActorArrivedEvent {
	return &ActorArrivedEvent{
		baseEvent: newBaseEvent(KindActorArrived),
		Species:   species,
		ActorID:   id,
		Waiting:   waiting,
	}
}

// ActorWithdrawnEvent is emitted when a waiting actor gives up, for
// example because its context was cancelled.
type ActorWithdrawnEvent struct {
	baseEvent
	Species string
	ActorID int
	Reason  string
}

// NewActorWithdrawnEvent creates an ActorWithdrawnEvent.
func NewActorWithdrawnEvent(species string, id int, reason string) *ActorWithdrawnEvent {
	return &ActorWithdrawnEvent{
		baseEvent: newBaseEvent(KindActorWithdrawn),
		Species:   species,
		ActorID:   id,
		Reason:    reason,
	}
}

// -----------------------------------------------------------------------------
// Crossing Events
// -----------------------------------------------------------------------------

// CrossingEnteredEvent is emitted when an actor takes the crossing.
type CrossingEnteredEvent struct {
	baseEvent
	Species string
	ActorID int
	Waited  time.Duration // Time between arrival and entry
}

// NewCrossingEnteredEvent creates a CrossingEnteredEvent.
func NewCrossingEnteredEvent(species string, id int, waited time.Duration) *CrossingEnteredEvent {
	return &CrossingEnteredEvent{
		baseEvent: newBaseEvent(KindCrossingEntered),
		Species:   species,
		ActorID:   id,
		Waited:    waited,
	}
}

// CrossingLeftEvent is emitted when an actor releases the crossing.
type CrossingLeftEvent struct {
	baseEvent
	Species string
	ActorID int
	Crossed time.Duration // Time spent holding the crossing
	Waiting int           // Queue length of the species after leaving
}

// NewCrossingLeftEvent creates a CrossingLeftEvent.
func NewCrossingLeftEvent(species string, id int, crossed time.Duration, waiting int) *CrossingLeftEvent {
	return &CrossingLeftEvent{
		baseEvent: newBaseEvent(KindCrossingLeft),
		Species:   species,
		ActorID:   id,
		Crossed:   crossed,
		Waiting:   waiting,
	}
}

// -----------------------------------------------------------------------------
// Bridge Events
// -----------------------------------------------------------------------------

// BridgeRaisedEvent is emitted when a ship raises the bridge.
type BridgeRaisedEvent struct {
	baseEvent
	ActorID      int // Ship that performed the raise
	WaitingShips int
	WaitingCars  int
}

// NewBridgeRaisedEvent creates a BridgeRaisedEvent.
func NewBridgeRaisedEvent(shipID, waitingShips, waitingCars int) *BridgeRaisedEvent {
	return &BridgeRaisedEvent{
		baseEvent:    newBaseEvent(KindBridgeRaised),
		ActorID:      shipID,
		WaitingShips: waitingShips,
		WaitingCars:  waitingCars,
	}
}

// BridgeLoweredEvent is emitted when the ship queue drains and the bridge
// comes back down. ActorID is the last ship to leave, or zero when the
// lower was caused by a withdrawal.
type BridgeLoweredEvent struct {
	baseEvent
	ActorID     int
	WaitingCars int
}

// NewBridgeLoweredEvent creates a BridgeLoweredEvent.
func NewBridgeLoweredEvent(shipID, waitingCars int) *BridgeLoweredEvent {
	return &BridgeLoweredEvent{
		baseEvent:   newBaseEvent(KindBridgeLowered),
		ActorID:     shipID,
		WaitingCars: waitingCars,
	}
}

// -----------------------------------------------------------------------------
// Simulation Events
// -----------------------------------------------------------------------------

// SimulationStartedEvent is emitted before the first actor is spawned.
type SimulationStartedEvent struct {
	baseEvent
	Cars      int
	Ships     int
	CritShips int
}

// NewSimulationStartedEvent creates a SimulationStartedEvent.
func NewSimulationStartedEvent(cars, ships, critShips int) *SimulationStartedEvent {
	return &SimulationStartedEvent{
		baseEvent: newBaseEvent(KindSimulationStarted),
		Cars:      cars,
		Ships:     ships,
		CritShips: critShips,
	}
}

// SimulationFinishedEvent is emitted after every actor has returned.
type SimulationFinishedEvent struct {
	baseEvent
	Duration time.Duration
	Err      string // Empty on success
}

// NewSimulationFinishedEvent creates a SimulationFinishedEvent.
func NewSimulationFinishedEvent(duration time.Duration, err error) *SimulationFinishedEvent {
	e := &SimulationFinishedEvent{
		baseEvent: newBaseEvent(KindSimulationFinished),
		Duration:  duration,
	}
	if err != nil {
		e.Err = err.Error()
	}
	return e
}

package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Iron-Ham/drawbridge/internal/errors"
	"github.com/Iron-Ham/drawbridge/internal/event"
	"github.com/Iron-Ham/drawbridge/internal/logging"
)

const (
	opRequest = "request"
	opRelease = "release"
)

// crossing records who holds the deck and since when.
type crossing struct {
	species Species
	id      int
	since   time.Time
}

// Monitor guards the drawbridge. The zero value is not usable; call New.
type Monitor struct {
	mu         sync.Mutex
	deckFree   *sync.Cond // the crossing was released or a queue front changed
	bridgeDown *sync.Cond // the bridge was lowered or a pending raise went away
	bridgeUp   *sync.Cond // the bridge was raised or the threshold dropped

	raised   bool
	occupant *crossing
	cars     fifo[int]
	ships    fifo[int]
	arrivals map[Occupant]time.Time

	critShips int
	draining  bool

	raises       int
	lowers       int
	carsCrossed  int
	shipsCrossed int

	logger *logging.Logger
	bus    *event.Bus
}

// New creates a Monitor with the bridge lowered, the crossing free and both
// queues empty.
func New(opts ...Option) *Monitor {
	cfg := &config{
		critShips: DefaultCritShips,
		logger:    logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.critShips < 1 {
		cfg.critShips = 1
	}
	if cfg.logger == nil {
		cfg.logger = logging.NopLogger()
	}

	m := &Monitor{
		arrivals:  make(map[Occupant]time.Time),
		critShips: cfg.critShips,
		logger:    cfg.logger.WithComponent("bridge"),
		bus:       cfg.bus,
	}
	m.deckFree = sync.NewCond(&m.mu)
	m.bridgeDown = sync.NewCond(&m.mu)
	m.bridgeUp = sync.NewCond(&m.mu)
	return m
}

// Request dispatches to RequestCarCrossing or RequestShipCrossing.
func (m *Monitor) Request(ctx context.Context, species Species, id int) error {
	switch species {
	case Car:
		return m.RequestCarCrossing(ctx, id)
	case Ship:
		return m.RequestShipCrossing(ctx, id)
	default:
		return errors.NewCrossingError(species.String(), id, opRequest, errors.ErrUnknownSpecies)
	}
}

// Release dispatches to ReleaseCarCrossing or ReleaseShipCrossing.
func (m *Monitor) Release(species Species, id int) error {
	switch species {
	case Car:
		return m.ReleaseCarCrossing(id)
	case Ship:
		return m.ReleaseShipCrossing(id)
	default:
		return errors.NewCrossingError(species.String(), id, opRelease, errors.ErrUnknownSpecies)
	}
}

// RequestCarCrossing queues car id and blocks until it holds the crossing
// with the bridge lowered. The car waits while the bridge is raised or a
// raise is pending, while the deck is occupied, and while another car is
// ahead of it in the queue.
//
// It returns nil once the crossing is held. If ctx is cancelled first the car
// leaves the queue and the context error is returned.
func (m *Monitor) RequestCarCrossing(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.arrive(Car, id)
	stop := m.wakeOnCancel(ctx)
	defer stop()

	for {
		if err := ctx.Err(); err != nil {
			m.withdraw(Car, id, err)
			return errors.NewCrossingError(Car.String(), id, opRequest, err)
		}

		switch {
		case m.raised || m.raisePending():
			m.bridgeDown.Wait()
		case m.occupant != nil || !m.cars.isFront(id):
			m.deckFree.Wait()
		default:
			m.enter(Car, id)
			return nil
		}
	}
}

// ReleaseCarCrossing ends car id's crossing and wakes every waiter on the
// deck so the next eligible car or ship can go.
func (m *Monitor) ReleaseCarCrossing(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkOccupant(Car, id); err != nil {
		return err
	}
	m.leave(Car, &m.cars)
	m.deckFree.Broadcast()
	return nil
}

// RequestShipCrossing queues ship id and blocks until it holds the crossing
// with the bridge raised.
//
// While the bridge is lowered the ship waits for the ship queue to reach the
// threshold. The first ship to see the threshold met with a clear deck raises
// the bridge and wakes the others. Once raised, ships pass one at a time in
// queue order.
func (m *Monitor) RequestShipCrossing(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.arrive(Ship, id)
	stop := m.wakeOnCancel(ctx)
	defer stop()

	for {
		if err := ctx.Err(); err != nil {
			m.withdraw(Ship, id, err)
			return errors.NewCrossingError(Ship.String(), id, opRequest, err)
		}

		switch {
		case !m.raised && m.ships.len() < m.threshold():
			m.bridgeUp.Wait()
		case !m.raised && m.occupant != nil:
			// Never raise with a car on the deck.
			m.deckFree.Wait()
		case !m.raised:
			m.raise(id)
		case m.occupant != nil || !m.ships.isFront(id):
			m.deckFree.Wait()
		default:
			m.enter(Ship, id)
			return nil
		}
	}
}

// ReleaseShipCrossing ends ship id's crossing. If no ship is left in the
// queue the bridge is lowered and waiting cars are woken. Waiters on the
// deck are always woken.
func (m *Monitor) ReleaseShipCrossing(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkOccupant(Ship, id); err != nil {
		return err
	}
	m.leave(Ship, &m.ships)
	if m.ships.len() == 0 {
		m.lower(id)
	}
	m.deckFree.Broadcast()
	return nil
}

// Drain declares that no further ships will arrive to complete a batch.
// From then on a single waiting ship is enough to raise the bridge.
// Drain is idempotent.
func (m *Monitor) Drain() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.draining {
		return
	}
	m.draining = true
	m.logger.Info("draining: partial ship batches may raise the bridge",
		"waiting_ships", m.ships.len())
	m.broadcastAll()
}

// CritShips returns the configured raise threshold.
func (m *Monitor) CritShips() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.critShips
}

// Snapshot returns a copy of the current state.
func (m *Monitor) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := State{
		Raised:       m.raised,
		Occupied:     m.occupant != nil,
		WaitingCars:  m.cars.snapshot(),
		WaitingShips: m.ships.snapshot(),
		CritShips:    m.critShips,
		Draining:     m.draining,
		Raises:       m.raises,
		Lowers:       m.lowers,
		CarsCrossed:  m.carsCrossed,
		ShipsCrossed: m.shipsCrossed,
	}
	if m.occupant != nil {
		s.Occupant = Occupant{Species: m.occupant.species, ID: m.occupant.id}
	}
	return s
}

// -----------------------------------------------------------------------------
// Transitions. All of these run with m.mu held.
// -----------------------------------------------------------------------------

// threshold is the number of waiting ships that triggers a raise.
func (m *Monitor) threshold() int {
	if m.draining {
		return 1
	}
	return m.critShips
}

// raisePending reports whether enough ships wait for a raise that has not
// happened yet. Cars yield to it.
func (m *Monitor) raisePending() bool {
	return !m.raised && m.ships.len() >= m.threshold()
}

func (m *Monitor) queue(species Species) *fifo[int] {
	if species == Car {
		return &m.cars
	}
	return &m.ships
}

func (m *Monitor) arrive(species Species, id int) {
	q := m.queue(species)
	q.push(id)
	m.arrivals[Occupant{Species: species, ID: id}] = time.Now()

	m.logger.Debug("arrived", "species", species.String(), "actor_id", id, "waiting", q.len())
	m.publish(event.NewActorArrivedEvent(species.String(), id, q.len()))
}

func (m *Monitor) enter(species Species, id int) {
	key := Occupant{Species: species, ID: id}
	now := time.Now()
	waited := now.Sub(m.arrivals[key])
	delete(m.arrivals, key)

	m.occupant = &crossing{species: species, id: id, since: now}

	m.logger.Debug("entered crossing", "species", species.String(), "actor_id", id, "waited", waited)
	m.publish(event.NewCrossingEnteredEvent(species.String(), id, waited))
}

func (m *Monitor) leave(species Species, q *fifo[int]) {
	occ := m.occupant
	q.popFront()
	m.occupant = nil
	if species == Car {
		m.carsCrossed++
	} else {
		m.shipsCrossed++
	}

	crossed := time.Since(occ.since)
	m.logger.Debug("left crossing", "species", species.String(), "actor_id", occ.id, "crossed", crossed)
	m.publish(event.NewCrossingLeftEvent(species.String(), occ.id, crossed, q.len()))
}

func (m *Monitor) raise(shipID int) {
	m.raised = true
	m.raises++

	m.logger.Info("bridge raised", "by_ship", shipID,
		"waiting_ships", m.ships.len(), "waiting_cars", m.cars.len())
	m.publish(event.NewBridgeRaisedEvent(shipID, m.ships.len(), m.cars.len()))
	m.bridgeUp.Broadcast()
}

func (m *Monitor) lower(shipID int) {
	m.raised = false
	m.lowers++

	m.logger.Info("bridge lowered", "by_ship", shipID, "waiting_cars", m.cars.len())
	m.publish(event.NewBridgeLoweredEvent(shipID, m.cars.len()))
	m.bridgeDown.Broadcast()
}

// withdraw removes a waiting actor that gave up. Its departure can change
// the queue front, drop the ship count below the threshold or empty the
// ship queue of a raised bridge, so everything is re-evaluated.
func (m *Monitor) withdraw(species Species, id int, cause error) {
	q := m.queue(species)
	q.remove(id)
	delete(m.arrivals, Occupant{Species: species, ID: id})

	m.logger.Debug("withdrew", "species", species.String(), "actor_id", id, "reason", cause.Error())
	m.publish(event.NewActorWithdrawnEvent(species.String(), id, cause.Error()))

	if species == Ship && m.raised && m.ships.len() == 0 {
		m.lower(0)
	}
	m.broadcastAll()
}

func (m *Monitor) checkOccupant(species Species, id int) error {
	if m.occupant == nil || m.occupant.species != species || m.occupant.id != id {
		return errors.NewCrossingError(species.String(), id, opRelease, errors.ErrNotCrossing)
	}
	return nil
}

func (m *Monitor) broadcastAll() {
	m.deckFree.Broadcast()
	m.bridgeDown.Broadcast()
	m.bridgeUp.Broadcast()
}

// wakeOnCancel wakes all waiters when ctx is cancelled so the cancelled one
// can observe ctx.Err(). The broadcast takes the lock, so it cannot land
// between a waiter's ctx check and its Wait. The returned func stops the
// helper and is safe to call with the lock held.
func (m *Monitor) wakeOnCancel(ctx context.Context) func() {
	if ctx.Done() == nil {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			m.broadcastAll()
			m.mu.Unlock()
		case <-done:
		}
	}()
	return func() { close(done) }
}

func (m *Monitor) publish(e event.Event) {
	if m.bus != nil {
		m.bus.Publish(e)
	}
}

// String implements fmt.Stringer for debugging output.
func (m *Monitor) String() string {
	s := m.Snapshot()
	orientation := "lowered"
	if s.Raised {
		orientation = "raised"
	}
	deck := "free"
	if s.Occupied {
		deck = fmt.Sprintf("%s %d", s.Occupant.Species, s.Occupant.ID)
	}
	return fmt.Sprintf("bridge %s, deck %s, cars %v, ships %v", orientation, deck, s.WaitingCars, s.WaitingShips)
}

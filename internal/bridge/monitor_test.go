package bridge

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Iron-Ham/drawbridge/internal/errors"
	"github.com/Iron-Ham/drawbridge/internal/event"
	"github.com/Iron-Ham/drawbridge/internal/trace"
)

const (
	blockedFor  = 50 * time.Millisecond
	admitWithin = 2 * time.Second
)

func requestAsync(m *Monitor, ctx context.Context, species Species, id int) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- m.Request(ctx, species, id)
	}()
	return ch
}

func expectBlocked(t *testing.T, ch <-chan error, who string) {
	t.Helper()
	select {
	case err := <-ch:
		t.Fatalf("%s should still be blocked, returned %v", who, err)
	case <-time.After(blockedFor):
	}
}

func expectAdmitted(t *testing.T, ch <-chan error, who string) {
	t.Helper()
	select {
	case err := <-ch:
		if err != nil {
			t.Fatalf("%s: request returned %v, want nil", who, err)
		}
	case <-time.After(admitWithin):
		t.Fatalf("%s was not admitted", who)
	}
}

// waitFor polls the monitor state until cond holds.
func waitFor(t *testing.T, m *Monitor, what string, cond func(State) bool) {
	t.Helper()
	deadline := time.Now().Add(admitWithin)
	for time.Now().Before(deadline) {
		if cond(m.Snapshot()) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s; state: %s", what, m)
}

func queued(species Species, n int) func(State) bool {
	return func(s State) bool {
		if species == Car {
			return len(s.WaitingCars) == n
		}
		return len(s.WaitingShips) == n
	}
}

func mustRelease(t *testing.T, m *Monitor, species Species, id int) {
	t.Helper()
	if err := m.Release(species, id); err != nil {
		t.Fatalf("Release(%s, %d) = %v", species, id, err)
	}
}

func TestNew_InitialState(t *testing.T) {
	m := New()
	s := m.Snapshot()

	if s.Raised {
		t.Error("new bridge should be lowered")
	}
	if s.Occupied {
		t.Error("new crossing should be free")
	}
	if len(s.WaitingCars) != 0 || len(s.WaitingShips) != 0 {
		t.Errorf("queues = %v / %v, want empty", s.WaitingCars, s.WaitingShips)
	}
	if s.CritShips != DefaultCritShips {
		t.Errorf("CritShips = %d, want %d", s.CritShips, DefaultCritShips)
	}
}

func TestNew_ClampsCritShips(t *testing.T) {
	m := New(WithCritShips(0))
	if m.CritShips() != 1 {
		t.Errorf("CritShips() = %d, want 1", m.CritShips())
	}
}

func TestMonitor_CarCrossesLoweredBridge(t *testing.T) {
	m := New()

	if err := m.RequestCarCrossing(context.Background(), 1); err != nil {
		t.Fatalf("RequestCarCrossing: %v", err)
	}
	s := m.Snapshot()
	if !s.Occupied || s.Occupant != (Occupant{Species: Car, ID: 1}) {
		t.Errorf("Occupant = %+v (occupied %v), want car 1", s.Occupant, s.Occupied)
	}

	mustRelease(t, m, Car, 1)
	s = m.Snapshot()
	if s.Occupied {
		t.Error("crossing should be free after release")
	}
	if len(s.WaitingCars) != 0 {
		t.Errorf("WaitingCars = %v, want empty", s.WaitingCars)
	}
	if s.CarsCrossed != 1 {
		t.Errorf("CarsCrossed = %d, want 1", s.CarsCrossed)
	}
}

func TestMonitor_CarsAreMutuallyExclusive(t *testing.T) {
	m := New()
	ctx := context.Background()

	if err := m.RequestCarCrossing(ctx, 1); err != nil {
		t.Fatalf("RequestCarCrossing(1): %v", err)
	}

	second := requestAsync(m, ctx, Car, 2)
	expectBlocked(t, second, "car 2")

	mustRelease(t, m, Car, 1)
	expectAdmitted(t, second, "car 2")
}

func TestMonitor_CarsCrossInArrivalOrder(t *testing.T) {
	m := New()
	ctx := context.Background()

	if err := m.RequestCarCrossing(ctx, 1); err != nil {
		t.Fatalf("RequestCarCrossing(1): %v", err)
	}

	// Stagger arrivals so the queue order is known.
	pending := make(map[int]<-chan error)
	for id := 2; id <= 5; id++ {
		pending[id] = requestAsync(m, ctx, Car, id)
		waitFor(t, m, "car to queue", queued(Car, id))
	}

	holder := 1
	for next := 2; next <= 5; next++ {
		mustRelease(t, m, Car, holder)
		expectAdmitted(t, pending[next], "next car in line")
		if s := m.Snapshot(); s.Occupant.ID != next {
			t.Fatalf("Occupant = car %d, want car %d", s.Occupant.ID, next)
		}
		holder = next
	}
	mustRelease(t, m, Car, holder)
}

func TestMonitor_NoRaiseBelowThreshold(t *testing.T) {
	m := New(WithCritShips(3))
	ctx := context.Background()

	first := requestAsync(m, ctx, Ship, 1)
	waitFor(t, m, "ship 1 to queue", queued(Ship, 1))
	second := requestAsync(m, ctx, Ship, 2)
	waitFor(t, m, "ship 2 to queue", queued(Ship, 2))

	expectBlocked(t, first, "ship 1")
	expectBlocked(t, second, "ship 2")
	if s := m.Snapshot(); s.Raised || s.Raises != 0 {
		t.Fatalf("bridge raised with 2 of 3 ships (raised %v, raises %d)", s.Raised, s.Raises)
	}

	// A third ship meets the threshold and unblocks the batch.
	third := requestAsync(m, ctx, Ship, 3)
	expectAdmitted(t, first, "ship 1")
	if !m.Snapshot().Raised {
		t.Fatal("bridge should be raised once 3 ships wait")
	}

	mustRelease(t, m, Ship, 1)
	expectAdmitted(t, second, "ship 2")
	mustRelease(t, m, Ship, 2)
	expectAdmitted(t, third, "ship 3")
	mustRelease(t, m, Ship, 3)

	s := m.Snapshot()
	if s.Raised {
		t.Error("bridge should be lowered after the last ship")
	}
	if s.Raises != 1 || s.Lowers != 1 {
		t.Errorf("Raises/Lowers = %d/%d, want 1/1", s.Raises, s.Lowers)
	}
}

func TestMonitor_ThresholdRaisesExactlyOnce(t *testing.T) {
	bus := event.NewBus()
	var raises atomic.Int32
	var raisedBy atomic.Int32
	bus.Subscribe(event.KindBridgeRaised, func(e event.Event) {
		raises.Add(1)
		raisedBy.Store(int32(e.(*event.BridgeRaisedEvent).ActorID))
	})

	m := New(WithCritShips(3), WithBus(bus))
	ctx := context.Background()

	var wg sync.WaitGroup
	start := make(chan struct{})
	for id := 1; id <= 3; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			<-start
			if err := m.RequestShipCrossing(ctx, id); err != nil {
				t.Errorf("RequestShipCrossing(%d): %v", id, err)
				return
			}
			time.Sleep(time.Millisecond)
			if err := m.ReleaseShipCrossing(id); err != nil {
				t.Errorf("ReleaseShipCrossing(%d): %v", id, err)
			}
		}(id)
	}
	close(start)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(admitWithin):
		t.Fatalf("ships did not finish; state: %s", m)
	}

	if got := raises.Load(); got != 1 {
		t.Errorf("bridge.raised published %d times, want 1", got)
	}
	if id := raisedBy.Load(); id < 1 || id > 3 {
		t.Errorf("raised by ship %d, want one of the three ships", id)
	}
	if m.Snapshot().Raised {
		t.Error("bridge should be lowered after the batch")
	}
}

func TestMonitor_RaiseWaitsForCarOnDeck(t *testing.T) {
	m := New(WithCritShips(3))
	ctx := context.Background()

	if err := m.RequestCarCrossing(ctx, 1); err != nil {
		t.Fatalf("RequestCarCrossing(1): %v", err)
	}

	ships := make(map[int]<-chan error)
	for id := 1; id <= 3; id++ {
		ships[id] = requestAsync(m, ctx, Ship, id)
		waitFor(t, m, "ship to queue", queued(Ship, id))
	}

	// Threshold met, but car 1 is on the deck.
	expectBlocked(t, ships[1], "ship 1")
	if m.Snapshot().Raised {
		t.Fatal("bridge raised with a car on the deck")
	}

	// Car 2 arrives while the raise is pending and must yield to the ships.
	car2 := requestAsync(m, ctx, Car, 2)
	waitFor(t, m, "car 2 to queue", queued(Car, 2))

	mustRelease(t, m, Car, 1)
	expectAdmitted(t, ships[1], "ship 1")
	if !m.Snapshot().Raised {
		t.Fatal("bridge should be raised after the car left")
	}
	expectBlocked(t, car2, "car 2 while raised")

	mustRelease(t, m, Ship, 1)
	expectAdmitted(t, ships[2], "ship 2")
	mustRelease(t, m, Ship, 2)
	expectAdmitted(t, ships[3], "ship 3")
	expectBlocked(t, car2, "car 2 while ship 3 passes")
	mustRelease(t, m, Ship, 3)

	expectAdmitted(t, car2, "car 2 after lowering")
	mustRelease(t, m, Car, 2)
}

func TestMonitor_ShipsArrivingWhileRaisedJoinTheBatch(t *testing.T) {
	m := New(WithCritShips(2))
	ctx := context.Background()

	first := requestAsync(m, ctx, Ship, 1)
	waitFor(t, m, "ship 1 to queue", queued(Ship, 1))
	second := requestAsync(m, ctx, Ship, 2)
	expectAdmitted(t, first, "ship 1")

	// Raised bridge: a lone late ship does not need a new threshold.
	third := requestAsync(m, ctx, Ship, 3)
	waitFor(t, m, "ship 3 to queue", queued(Ship, 3))

	mustRelease(t, m, Ship, 1)
	expectAdmitted(t, second, "ship 2")
	mustRelease(t, m, Ship, 2)
	expectAdmitted(t, third, "ship 3")
	mustRelease(t, m, Ship, 3)

	if s := m.Snapshot(); s.Raises != 1 || s.Lowers != 1 {
		t.Errorf("Raises/Lowers = %d/%d, want 1/1", s.Raises, s.Lowers)
	}
}

func TestMonitor_ShipQueueStaysEmptyAfterLowering(t *testing.T) {
	m := New(WithCritShips(1))
	ctx := context.Background()

	if err := m.RequestShipCrossing(ctx, 1); err != nil {
		t.Fatalf("RequestShipCrossing(1): %v", err)
	}
	mustRelease(t, m, Ship, 1)

	s := m.Snapshot()
	if s.Raised {
		t.Fatal("bridge should be lowered")
	}
	if len(s.WaitingShips) != 0 {
		t.Fatalf("WaitingShips = %v after lowering, want empty", s.WaitingShips)
	}

	// Car traffic does not touch the ship queue.
	for id := 1; id <= 3; id++ {
		if err := m.RequestCarCrossing(ctx, id); err != nil {
			t.Fatalf("RequestCarCrossing(%d): %v", id, err)
		}
		mustRelease(t, m, Car, id)
		if n := len(m.Snapshot().WaitingShips); n != 0 {
			t.Fatalf("WaitingShips has %d entries with no ship requests", n)
		}
	}

	if err := m.RequestShipCrossing(ctx, 2); err != nil {
		t.Fatalf("RequestShipCrossing(2): %v", err)
	}
	if got := m.Snapshot().WaitingShips; len(got) != 1 || got[0] != 2 {
		t.Errorf("WaitingShips = %v, want [2]", got)
	}
	mustRelease(t, m, Ship, 2)
}

func TestMonitor_ReleaseByNonOccupant(t *testing.T) {
	m := New()
	ctx := context.Background()

	if err := m.ReleaseCarCrossing(5); !errors.Is(err, errors.ErrNotCrossing) {
		t.Errorf("release on free crossing = %v, want ErrNotCrossing", err)
	}

	if err := m.RequestCarCrossing(ctx, 1); err != nil {
		t.Fatalf("RequestCarCrossing(1): %v", err)
	}
	if err := m.ReleaseShipCrossing(1); !errors.Is(err, errors.ErrNotCrossing) {
		t.Errorf("ship release while car 1 crosses = %v, want ErrNotCrossing", err)
	}
	if err := m.ReleaseCarCrossing(2); !errors.Is(err, errors.ErrNotCrossing) {
		t.Errorf("release by car 2 = %v, want ErrNotCrossing", err)
	}

	var crossErr *errors.CrossingError
	if err := m.ReleaseCarCrossing(2); !errors.As(err, &crossErr) || crossErr.Op != opRelease {
		t.Errorf("release error = %v, want *CrossingError with op %q", err, opRelease)
	}
	mustRelease(t, m, Car, 1)
}

func TestMonitor_UnknownSpecies(t *testing.T) {
	m := New()

	if err := m.Request(context.Background(), Species(9), 1); !errors.Is(err, errors.ErrUnknownSpecies) {
		t.Errorf("Request(unknown) = %v, want ErrUnknownSpecies", err)
	}
	if err := m.Release(Species(9), 1); !errors.Is(err, errors.ErrUnknownSpecies) {
		t.Errorf("Release(unknown) = %v, want ErrUnknownSpecies", err)
	}
}

func TestMonitor_CancelledCarLeavesQueue(t *testing.T) {
	m := New()
	ctx := context.Background()

	if err := m.RequestCarCrossing(ctx, 1); err != nil {
		t.Fatalf("RequestCarCrossing(1): %v", err)
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	second := requestAsync(m, cancelCtx, Car, 2)
	waitFor(t, m, "car 2 to queue", queued(Car, 2))
	third := requestAsync(m, ctx, Car, 3)
	waitFor(t, m, "car 3 to queue", queued(Car, 3))

	cancel()
	select {
	case err := <-second:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("cancelled request = %v, want context.Canceled", err)
		}
	case <-time.After(admitWithin):
		t.Fatal("cancelled request did not return")
	}

	if got := m.Snapshot().WaitingCars; len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("WaitingCars = %v, want [1 3]", got)
	}

	mustRelease(t, m, Car, 1)
	expectAdmitted(t, third, "car 3")
	mustRelease(t, m, Car, 3)
}

func TestMonitor_CancelledShipLowersCount(t *testing.T) {
	m := New(WithCritShips(3))
	ctx := context.Background()

	first := requestAsync(m, ctx, Ship, 1)
	waitFor(t, m, "ship 1 to queue", queued(Ship, 1))

	cancelCtx, cancel := context.WithCancel(ctx)
	second := requestAsync(m, cancelCtx, Ship, 2)
	waitFor(t, m, "ship 2 to queue", queued(Ship, 2))
	cancel()
	if err := <-second; !errors.IsCanceled(err) {
		t.Fatalf("cancelled ship = %v, want cancellation", err)
	}

	// One more ship makes two, still below the threshold.
	third := requestAsync(m, ctx, Ship, 3)
	waitFor(t, m, "ship 3 to queue", queued(Ship, 2))
	expectBlocked(t, first, "ship 1 with 2 of 3 ships")

	fourth := requestAsync(m, ctx, Ship, 4)
	expectAdmitted(t, first, "ship 1")
	for _, next := range []struct {
		prev int
		ch   <-chan error
	}{{1, third}, {3, fourth}} {
		mustRelease(t, m, Ship, next.prev)
		expectAdmitted(t, next.ch, "next ship")
	}
	mustRelease(t, m, Ship, 4)
}

func TestMonitor_AlreadyCancelledContext(t *testing.T) {
	m := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.RequestCarCrossing(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("RequestCarCrossing = %v, want context.Canceled", err)
	}
	if s := m.Snapshot(); s.Occupied || len(s.WaitingCars) != 0 {
		t.Errorf("state after cancelled request: %s", m)
	}
}

func TestMonitor_DrainReleasesStragglers(t *testing.T) {
	m := New(WithCritShips(3))
	ctx := context.Background()

	lone := requestAsync(m, ctx, Ship, 1)
	waitFor(t, m, "ship 1 to queue", queued(Ship, 1))
	expectBlocked(t, lone, "lone ship")

	m.Drain()
	m.Drain()

	expectAdmitted(t, lone, "lone ship after drain")
	mustRelease(t, m, Ship, 1)

	s := m.Snapshot()
	if !s.Draining {
		t.Error("Draining should be reported")
	}
	if s.Raised || s.Raises != 1 {
		t.Errorf("after drain run: raised %v, raises %d; want lowered, 1", s.Raised, s.Raises)
	}
}

func TestMonitor_StressKeepsInvariants(t *testing.T) {
	bus := event.NewBus()
	rec := trace.NewRecorder(bus)
	defer rec.Close()

	m := New(WithCritShips(3), WithBus(bus))
	ctx := context.Background()

	const cars, ships = 40, 14
	var carsDone, all sync.WaitGroup
	cross := func(species Species, id int) {
		defer all.Done()
		if err := m.Request(ctx, species, id); err != nil {
			t.Errorf("Request(%s, %d): %v", species, id, err)
			return
		}
		time.Sleep(time.Duration(rand.IntN(300)) * time.Microsecond)
		if err := m.Release(species, id); err != nil {
			t.Errorf("Release(%s, %d): %v", species, id, err)
		}
	}

	for id := 1; id <= cars; id++ {
		all.Add(1)
		carsDone.Add(1)
		go func(id int) {
			defer carsDone.Done()
			cross(Car, id)
		}(id)
	}
	for id := 1; id <= ships; id++ {
		all.Add(1)
		go cross(Ship, id)
	}

	carsDone.Wait()
	m.Drain()

	done := make(chan struct{})
	go func() {
		all.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("actors did not finish; state: %s", m)
	}

	if err := trace.Check(rec.Events()); err != nil {
		t.Fatalf("trace violates bridge rules: %v", err)
	}

	s := m.Snapshot()
	if s.CarsCrossed != cars || s.ShipsCrossed != ships {
		t.Errorf("crossed %d cars / %d ships, want %d / %d", s.CarsCrossed, s.ShipsCrossed, cars, ships)
	}
	if s.Raised || s.Occupied {
		t.Errorf("final state: %s", m)
	}
}

func TestParseSpecies(t *testing.T) {
	tests := []struct {
		in      string
		want    Species
		wantErr bool
	}{
		{"car", Car, false},
		{"C", Car, false},
		{"ship", Ship, false},
		{" s ", Ship, false},
		{"boat", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSpecies(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSpecies(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSpecies(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

package event

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/Iron-Ham/drawbridge/internal/logging"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus()

	called := false
	id := bus.Subscribe(KindBridgeRaised, func(e Event) {
		called = true
	})

	if id == "" {
		t.Error("Subscribe should return a non-empty ID")
	}
	if bus.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", bus.SubscriptionCount())
	}
	if called {
		t.Error("Handler should not be called until an event is published")
	}
}

func TestBus_Publish(t *testing.T) {
	bus := NewBus()

	var received Event
	bus.Subscribe(KindCrossingEntered, func(e Event) {
		received = e
	})

	bus.Publish(NewCrossingEnteredEvent("car", 4, 0))

	if received == nil {
		t.Fatal("Handler should have received the event")
	}
	entered, ok := received.(*CrossingEnteredEvent)
	if !ok {
		t.Fatalf("received %T, want *CrossingEnteredEvent", received)
	}
	if entered.ActorID != 4 || entered.Species != "car" {
		t.Errorf("received %s %d, want car 4", entered.Species, entered.ActorID)
	}
}

func TestBus_PublishStampsSequence(t *testing.T) {
	bus := NewBus()

	var seqs []uint64
	bus.SubscribeAll(func(e Event) {
		seqs = append(seqs, e.Seq())
	})

	bus.Publish(NewActorArrivedEvent("ship", 1, 1))
	bus.Publish(NewActorArrivedEvent("ship", 2, 2))
	bus.Publish(NewBridgeRaisedEvent(2, 2, 0))

	want := []uint64{1, 2, 3}
	if len(seqs) != len(want) {
		t.Fatalf("got %d events, want %d", len(seqs), len(want))
	}
	for i := range want {
		if seqs[i] != want[i] {
			t.Errorf("seqs[%d] = %d, want %d", i, seqs[i], want[i])
		}
	}
	if bus.Published() != 3 {
		t.Errorf("Published() = %d, want 3", bus.Published())
	}
}

func TestBus_SpecificBeforeWildcard(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.SubscribeAll(func(e Event) { order = append(order, "all") })
	bus.Subscribe(KindBridgeLowered, func(e Event) { order = append(order, "specific") })

	bus.Publish(NewBridgeLoweredEvent(3, 0))

	if len(order) != 2 || order[0] != "specific" || order[1] != "all" {
		t.Errorf("order = %v, want [specific all]", order)
	}
}

func TestBus_PublishNoMatchingHandlers(t *testing.T) {
	bus := NewBus()

	called := false
	bus.Subscribe(KindBridgeRaised, func(e Event) { called = true })
	bus.Publish(NewBridgeLoweredEvent(1, 0))

	if called {
		t.Error("Handler for another kind should not be called")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	count := 0
	id := bus.Subscribe(KindCrossingLeft, func(e Event) { count++ })
	other := bus.Subscribe(KindCrossingLeft, func(e Event) { count += 10 })

	if !bus.Unsubscribe(id) {
		t.Fatal("Unsubscribe should return true for an existing subscription")
	}
	if bus.Unsubscribe(id) {
		t.Error("Unsubscribe should return false the second time")
	}

	bus.Publish(NewCrossingLeftEvent("car", 1, 0, 0))
	if count != 10 {
		t.Errorf("count = %d, want 10 (only the remaining handler)", count)
	}

	bus.Unsubscribe(other)
	if bus.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", bus.SubscriptionCount())
	}
}

func TestBus_Clear(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(KindBridgeRaised, func(e Event) {})
	bus.SubscribeAll(func(e Event) {})

	bus.Clear()

	if bus.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after Clear, want 0", bus.SubscriptionCount())
	}
}

func TestBus_HandlerPanicRecovery(t *testing.T) {
	var buf bytes.Buffer
	bus := NewBus(WithLogger(logging.New(&buf, logging.LevelError, logging.FormatJSON)))

	secondCalled := false
	bus.Subscribe(KindBridgeRaised, func(e Event) { panic("boom") })
	bus.Subscribe(KindBridgeRaised, func(e Event) { secondCalled = true })

	bus.Publish(NewBridgeRaisedEvent(1, 3, 0))

	if !secondCalled {
		t.Error("second handler should run after the first panics")
	}
	if !strings.Contains(buf.String(), "event handler panicked") {
		t.Errorf("expected panic to be logged, got %q", buf.String())
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	seen := make(map[uint64]bool)
	bus.SubscribeAll(func(e Event) {
		mu.Lock()
		seen[e.Seq()] = true
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			bus.Publish(NewActorArrivedEvent("car", id, 1))
		}(i)
	}
	wg.Wait()

	if len(seen) != 50 {
		t.Errorf("saw %d distinct sequence numbers, want 50", len(seen))
	}
}

func TestNewSimulationFinishedEvent(t *testing.T) {
	ok := NewSimulationFinishedEvent(0, nil)
	if ok.Err != "" {
		t.Errorf("Err = %q, want empty", ok.Err)
	}
	if ok.Kind() != KindSimulationFinished {
		t.Errorf("Kind() = %q, want %q", ok.Kind(), KindSimulationFinished)
	}
	if ok.Timestamp().IsZero() {
		t.Error("Timestamp() should be set")
	}
}

// Package bridge implements the drawbridge monitor: a single-lane crossing
// shared by cars and ships, guarded by one mutex and three condition
// variables.
//
// Cars cross while the bridge is lowered, ships pass while it is raised, and
// the deck holds one actor at a time. Each species queues in FIFO order and
// only the head of a queue may take the deck. Ships are batched: the bridge
// is raised only once the ship queue reaches the critical threshold
// ([WithCritShips], default 3) and the deck is clear, and it is lowered again
// only when the last queued ship has passed. While a raise is pending, cars
// hold back so the ships cannot be overtaken indefinitely.
//
// Every wait is a loop over a named predicate; a broadcast only means "look
// again". Releases broadcast rather than signal because the releasing
// goroutine cannot know which car or ship is eligible next.
//
// Cars can still starve while ships keep arriving with the bridge raised.
// That gap is part of the policy, not a bug.
//
// Lifecycle:
//
//	m := bridge.New(bridge.WithCritShips(3), bridge.WithBus(bus))
//
//	// car goroutine
//	if err := m.RequestCarCrossing(ctx, id); err != nil {
//	    return err // only on ctx cancellation
//	}
//	drive()
//	_ = m.ReleaseCarCrossing(id)
//
// When no more ships will arrive, [Monitor.Drain] lets a partial batch
// through so a simulation can finish.
package bridge

// Package event provides a synchronous pub-sub bus and the event types the
// drawbridge monitor and simulation publish.
//
// The monitor publishes while holding its lock, so the order in which
// handlers observe events is the order in which the bridge changed state.
// That property is what lets the trace package replay a run and check the
// bridge invariants after the fact. Handlers must therefore be quick and must
// never call back into the monitor.
//
// # Event Kinds
//
// Kinds follow the pattern "category.action":
//   - actor.arrived, actor.withdrawn
//   - crossing.entered, crossing.left
//   - bridge.raised, bridge.lowered
//   - simulation.started, simulation.finished
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	bus.Subscribe(event.KindBridgeRaised, func(e event.Event) {
//	    raised := e.(*event.BridgeRaisedEvent)
//	    fmt.Printf("raised by ship %d\n", raised.ActorID)
//	})
//
//	bus.SubscribeAll(func(e event.Event) {
//	    fmt.Printf("#%d %s\n", e.Seq(), e.Kind())
//	})
//
// Every published event is stamped with a bus-wide sequence number.
package event

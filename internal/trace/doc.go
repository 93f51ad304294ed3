// Package trace records bridge events and checks a recorded run against the
// bridge's safety rules.
//
// A [Recorder] subscribes to every event on a bus. Because the monitor
// publishes while holding its lock, the recorded order is the order in which
// the bridge changed state, and [Check] can replay it:
//
//	rec := trace.NewRecorder(bus)
//	defer rec.Close()
//	// ... run the simulation ...
//	if err := trace.Check(rec.Events()); err != nil {
//	    // err is a trace.Violations listing every broken rule
//	}
//
// The rules checked are mutual exclusion on the deck, orientation (cars only
// while lowered, ships only while raised), raising only with a clear deck,
// lowering only with an empty ship queue, FIFO admission per species, and
// balanced arrive/enter/leave bookkeeping.
package trace

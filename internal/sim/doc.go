// Package sim drives a bridge.Monitor with simulated cars and ships.
//
// A [Plan] lists waves of arrivals. Each wave is spawned at once, one
// goroutine per actor, and consecutive waves are separated by the plan's gap.
// Every actor requests the crossing, holds it for a random delay and
// releases it. [OriginalPlan] reproduces the classroom population: nineteen
// mixed arrivals, a three second pause, then four more ships.
//
// Ships that arrive after the last batch may never reach the raise
// threshold. With draining enabled (the default) the simulator calls
// Monitor.Drain once every car has finished and every wave has been spawned,
// so such stragglers still get through and Run always returns.
package sim

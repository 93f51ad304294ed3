package sim

import (
	"time"

	"github.com/Iron-Ham/drawbridge/internal/event"
	"github.com/Iron-Ham/drawbridge/internal/logging"
)

// Default crossing delays, matching the classroom harness.
const (
	DefaultMinDelay = OriginalMinDelay
	DefaultMaxDelay = OriginalMaxDelay
)

// Option configures a Simulator.
type Option func(*Simulator)

// WithDelays bounds the time each actor holds the crossing.
func WithDelays(lo, hi time.Duration) Option {
	return func(s *Simulator) {
		s.minDelay = lo
		s.maxDelay = hi
	}
}

// WithSeed seeds the crossing delay generator.
func WithSeed(seed uint64) Option {
	return func(s *Simulator) {
		s.seed = seed
	}
}

// WithDrain controls whether the monitor is drained once every car has
// finished. Without draining, ships short of the threshold wait until the
// context is cancelled.
func WithDrain(drain bool) Option {
	return func(s *Simulator) {
		s.drain = drain
	}
}

// WithLogger sets the logger for actor lifecycle messages.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithBus sets the bus that receives simulation lifecycle events.
func WithBus(bus *event.Bus) Option {
	return func(s *Simulator) {
		s.bus = bus
	}
}

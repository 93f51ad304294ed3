package bridge

import (
	"github.com/Iron-Ham/drawbridge/internal/event"
	"github.com/Iron-Ham/drawbridge/internal/logging"
)

// DefaultCritShips is the number of waiting ships that justifies a raise.
const DefaultCritShips = 3

// Option configures a Monitor.
type Option func(*config)

type config struct {
	critShips int
	logger    *logging.Logger
	bus       *event.Bus
}

// WithCritShips sets the ship threshold for raising the bridge.
// Values below 1 are clamped to 1.
func WithCritShips(n int) Option {
	return func(c *config) {
		c.critShips = n
	}
}

// WithLogger sets the logger for the monitor.
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithBus sets the bus that receives arrival, crossing and bridge events.
func WithBus(bus *event.Bus) Option {
	return func(c *config) {
		c.bus = bus
	}
}

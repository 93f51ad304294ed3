package bridge

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/drawbridge/internal/errors"
)

// Species is the kind of actor using the crossing.
type Species int

const (
	Car Species = iota + 1
	Ship
)

func (s Species) String() string {
	switch s {
	case Car:
		return "car"
	case Ship:
		return "ship"
	default:
		return fmt.Sprintf("species(%d)", int(s))
	}
}

// ParseSpecies accepts "car"/"c" and "ship"/"s", case-insensitively.
func ParseSpecies(s string) (Species, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "car", "c":
		return Car, nil
	case "ship", "s":
		return Ship, nil
	default:
		return 0, fmt.Errorf("%w: %q", errors.ErrUnknownSpecies, s)
	}
}

// Occupant identifies the actor on the crossing.
type Occupant struct {
	Species Species
	ID      int
}

// State is a point-in-time copy of the monitor's observable state.
type State struct {
	Raised   bool
	Occupied bool
	Occupant Occupant // Zero when the crossing is free

	// Queues in FIFO order. An actor stays at the front of its queue while it
	// holds the crossing and leaves the queue on release.
	WaitingCars  []int
	WaitingShips []int

	CritShips int
	Draining  bool

	Raises       int
	Lowers       int
	CarsCrossed  int
	ShipsCrossed int
}

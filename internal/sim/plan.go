package sim

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Iron-Ham/drawbridge/internal/bridge"
	"github.com/Iron-Ham/drawbridge/internal/errors"
)

// Wave is a group of actors spawned together, in order.
type Wave []bridge.Species

// String renders the wave in the "c"/"s" notation accepted by ParseWave.
func (w Wave) String() string {
	var b strings.Builder
	for _, s := range w {
		if s == bridge.Ship {
			b.WriteByte('s')
		} else {
			b.WriteByte('c')
		}
	}
	return b.String()
}

// Plan is the arrival schedule of a simulation.
type Plan struct {
	Waves []Wave
	Gap   time.Duration // Pause between consecutive waves
}

// Counts returns the number of cars and ships in the plan.
func (p Plan) Counts() (cars, ships int) {
	for _, w := range p.Waves {
		for _, s := range w {
			if s == bridge.Ship {
				ships++
			} else {
				cars++
			}
		}
	}
	return cars, ships
}

// Total returns the number of actors in the plan.
func (p Plan) Total() int {
	cars, ships := p.Counts()
	return cars + ships
}

// ParseWave parses a wave such as "cccss". Whitespace is ignored.
func ParseWave(s string) (Wave, error) {
	var w Wave
	for i, r := range s {
		switch r {
		case 'c', 'C':
			w = append(w, bridge.Car)
		case 's', 'S':
			w = append(w, bridge.Ship)
		case ' ', '\t':
		default:
			return nil, fmt.Errorf("%w: %q: unexpected %q at offset %d", errors.ErrInvalidWave, s, r, i)
		}
	}
	if len(w) == 0 {
		return nil, fmt.Errorf("%w: %q is empty", errors.ErrInvalidWave, s)
	}
	return w, nil
}

// ParsePlan builds a plan from wave strings.
func ParsePlan(waves []string, gap time.Duration) (Plan, error) {
	p := Plan{Gap: gap}
	for _, s := range waves {
		w, err := ParseWave(s)
		if err != nil {
			return Plan{}, err
		}
		p.Waves = append(p.Waves, w)
	}
	if len(p.Waves) == 0 {
		return Plan{}, errors.ErrEmptyPlan
	}
	return p, nil
}

// PopulationPlan builds a single wave of cars and ships shuffled with seed.
// The same seed always yields the same order.
func PopulationPlan(cars, ships int, seed uint64) (Plan, error) {
	if cars < 0 || ships < 0 {
		return Plan{}, fmt.Errorf("negative population: %d cars, %d ships", cars, ships)
	}
	if cars+ships == 0 {
		return Plan{}, errors.ErrEmptyPlan
	}

	w := make(Wave, 0, cars+ships)
	for range cars {
		w = append(w, bridge.Car)
	}
	for range ships {
		w = append(w, bridge.Ship)
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	r.Shuffle(len(w), func(i, j int) { w[i], w[j] = w[j], w[i] })
	return Plan{Waves: []Wave{w}}, nil
}

// Classroom harness schedule.
const (
	originalFirstWave  = "cccccsscccccccscscc"
	originalSecondWave = "ssss"
	originalGap        = 3 * time.Second

	// OriginalMinDelay and OriginalMaxDelay bound the crossing time of the
	// classroom harness.
	OriginalMinDelay = 500 * time.Millisecond
	OriginalMaxDelay = time.Second
)

// OriginalPlan returns the classroom schedule: nineteen arrivals (fifteen
// cars, four ships), a three second pause, then four ships.
func OriginalPlan() Plan {
	p, err := ParsePlan([]string{originalFirstWave, originalSecondWave}, originalGap)
	if err != nil {
		panic(err)
	}
	return p
}

package sim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/Iron-Ham/drawbridge/internal/bridge"
	"github.com/Iron-Ham/drawbridge/internal/errors"
	"github.com/Iron-Ham/drawbridge/internal/event"
	"github.com/Iron-Ham/drawbridge/internal/logging"
)

// Simulator runs a Plan against a Monitor.
type Simulator struct {
	monitor *bridge.Monitor
	plan    Plan

	minDelay time.Duration
	maxDelay time.Duration
	seed     uint64
	drain    bool

	logger *logging.Logger
	bus    *event.Bus
}

// New creates a Simulator. The plan must contain at least one actor and the
// delay bounds must satisfy 0 <= min <= max.
func New(monitor *bridge.Monitor, plan Plan, opts ...Option) (*Simulator, error) {
	s := &Simulator{
		monitor:  monitor,
		plan:     plan,
		minDelay: DefaultMinDelay,
		maxDelay: DefaultMaxDelay,
		drain:    true,
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NopLogger()
	}
	s.logger = s.logger.WithComponent("sim")

	if monitor == nil {
		return nil, errors.New("sim: nil monitor")
	}
	if plan.Total() == 0 {
		return nil, errors.ErrEmptyPlan
	}
	if s.minDelay < 0 || s.maxDelay < s.minDelay {
		return nil, fmt.Errorf("sim: invalid delay range [%v, %v]", s.minDelay, s.maxDelay)
	}
	return s, nil
}

// Plan returns the arrival schedule.
func (s *Simulator) Plan() Plan {
	return s.plan
}

// Run spawns every actor of the plan and waits for all of them.
//
// Cancelling ctx stops spawning, withdraws actors still waiting for the
// crossing and makes Run return the context error along with the partial
// report. An actor already on the deck cuts its crossing short and releases.
// A monitor error other than cancellation cancels the remaining actors and
// is returned.
func (s *Simulator) Run(ctx context.Context) (*Report, error) {
	cars, ships := s.plan.Counts()
	report := &Report{Started: time.Now()}

	s.logger.Info("simulation started",
		"cars", cars, "ships", ships, "waves", len(s.plan.Waves), "crit_ships", s.monitor.CritShips())
	s.publish(event.NewSimulationStartedEvent(cars, ships, s.monitor.CritShips()))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rng := rand.New(rand.NewPCG(s.seed, s.seed+1))
	p := pool.New().WithContext(runCtx).WithFirstError()
	results := make([]*ActorResult, 0, cars+ships)
	nextID := map[bridge.Species]int{}
	var carsRunning sync.WaitGroup

spawn:
	for i, wave := range s.plan.Waves {
		if i > 0 && s.plan.Gap > 0 {
			timer := time.NewTimer(s.plan.Gap)
			select {
			case <-runCtx.Done():
				timer.Stop()
				break spawn
			case <-timer.C:
			}
		}
		s.logger.Debug("spawning wave", "wave", i+1, "actors", wave.String())

		for _, species := range wave {
			if runCtx.Err() != nil {
				break spawn
			}
			nextID[species]++
			res := &ActorResult{Species: species, ID: nextID[species]}
			results = append(results, res)
			delay := s.delay(rng)

			if species == bridge.Car {
				carsRunning.Add(1)
			}
			p.Go(func(ctx context.Context) error {
				if species == bridge.Car {
					defer carsRunning.Done()
				}
				err := s.cross(ctx, res, delay)
				if err != nil && !errors.IsCanceled(err) {
					cancel()
				}
				return err
			})
		}
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		carsRunning.Wait()
		if s.drain {
			s.monitor.Drain()
		}
	}()

	err := p.Wait()
	<-drained

	report.Finished = time.Now()
	report.Actors = make([]ActorResult, len(results))
	for i, r := range results {
		report.Actors[i] = *r
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		err = fmt.Errorf("simulation interrupted: %w", ctxErr)
	} else if failures := report.Failures(); len(failures) > 0 {
		err = fmt.Errorf("simulation failed: %w", failures[0].Err)
	} else if err != nil {
		err = fmt.Errorf("simulation failed: %w", err)
	}

	s.logger.Info("simulation finished",
		"duration", report.Duration(),
		"cars_crossed", report.Crossed(bridge.Car),
		"ships_crossed", report.Crossed(bridge.Ship),
		"withdrawn", report.Withdrawn())
	s.publish(event.NewSimulationFinishedEvent(report.Duration(), err))
	return report, err
}

// cross is one actor's life: request, hold, release.
func (s *Simulator) cross(ctx context.Context, res *ActorResult, delay time.Duration) error {
	log := s.logger.WithActor(res.Species.String(), res.ID)
	res.Arrived = time.Now()

	if err := s.monitor.Request(ctx, res.Species, res.ID); err != nil {
		res.Err = err
		log.Debug("stopped waiting", "error", err)
		return err
	}
	res.Entered = time.Now()
	log.Debug("crossing", "waited", res.Waited(), "delay", delay)

	// On the deck: always release, cancelled or not.
	timer := time.NewTimer(delay)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
	}

	if err := s.monitor.Release(res.Species, res.ID); err != nil {
		res.Err = err
		log.Error("release failed", "error", err)
		return err
	}
	res.Left = time.Now()
	return nil
}

func (s *Simulator) delay(rng *rand.Rand) time.Duration {
	span := s.maxDelay - s.minDelay
	if span <= 0 {
		return s.minDelay
	}
	return s.minDelay + time.Duration(rng.Int64N(int64(span)+1))
}

func (s *Simulator) publish(e event.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

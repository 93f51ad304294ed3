package tui

import (
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/drawbridge/internal/event"
)

const (
	speciesCar  = "car"
	speciesShip = "ship"

	// DefaultEventLines is how many recent events the view shows.
	DefaultEventLines = 12
)

// Model is the Bubble Tea model of the bridge view.
type Model struct {
	total     int
	critShips int
	maxEvents int
	cancel    func()

	raised   bool
	occupant string
	cars     []int
	ships    []int
	done     int
	raises   int
	events   []string
	started  time.Time
	finished bool
	elapsed  time.Duration
	err      string

	width    int
	progress progress.Model
	quitting bool
}

// NewModel creates the view for a run of total actors. cancel is called
// when the user quits before the run ends; it may be nil.
func NewModel(total, critShips, eventLines int, cancel func()) Model {
	if eventLines < 1 {
		eventLines = DefaultEventLines
	}
	return Model{
		total:     total,
		critShips: critShips,
		maxEvents: eventLines,
		cancel:    cancel,
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			if !m.finished && m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(10, min(60, msg.Width-20))

	case eventMsg:
		m = m.apply(msg.event)
		if m.finished {
			return m, tea.Quit
		}
	}
	return m, nil
}

// apply folds one event into the view state.
func (m Model) apply(e event.Event) Model {
	switch ev := e.(type) {
	case *event.SimulationStartedEvent:
		m.started = ev.Timestamp()
		m.total = ev.Cars + ev.Ships
		m.critShips = ev.CritShips
		m = m.log(fmt.Sprintf("simulation started: %d cars, %d ships", ev.Cars, ev.Ships))
	case *event.ActorArrivedEvent:
		m.setQueue(ev.Species, append(m.queue(ev.Species), ev.ActorID))
	case *event.ActorWithdrawnEvent:
		q := slices.DeleteFunc(m.queue(ev.Species), func(id int) bool { return id == ev.ActorID })
		m.setQueue(ev.Species, q)
		m.done++
		m = m.log(fmt.Sprintf("%s %d gave up: %s", ev.Species, ev.ActorID, ev.Reason))
	case *event.CrossingEnteredEvent:
		m.occupant = fmt.Sprintf("%s %d", ev.Species, ev.ActorID)
		m = m.log(fmt.Sprintf("%s %d crossing (waited %s)", ev.Species, ev.ActorID, ev.Waited.Round(time.Millisecond)))
	case *event.CrossingLeftEvent:
		q := slices.DeleteFunc(m.queue(ev.Species), func(id int) bool { return id == ev.ActorID })
		m.setQueue(ev.Species, q)
		m.occupant = ""
		m.done++
	case *event.BridgeRaisedEvent:
		m.raised = true
		m.raises++
		m = m.log(fmt.Sprintf("bridge raised by ship %d (%d ships waiting)", ev.ActorID, ev.WaitingShips))
	case *event.BridgeLoweredEvent:
		m.raised = false
		m = m.log(fmt.Sprintf("bridge lowered (%d cars waiting)", ev.WaitingCars))
	case *event.SimulationFinishedEvent:
		m.finished = true
		m.elapsed = ev.Duration
		m.err = ev.Err
		m = m.log("simulation finished")
	}
	return m
}

func (m Model) log(line string) Model {
	m.events = append(slices.Clone(m.events), line)
	if len(m.events) > m.maxEvents {
		m.events = m.events[len(m.events)-m.maxEvents:]
	}
	return m
}

func (m Model) queue(species string) []int {
	if species == speciesShip {
		return slices.Clone(m.ships)
	}
	return slices.Clone(m.cars)
}

func (m *Model) setQueue(species string, q []int) {
	if species == speciesShip {
		m.ships = q
	} else {
		m.cars = q
	}
}

// Percent is the share of actors that crossed or gave up.
func (m Model) Percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

// Finished reports whether the simulation.finished event arrived.
func (m Model) Finished() bool {
	return m.finished
}

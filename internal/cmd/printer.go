package cmd

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/Iron-Ham/drawbridge/internal/event"
	"github.com/Iron-Ham/drawbridge/internal/tui/styles"
)

// printer writes one line per bus event.
type printer struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
	start time.Time
}

func newPrinter(w io.Writer, color bool) *printer {
	return &printer{w: w, color: color}
}

func (p *printer) handle(e event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.start.IsZero() {
		p.start = e.Timestamp()
	}
	elapsed := e.Timestamp().Sub(p.start).Seconds()

	who, detail := describe(e)
	kind := fmt.Sprintf("%-19s", e.Kind())
	if p.color {
		kind = lipgloss.NewStyle().Foreground(styles.KindColor(e.Kind())).Render(kind)
		if species, ok := speciesOf(e); ok {
			who = lipgloss.NewStyle().Foreground(styles.SpeciesColor(species)).Render(who)
		}
		detail = styles.Muted.Render(detail)
	}
	fmt.Fprintf(p.w, "+%7.3fs  %s %-8s %s\n", elapsed, kind, who, detail)
}

// describe returns the actor column and the detail text for an event.
func describe(e event.Event) (who, detail string) {
	switch ev := e.(type) {
	case *event.ActorArrivedEvent:
		return actor(ev.Species, ev.ActorID), fmt.Sprintf("queue %d", ev.Waiting)
	case *event.ActorWithdrawnEvent:
		return actor(ev.Species, ev.ActorID), ev.Reason
	case *event.CrossingEnteredEvent:
		return actor(ev.Species, ev.ActorID), fmt.Sprintf("waited %s", ev.Waited.Round(time.Millisecond))
	case *event.CrossingLeftEvent:
		return actor(ev.Species, ev.ActorID), fmt.Sprintf("crossed in %s", ev.Crossed.Round(time.Millisecond))
	case *event.BridgeRaisedEvent:
		return actor("ship", ev.ActorID), fmt.Sprintf("%d ships, %d cars waiting", ev.WaitingShips, ev.WaitingCars)
	case *event.BridgeLoweredEvent:
		if ev.ActorID == 0 {
			return "", fmt.Sprintf("%d cars waiting", ev.WaitingCars)
		}
		return actor("ship", ev.ActorID), fmt.Sprintf("%d cars waiting", ev.WaitingCars)
	case *event.SimulationStartedEvent:
		return "", fmt.Sprintf("%d cars, %d ships, threshold %d", ev.Cars, ev.Ships, ev.CritShips)
	case *event.SimulationFinishedEvent:
		if ev.Err != "" {
			return "", fmt.Sprintf("after %s: %s", ev.Duration.Round(time.Millisecond), ev.Err)
		}
		return "", fmt.Sprintf("after %s", ev.Duration.Round(time.Millisecond))
	default:
		return "", ""
	}
}

func speciesOf(e event.Event) (string, bool) {
	switch ev := e.(type) {
	case *event.ActorArrivedEvent:
		return ev.Species, true
	case *event.ActorWithdrawnEvent:
		return ev.Species, true
	case *event.CrossingEnteredEvent:
		return ev.Species, true
	case *event.CrossingLeftEvent:
		return ev.Species, true
	case *event.BridgeRaisedEvent, *event.BridgeLoweredEvent:
		return "ship", true
	default:
		return "", false
	}
}

func actor(species string, id int) string {
	return fmt.Sprintf("%s %d", species, id)
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/drawbridge/internal/event"
)

// eventBuffer bounds how far the bus may run ahead of the renderer before
// publishers block.
const eventBuffer = 4096

// App wraps the Bubbletea program
type App struct {
	program *tea.Program
	model   Model
	bus     *event.Bus
	subID   string
	opts    []tea.ProgramOption

	events    chan event.Event
	done      chan struct{}
	closeOnce sync.Once
}

// New creates the TUI application and subscribes it to bus right away so no
// event published before Run is lost.
func New(bus *event.Bus, model Model, opts ...tea.ProgramOption) *App {
	a := &App{
		model:  model,
		bus:    bus,
		opts:   opts,
		events: make(chan event.Event, eventBuffer),
		done:   make(chan struct{}),
	}
	a.subID = bus.SubscribeAll(func(e event.Event) {
		select {
		case a.events <- e:
		case <-a.done:
		}
	})
	return a
}

// Run starts the program and blocks until the user quits, the simulation
// finishes or ctx is done.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	a.program = tea.NewProgram(a.model, append([]tea.ProgramOption{tea.WithAltScreen()}, a.opts...)...)

	go a.pump()
	go func() {
		select {
		case <-ctx.Done():
			a.program.Quit()
		case <-a.done:
		}
	}()

	_, err := a.program.Run()
	return err
}

// pump forwards buffered events to the program.
func (a *App) pump() {
	for {
		select {
		case e := <-a.events:
			a.program.Send(eventMsg{event: e})
		case <-a.done:
			return
		}
	}
}

// Close unsubscribes from the bus and releases blocked publishers.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.bus.Unsubscribe(a.subID)
		close(a.done)
	})
}

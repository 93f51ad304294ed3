package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/drawbridge/internal/errors"
	"github.com/Iron-Ham/drawbridge/internal/event"
)

// publish stamps events in order on a private bus and records them.
func publish(evs ...event.Event) []event.Event {
	bus := event.NewBus()
	rec := NewRecorder(bus)
	defer rec.Close()
	for _, e := range evs {
		bus.Publish(e)
	}
	return rec.Events()
}

func arrived(species string, id int) event.Event {
	return event.NewActorArrivedEvent(species, id, 0)
}

func entered(species string, id int) event.Event {
	return event.NewCrossingEnteredEvent(species, id, 0)
}

func left(species string, id int) event.Event {
	return event.NewCrossingLeftEvent(species, id, 0, 0)
}

func raised(id int) event.Event  { return event.NewBridgeRaisedEvent(id, 0, 0) }
func lowered(id int) event.Event { return event.NewBridgeLoweredEvent(id, 0) }

func rulesOf(t *testing.T, err error) []string {
	t.Helper()
	var v Violations
	require.ErrorAs(t, err, &v)
	return v.Rules()
}

func TestCheck_ValidRun(t *testing.T) {
	events := publish(
		arrived("car", 1),
		entered("car", 1),
		arrived("ship", 1),
		arrived("ship", 2),
		arrived("car", 2),
		left("car", 1),
		raised(2),
		entered("ship", 1),
		left("ship", 1),
		entered("ship", 2),
		left("ship", 2),
		lowered(2),
		entered("car", 2),
		left("car", 2),
	)

	assert.NoError(t, Check(events))
}

func TestCheck_MutualExclusion(t *testing.T) {
	events := publish(
		arrived("car", 1),
		arrived("car", 2),
		entered("car", 1),
		entered("car", 2),
	)

	err := Check(events)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvariantViolated)
	assert.Contains(t, rulesOf(t, err), RuleMutualExclusion)
}

func TestCheck_Orientation(t *testing.T) {
	t.Run("ship on a lowered bridge", func(t *testing.T) {
		events := publish(arrived("ship", 1), entered("ship", 1), left("ship", 1))
		assert.Equal(t, []string{RuleOrientation}, rulesOf(t, Check(events)))
	})

	t.Run("car on a raised bridge", func(t *testing.T) {
		events := publish(
			arrived("ship", 1),
			raised(1),
			arrived("car", 1),
			entered("car", 1),
			left("car", 1),
		)
		assert.Equal(t, []string{RuleOrientation}, rulesOf(t, Check(events)))
	})
}

func TestCheck_RaiseWithCarOnDeck(t *testing.T) {
	events := publish(
		arrived("car", 1),
		entered("car", 1),
		arrived("ship", 1),
		raised(1),
	)

	assert.Contains(t, rulesOf(t, Check(events)), RuleRaiseWhenClear)
}

func TestCheck_LowerWithShipsQueued(t *testing.T) {
	events := publish(
		arrived("ship", 1),
		arrived("ship", 2),
		raised(2),
		entered("ship", 1),
		left("ship", 1),
		lowered(1),
	)

	assert.Equal(t, []string{RuleLowerWhenEmpty}, rulesOf(t, Check(events)))
}

func TestCheck_FIFO(t *testing.T) {
	events := publish(
		arrived("car", 1),
		arrived("car", 2),
		entered("car", 2),
		left("car", 2),
	)

	err := Check(events)
	assert.Equal(t, []string{RuleFIFO}, rulesOf(t, err))
	assert.Contains(t, err.Error(), "car 2 entered ahead of car 1")
}

func TestCheck_WithdrawnActorsDoNotBlockFIFO(t *testing.T) {
	events := publish(
		arrived("car", 1),
		arrived("car", 2),
		event.NewActorWithdrawnEvent("car", 1, "context canceled"),
		entered("car", 2),
		left("car", 2),
	)

	assert.NoError(t, Check(events))
}

func TestCheck_Balance(t *testing.T) {
	tests := []struct {
		name   string
		events []event.Event
	}{
		{"enter without arrival", []event.Event{entered("car", 9), left("car", 9)}},
		{"leave without holding", []event.Event{arrived("car", 1), left("car", 1)}},
		{"never left", []event.Event{arrived("car", 1), entered("car", 1)}},
		{"raised twice", []event.Event{arrived("ship", 1), raised(1), raised(1), entered("ship", 1), left("ship", 1), lowered(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(publish(tt.events...))
			assert.Equal(t, []string{RuleBalance}, rulesOf(t, err))
		})
	}
}

func TestCheck_SortsBySequence(t *testing.T) {
	events := publish(arrived("car", 1), entered("car", 1), left("car", 1))
	reversed := []event.Event{events[2], events[1], events[0]}

	assert.NoError(t, Check(reversed))
}

func TestViolations_ErrorFormatting(t *testing.T) {
	single := Violations{{Seq: 4, Rule: RuleFIFO, Message: "car 2 entered ahead of car 1"}}
	assert.Equal(t, "bridge invariant violated: #4 fifo admission: car 2 entered ahead of car 1", single.Error())

	multi := Violations{
		{Seq: 1, Rule: RuleBalance, Message: "a"},
		{Seq: 2, Rule: RuleOrientation, Message: "b"},
	}
	assert.Contains(t, multi.Error(), "2 violations")
	assert.Equal(t, []string{RuleBalance, RuleOrientation}, multi.Rules())
}

package thinking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain collects every event the source produces until it closes.
func drain(t *testing.T, src EventSource, ctx context.Context) []Event {
	t.Helper()
	batches, errCh := src.Events(ctx)
	var events []Event
	for batches != nil || errCh != nil {
		select {
		case batch, ok := <-batches:
			if !ok {
				batches = nil
				continue
			}
			events = append(events, batch...)
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			t.Fatalf("unexpected source error: %v", err)
		case <-time.After(10 * time.Second):
			t.Fatal("source did not finish in time")
		}
	}
	return events
}

func fastSimulator(question, role string) *Simulator {
	return &Simulator{
		Question: question,
		Role:     role,
		MinDelay: time.Nanosecond,
		MaxDelay: time.Nanosecond,
	}
}

func TestSimulatorEmitsFullSequence(t *testing.T) {
	events := drain(t, fastSimulator("How do timers work?", "student"), context.Background())

	require.Len(t, events, 2*len(simPhases)+1)

	var stages []string
	for i, ev := range events[:len(events)-1] {
		if i%2 == 0 {
			assert.Equal(t, EventThinking, ev.Type)
		} else {
			assert.Equal(t, EventStage, ev.Type)
			assert.NotEmpty(t, ev.Content)
			stages = append(stages, ev.Stage)
		}
	}
	assert.Equal(t, simPhases, stages)

	final := events[len(events)-1]
	assert.Equal(t, EventDone, final.Type)
	assert.Equal(t, 100, final.Progress)
}

func TestSimulatorProgressMonotonic(t *testing.T) {
	events := drain(t, fastSimulator("q", "student"), context.Background())

	last := -1
	for _, ev := range events {
		assert.GreaterOrEqual(t, ev.Progress, last, "progress went backwards at %v", ev)
		assert.LessOrEqual(t, ev.Progress, 100)
		last = ev.Progress
	}
}

func TestSimulatorDeterministicContent(t *testing.T) {
	first := drain(t, fastSimulator("How do I configure a digital output pin?", "student"), context.Background())
	second := drain(t, fastSimulator("How do I configure a digital output pin?", "student"), context.Background())

	assert.Equal(t, first, second)

	// Different inputs produce different stage content.
	other := drain(t, fastSimulator("How do I configure a digital output pin?", "teacher"), context.Background())
	assert.NotEqual(t, first[1].Content, other[1].Content)
}

func TestSimulatorCancelInterruptsPacing(t *testing.T) {
	sim := &Simulator{
		Question: "q",
		Role:     "student",
		MinDelay: 30 * time.Second,
		MaxDelay: 30 * time.Second,
	}
	ctx, cancel := context.WithCancel(context.Background())

	batches, errCh := sim.Events(ctx)
	cancel()

	// Both channels must close long before the pacing delay elapses.
	deadline := time.After(2 * time.Second)
	for batches != nil || errCh != nil {
		select {
		case _, ok := <-batches:
			if !ok {
				batches = nil
			}
		case _, ok := <-errCh:
			if !ok {
				errCh = nil
			}
		case <-deadline:
			t.Fatal("simulator did not stop after cancellation")
		}
	}
}

func TestStageContentDeterministic(t *testing.T) {
	a := stageContent("solution design", "q", "student")
	b := stageContent("solution design", "q", "student")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, stageContent("summary", "q", "student"))
}

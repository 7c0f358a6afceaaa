package thinking

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// simPhases is the fixed, ordered stage list the simulator walks through.
// The names match what the remote service emits for a well-behaved run.
var simPhases = []string{
	"problem analysis",
	"knowledge retrieval",
	"solution design",
	"illustrative example",
	"summary",
}

// Default pacing window between simulated stage pairs.
const (
	defaultSimMinDelay = 300 * time.Millisecond
	defaultSimMaxDelay = 900 * time.Millisecond
)

// Simulator reproduces the externally observable contract of the remote
// reasoning stream without touching the network: one Thinking/Stage pair per
// phase, then Done. Stage content is derived deterministically from
// (phase, question, role); only the pacing between emissions is random, and
// every pacing wait is interruptible through the context.
type Simulator struct {
	Question string
	Role     string

	// Pacing bounds for the artificial think-time before each stage pair.
	// Leaving both zero selects the default 300ms-900ms window.
	MinDelay time.Duration
	MaxDelay time.Duration
}

// Events implements EventSource. The error channel never carries a value:
// the simulator cannot fail, only complete or get cancelled.
func (s *Simulator) Events(ctx context.Context) (<-chan []Event, <-chan error) {
	batches := make(chan []Event)
	errCh := make(chan error)

	go func() {
		defer close(batches)
		defer close(errCh)

		n := len(simPhases)
		for i, phase := range simPhases {
			if !s.pause(ctx) {
				return
			}
			thinking := Event{
				Type:     EventThinking,
				Thinking: fmt.Sprintf("Working through %s for: %s", phase, s.Question),
				Progress: (2*i + 1) * 100 / (2 * n),
			}
			if !send(ctx, batches, []Event{thinking}) {
				return
			}
			stage := Event{
				Type:     EventStage,
				Stage:    phase,
				Content:  stageContent(phase, s.Question, s.Role),
				Progress: (i + 1) * 100 / n,
			}
			if !send(ctx, batches, []Event{stage}) {
				return
			}
		}
		send(ctx, batches, []Event{{Type: EventDone, Progress: 100}})
	}()

	return batches, errCh
}

// pause sleeps for a bounded random interval, returning false if the context
// is cancelled first. The wait must never delay cancellation.
func (s *Simulator) pause(ctx context.Context) bool {
	min, max := s.MinDelay, s.MaxDelay
	if min <= 0 && max <= 0 {
		min, max = defaultSimMinDelay, defaultSimMaxDelay
	}
	d := min
	if max > min {
		d += time.Duration(rand.Int63n(int64(max - min)))
	}
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// stageContent synthesizes the text of one simulated stage. Same inputs must
// yield the same output.
func stageContent(phase, question, role string) string {
	treatment := "a practical, step-by-step"
	if role == "teacher" {
		treatment = "a curriculum-oriented"
	}
	switch phase {
	case "problem analysis":
		return fmt.Sprintf("Breaking down %q: identifying the core concepts involved and what a complete answer needs to cover for %s treatment.", question, treatment)
	case "knowledge retrieval":
		return fmt.Sprintf("Collecting the background material relevant to %q: definitions, typical configurations, and the pitfalls most often reported for this topic.", question)
	case "solution design":
		return fmt.Sprintf("Laying out an approach to %q, ordered so that each step builds on the previous one and can be verified before moving on.", question)
	case "illustrative example":
		return fmt.Sprintf("Constructing a worked example for %q that can be followed end to end on real hardware.", question)
	case "summary":
		return fmt.Sprintf("Summarizing the findings on %q with the key points worth remembering.", question)
	default:
		return fmt.Sprintf("Considering %q.", question)
	}
}

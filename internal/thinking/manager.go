package thinking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"
)

// Planning knobs sent with a deep-thinking request when the caller leaves
// them unset.
const (
	DefaultDepth       = 2
	DefaultBreadth     = 3
	DefaultConcurrency = 2
)

// ErrEmptyQuestion is returned when Start or AskOnce receives a question
// that is empty after trimming. No session is created.
var ErrEmptyQuestion = errors.New("question must not be empty")

// ThinkRequest is the payload of one outbound deep-thinking stream request.
type ThinkRequest struct {
	Question    string
	PageContext string
	Role        string
	Depth       int
	Breadth     int
	Concurrency int
}

// AskRequest is the payload of one outbound non-streaming request.
type AskRequest struct {
	Message     string
	PageContext string
	Role        string
}

// Service abstracts the remote reasoning endpoint. transport.Client is the
// production implementation; tests substitute their own.
type Service interface {
	// OpenThinking issues the streaming request and returns the raw event
	// stream. Any error means no readable stream was obtained.
	OpenThinking(ctx context.Context, req ThinkRequest) (io.ReadCloser, error)

	// Ask issues the non-streaming request and returns the final answer text.
	Ask(ctx context.Context, req AskRequest) (string, error)
}

// StartOptions carries the callbacks and planning knobs for one Start call.
type StartOptions struct {
	Callbacks
	Depth       int
	Breadth     int
	Concurrency int
}

// Manager drives deep-thinking sessions. It owns the session state, opens
// the transport stream, decodes and dispatches events, falls back to the
// local simulator when the service is unreachable, and supports cancellation
// at any point. At most one session is active per Manager; starting a new
// session cancels the previous one first.
type Manager struct {
	svc Service // nil means every session runs simulated

	// FallbackAnswerer produces AskOnce's degraded answer when the service
	// is unreachable. Nil selects the built-in keyword lookup.
	FallbackAnswerer func(question, role string) string

	// Pacing bounds forwarded to the simulator. Zero selects the simulator
	// defaults; tests tighten them to keep runs fast.
	SimMinDelay time.Duration
	SimMaxDelay time.Duration

	mu      sync.Mutex
	session *Session
	cancel  context.CancelFunc
}

// NewManager creates a Manager backed by svc. A nil svc is allowed and makes
// every session take the simulated path.
func NewManager(svc Service) *Manager {
	return &Manager{svc: svc}
}

// Handle identifies one started session.
type Handle struct {
	m       *Manager
	session *Session
	done    chan struct{}
}

// Done returns a channel closed once the session reaches a terminal state or
// is cancelled.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Session returns a snapshot of the session's current state.
func (h *Handle) Session() Session {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	return *h.session
}

// Start begins a deep-thinking session for question. pageContext tells the
// service which part of the product the question came from. If another
// session is still active it is cancelled before the new one starts.
//
// On any failure to obtain a readable stream the session transparently falls
// back to the local simulator; the callback surface is identical either way.
func (m *Manager) Start(question, role, pageContext string, opts StartOptions) (*Handle, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	m.Cancel()

	ctx, cancel := context.WithCancel(context.Background())
	sess := newSession(question, role)
	h := &Handle{m: m, session: sess, done: make(chan struct{})}

	m.mu.Lock()
	m.session = sess
	m.cancel = cancel
	m.mu.Unlock()

	req := ThinkRequest{
		Question:    question,
		PageContext: pageContext,
		Role:        role,
		Depth:       orDefault(opts.Depth, DefaultDepth),
		Breadth:     orDefault(opts.Breadth, DefaultBreadth),
		Concurrency: orDefault(opts.Concurrency, DefaultConcurrency),
	}

	// Pacing bounds are captured here so the session goroutine never reads
	// Manager fields after Start returns.
	simMin, simMax := m.SimMinDelay, m.SimMaxDelay

	go m.run(ctx, cancel, sess, req, opts.Callbacks, h.done, simMin, simMax)
	return h, nil
}

// run is the session goroutine: remote attempt first, simulator fallback.
func (m *Manager) run(ctx context.Context, cancel context.CancelFunc, sess *Session, req ThinkRequest, cb Callbacks, done chan struct{}, simMin, simMax time.Duration) {
	defer close(done)
	defer cancel()

	if src := m.openRemote(ctx, req); src != nil {
		received, terminal := m.consume(ctx, sess, src, cb)
		switch {
		case terminal:
			return
		case ctx.Err() != nil:
			return
		case received:
			// The stream produced real data and then stopped without a
			// terminal frame. Falling back now would splice two unrelated
			// narratives together, so the failure surfaces instead.
			m.deliver(sess, []Event{{Type: EventError, Error: "reasoning stream interrupted"}}, cb)
			return
		}
		// Zero bytes of usable data: treat like an establishment failure.
	}

	sim := &Simulator{
		Question: sess.Question,
		Role:     sess.Role,
		MinDelay: simMin,
		MaxDelay: simMax,
	}
	m.setTotalStages(sess, len(simPhases))
	m.consume(ctx, sess, sim, cb)
}

// openRemote attempts the transport path. A nil return means no readable
// stream could be obtained and the caller should simulate instead.
func (m *Manager) openRemote(ctx context.Context, req ThinkRequest) EventSource {
	if m.svc == nil {
		return nil
	}
	body, err := m.svc.OpenThinking(ctx, req)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("deep thinking: service unavailable, simulating locally: %v", err)
		}
		return nil
	}
	return &remoteSource{body: body}
}

// consume drains one source, dispatching every batch. It reports whether any
// event was received and whether the session reached a terminal state.
//
// A mid-stream failure is held back until the batch channel is exhausted:
// the producer enqueues every decoded batch before its error, and an
// already-decoded batch must never be overtaken by the failure behind it.
func (m *Manager) consume(ctx context.Context, sess *Session, src EventSource, cb Callbacks) (received, terminal bool) {
	batches, errCh := src.Events(ctx)
	var streamErr error
	var failed bool
	for batches != nil || errCh != nil {
		select {
		case batch, ok := <-batches:
			if !ok {
				batches = nil
				continue
			}
			received = true
			if m.deliver(sess, batch, cb) {
				terminal = true
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			streamErr = err
			failed = true
			errCh = nil
		}
	}
	// Mid-stream failure. With data already delivered it surfaces as an
	// error event; with none, the caller falls back.
	if failed && received && !terminal && ctx.Err() == nil {
		ev := Event{Type: EventError, Error: fmt.Sprintf("reasoning stream interrupted: %v", streamErr)}
		if m.deliver(sess, []Event{ev}, cb) {
			terminal = true
		}
	}
	return received, terminal
}

// deliver dispatches one batch under the Manager's lock. Cancel takes the
// same lock, so once Cancel returns no further callback can fire. It reports
// whether the session is no longer active.
func (m *Manager) deliver(sess *Session, batch []Event, cb Callbacks) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range batch {
		dispatch(ev, sess, cb)
	}
	return !sess.Active
}

func (m *Manager) setTotalStages(sess *Session, n int) {
	m.mu.Lock()
	sess.TotalStages = n
	m.mu.Unlock()
}

// Cancel marks the current session inactive and interrupts its pending
// transport read or simulator wait. It is synchronous: once Cancel returns,
// no callback for that session fires. Cancelling with no active session is a
// no-op. Cancel must not be called from inside a callback.
func (m *Manager) Cancel() {
	m.mu.Lock()
	if m.session != nil {
		m.session.Active = false
	}
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// IsActive reports whether a session is currently in flight.
func (m *Manager) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil && m.session.Active
}

// CurrentSession returns a snapshot of the most recent session, or nil if
// none was ever started.
func (m *Manager) CurrentSession() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	snapshot := *m.session
	return &snapshot
}

// AskOnce sends a single non-streaming question and returns the final answer
// text. When the service is unreachable it degrades to a canned contextual
// answer instead of failing; only invalid input and context cancellation are
// surfaced as errors. AskOnce does not touch the streaming session state.
func (m *Manager) AskOnce(ctx context.Context, question, role, pageContext string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	if m.svc != nil {
		answer, err := m.svc.Ask(ctx, AskRequest{Message: question, PageContext: pageContext, Role: role})
		if err == nil {
			return answer, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Printf("ask: service unavailable, using canned answer: %v", err)
	}

	answer := m.FallbackAnswerer
	if answer == nil {
		answer = cannedAnswer
	}
	return answer(question, role), nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

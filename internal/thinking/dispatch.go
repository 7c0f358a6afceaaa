package thinking

// dispatch applies one event to the session and invokes the matching
// callback slot. The caller serializes events and must hold the Manager's
// lock; dispatch itself is not reentrant-safe for concurrent events on the
// same session.
//
// Once the session is inactive, every further event is silently dropped.
// That guards against duplicate terminal frames and against late events
// arriving after cancellation: the remote service is not trusted to stop
// sending after a terminal frame.
func dispatch(ev Event, s *Session, cb Callbacks) {
	if !s.Active {
		return
	}
	switch ev.Type {
	case EventThinking:
		// Progress travels in the callback payload; nothing persists.
		if cb.OnThinking != nil {
			cb.OnThinking(ev)
		}
	case EventStage:
		s.CompletedStages++
		if cb.OnStage != nil {
			cb.OnStage(ev)
		}
	case EventError:
		s.Active = false
		if cb.OnError != nil {
			cb.OnError(ev.Error)
		}
	case EventDone:
		s.Active = false
		if cb.OnComplete != nil {
			cb.OnComplete(*s)
		}
	default:
		// Unknown event types are ignored.
	}
}

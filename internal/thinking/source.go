package thinking

import (
	"context"
	"io"
)

// EventSource produces the ordered event batches of one session. The remote
// stream and the local simulator both implement it, so the Manager's
// dispatch loop is written once and is provider-agnostic.
//
// One batch corresponds to one transport chunk (or one simulator emission):
// its events are dispatched back-to-back with no cancellation point between
// them. The batch channel is closed when the source is exhausted; the error
// channel carries at most one mid-stream failure and is closed with it.
type EventSource interface {
	Events(ctx context.Context) (<-chan []Event, <-chan error)
}

// remoteSource drives a FrameDecoder over a live response body. It owns the
// body and closes it on every exit path.
type remoteSource struct {
	body io.ReadCloser
}

func (r *remoteSource) Events(ctx context.Context) (<-chan []Event, <-chan error) {
	batches := make(chan []Event, 4)
	errCh := make(chan error, 1)

	go func() {
		defer close(batches)
		defer close(errCh)
		defer r.body.Close()

		var dec FrameDecoder
		buf := make([]byte, 4096)
		for {
			n, err := r.body.Read(buf)
			if n > 0 {
				if evs := dec.Decode(buf[:n]); len(evs) > 0 {
					if !send(ctx, batches, evs) {
						return
					}
				}
			}
			if err == io.EOF {
				// A well-behaved server terminates the last line, but a
				// final frame without a newline is still honored.
				if evs := dec.Flush(); len(evs) > 0 {
					send(ctx, batches, evs)
				}
				return
			}
			if err != nil {
				errCh <- err
				return
			}
		}
	}()

	return batches, errCh
}

func send(ctx context.Context, ch chan<- []Event, batch []Event) bool {
	select {
	case ch <- batch:
		return true
	case <-ctx.Done():
		return false
	}
}

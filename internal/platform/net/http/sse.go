package http

import (
	"fmt"
	stdhttp "net/http"
	"time"

	"unievents/internal/core/live"
	perr "unievents/internal/platform/errors"
	pnet "unievents/internal/platform/net"
)

// DefaultHeartbeat keeps idle SSE connections open through proxies
const DefaultHeartbeat = 15 * time.Second

// SSE event names
const (
	EventUpdate = "update"
	EventError  = "error"
)

// SSE writes server-sent events to one response
type SSE struct {
	w   stdhttp.ResponseWriter
	f   stdhttp.Flusher
	seq int
}

// StartSSE sends the event-stream headers. The writer must support flushing.
func StartSSE(w stdhttp.ResponseWriter) (*SSE, error) {
	f, ok := w.(stdhttp.Flusher)
	if !ok {
		return nil, perr.New(perr.ErrorCodeUnknown, "streaming unsupported")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(stdhttp.StatusOK)
	f.Flush()
	return &SSE{w: w, f: f}, nil
}

// Send writes one event with v encoded as JSON
func (s *SSE) Send(event string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.seq++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.seq, event, b); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

// Ping writes a comment line
func (s *SSE) Ping() error {
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

// Values streams every value from ch as an update event until ch closes or the client goes away
func Values[T any](w stdhttp.ResponseWriter, r *stdhttp.Request, ch <-chan T) {
	updates := make(chan live.Update[T])
	go func() {
		defer close(updates)
		for v := range ch {
			if !live.Send(r.Context(), updates, live.Update[T]{Value: v}) {
				return
			}
		}
	}()
	Stream(w, r, updates)
}

// Stream writes each update as an update event. An update carrying an error is written as an
// error event holding the usual envelope and ends the stream.
func Stream[T any](w stdhttp.ResponseWriter, r *stdhttp.Request, ch <-chan live.Update[T]) {
	sse, err := StartSSE(w)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	ctx := r.Context()
	beat := time.NewTicker(DefaultHeartbeat)
	defer beat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-beat.C:
			if sse.Ping() != nil {
				return
			}
		case u, ok := <-ch:
			if !ok {
				return
			}
			if u.Err != nil {
				_, body := pnet.Error(u.Err, pnet.RequestID(ctx))
				_ = sse.Send(EventError, body)
				return
			}
			if sse.Send(EventUpdate, u.Value) != nil {
				return
			}
		}
	}
}

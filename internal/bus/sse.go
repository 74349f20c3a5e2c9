package bus

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/deixis/cellar/internal/stream"
)

// EventName is the SSE event type of every run event.
const EventName = "brew-log"

// KeepAlive is the interval between SSE keep-alive comments.
var KeepAlive = 30 * time.Second

// ServeHTTP streams events as server-sent events. The optional "id" query
// parameter is the request id pattern to follow; it defaults to "*".
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	pattern := r.URL.Query().Get("id")
	if pattern == "" {
		pattern = "*"
	}

	// Long-lived stream; the server's WriteTimeout must not cut it.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.Log.Debug().Err(err).Msg("could not clear write deadline")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sub := h.Subscribe(pattern, 0)
	defer sub.Cancel()

	_, _ = fmt.Fprintf(w, ": subscribed %s\n\n", pattern)
	flusher.Flush()
	h.Log.Debug().Str("subscription", sub.ID()).Str("remote_addr", r.RemoteAddr).Msg("sse client connected")

	keepAlive := time.NewTicker(KeepAlive)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.Log.Debug().Str("subscription", sub.ID()).Msg("sse client disconnected")
			return
		case e, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := writeEvent(w, e); err != nil {
				h.Log.Debug().Err(err).Str("subscription", sub.ID()).Msg("sse write failed")
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			_, _ = fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, e stream.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", EventName, data)
	return err
}

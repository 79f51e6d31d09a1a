package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// sseEvent represents an SSE event to send to the client.
type sseEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// sessionEvent reports a session change.
type sessionEvent struct {
	Authenticated bool   `json:"authenticated"`
	Reason        string `json:"reason"`
	UserID        int    `json:"user_id,omitempty"`
}

// uploadEvent reports an upload workflow transition.
type uploadEvent struct {
	Modal string `json:"modal"`
	Phase string `json:"phase"`
	Error string `json:"error,omitempty"`
}

// hub fans events out to connected SSE clients. Slow clients drop events
// rather than block publishers.
type hub struct {
	mu   sync.Mutex
	subs map[chan sseEvent]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan sseEvent]struct{})}
}

func (h *hub) subscribe() (<-chan sseEvent, func()) {
	ch := make(chan sseEvent, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
		})
	}
}

func (h *hub) publish(evt sseEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// heartbeatInterval is how often idle SSE streams get a keep-alive.
var heartbeatInterval = 15 * time.Second

// handleSSE streams session changes, upload transitions, expiry redirects
// and heartbeats until the client disconnects.
func handleSSE(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		events, unsubscribe := a.hub.subscribe()
		defer unsubscribe()
		changes, cancel := a.store.Subscribe()
		defer cancel()

		writeSSE(c.Writer, "connected", map[string]bool{"authenticated": a.store.IsAuthenticated()})
		c.Writer.Flush()

		ctx := c.Request.Context()
		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
			case ch, ok := <-changes:
				if !ok {
					return
				}
				writeSSE(c.Writer, "session", sessionEvent{
					Authenticated: ch.Session.Authenticated(),
					Reason:        string(ch.Reason),
					UserID:        ch.Session.UserID,
				})
			case evt := <-events:
				writeSSE(c.Writer, evt.Event, evt.Data)
			}
			c.Writer.Flush()
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}

package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/aura-planner/internal/session"
)

const (
	subscriberBuffer = 16
	writeTimeout     = 5 * time.Second
)

// Hub fans plan events out to websocket subscribers of each session. It is
// an EventLogger, so the session service publishes to it directly.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan session.Event]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan session.Event]struct{})}
}

// Subscribe registers a listener for sessionID. The returned cancel func
// unregisters and closes the channel.
func (h *Hub) Subscribe(sessionID string) (<-chan session.Event, func()) {
	ch := make(chan session.Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan session.Event]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[sessionID], ch)
			if len(h.subs[sessionID]) == 0 {
				delete(h.subs, sessionID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of listeners on sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

// LogEvent implements session.EventLogger. Slow subscribers miss events
// rather than block the caller.
func (h *Hub) LogEvent(event session.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[event.SessionID] {
		select {
		case ch <- event:
		default:
			slog.Warn("dropping event for slow subscriber",
				"session_id", event.SessionID,
				"type", event.EventType,
			)
		}
	}
	return nil
}

// serveWS streams the events of one session until the client goes away.
func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	events, cancel := h.Subscribe(sessionID)
	defer cancel()

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "session_id", sessionID, "error", err)
		return
	}
	defer conn.CloseNow()

	// Clients only listen; CloseRead handles control frames and cancels ctx
	// once the peer closes.
	ctx := conn.CloseRead(r.Context())

	slog.Debug("event subscriber connected", "session_id", sessionID)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(ctx, conn, ev); err != nil {
				slog.Debug("event subscriber gone", "session_id", sessionID, "error", err)
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev session.Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}

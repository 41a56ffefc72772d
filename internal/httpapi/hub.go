package httpapi

import (
	"sync"

	"github.com/thotsl4yer69/sentient-core-sub001/internal/session"
)

const clientBuffer = 16

// hub fans notifications out to websocket clients. Slow clients drop
// notifications rather than stalling the session observer.
type hub struct {
	mu      sync.Mutex
	clients map[chan session.Notification]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[chan session.Notification]struct{})}
}

func (h *hub) add() chan session.Notification {
	ch := make(chan session.Notification, clientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) remove(ch chan session.Notification) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

func (h *hub) broadcast(n session.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- n:
		default:
		}
	}
}

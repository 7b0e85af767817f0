package api

import (
	"time"

	"golang.org/x/net/websocket"
)

// stream serves GET /v1/stream: a WebSocket that delivers the current
// snapshot immediately on connect, then every subsequent update as it is
// reconciled. A subscriber that falls behind loses its oldest pending
// update (the hub drops, the stream never blocks the engine), and its
// deliveries stay in publish order.
func (h *Handler) stream(ws *websocket.Conn) {
	defer ws.Close()

	// Clear the server's per-request write deadline; this connection is
	// long-lived.
	_ = ws.SetDeadline(time.Time{})

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	// Drain inbound frames so we notice the peer closing while idle.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		var discard string
		for {
			if err := websocket.Message.Receive(ws, &discard); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case u, ok := <-sub.Updates():
			if !ok {
				return
			}
			if err := websocket.JSON.Send(ws, u); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/flightbridge/flightbridge/apitypes"
	"github.com/flightbridge/flightbridge/capture"
)

const fullSyncInterval = 5 * time.Second

// Broadcaster forwards capture events from a manager subscription to the hub
// using the same JSON envelopes as the TCP events stream. While a device is
// connected it re-sends the full state periodically so late joiners and
// clients that lost frames converge.
type Broadcaster struct {
	hub    *Hub
	m      *capture.Manager
	logger *slog.Logger

	mu        sync.Mutex
	seq       int64
	lastState *capture.StateUpdate
}

func NewBroadcaster(h *Hub, m *capture.Manager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hub:    h,
		m:      m,
		logger: logger,
	}
}

// Run subscribes to the capture manager and pumps events into the hub until
// ctx is done or the manager closes. Call it in its own goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	sub := b.m.Subscribe()
	defer sub.Close()

	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case st, ok := <-sub.States():
			if !ok {
				return
			}
			b.mu.Lock()
			b.lastState = &st
			b.mu.Unlock()
			b.send(apitypes.EventTypeState, st)

		case gs, ok := <-sub.Gamepads():
			if !ok {
				return
			}
			b.send(apitypes.EventTypeGamepad, gs)

		case <-ticker.C:
			b.mu.Lock()
			st := b.lastState
			b.mu.Unlock()
			if st != nil && st.Connected {
				b.send(apitypes.EventTypeState, *st)
			}
		}
	}
}

// SendInitialState pushes the most recent device state to a newly connected
// client so it renders without waiting for the device to move.
func (b *Broadcaster) SendInitialState(c *Client) {
	b.mu.Lock()
	st := b.lastState
	b.mu.Unlock()
	if st == nil {
		return
	}
	data, err := b.envelope(apitypes.EventTypeState, *st)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (b *Broadcaster) send(eventType string, payload any) {
	data, err := b.envelope(eventType, payload)
	if err != nil {
		b.logger.Error("ws encode event", "error", err)
		return
	}
	b.hub.Broadcast(data)
}

func (b *Broadcaster) envelope(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.mu.Unlock()
	return json.Marshal(apitypes.StreamEvent{
		Type:      eventType,
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Data:      raw,
	})
}

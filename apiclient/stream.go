package apiclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	apitypes "github.com/flightbridge/flightbridge/apitypes"
	"github.com/flightbridge/flightbridge/capture"
	"github.com/flightbridge/flightbridge/gamepad"
)

// EventStream is a long-lived connection to the server's event push channel.
// The server writes one JSON line per pushed event until the connection
// closes.
type EventStream struct {
	conn   net.Conn
	r      *bufio.Reader
	closed bool

	readCancel context.CancelFunc
	readMu     sync.Mutex
}

// OpenEvents connects to the event stream. The connection authenticates the
// same way request connections do, then stays open for pushed events.
func (c *Client) OpenEvents(ctx context.Context) (*EventStream, error) {
	if c.transport.mock != nil {
		return nil, fmt.Errorf("stream connections not supported with mock transport")
	}

	conn, err := dialAuthenticated(ctx, c.transport.addr, c.transport.cfg)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Write([]byte("events\x00")); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write stream path: %w", err)
	}

	return &EventStream{conn: conn, r: bufio.NewReader(conn)}, nil
}

// Next reads one pushed event. It blocks until an event arrives or the
// connection ends.
func (s *EventStream) Next() (*apitypes.StreamEvent, error) {
	if s.closed {
		return nil, fmt.Errorf("stream closed")
	}
	line, err := s.r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	var ev apitypes.StreamEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &ev, nil
}

// StartReading begins asynchronously reading events in a background
// goroutine. The returned channels close when the stream ends; the error
// channel carries the terminal error.
func (s *EventStream) StartReading(ctx context.Context, chSize int) (<-chan apitypes.StreamEvent, <-chan error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	if s.readCancel != nil {
		panic("StartReading called twice on the same stream")
	}

	evCh := make(chan apitypes.StreamEvent, chSize)
	errCh := make(chan error, 1)

	readCtx, cancel := context.WithCancel(ctx)
	s.readCancel = cancel

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer cancel()

		for {
			select {
			case <-readCtx.Done():
				errCh <- readCtx.Err()
				return
			default:
			}

			ev, err := s.Next()
			if err != nil {
				errCh <- err
				return
			}

			select {
			case evCh <- *ev:
			case <-readCtx.Done():
				errCh <- readCtx.Err()
				return
			}
		}
	}()

	return evCh, errCh
}

// SetReadDeadline sets the read deadline for the underlying connection.
func (s *EventStream) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

// Close closes the stream connection and stops any background reading.
func (s *EventStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.readMu.Lock()
	if s.readCancel != nil {
		s.readCancel()
	}
	s.readMu.Unlock()

	return s.conn.Close()
}

// DecodeState unpacks a state event payload.
func DecodeState(ev *apitypes.StreamEvent) (*capture.StateUpdate, error) {
	if ev.Type != apitypes.EventTypeState {
		return nil, fmt.Errorf("not a state event: %s", ev.Type)
	}
	var st capture.StateUpdate
	if err := json.Unmarshal(ev.Data, &st); err != nil {
		return nil, fmt.Errorf("decode state event: %w", err)
	}
	return &st, nil
}

// DecodeGamepad unpacks a gamepad event payload.
func DecodeGamepad(ev *apitypes.StreamEvent) (*gamepad.State, error) {
	if ev.Type != apitypes.EventTypeGamepad {
		return nil, fmt.Errorf("not a gamepad event: %s", ev.Type)
	}
	var st gamepad.State
	if err := json.Unmarshal(ev.Data, &st); err != nil {
		return nil, fmt.Errorf("decode gamepad event: %w", err)
	}
	return &st, nil
}

package api

import (
	"encoding/json"
	"log/slog"
	"net"
	"time"

	"github.com/flightbridge/flightbridge/apitypes"
	"github.com/flightbridge/flightbridge/capture"
)

// EventsStreamHandler returns a stream handler that pushes capture events to
// the connection as newline-delimited JSON envelopes until the client hangs
// up or the manager is disposed.
func EventsStreamHandler(m *capture.Manager) StreamHandlerFunc {
	return func(conn net.Conn, req *Request, logger *slog.Logger) error {
		defer conn.Close()

		sub := m.Subscribe()
		defer sub.Close()

		// Client hangup surfaces as a read error.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			buf := make([]byte, 1)
			for {
				if _, err := conn.Read(buf); err != nil {
					return
				}
			}
		}()

		enc := json.NewEncoder(conn)
		var seq int64
		send := func(eventType string, payload any) error {
			data, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			seq++
			return enc.Encode(apitypes.StreamEvent{
				Type:      eventType,
				Seq:       seq,
				Timestamp: time.Now().UnixMilli(),
				Data:      data,
			})
		}

		for {
			select {
			case <-gone:
				return nil
			case <-req.Ctx.Done():
				return nil
			case st, ok := <-sub.States():
				if !ok {
					return nil
				}
				if err := send(apitypes.EventTypeState, st); err != nil {
					return err
				}
			case gs, ok := <-sub.Gamepads():
				if !ok {
					return nil
				}
				if err := send(apitypes.EventTypeGamepad, gs); err != nil {
					return err
				}
			}
		}
	}
}

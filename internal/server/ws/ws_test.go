package ws_test

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightbridge/flightbridge/apitypes"
	"github.com/flightbridge/flightbridge/capture"
	"github.com/flightbridge/flightbridge/hid"
	"github.com/flightbridge/flightbridge/internal/server/ws"
	th "github.com/flightbridge/flightbridge/internal/testing"
)

var stick = hid.DeviceInfo{Path: "fake0", VendorID: 0x044f, ProductID: 0xb10a, Product: "T.16000M"}

func startWSServer(t *testing.T) (string, *th.Env, *ws.Server) {
	t.Helper()
	env := th.NewEnv(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv := ws.New(env.Manager, addr, slog.Default())
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Close)
	return addr, env, srv
}

func dialWS(t *testing.T, addr string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestEventFeed(t *testing.T) {
	addr, env, _ := startWSServer(t)
	env.Backend.SetDevices(stick)

	conn := dialWS(t, addr)

	require.NoError(t, env.Manager.Start("fake0"))

	// Emit reports on a timer until the broadcaster subscription and the
	// client registration are both live; the reader below only needs a few
	// of them to land. Alternating the trigger button keeps gamepad events
	// flowing past the change suppression.
	stop := make(chan struct{})
	var stopOnce sync.Once
	stopEmitter := func() { stopOnce.Do(func() { close(stop) }) }
	defer stopEmitter()
	go func() {
		pressed := false
		for {
			select {
			case <-stop:
				return
			case <-time.After(10 * time.Millisecond):
			}
			dev := env.Backend.Handle("fake0")
			if dev == nil {
				continue
			}
			var buttons uint8
			if pressed {
				buttons = 0x01
			}
			pressed = !pressed
			dev.Emit([]byte{buttons, 0x00, 0x0f, 0x00, 0x20, 0x00, 0x20, 0x80, 0x80})
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var sawState, sawGamepad bool
	var lastSeq int64
	for i := 0; i < 50 && !(sawState && sawGamepad); i++ {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var ev apitypes.StreamEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		assert.Greater(t, ev.Seq, lastSeq, "sequence numbers increase")
		lastSeq = ev.Seq
		assert.NotZero(t, ev.Timestamp)

		switch ev.Type {
		case apitypes.EventTypeState:
			var st capture.StateUpdate
			require.NoError(t, json.Unmarshal(ev.Data, &st))
			if st.Connected && len(st.Axes) > 0 {
				assert.Equal(t, "T.16000M", st.DeviceName)
				assert.Len(t, st.Axes, 4)
				sawState = true
			}
		case apitypes.EventTypeGamepad:
			sawGamepad = true
		}
	}
	assert.True(t, sawState, "no state event with axes on the feed")
	assert.True(t, sawGamepad, "no gamepad event on the feed")

	// A client connecting after the fact gets a state snapshot pushed
	// without waiting for the device to produce another report.
	stopEmitter()
	time.Sleep(50 * time.Millisecond)

	late := dialWS(t, addr)
	require.NoError(t, late.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := late.ReadMessage()
	require.NoError(t, err)

	var snap apitypes.StreamEvent
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, apitypes.EventTypeState, snap.Type)
	var st capture.StateUpdate
	require.NoError(t, json.Unmarshal(snap.Data, &st))
	assert.True(t, st.Connected)
	assert.Equal(t, "T.16000M", st.DeviceName)
}

func TestServerCloseDisconnectsClients(t *testing.T) {
	addr, _, srv := startWSServer(t)
	conn := dialWS(t, addr)

	// Registration happens after the upgrade response the dialer saw, so
	// give the hub a moment before tearing everything down.
	time.Sleep(20 * time.Millisecond)
	srv.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			t.Fatal("server close did not reach the client")
		}
		return
	}
}

func TestUpgradeRequiredOnFeedEndpoint(t *testing.T) {
	addr, _, _ := startWSServer(t)

	// A plain TCP probe speaking HTTP gets a 400 from the upgrader rather
	// than a hung connection.
	c, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Write([]byte("GET /ws HTTP/1.1\r\nHost: " + addr + "\r\n\r\n"))
	require.NoError(t, err)
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))

	buf := make([]byte, 64)
	n, err := c.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "400")
}

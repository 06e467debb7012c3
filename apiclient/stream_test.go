package apiclient_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	apiclient "github.com/flightbridge/flightbridge/apiclient"
	apitypes "github.com/flightbridge/flightbridge/apitypes"
	"github.com/flightbridge/flightbridge/capture"
	"github.com/flightbridge/flightbridge/gamepad"
	"github.com/flightbridge/flightbridge/hid"
	api "github.com/flightbridge/flightbridge/internal/server/api"
	htesting "github.com/flightbridge/flightbridge/internal/testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenEvents_NotSupportedWithMockTransport(t *testing.T) {
	c := testClient(map[string]string{}, nil)
	_, err := c.OpenEvents(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not supported with mock transport")
}

func TestEventStream_Receive(t *testing.T) {
	addr, env, done := htesting.StartAPIServer(t, func(r *api.Router, env *htesting.Env, _ *api.Server) {
		r.RegisterStream("events", api.EventsStreamHandler(env.Manager))
	})
	defer done()

	info := hid.DeviceInfo{Path: "fake0", VendorID: 0x044f, ProductID: 0xb10a, Product: "T.16000M"}
	env.Backend.SetDevices(info)
	require.NoError(t, env.Manager.Start("fake0"))

	c := apiclient.New(addr)
	stream, err := c.OpenEvents(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	// Reports repeat until the server-side subscription is live; the reader
	// below only needs one of them to land.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		data := []byte{0x00, 0x00, 0x00, 0x02, 0x00, 0x02, 0x80, 0x08}
		for {
			select {
			case <-stop:
				return
			default:
			}
			if dev := env.Backend.Handle("fake0"); dev != nil {
				dev.Emit(data)
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()

	require.NoError(t, stream.SetReadDeadline(time.Now().Add(3*time.Second)))

	var stateEv *apitypes.StreamEvent
	for i := 0; i < 10 && stateEv == nil; i++ {
		ev, err := stream.Next()
		require.NoError(t, err)
		assert.NotZero(t, ev.Seq)
		if ev.Type == apitypes.EventTypeState {
			stateEv = ev
		}
	}
	require.NotNil(t, stateEv, "no state event within 10 pushed events")

	st, err := apiclient.DecodeState(stateEv)
	require.NoError(t, err)
	assert.True(t, st.Connected)
	assert.Equal(t, "T.16000M", st.DeviceName)
}

func TestEventStream_ClosedErrors(t *testing.T) {
	addr, _, done := htesting.StartAPIServer(t, func(r *api.Router, env *htesting.Env, _ *api.Server) {
		r.RegisterStream("events", api.EventsStreamHandler(env.Manager))
	})
	defer done()

	c := apiclient.New(addr)
	stream, err := c.OpenEvents(context.Background())
	require.NoError(t, err)

	require.NoError(t, stream.Close())
	_, err = stream.Next()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "stream closed")
	assert.NoError(t, stream.Close())
}

func TestDecodeEventPayloads(t *testing.T) {
	stateData, err := json.Marshal(capture.StateUpdate{
		Connected:  true,
		DeviceName: "stick",
		Axes:       []float64{0.5},
		Buttons:    []bool{true},
		HatSwitch:  -1,
	})
	require.NoError(t, err)
	gamepadData, err := json.Marshal(gamepad.State{ControllerID: 1, LeftStickX: 1000})
	require.NoError(t, err)

	stateEv := &apitypes.StreamEvent{Type: apitypes.EventTypeState, Seq: 1, Data: stateData}
	gamepadEv := &apitypes.StreamEvent{Type: apitypes.EventTypeGamepad, Seq: 2, Data: gamepadData}

	st, err := apiclient.DecodeState(stateEv)
	require.NoError(t, err)
	assert.Equal(t, "stick", st.DeviceName)
	assert.Equal(t, []float64{0.5}, st.Axes)

	gs, err := apiclient.DecodeGamepad(gamepadEv)
	require.NoError(t, err)
	assert.Equal(t, 1, gs.ControllerID)
	assert.Equal(t, int16(1000), gs.LeftStickX)

	_, err = apiclient.DecodeState(gamepadEv)
	assert.Error(t, err)
	_, err = apiclient.DecodeGamepad(stateEv)
	assert.Error(t, err)
}

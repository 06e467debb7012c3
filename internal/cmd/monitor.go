package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/flightbridge/flightbridge/apiclient"
	"github.com/flightbridge/flightbridge/apitypes"
	"github.com/flightbridge/flightbridge/capture"
	"github.com/flightbridge/flightbridge/gamepad"
)

// apiClientFlags are shared by every command that talks to a running server.
type apiClientFlags struct {
	Addr     string `help:"Control API address" default:"localhost:3271" env:"FLIGHTBRIDGE_ADDR"`
	Password string `help:"API password from the server key file" env:"FLIGHTBRIDGE_PASSWORD"`
}

func (f apiClientFlags) client() *apiclient.Client {
	if f.Password != "" {
		return apiclient.NewWithPassword(f.Addr, f.Password)
	}
	return apiclient.New(f.Addr)
}

type Monitor struct {
	apiClientFlags `embed:""`

	Path    string `arg:"" optional:"" help:"Device path to start capturing before monitoring"`
	Gamepad bool   `help:"Show mapped gamepad states instead of decoded device state"`
}

// Run follows the server's event stream and renders it to the terminal. On a
// TTY the current state is drawn as a single updating line; otherwise events
// are emitted as JSON lines suitable for piping.
func (m *Monitor) Run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := m.client()
	if m.Path != "" {
		if _, err := c.CaptureStartCtx(ctx, apitypes.CaptureStartRequest{Path: &m.Path}); err != nil {
			return fmt.Errorf("failed to start capture: %w", err)
		}
	}

	es, err := c.OpenEvents(ctx)
	if err != nil {
		return err
	}
	defer es.Close()

	fd := int(os.Stdout.Fd())
	tty := term.IsTerminal(fd)
	width := 80
	if tty {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	}

	events, errs := es.StartReading(ctx, 64)
	for ev := range events {
		payload, line, ok := m.decodeEvent(&ev)
		if !ok {
			continue
		}
		if tty {
			fmt.Print("\r" + pad(line, width-1))
		} else {
			fmt.Println(jsonLine(payload))
		}
	}
	if tty {
		fmt.Println()
	}
	if err := <-errs; err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (m *Monitor) decodeEvent(ev *apitypes.StreamEvent) (any, string, bool) {
	if m.Gamepad {
		if ev.Type != apitypes.EventTypeGamepad {
			return nil, "", false
		}
		gs, err := apiclient.DecodeGamepad(ev)
		if err != nil {
			return nil, "", false
		}
		return gs, renderGamepad(gs), true
	}
	if ev.Type != apitypes.EventTypeState {
		return nil, "", false
	}
	st, err := apiclient.DecodeState(ev)
	if err != nil {
		return nil, "", false
	}
	return st, renderState(st), true
}

func renderState(st *capture.StateUpdate) string {
	if !st.Connected {
		return "disconnected"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s |", st.DeviceName)
	for i, v := range st.Axes {
		fmt.Fprintf(&b, " a%d:%+0.2f", i, v)
	}
	if len(st.Buttons) > 0 {
		b.WriteString(" | btn ")
		for _, pressed := range st.Buttons {
			if pressed {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
	}
	if st.HatSwitch >= 0 {
		fmt.Fprintf(&b, " | hat:%d", st.HatSwitch)
	}
	if len(st.Axes) == 0 && len(st.Buttons) == 0 {
		// Raw pass-through capture: nothing decoded, show the bytes.
		fmt.Fprintf(&b, " raw % x", st.RawBytes)
	}
	return b.String()
}

func renderGamepad(gs *gamepad.State) string {
	return fmt.Sprintf("pad%d | btn:%016b LT:%3d RT:%3d LS:%+6d,%+6d RS:%+6d,%+6d",
		gs.ControllerID, gs.Buttons&0xffff,
		gs.LeftTrigger, gs.RightTrigger,
		gs.LeftStickX, gs.LeftStickY, gs.RightStickX, gs.RightStickY)
}

// pad right-pads or truncates a line to exactly n characters so single-line
// terminal redraws fully overwrite older output.
func pad(s string, n int) string {
	if n <= 0 {
		return s
	}
	if len(s) > n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

func jsonLine(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

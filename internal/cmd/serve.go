package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/flightbridge/flightbridge/capture"
	"github.com/flightbridge/flightbridge/hid/hidraw"
	"github.com/flightbridge/flightbridge/internal/configpaths"
	"github.com/flightbridge/flightbridge/internal/log"
	"github.com/flightbridge/flightbridge/internal/server/api"
	"github.com/flightbridge/flightbridge/internal/server/api/auth"
	"github.com/flightbridge/flightbridge/internal/server/api/handler"
	"github.com/flightbridge/flightbridge/internal/server/ws"
	"github.com/flightbridge/flightbridge/internal/util"
	"github.com/flightbridge/flightbridge/profile"
)

const keyFileName = "flightbridge.key.txt"

type Serve struct {
	ApiServerConfig api.ServerConfig `embed:"" prefix:"api."`

	WsAddr     string `help:"WebSocket event feed listen address; empty disables the feed" default:":3272" env:"FLIGHTBRIDGE_WS_ADDR"`
	ProfileDir string `help:"Profile directory (default: profiles under the config dir)" env:"FLIGHTBRIDGE_PROFILE_DIR"`
	Slot       int    `help:"Virtual controller slot mapped states are reported for" default:"0" env:"FLIGHTBRIDGE_SLOT"`
	NoAuth     bool   `help:"Serve the control API without authentication" env:"FLIGHTBRIDGE_NO_AUTH"`
	Device     string `help:"Device path to start capturing right away"`
}

// Run is called by Kong when the serve command is executed.
func (s *Serve) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.StartServer(ctx, logger, rawLogger)
}

func (s *Serve) StartServer(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	logger.Info("Starting FlightBridge capture server", "addr", s.ApiServerConfig.Addr)

	profileDir := s.ProfileDir
	if profileDir == "" {
		dir, err := configpaths.DefaultProfilesDir()
		if err != nil {
			return fmt.Errorf("failed to resolve profile directory: %w", err)
		}
		profileDir = dir
	}
	store, err := profile.NewFileStore(profileDir, logger)
	if err != nil {
		return fmt.Errorf("failed to open profile store: %w", err)
	}

	if !s.NoAuth {
		keyFileDir, err := configpaths.DefaultConfigDir()
		if err != nil {
			return fmt.Errorf("failed to resolve key file path: %w", err)
		}
		keyFilePath := path.Join(keyFileDir, keyFileName)
		if pwd, err := os.ReadFile(keyFilePath); err == nil {
			s.ApiServerConfig.Password = strings.TrimSpace(string(pwd))
		} else {
			newPwd, err := auth.GenerateKey()
			if err != nil {
				return fmt.Errorf("failed to generate new API password: %w", err)
			}
			if err := os.MkdirAll(keyFileDir, 0o700); err != nil {
				return fmt.Errorf("failed to create config dir for key file: %w", err)
			}
			if err := os.WriteFile(keyFilePath, []byte(newPwd), 0o600); err != nil {
				return fmt.Errorf("failed to write new API password to file: %w", err)
			}
			s.ApiServerConfig.Password = newPwd
			logger.Info("Generated API server password", "path", keyFilePath)
			logger.Info("-------------------------------------")
			logger.Info("Your FlightBridge API password is:")
			logger.Info("-------------------------------------")
			logger.Info(newPwd)
			logger.Info("-------------------------------------")
			logger.Info("You can change this password at any time by editing the file")
		}
	}

	backend := hidraw.New(logger)
	mgr := capture.New(backend, store, capture.Config{Slot: s.Slot, Raw: rawLogger}, logger)
	defer mgr.Close()

	if s.ApiServerConfig.Addr == "" {
		logger.Error("API server address must be set (default :3271).")
		return fmt.Errorf("API server address must be set (default :3271)")
	}

	apiSrv := api.New(mgr, s.ApiServerConfig.Addr, s.ApiServerConfig, logger)
	r := apiSrv.Router()
	r.Register("ping", handler.Ping())
	r.Register("devices/list", handler.DevicesList(mgr))
	r.Register("capture/start", handler.CaptureStart(mgr))
	r.Register("capture/stop", handler.CaptureStop(mgr))
	r.Register("capture/status", handler.CaptureStatus(mgr))
	r.Register("profiles/list", handler.ProfilesList(store))
	r.Register("profiles/{vid}/{pid}/get", handler.ProfileGet(store))
	r.Register("profiles/{vid}/{pid}/save", handler.ProfileSave(store))
	r.Register("profiles/{vid}/{pid}/reset", handler.ProfileReset(store))
	r.Register("profiles/{vid}/{pid}/delete", handler.ProfileDelete(store))
	r.Register("profiles/{vid}/{pid}/axis/{i}", handler.ProfileAxisUpdate(store))
	r.Register("profiles/{vid}/{pid}/button/{i}", handler.ProfileButtonUpdate(store))
	r.RegisterStream("events", api.EventsStreamHandler(mgr))

	if err := apiSrv.Start(); err != nil {
		logger.Error("failed to start API server", "error", err)
		if util.IsRunFromGUI() {
			fmt.Println("Press any key to exit...")
			var b []byte = make([]byte, 1)
			_, _ = os.Stdin.Read(b)
		}
		return err
	}

	var wsSrv *ws.Server
	if s.WsAddr != "" {
		wsSrv = ws.New(mgr, s.WsAddr, logger)
		if err := wsSrv.Start(); err != nil {
			apiSrv.Close()
			return fmt.Errorf("failed to start WS server: %w", err)
		}
	}

	// Profile edits never retarget a running capture; the watcher tells the
	// user their change lands on the next capture start.
	if watcher, err := profile.Watch(store.Dir(), logger); err != nil {
		logger.Warn("profile watcher unavailable", "error", err)
	} else {
		go watcher.Run(ctx)
		go func() {
			for key := range watcher.Events() {
				logger.Info("profile changed on disk, applies on next capture start", "profile", key)
			}
		}()
	}

	if s.Device != "" {
		if err := mgr.Start(s.Device); err != nil {
			logger.Warn("initial capture failed", "path", s.Device, "error", err)
		}
	}

	if util.IsRunFromGUI() {
		go (func() {
			time.Sleep(250 * time.Millisecond)
			util.HideConsoleWindow()
		})()
	}

	<-ctx.Done()
	if wsSrv != nil {
		wsSrv.Close()
	}
	apiSrv.Close()
	return nil
}

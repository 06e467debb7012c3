package ws

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/flightbridge/flightbridge/capture"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The feed is meant for local overlays and tooling.
		return true
	},
}

// Server exposes the capture event feed as a WebSocket endpoint at /ws.
type Server struct {
	manager *capture.Manager
	addr    string
	logger  *slog.Logger

	hub         *Hub
	broadcaster *Broadcaster
	ln          net.Listener
	httpServer  *http.Server
	cancel      context.CancelFunc
}

// New creates a WebSocket server bound to a capture.Manager instance.
func New(m *capture.Manager, addr string, logger *slog.Logger) *Server {
	s := &Server{
		manager: m,
		addr:    addr,
		logger:  logger,
	}
	s.hub = NewHub(logger)
	s.broadcaster = NewBroadcaster(s.hub, m, logger)
	return s
}

// Start listens on the configured address and serves WebSocket upgrades.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.hub.Run(ctx)
	go s.broadcaster.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleUpgrade)
	s.httpServer = &http.Server{Handler: mux}

	s.logger.Info("WS listening", "addr", s.addr)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("ws serve", "error", err)
		}
	}()
	return nil
}

// Close stops the WebSocket server and disconnects all clients.
func (s *Server) Close() {
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn)
	s.hub.Register(client)
	s.broadcaster.SendInitialState(client)

	go client.WritePump()
	go client.ReadPump()
}

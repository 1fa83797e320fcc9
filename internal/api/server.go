package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Server wraps the HTTP server: the JSON API plus the drag WebSocket.
type Server struct {
	httpServer *http.Server
	watcher    *FileWatcher
	wsHub      *WebSocketHub
	log        logrus.FieldLogger
}

// NewServer wires the API for bc on the given port. File watching is
// enabled when bc has a directory to watch.
func NewServer(bc *BoardContext, port int, log logrus.FieldLogger) *Server {
	mux := http.NewServeMux()
	NewHandler(bc.Store).RegisterRoutes(mux)

	wsHub := NewWebSocketHub(bc.Store, log)
	bc.Store.Subscribe(wsHub)
	mux.HandleFunc("GET /api/v1/ws", wsHub.ServeWS)

	var watcher *FileWatcher
	if dir := bc.WatchDir(); dir != "" {
		var err error
		watcher, err = NewFileWatcher(dir, log)
		if err != nil {
			log.WithError(err).Warn("Failed to create file watcher")
			watcher = nil
		} else {
			watcher.Subscribe(&ReloadOnChange{Key: bc.Config.Board.Key, Target: bc.Store, Log: log})
		}
	}

	wrapped := Logging(log, Cors(mux))

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      wrapped,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		watcher: watcher,
		wsHub:   wsHub,
		log:     log,
	}
}

// Start begins listening for HTTP requests. Blocks until shutdown.
func (s *Server) Start() error {
	if s.watcher != nil {
		if err := s.watcher.Start(); err != nil {
			s.log.WithError(err).Warn("Failed to start file watcher")
		}
	}

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.watcher != nil {
		s.watcher.Stop()
	}

	return s.httpServer.Shutdown(ctx)
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/httpagent/httpagent/internal/state"
)

// sseWriteTimeout is the maximum time allowed for a single SSE write.
// This prevents goroutine leaks when clients are slow or disconnected.
const sseWriteTimeout = 5 * time.Second

// Server exposes the engine's current entity states over HTTP for
// diagnostics.
//
// Server provides two endpoints:
//   - GET /api/entities: all current entity states as JSON
//   - GET /api/events: Server-Sent Events stream of entity updates
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	registry   *state.Registry
	port       int
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a diagnostics [Server] over the given registry.
// The server is not started until [Server.Start] is called.
func NewServer(registry *state.Registry, port int, logger *slog.Logger) *Server {
	return &Server{
		registry: registry,
		port:     port,
		logger:   logger,
	}
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns after confirming the server is
// listening. The server runs until the context is cancelled, then shuts
// down gracefully with a 5-second timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/entities", s.handleEntities)
	mux.HandleFunc("/api/events", s.handleEvents)

	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler: mux,
		// BaseContext derives all request contexts from the server
		// context, so cancelling ctx also unblocks long-running SSE
		// handlers.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// handleEntities returns all current entity states as JSON.
func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	states := s.registry.All()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(states); err != nil {
		s.logger.Error("failed to encode entities response", "error", err)
	}
}

// handleEvents streams entity updates via Server-Sent Events.
//
// Write deadlines prevent goroutine leaks when clients are slow or
// disconnected: a blocked write would otherwise keep the handler from
// noticing shutdown or channel closure.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := s.registry.Subscribe()
	defer s.registry.Unsubscribe(ch)

	// send current states first so a new client starts with a full view
	for _, es := range s.registry.All() {
		data, err := json.Marshal(es)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case es, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(es)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on both client disconnect and server shutdown
			return
		}
	}
}

// Package dashboard provides a real-time WebSocket feed of sync activity.
//
// The dashboard broadcasts document updates, deletions and failures to
// connected WebSocket clients and serves the current documents as JSON.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/docmirror/docmirror/internal/mirror/query"
	"github.com/docmirror/docmirror/internal/mirror/schema"
)

// MessageType defines the type of dashboard message
type MessageType string

const (
	// MessageTypeWelcome is sent to each client right after it connects
	MessageTypeWelcome MessageType = "welcome"

	// MessageTypeDocumentUpdate indicates a document was created or modified
	MessageTypeDocumentUpdate MessageType = "document_update"

	// MessageTypeDocumentDelete indicates documents were removed
	MessageTypeDocumentDelete MessageType = "document_delete"

	// MessageTypeSyncFailure indicates an event was dropped
	MessageTypeSyncFailure MessageType = "sync_failure"
)

// Message represents a dashboard broadcast message
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// DocumentLister is the read path the /documents endpoint serves.
type DocumentLister interface {
	Find(ctx context.Context, filter query.Filter) ([]schema.DocumentView, error)
}

// Server manages WebSocket connections and broadcasts dashboard messages
type Server struct {
	addr     string
	listener net.Listener
	server   *http.Server

	origins   []string
	documents DocumentLister
	metrics   http.Handler

	// WebSocket client management
	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	// Message broadcasting
	broadcast chan Message

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger zerolog.Logger
}

// Config holds server configuration
type Config struct {
	// Port to listen on (0 picks a free port)
	Port int

	// AllowedOrigins for CORS and WebSocket upgrades (empty = any origin)
	AllowedOrigins []string

	// Documents backs GET /documents (nil disables the endpoint)
	Documents DocumentLister

	// Metrics is served at /metrics when set
	Metrics http.Handler

	// Logger for server activity (nil = no logging)
	Logger *zerolog.Logger
}

// NewServer creates a new dashboard WebSocket server
func NewServer(config Config) *Server {
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = config.Logger.With().Str("component", "dashboard").Logger()
	}

	origins := config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr:      fmt.Sprintf(":%d", config.Port),
		origins:   origins,
		documents: config.Documents,
		metrics:   config.Metrics,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, 100),
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger,
	}
}

// Start begins the HTTP server and WebSocket handler
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/documents", s.handleDocuments)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	mux.HandleFunc("/", s.handleRoot)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	})

	s.server = &http.Server{
		Handler:     corsHandler.Handler(mux),
		ReadTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go s.broadcastLoop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("Dashboard server listening")
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Server error")
		}
	}()

	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping dashboard server")

	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "Server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	s.wg.Wait()

	s.logger.Info().Msg("Dashboard server stopped")
	return nil
}

// Broadcast sends a message to all connected clients. Messages are dropped
// when the broadcast queue is full.
func (s *Server) Broadcast(msg Message) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	select {
	case s.broadcast <- msg:
	case <-s.ctx.Done():
	default:
		s.logger.Warn().Str("type", string(msg.Type)).Msg("Broadcast channel full, dropping message")
	}
}

// broadcastLoop handles message broadcasting to all clients
func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case msg := <-s.broadcast:
			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Error().Err(err).Msg("Failed to marshal message")
				continue
			}

			s.clientsMu.RLock()
			clients := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				clients = append(clients, conn)
			}
			s.clientsMu.RUnlock()

			for _, conn := range clients {
				ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()

				if err != nil {
					s.logger.Debug().Err(err).Msg("Failed to send to client")
					s.removeClient(conn)
				}
			}
		}
	}
}

// handleWebSocket upgrades HTTP connections to WebSocket
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(s.origins),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	clientCount := len(s.clients)
	s.clientsMu.Unlock()

	s.logger.Info().Int("clients", clientCount).Msg("Client connected")

	data, _ := json.Marshal(map[string]int{"clients": clientCount})
	welcome, _ := json.Marshal(Message{
		ID:        uuid.NewString(),
		Type:      MessageTypeWelcome,
		Timestamp: time.Now(),
		Data:      data,
	})
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	_ = conn.Write(ctx, websocket.MessageText, welcome)
	cancel()

	go s.readLoop(conn)
}

// readLoop keeps the WebSocket connection alive and handles client disconnects
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)

	for {
		if _, _, err := conn.Read(s.ctx); err != nil {
			return
		}
	}
}

// removeClient safely removes a client connection
func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	if _, exists := s.clients[conn]; !exists {
		s.clientsMu.Unlock()
		return
	}
	delete(s.clients, conn)
	clientCount := len(s.clients)
	s.clientsMu.Unlock()

	_ = conn.Close(websocket.StatusNormalClosure, "")
	s.logger.Info().Int("clients", clientCount).Msg("Client disconnected")
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

// handleDocuments serves the stored documents. Query parameters: folder,
// since (RFC 3339) and limit.
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if s.documents == nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	docs, err := s.documents.Find(r.Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list documents")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list documents"})
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleRoot returns basic server information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>docmirror</title>
</head>
<body>
    <h1>docmirror dashboard</h1>
    <p>WebSocket endpoint: <code>ws://%s/ws</code></p>
    <p>Documents: <a href="/documents">/documents</a></p>
    <p>Health check: <a href="/health">/health</a></p>
</body>
</html>`, r.Host)
}

// GetAddr returns the server's listening address
func (s *Server) GetAddr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the current number of connected clients
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func parseFilter(values url.Values) (query.Filter, error) {
	filter := query.Filter{Folder: values.Get("folder")}

	if since := values.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return filter, fmt.Errorf("invalid since %q: want RFC 3339", since)
		}
		filter.Since = t
	}

	if limit := values.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("invalid limit %q", limit)
		}
		filter.Limit = n
	}
	return filter, nil
}

// originPatterns converts CORS origins to the host patterns websocket.Accept expects.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		} else {
			patterns = append(patterns, origin)
		}
	}
	return patterns
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/docmirror/docmirror/internal/mirror/query"
	"github.com/docmirror/docmirror/internal/mirror/schema"
	mirror "github.com/docmirror/docmirror/internal/mirror/sync"
)

type fakeLister struct {
	mu   sync.Mutex
	docs []schema.DocumentView
	err  error
	last query.Filter
}

func (f *fakeLister) Find(_ context.Context, filter query.Filter) ([]schema.DocumentView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = filter
	return f.docs, f.err
}

func (f *fakeLister) lastFilter() query.Filter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

type recordingBroadcaster struct {
	messages []Message
}

func (r *recordingBroadcaster) Broadcast(msg Message) {
	r.messages = append(r.messages, msg)
}

func startServer(t *testing.T, config Config) *Server {
	t.Helper()

	config.Port = 0
	server := NewServer(config)
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { server.Stop() })
	return server
}

func dial(t *testing.T, ctx context.Context, server *Server) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, "ws://"+server.GetAddr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) Message {
	t.Helper()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	return msg
}

func TestServerStartStop(t *testing.T) {
	server := NewServer(Config{Port: 0})
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	if server.GetAddr() == "" {
		t.Fatal("Server address is empty")
	}

	if err := server.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}
}

func TestWebSocket_WelcomeAndBroadcast(t *testing.T) {
	server := startServer(t, Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dial(t, ctx, server)

	welcome := readMessage(t, ctx, conn)
	if welcome.Type != MessageTypeWelcome {
		t.Errorf("Expected welcome message, got %s", welcome.Type)
	}
	if server.ClientCount() != 1 {
		t.Errorf("Expected 1 client, got %d", server.ClientCount())
	}

	handler := NewHandler(server, nil)
	handler.OnEvent(
		mirror.Event{Path: "/notes/projects/plan.txt", Op: mirror.OpCreate},
		mirror.Outcome{Document: &schema.DocumentView{Filename: "plan.txt", Folder: "projects", Content: "ship it"}},
	)

	msg := readMessage(t, ctx, conn)
	if msg.Type != MessageTypeDocumentUpdate {
		t.Fatalf("Expected document_update, got %s", msg.Type)
	}
	if _, err := uuid.Parse(msg.ID); err != nil {
		t.Errorf("Message ID %q is not a UUID: %v", msg.ID, err)
	}

	var data DocumentUpdateData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		t.Fatalf("Failed to unmarshal data: %v", err)
	}
	if data.Filename != "plan.txt" || data.Folder != "projects" || data.Action != "created" || data.Bytes != 7 {
		t.Errorf("Unexpected update data: %+v", data)
	}
}

func TestHandler_Messages(t *testing.T) {
	rec := &recordingBroadcaster{}
	handler := NewHandler(rec, nil)

	handler.OnEvent(mirror.Event{Path: "/r/a.txt", Op: mirror.OpDelete}, mirror.Outcome{Removed: 2})
	handler.OnEvent(mirror.Event{Path: "/r/b.bin", Op: mirror.OpModify}, mirror.Outcome{Err: errors.New("not text")})
	handler.OnEvent(mirror.Event{Path: "/r/c.txt", Op: mirror.OpModify}, mirror.Outcome{
		Document: &schema.DocumentView{Filename: "c.txt", Folder: "r"},
	})

	if len(rec.messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(rec.messages))
	}

	wantTypes := []MessageType{MessageTypeDocumentDelete, MessageTypeSyncFailure, MessageTypeDocumentUpdate}
	for i, want := range wantTypes {
		if rec.messages[i].Type != want {
			t.Errorf("message %d: type = %s, want %s", i, rec.messages[i].Type, want)
		}
	}

	var del DocumentDeleteData
	if err := json.Unmarshal(rec.messages[0].Data, &del); err != nil {
		t.Fatalf("Failed to unmarshal delete data: %v", err)
	}
	if del.Removed != 2 {
		t.Errorf("Removed = %d, want 2", del.Removed)
	}

	var fail SyncFailureData
	if err := json.Unmarshal(rec.messages[1].Data, &fail); err != nil {
		t.Fatalf("Failed to unmarshal failure data: %v", err)
	}
	if fail.Op != "modify" || fail.Error != "not text" {
		t.Errorf("Unexpected failure data: %+v", fail)
	}

	var upd DocumentUpdateData
	if err := json.Unmarshal(rec.messages[2].Data, &upd); err != nil {
		t.Fatalf("Failed to unmarshal update data: %v", err)
	}
	if upd.Action != "modified" {
		t.Errorf("Action = %s, want modified", upd.Action)
	}
}

func TestDocumentsEndpoint(t *testing.T) {
	lister := &fakeLister{docs: []schema.DocumentView{{Filename: "a.txt", Folder: "notes", Content: "hello"}}}
	server := startServer(t, Config{Documents: lister})

	resp, err := http.Get("http://" + server.GetAddr() + "/documents?folder=notes&limit=5&since=" + url.QueryEscape("2026-01-02T03:04:05Z"))
	if err != nil {
		t.Fatalf("GET /documents failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var docs []schema.DocumentView
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		t.Fatalf("Failed to decode documents: %v", err)
	}
	if len(docs) != 1 || docs[0].Filename != "a.txt" {
		t.Errorf("Unexpected documents: %+v", docs)
	}

	last := lister.lastFilter()
	if last.Folder != "notes" || last.Limit != 5 {
		t.Errorf("Unexpected filter: %+v", last)
	}
	if want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC); !last.Since.Equal(want) {
		t.Errorf("Since = %v, want %v", last.Since, want)
	}
}

func TestDocumentsEndpoint_Errors(t *testing.T) {
	lister := &fakeLister{err: errors.New("database is locked")}
	server := startServer(t, Config{Documents: lister})
	base := "http://" + server.GetAddr()

	tests := []struct {
		path string
		want int
	}{
		{"/documents?since=yesterday", http.StatusBadRequest},
		{"/documents?limit=-1", http.StatusBadRequest},
		{"/documents", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		resp, err := http.Get(base + tt.path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", tt.path, err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode != tt.want {
			t.Errorf("GET %s: status = %d, want %d", tt.path, resp.StatusCode, tt.want)
		}
	}
}

func TestMetricsAndHealth(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "docmirror_events_total 0\n")
	})
	server := startServer(t, Config{Metrics: metrics})
	base := "http://" + server.GetAddr()

	resp, err := http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "docmirror_events_total 0\n" {
		t.Errorf("Unexpected metrics body: %q", body)
	}

	resp, err = http.Get(base + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	var health map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode health: %v", err)
	}
	if health["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", health["status"])
	}

	resp, err = http.Get(base + "/documents")
	if err != nil {
		t.Fatalf("GET /documents failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 without a document lister, got %d", resp.StatusCode)
	}
}

func TestCORSHeaders(t *testing.T) {
	server := startServer(t, Config{
		AllowedOrigins: []string{"http://localhost:3000"},
		Documents:      &fakeLister{},
	})

	req, _ := http.NewRequest(http.MethodGet, "http://"+server.GetAddr()+"/documents", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /documents failed: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestOriginPatterns(t *testing.T) {
	got := originPatterns([]string{"http://localhost:3000", "example.com"})
	if len(got) != 2 || got[0] != "localhost:3000" || got[1] != "example.com" {
		t.Errorf("originPatterns() = %v", got)
	}
	if got := originPatterns([]string{"https://a.test", "*"}); len(got) != 1 || got[0] != "*" {
		t.Errorf("originPatterns() with wildcard = %v", got)
	}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	"github.com/studyai/handsfree/domain/entities"
	"github.com/studyai/handsfree/internal/session"
)

type stubSession struct {
	state      session.State
	status     string
	transcript session.TranscriptSnapshot
	outputs    int
}

func (s *stubSession) State() session.State                   { return s.state }
func (s *stubSession) Status() string                         { return s.status }
func (s *stubSession) Transcript() session.TranscriptSnapshot { return s.transcript }
func (s *stubSession) ActiveOutputs() int                     { return s.outputs }

type stubStore struct {
	conversations []*entities.Conversation
	listErr       error
}

func (s *stubStore) Save(context.Context, *entities.Conversation) error { return nil }
func (s *stubStore) Close() error                                       { return nil }

func (s *stubStore) List(context.Context) ([]*entities.Conversation, error) {
	return s.conversations, s.listErr
}

func request(t *testing.T, e *echo.Echo, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response is not JSON: %v", err)
	}
	return rec, body
}

func setupRoutes(active SessionStatus, store *stubStore, t *testing.T) *echo.Echo {
	e := echo.New()
	current := func() SessionStatus {
		if active == nil {
			return nil
		}
		return active
	}
	if store == nil {
		InitRoutes(e, current, nil, zaptest.NewLogger(t))
	} else {
		InitRoutes(e, current, store, zaptest.NewLogger(t))
	}
	return e
}

func TestHealthEndpoint(t *testing.T) {
	e := setupRoutes(nil, nil, t)

	rec, body := request(t, e, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["status"] != "ok" || body["service"] != "handsfree" {
		t.Errorf("Unexpected body: %v", body)
	}
}

func TestSessionEndpoint(t *testing.T) {
	active := &stubSession{
		state:   session.StateOpen,
		status:  "Connected. Speak now.",
		outputs: 2,
	}
	e := setupRoutes(active, nil, t)

	rec, body := request(t, e, "/api/v1/session")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["state"] != "open" {
		t.Errorf("Unexpected state: %v", body["state"])
	}
	if body["status"] != "Connected. Speak now." {
		t.Errorf("Unexpected status: %v", body["status"])
	}
	if body["active_outputs"] != float64(2) {
		t.Errorf("Unexpected active outputs: %v", body["active_outputs"])
	}
}

func TestSessionEndpointWithoutSession(t *testing.T) {
	e := setupRoutes(nil, nil, t)

	rec, body := request(t, e, "/api/v1/session")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
	if body["error"] != "no_session" {
		t.Errorf("Unexpected error: %v", body["error"])
	}
}

func TestTranscriptEndpoint(t *testing.T) {
	active := &stubSession{
		state: session.StateOpen,
		transcript: session.TranscriptSnapshot{
			User:    "What is",
			Model:   "Let me",
			History: []string{"You: Hi", "Study AI: Hello"},
		},
	}
	e := setupRoutes(active, nil, t)

	rec, body := request(t, e, "/api/v1/session/transcript")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["user"] != "What is" || body["model"] != "Let me" {
		t.Errorf("Unexpected buffers: %v", body)
	}
	history := body["history"].([]interface{})
	if len(history) != 2 || history[0] != "You: Hi" {
		t.Errorf("Unexpected history: %v", history)
	}
}

func TestConversationsEndpoint(t *testing.T) {
	conversation := entities.NewConversation()
	conversation.Append(entities.NewMessage(entities.RoleUser, "Hi"))
	store := &stubStore{conversations: []*entities.Conversation{conversation}}
	e := setupRoutes(nil, store, t)

	rec, body := request(t, e, "/api/v1/conversations")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	listed := body["conversations"].([]interface{})
	if len(listed) != 1 {
		t.Fatalf("Expected 1 conversation, got %d", len(listed))
	}
}

func TestConversationsEndpointListFailure(t *testing.T) {
	store := &stubStore{listErr: errors.New("disk gone")}
	e := setupRoutes(nil, store, t)

	rec, body := request(t, e, "/api/v1/conversations")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
	if body["error"] != "list_failed" {
		t.Errorf("Unexpected error: %v", body["error"])
	}
}

func TestConversationsEndpointWithoutStore(t *testing.T) {
	e := setupRoutes(nil, nil, t)

	rec, body := request(t, e, "/api/v1/conversations")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
	if body["error"] != "no_store" {
		t.Errorf("Unexpected error: %v", body["error"])
	}
}

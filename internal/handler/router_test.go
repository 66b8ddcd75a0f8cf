package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eduai/tutor/backend/internal/model/tutor"
	"github.com/eduai/tutor/backend/internal/pkg/logger"
	"github.com/eduai/tutor/backend/internal/render"
	"github.com/eduai/tutor/backend/internal/service/ai"
	chatService "github.com/eduai/tutor/backend/internal/service/chat"
	tutorService "github.com/eduai/tutor/backend/internal/service/tutor"
)

type echoGateway struct{}

func (echoGateway) Generate(_ context.Context, req ai.Request) (string, error) {
	return "You asked: " + req.Turns[len(req.Turns)-1].Content, nil
}

func newTestRouter() http.Handler {
	tutors := tutor.NewMemoryStore(tutor.Seed())
	return NewRouter(Dependencies{
		Tutors:     tutors,
		Chat:       chatService.NewService(tutors),
		Controller: tutorService.NewController(echoGateway{}, tutors, nil, tutorService.Config{}, nil),
		Logger:     logger.NewNop(),
	})
}

func TestRouterServesAPIAndPage(t *testing.T) {
	r := newTestRouter()

	for _, path := range []string{"/", "/healthz", "/api/tutors"} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, resp.Code)
		}
	}
}

func TestRouterConversationRoundTrip(t *testing.T) {
	r := newTestRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/session", bytes.NewReader([]byte(`{}`))))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var snap render.SnapshotView
	if err := json.Unmarshal(resp.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("expected CORS headers")
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/session/"+snap.SessionID+"/messages", bytes.NewReader([]byte(`{"text":"What is a prime?"}`))))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := snap.Turns[len(snap.Turns)-1].Content; got != "You asked: What is a prime?" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestRouterAnswersPreflight(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/session", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

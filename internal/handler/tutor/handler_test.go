package tutor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/eduai/tutor/backend/internal/model/tutor"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(tutor.NewMemoryStore(tutor.Seed())).RegisterRoutes(r)
	return r
}

func TestListTutorsHidesPromptInternals(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/tutors", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var raw []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(raw) != 1 || raw[0]["id"] != tutor.DefaultID {
		t.Fatalf("unexpected tutors %v", raw)
	}
	for _, key := range []string{"SentinelPhrase", "Rules", "Tone"} {
		if _, ok := raw[0][key]; ok {
			t.Fatalf("%s must not be exposed", key)
		}
	}
}

func TestGetTutorNotFound(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/tutors/unknown", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

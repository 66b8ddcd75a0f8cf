package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusNotFound, "session not found")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if body := rec.Body.String(); body != "{\"error\":\"session not found\"}\n" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestSendSSEEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := SendSSEEvent(rec, rec, "end", map[string]bool{"finished": true}); err != nil {
		t.Fatalf("SendSSEEvent err: %v", err)
	}

	want := "event: end\ndata: {\"finished\":true}\n\n"
	if got := rec.Body.String(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if !rec.Flushed {
		t.Fatal("expected the event to be flushed")
	}
}

package http

import (
	"errors"
	"net/http"
	"testing"

	"hemoscan/internal/llm"
)

func TestAIHandler_Routes(t *testing.T) {
	app := setupTestApp(testOptions{})
	access, _ := loginAs(t, app, "a@x.io", "pw1")

	cases := []struct {
		path  string
		body  map[string]string
		field string
	}{
		{"/api/ai/chat", map[string]string{"message": "hi"}, "reply"},
		{"/api/ai/summary", map[string]string{"context": "Hb 9"}, "summary"},
		{"/api/ai/diet", map[string]string{"diet_type": "vegan"}, "plan"},
		{"/api/ai/translate", map[string]string{"text": "hi", "target_language": "es"}, "translated"},
	}
	for _, tc := range cases {
		rec := performRequest(app.router, http.MethodPost, tc.path, tc.body, bearer(access)...)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d (%s)", tc.path, rec.Code, rec.Body.String())
		}
		if decodeBody(t, rec)[tc.field] != "ok from ai" {
			t.Fatalf("%s: expected %q field, got %s", tc.path, tc.field, rec.Body.String())
		}
	}
}

func TestAIHandler_Errors(t *testing.T) {
	app := setupTestApp(testOptions{})
	access, _ := loginAs(t, app, "a@x.io", "pw1")

	rec := performRequest(app.router, http.MethodPost, "/api/ai/chat", map[string]string{"message": "hi"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = performRequest(app.router, http.MethodPost, "/api/ai/chat", map[string]string{}, bearer(access)...)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing message, got %d", rec.Code)
	}

	app.llm.Err = llm.ErrNotConfigured
	rec = performRequest(app.router, http.MethodPost, "/api/ai/chat", map[string]string{"message": "hi"}, bearer(access)...)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when gemini is not configured, got %d", rec.Code)
	}

	app.llm.Err = errors.New("llm http error: status=500")
	rec = performRequest(app.router, http.MethodPost, "/api/ai/chat", map[string]string{"message": "hi"}, bearer(access)...)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 on upstream failure, got %d", rec.Code)
	}
}

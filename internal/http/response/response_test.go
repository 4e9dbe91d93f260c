package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONWrapsDataInEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rr := httptest.NewRecorder()

	JSON(rr, req, http.StatusCreated, map[string]int{"id": 7})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var env struct {
		Success   bool           `json:"success"`
		Data      map[string]int `json:"data"`
		RequestID string         `json:"request_id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success || env.Data["id"] != 7 || env.RequestID != "req-1" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestErrorEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rr := httptest.NewRecorder()

	Error(rr, req, http.StatusPreconditionRequired, "CONFIRMATION_REQUIRED", "confirm=true is required", map[string]string{"prompt": "sure?"})

	var env Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Error == nil || env.Error.Code != "CONFIRMATION_REQUIRED" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if env.Data != nil {
		t.Fatalf("error envelope must not carry data, got %v", env.Data)
	}
}

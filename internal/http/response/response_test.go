package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONWrapsDataInEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	JSON(rr, req, http.StatusCreated, map[string]string{"slug": "hello"})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var env struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
		Error   *ErrorBody        `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success || env.Data["slug"] != "hello" || env.Error != nil {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestErrorCarriesCodeAndDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	Error(rr, req, http.StatusBadRequest, "VALIDATION_ERROR", "title is required", map[string]string{"field": "title"})

	var env Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Error == nil || env.Error.Code != "VALIDATION_ERROR" || env.Error.Message != "title is required" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if details, ok := env.Error.Details.(map[string]any); !ok || details["field"] != "title" {
		t.Fatalf("unexpected details: %#v", env.Error.Details)
	}
}

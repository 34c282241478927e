package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandler_Healthy(t *testing.T) {
	handler := NewHandler("test")
	handler.RegisterChecker("storage", NewSimpleChecker("storage", func() error { return nil }))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var response Response
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Status != StatusHealthy {
		t.Fatalf("overall status = %s, want healthy", response.Status)
	}
	if response.Version != "test" {
		t.Fatalf("version = %s, want test", response.Version)
	}
	if check, ok := response.Checks["storage"]; !ok || check.Status != StatusHealthy {
		t.Fatalf("unexpected storage check: %+v", response.Checks)
	}
}

func TestHandler_Unhealthy(t *testing.T) {
	handler := NewHandler("test")
	handler.RegisterChecker("postgres", NewSimpleChecker("postgres", func() error {
		return errors.New("connection refused")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var response Response
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Status != StatusUnhealthy {
		t.Fatalf("overall status = %s, want unhealthy", response.Status)
	}
	if response.Checks["postgres"].Message != "connection refused" {
		t.Fatalf("expected error message in check, got %+v", response.Checks["postgres"])
	}
}

func TestReadinessHandler(t *testing.T) {
	handler := NewHandler("test")

	rec := httptest.NewRecorder()
	handler.ReadinessHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d, want 200", rec.Code)
	}

	handler.RegisterChecker("broken", NewSimpleChecker("broken", func() error {
		return errors.New("down")
	}))

	rec = httptest.NewRecorder()
	handler.ReadinessHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("not-ready status = %d, want 503", rec.Code)
	}
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessHandler(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("body = %q, want ok", rec.Body.String())
	}
}

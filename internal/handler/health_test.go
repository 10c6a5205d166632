package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealth_OK(t *testing.T) {
	h := New(Config{Env: "production"})
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h.startedAt = start
	h.now = func() time.Time { return start.Add(90 * time.Second) }

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
	if resp.Environment != "production" {
		t.Errorf("expected environment=production, got %q", resp.Environment)
	}
	if resp.Version != Version {
		t.Errorf("expected version=%s, got %q", Version, resp.Version)
	}
	if resp.Uptime != 90 {
		t.Errorf("expected uptime=90, got %v", resp.Uptime)
	}
	if resp.Timestamp != "2026-01-01T00:01:30Z" {
		t.Errorf("unexpected timestamp %q", resp.Timestamp)
	}
}

func TestIndex(t *testing.T) {
	h := New(Config{})

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	h.Index(rec, req)

	var resp struct {
		Success   bool              `json:"success"`
		Endpoints map[string]string `json:"endpoints"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
	if resp.Endpoints["contact"] != "POST /api/contact" {
		t.Errorf("unexpected endpoints %v", resp.Endpoints)
	}
}

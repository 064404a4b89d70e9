package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/user/rss-inbox/app/config"
	"github.com/user/rss-inbox/app/state"
)

type fakeStats struct{}

func (fakeStats) Stats() map[string]map[string]interface{} {
	return map[string]map[string]interface{}{
		"archive": {"saved_files": 3},
	}
}

func newTestServer(t *testing.T) (*state.Manager, http.Handler) {
	t.Helper()
	manager := state.NewManager(t.TempDir())

	disabled := false
	cfg := &config.Config{
		Feeds: []config.FeedConfig{
			{Name: "One", URL: "https://a.example/feed", Handler: "webpage", Action: "archive"},
			{Name: "Two", URL: "https://b.example/feed", Handler: "video", Action: "auto", Enabled: &disabled},
		},
	}

	return manager, NewServer(NewHandler(cfg, manager, fakeStats{}))
}

func getJSON(t *testing.T, handler http.Handler, path string) map[string]interface{} {
	t.Helper()
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, path, nil)
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("GET %s: expected 200, got %d", path, recorder.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("GET %s: invalid JSON: %v", path, err)
	}
	return body
}

func TestHandler_GetHealth(t *testing.T) {
	_, handler := newTestServer(t)

	body := getJSON(t, handler, "/health")
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
	if body["enabled_feeds"] != float64(1) {
		t.Errorf("Expected 1 enabled feed, got %v", body["enabled_feeds"])
	}
}

func TestHandler_GetStats(t *testing.T) {
	manager, handler := newTestServer(t)

	if err := manager.AddProcessedEntry("https://a.example/feed", "id-1"); err != nil {
		t.Fatalf("AddProcessedEntry failed: %v", err)
	}

	body := getJSON(t, handler, "/stats")
	if body["processed_entries"] != float64(1) {
		t.Errorf("Expected 1 processed entry, got %v", body["processed_entries"])
	}

	actions, ok := body["actions"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected actions map, got %T", body["actions"])
	}
	if _, ok := actions["archive"]; !ok {
		t.Error("Expected archive action stats")
	}
}

func TestHandler_ListFeeds(t *testing.T) {
	manager, handler := newTestServer(t)

	checked := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	if err := manager.UpdateLastCheck("https://a.example/feed", checked); err != nil {
		t.Fatalf("UpdateLastCheck failed: %v", err)
	}

	body := getJSON(t, handler, "/feeds")
	feeds, ok := body["feeds"].([]interface{})
	if !ok {
		t.Fatalf("Expected feeds list, got %T", body["feeds"])
	}
	if len(feeds) != 2 {
		t.Fatalf("Expected 2 feeds, got %d", len(feeds))
	}

	first := feeds[0].(map[string]interface{})
	if first["name"] != "One" {
		t.Errorf("Expected config order preserved, got %v", first["name"])
	}
	if first["last_check"] != "2025-06-01T08:00:00Z" {
		t.Errorf("Unexpected last_check: %v", first["last_check"])
	}

	second := feeds[1].(map[string]interface{})
	if second["enabled"] != false {
		t.Errorf("Expected second feed disabled, got %v", second["enabled"])
	}
}

// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"github.com/evamartin1240/gigline/internal/config"
)

func stubArtistAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"access_token": "stub-token"}`)); err != nil {
			t.Errorf("failed to write token response: %v", err)
		}
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer stub-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("q") {
		case "Rosalia":
			_, _ = w.Write([]byte(`{"artists": {"items": [
                {"name": "ROSALIA", "genres": ["flamenco", "pop"], "followers": {"total": 25000000}, "popularity": 88}
            ]}}`))
		case "No Genres Act":
			_, _ = w.Write([]byte(`{"artists": {"items": [
                {"name": "No Genres Act", "followers": {"total": 10}, "popularity": 1}
            ]}}`))
		default:
			_, _ = w.Write([]byte(`{"artists": {"items": []}}`))
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func artistTestConfig(serverURL string) *config.IngestConfig {
	return &config.IngestConfig{
		Spotify: config.SpotifyConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			BaseURL:      serverURL,
			TokenURL:     serverURL + "/api/token",
		},
		RequestDelay: 0,
	}
}

func TestArtistProfileIngest(t *testing.T) {
	server := stubArtistAPI(t)
	client := NewArtistProfileClient(artistTestConfig(server.URL))
	rawDir := t.TempDir()

	report, err := client.Ingest(context.Background(),
		[]string{"Rosalia", "No Genres Act", "Nobody At All"}, rawDir, "spotify_extract.json")
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if report.Stage != "ingest.artists" {
		t.Errorf("unexpected stage name %s", report.Stage)
	}

	data, err := os.ReadFile(filepath.Join(rawDir, "spotify_extract.json"))
	if err != nil {
		t.Fatalf("expected raw snapshot: %v", err)
	}
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	// The artist with no search hits is skipped, not recorded.
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["artist"] != "ROSALIA" {
		t.Errorf("expected upstream artist name kept, got %v", records[0]["artist"])
	}
	if records[0]["followers"] != float64(25000000) {
		t.Errorf("unexpected follower count %v", records[0]["followers"])
	}
	// Absent genres serialize as an empty list, never null.
	genres, ok := records[1]["genres"].([]any)
	if !ok {
		t.Fatalf("expected genres list, got %T", records[1]["genres"])
	}
	if len(genres) != 0 {
		t.Errorf("expected empty genres, got %v", genres)
	}
}

func TestArtistProfileIngestRequiresCredentials(t *testing.T) {
	client := NewArtistProfileClient(&config.IngestConfig{})
	if _, err := client.Ingest(context.Background(), []string{"Rosalia"}, t.TempDir(), "out.json"); err == nil {
		t.Error("expected error without client credentials")
	}
}

func TestArtistProfileIngestBadToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	client := NewArtistProfileClient(artistTestConfig(server.URL))
	if _, err := client.Ingest(context.Background(), []string{"Rosalia"}, t.TempDir(), "out.json"); err == nil {
		t.Error("expected error when the token exchange fails")
	}
}

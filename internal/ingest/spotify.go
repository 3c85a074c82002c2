// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

// Package ingest implements the two upstream API clients. Each ingestion run
// writes one raw JSON snapshot into the raw zone; everything downstream of
// that file is the pipeline's concern, not the client's. There is no retry
// policy; a failed fetch for one artist is logged and skipped.
package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/evamartin1240/gigline/internal/config"
	"github.com/evamartin1240/gigline/internal/logging"
	"github.com/evamartin1240/gigline/internal/models"
)

const (
	defaultSpotifyBaseURL  = "https://api.spotify.com"
	defaultSpotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// ArtistProfileClient fetches artist profiles from a Spotify-compatible API
// using the client-credentials flow.
type ArtistProfileClient struct {
	httpClient *http.Client
	cfg        config.SpotifyConfig
	delay      time.Duration
}

// NewArtistProfileClient creates a client from the ingest configuration.
func NewArtistProfileClient(cfg *config.IngestConfig) *ArtistProfileClient {
	return &ArtistProfileClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cfg:        cfg.Spotify,
		delay:      cfg.RequestDelay,
	}
}

// artistProfileRecord is the raw snapshot record shape for one artist.
type artistProfileRecord struct {
	Artist     string   `json:"artist"`
	Genres     []string `json:"genres"`
	Followers  int64    `json:"followers"`
	Popularity int      `json:"popularity"`
}

// Ingest fetches the profile of every named artist and writes one raw JSON
// snapshot file. Artists that return no result are logged and skipped; the
// snapshot holds whatever was found.
func (c *ArtistProfileClient) Ingest(ctx context.Context, artists []string, rawDir, outFile string) (*models.StageReport, error) {
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return nil, fmt.Errorf("artist-profile ingestion requires client credentials")
	}

	token, err := c.fetchToken(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]artistProfileRecord, 0, len(artists))
	for _, artist := range artists {
		record, found, err := c.searchArtist(ctx, token, artist)
		if err != nil {
			return nil, err
		}
		if !found {
			logging.Warn().Str("artist", artist).Msg("artist-profile lookup returned no result")
			continue
		}
		records = append(records, record)
		c.pause(ctx)
	}

	if err := writeSnapshot(rawDir, outFile, records); err != nil {
		return nil, err
	}
	return &models.StageReport{
		Stage:   "ingest.artists",
		Message: fmt.Sprintf("fetched %d artist profile(s) into %s", len(records), filepath.Join(rawDir, outFile)),
	}, nil
}

// fetchToken runs the client-credentials exchange.
func (c *ArtistProfileClient) fetchToken(ctx context.Context) (string, error) {
	tokenURL := c.cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultSpotifyTokenURL
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientID + ":" + c.cfg.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer closeBody(resp.Body, "token response")

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request failed with status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token response carried no access token")
	}
	return payload.AccessToken, nil
}

// searchArtist looks an artist up by name and keeps the first result.
func (c *ArtistProfileClient) searchArtist(ctx context.Context, token, artist string) (artistProfileRecord, bool, error) {
	baseURL := c.cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultSpotifyBaseURL
	}
	searchURL := fmt.Sprintf("%s/v1/search?q=%s&type=artist", baseURL, url.QueryEscape(artist))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return artistProfileRecord{}, false, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return artistProfileRecord{}, false, fmt.Errorf("artist search failed for %q: %w", artist, err)
	}
	defer closeBody(resp.Body, "search response")

	if resp.StatusCode != http.StatusOK {
		logging.Warn().Str("artist", artist).Int("status", resp.StatusCode).
			Msg("artist-profile search unsuccessful")
		return artistProfileRecord{}, false, nil
	}

	var payload struct {
		Artists struct {
			Items []struct {
				Name      string   `json:"name"`
				Genres    []string `json:"genres"`
				Followers struct {
					Total int64 `json:"total"`
				} `json:"followers"`
				Popularity int `json:"popularity"`
			} `json:"items"`
		} `json:"artists"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return artistProfileRecord{}, false, fmt.Errorf("failed to decode search response for %q: %w", artist, err)
	}
	if len(payload.Artists.Items) == 0 {
		return artistProfileRecord{}, false, nil
	}

	first := payload.Artists.Items[0]
	genres := first.Genres
	if genres == nil {
		genres = []string{}
	}
	return artistProfileRecord{
		Artist:     first.Name,
		Genres:     genres,
		Followers:  first.Followers.Total,
		Popularity: first.Popularity,
	}, true, nil
}

func (c *ArtistProfileClient) pause(ctx context.Context) {
	if c.delay <= 0 {
		return
	}
	select {
	case <-time.After(c.delay):
	case <-ctx.Done():
	}
}

// writeSnapshot serializes the records into the raw zone.
func writeSnapshot(rawDir, outFile string, records any) error {
	if err := os.MkdirAll(rawDir, 0o750); err != nil {
		return fmt.Errorf("failed to create raw directory: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	path := filepath.Join(rawDir, outFile)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return nil
}

func closeBody(body io.ReadCloser, what string) {
	if err := body.Close(); err != nil {
		logging.Warn().Err(err).Str("what", what).Msg("failed to close response body")
	}
}

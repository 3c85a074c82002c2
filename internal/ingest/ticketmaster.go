// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/evamartin1240/gigline/internal/config"
	"github.com/evamartin1240/gigline/internal/logging"
	"github.com/evamartin1240/gigline/internal/models"
)

const defaultTicketmasterBaseURL = "https://app.ticketmaster.com"

// missingValue is the capture-time marker for absent fields. The trusted
// zone's missing-value canonicalization rewrites it to null later.
const missingValue = "N/A"

// EventListingClient fetches concert events from a Ticketmaster-compatible
// discovery API.
type EventListingClient struct {
	httpClient *http.Client
	cfg        config.TicketmasterConfig
	delay      time.Duration
}

// NewEventListingClient creates a client from the ingest configuration.
func NewEventListingClient(cfg *config.IngestConfig) *EventListingClient {
	return &EventListingClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cfg:        cfg.Ticketmaster,
		delay:      cfg.RequestDelay,
	}
}

// eventListingRecord is the raw snapshot record shape for one event.
type eventListingRecord struct {
	Artist     string `json:"artist"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Venue      string `json:"venue"`
	Location   string `json:"location"`
	PriceRange string `json:"price_range"`
}

// discoveryEvent mirrors the fields of the upstream event payload the
// pipeline cares about.
type discoveryEvent struct {
	Name  string `json:"name"`
	Dates struct {
		Start struct {
			LocalDate string `json:"localDate"`
			LocalTime string `json:"localTime"`
		} `json:"start"`
	} `json:"dates"`
	PriceRanges []struct {
		Min      *float64 `json:"min"`
		Max      *float64 `json:"max"`
		Currency string   `json:"currency"`
	} `json:"priceRanges"`
	Embedded struct {
		Venues []struct {
			Name string `json:"name"`
			City struct {
				Name string `json:"name"`
			} `json:"city"`
			Country struct {
				Name string `json:"name"`
			} `json:"country"`
		} `json:"venues"`
	} `json:"_embedded"`
}

// Ingest fetches the event listings of every named artist and writes one
// raw JSON snapshot file. Artists whose lookup fails are logged and
// skipped.
func (c *EventListingClient) Ingest(ctx context.Context, artists []string, rawDir, outFile string) (*models.StageReport, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("event-listing ingestion requires an API key")
	}

	baseURL := c.cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultTicketmasterBaseURL
	}

	records := make([]eventListingRecord, 0, len(artists))
	for _, artist := range artists {
		events, err := c.fetchEvents(ctx, baseURL, artist)
		if err != nil {
			return nil, err
		}
		for i := range events {
			records = append(records, extractEventRecord(artist, &events[i]))
		}
		c.pause(ctx)
	}

	if err := writeSnapshot(rawDir, outFile, records); err != nil {
		return nil, err
	}
	return &models.StageReport{
		Stage:   "ingest.events",
		Message: fmt.Sprintf("fetched %d event listing(s) into %s", len(records), filepath.Join(rawDir, outFile)),
	}, nil
}

func (c *EventListingClient) fetchEvents(ctx context.Context, baseURL, artist string) ([]discoveryEvent, error) {
	reqURL := fmt.Sprintf("%s/discovery/v2/events.json?keyword=%s&apikey=%s",
		baseURL, url.QueryEscape(artist), url.QueryEscape(c.cfg.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build events request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("event lookup failed for %q: %w", artist, err)
	}
	defer closeBody(resp.Body, "events response")

	if resp.StatusCode != http.StatusOK {
		logging.Warn().Str("artist", artist).Int("status", resp.StatusCode).
			Msg("event-listing lookup unsuccessful")
		return nil, nil
	}

	var payload struct {
		Embedded struct {
			Events []discoveryEvent `json:"events"`
		} `json:"_embedded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode events response for %q: %w", artist, err)
	}
	return payload.Embedded.Events, nil
}

// extractEventRecord flattens one upstream event into the snapshot record
// shape, substituting the missing-value marker for absent fields.
func extractEventRecord(artist string, event *discoveryEvent) eventListingRecord {
	record := eventListingRecord{
		Artist:     artist,
		Name:       orMissing(event.Name),
		Date:       orMissing(event.Dates.Start.LocalDate),
		Time:       orMissing(event.Dates.Start.LocalTime),
		Venue:      missingValue,
		Location:   missingValue + ", " + missingValue,
		PriceRange: missingValue,
	}

	if len(event.Embedded.Venues) > 0 {
		venue := event.Embedded.Venues[0]
		record.Venue = orMissing(venue.Name)
		record.Location = orMissing(venue.City.Name) + ", " + orMissing(venue.Country.Name)
	}

	if len(event.PriceRanges) > 0 {
		pr := event.PriceRanges[0]
		record.PriceRange = fmt.Sprintf("%s-%s %s",
			formatPrice(pr.Min), formatPrice(pr.Max), orMissing(pr.Currency))
	}
	return record
}

func orMissing(s string) string {
	if s == "" {
		return missingValue
	}
	return s
}

func formatPrice(v *float64) string {
	if v == nil {
		return missingValue
	}
	return fmt.Sprintf("%g", *v)
}

func (c *EventListingClient) pause(ctx context.Context) {
	if c.delay <= 0 {
		return
	}
	select {
	case <-time.After(c.delay):
	case <-ctx.Done():
	}
}

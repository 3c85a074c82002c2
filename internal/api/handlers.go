// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

// Package api exposes the pipeline's operational surface: one POST endpoint
// per manually triggered stage, a read-only view of the trusted tables, and
// health/metrics endpoints. Each trigger blocks until its stage completes
// and returns the stage report.
package api

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/evamartin1240/gigline/internal/config"
	"github.com/evamartin1240/gigline/internal/database"
	"github.com/evamartin1240/gigline/internal/formatted"
	"github.com/evamartin1240/gigline/internal/ingest"
	"github.com/evamartin1240/gigline/internal/landing"
	"github.com/evamartin1240/gigline/internal/logging"
	"github.com/evamartin1240/gigline/internal/metrics"
	"github.com/evamartin1240/gigline/internal/models"
	"github.com/evamartin1240/gigline/internal/trusted"
)

// Handler carries the dependencies of all API handlers.
type Handler struct {
	db           *database.DB
	cfg          *config.Config
	engine       *trusted.Engine
	artistClient *ingest.ArtistProfileClient
	eventClient  *ingest.EventListingClient
	startTime    time.Time
}

// NewHandler creates the API handler.
func NewHandler(db *database.DB, cfg *config.Config, engine *trusted.Engine) *Handler {
	return &Handler{
		db:           db,
		cfg:          cfg,
		engine:       engine,
		artistClient: ingest.NewArtistProfileClient(&cfg.Ingest),
		eventClient:  ingest.NewEventListingClient(&cfg.Ingest),
		startTime:    time.Now(),
	}
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

// Health reports liveness, uptime, and store reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "ok"
	code := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		status, dbStatus = "degraded", err.Error()
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":   status,
		"database": dbStatus,
		"uptime":   time.Since(h.startTime).Round(time.Second).String(),
	})
}

// ingestRequest optionally overrides the configured artist list and output
// file name for one ingestion run.
type ingestRequest struct {
	Artists []string `json:"artists"`
	OutFile string   `json:"out_file"`
}

// IngestArtists runs the artist-profile ingestion into the raw zone.
func (h *Handler) IngestArtists(w http.ResponseWriter, r *http.Request) {
	h.runIngest(w, r, "ingest.artists", "spotify_data.json",
		func(artists []string, outFile string) (*models.StageReport, error) {
			return h.artistClient.Ingest(r.Context(), artists, h.cfg.Zones.Raw, outFile)
		})
}

// IngestEvents runs the event-listing ingestion into the raw zone.
func (h *Handler) IngestEvents(w http.ResponseWriter, r *http.Request) {
	h.runIngest(w, r, "ingest.events", "ticketmaster_data.json",
		func(artists []string, outFile string) (*models.StageReport, error) {
			return h.eventClient.Ingest(r.Context(), artists, h.cfg.Zones.Raw, outFile)
		})
}

func (h *Handler) runIngest(w http.ResponseWriter, r *http.Request, stage, defaultOut string,
	run func(artists []string, outFile string) (*models.StageReport, error)) {
	var req ingestRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
			return
		}
	}

	artists := req.Artists
	if len(artists) == 0 {
		loaded, err := readArtistsFile(h.cfg.Ingest.ArtistsFile)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		artists = loaded
	}
	outFile := req.OutFile
	if outFile == "" {
		outFile = defaultOut
	}

	h.respondStage(w, r, stage, func() (*models.StageReport, error) {
		return run(artists, outFile)
	})
}

// RawToTemporal triggers the raw-to-temporal landing stage.
func (h *Handler) RawToTemporal(w http.ResponseWriter, r *http.Request) {
	h.respondStage(w, r, "landing.temporal", func() (*models.StageReport, error) {
		return landing.RawToTemporal(h.cfg.Zones.Raw, h.cfg.Zones.Temporal)
	})
}

// TemporalToPersistent triggers the temporal-to-persistent landing stage.
func (h *Handler) TemporalToPersistent(w http.ResponseWriter, r *http.Request) {
	h.respondStage(w, r, "landing.persistent", func() (*models.StageReport, error) {
		return landing.TemporalToPersistent(h.cfg.Zones.Temporal, h.cfg.Zones.Persistent)
	})
}

// LandingToFormatted triggers the JSON-to-CSV conversion stage.
func (h *Handler) LandingToFormatted(w http.ResponseWriter, r *http.Request) {
	h.respondStage(w, r, "formatted", func() (*models.StageReport, error) {
		return formatted.LandingToFormatted(h.cfg.Zones.Persistent, h.cfg.Zones.Formatted)
	})
}

// TrustedUnion triggers union-and-tag into the trusted store.
func (h *Handler) TrustedUnion(w http.ResponseWriter, r *http.Request) {
	h.respondStage(w, r, "trusted.union", func() (*models.StageReport, error) {
		return h.engine.Union(r.Context(), h.cfg.Zones.Formatted)
	})
}

// TrustedDedupe triggers deduplication of the trusted tables.
func (h *Handler) TrustedDedupe(w http.ResponseWriter, r *http.Request) {
	h.respondStage(w, r, "trusted.dedupe", func() (*models.StageReport, error) {
		return h.engine.Dedupe(r.Context())
	})
}

// TrustedFormat triggers consistent formatting of the trusted tables.
func (h *Handler) TrustedFormat(w http.ResponseWriter, r *http.Request) {
	h.respondStage(w, r, "trusted.format", func() (*models.StageReport, error) {
		return h.engine.Format(r.Context())
	})
}

// TrustedGenres triggers genre-label canonicalization.
func (h *Handler) TrustedGenres(w http.ResponseWriter, r *http.Request) {
	h.respondStage(w, r, "trusted.genres", func() (*models.StageReport, error) {
		return h.engine.CanonicalizeGenres(r.Context())
	})
}

// respondStage runs one stage, records metrics, and writes the stage report
// or an error body. A failed stage never kills the process.
func (h *Handler) respondStage(w http.ResponseWriter, r *http.Request, stage string,
	run func() (*models.StageReport, error)) {
	start := time.Now()
	report, err := run()
	metrics.ObserveStage(stage, start, err)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("stage", stage).Msg("stage failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	logging.Ctx(r.Context()).Info().Str("stage", stage).Str("message", report.Message).
		Msg("stage complete")
	writeJSON(w, http.StatusOK, report)
}

// trustedPage is a read-only page of a trusted table.
type trustedPage struct {
	Source  models.Source `json:"source"`
	Columns []string      `json:"columns"`
	Rows    [][]any       `json:"rows"`
	Total   int64         `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
}

// GetTrusted returns a page of a trusted table for the profiling and
// analytical consumers.
func (h *Handler) GetTrusted(w http.ResponseWriter, r *http.Request) {
	source := models.Source(chi.URLParam(r, "source"))
	spec, err := models.SpecFor(source)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	exists, err := h.db.TableExists(r.Context(), spec.TrustedTable)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if !exists {
		writeJSON(w, http.StatusNotFound,
			errorResponse{Error: fmt.Sprintf("trusted table %s does not exist yet", spec.TrustedTable)})
		return
	}

	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)
	if limit < 1 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	table, err := h.db.ReadTable(r.Context(), spec.TrustedTable)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	total := int64(len(table.Rows))
	from := min(offset, len(table.Rows))
	to := min(from+limit, len(table.Rows))

	writeJSON(w, http.StatusOK, trustedPage{
		Source:  source,
		Columns: table.Header(),
		Rows:    table.Rows[from:to],
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func readArtistsFile(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("no artists provided and no artists file configured")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artists file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logging.Warn().Err(cerr).Str("file", path).Msg("failed to close artists file")
		}
	}()

	var artists []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			artists = append(artists, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read artists file: %w", err)
	}
	if len(artists) == 0 {
		return nil, fmt.Errorf("artists file %s is empty", path)
	}
	return artists, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

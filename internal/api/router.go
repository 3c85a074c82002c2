// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evamartin1240/gigline/internal/config"
)

// NewRouter wires the operational surface. Stage triggers are rate limited
// per client IP so an impatient operator cannot run a stage twice
// concurrently against the single-session store.
func NewRouter(h *Handler, cfg *config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(Instrument)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))

			r.Post("/ingest/artists", h.IngestArtists)
			r.Post("/ingest/events", h.IngestEvents)

			r.Route("/pipeline", func(r chi.Router) {
				r.Post("/landing/temporal", h.RawToTemporal)
				r.Post("/landing/persistent", h.TemporalToPersistent)
				r.Post("/formatted", h.LandingToFormatted)
				r.Route("/trusted", func(r chi.Router) {
					r.Post("/union", h.TrustedUnion)
					r.Post("/dedupe", h.TrustedDedupe)
					r.Post("/format", h.TrustedFormat)
					r.Post("/genres", h.TrustedGenres)
				})
			})
		})

		r.Get("/trusted/{source}", h.GetTrusted)
	})

	return r
}

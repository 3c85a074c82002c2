// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/evamartin1240/gigline/internal/logging"
	"github.com/evamartin1240/gigline/internal/metrics"
)

// RequestID assigns every request a unique ID, echoed in the X-Request-ID
// header and attached to the request's logging context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = logging.GenerateRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

// statusRecorder captures the response status for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// Instrument records request counts and latency per route pattern. The chi
// route pattern is used rather than the raw path to keep metric cardinality
// bounded.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		metrics.ObserveHTTP(pattern, r.Method, rec.status, start)

		logging.Ctx(r.Context()).Debug().
			Str("method", r.Method).Str("path", r.URL.Path).
			Int("status", rec.status).Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

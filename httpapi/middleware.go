/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package httpapi

import (
	"net/http"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// traceContext continues the caller's trace from the incoming propagation
// headers, so acquisition spans join it.
func traceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger attaches a request-scoped logger to the context and logs one
// line per completed request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := clog.FromContext(r.Context()).
			With("method", r.Method).
			With("path", r.URL.Path)
		if id := middleware.GetReqID(r.Context()); id != "" {
			log = log.With("request_id", id)
		}
		if sc := oteltrace.SpanContextFromContext(r.Context()); sc.IsValid() {
			log = log.With("trace_id", sc.TraceID().String())
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(clog.WithLogger(r.Context(), log)))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log = log.With("status", status).With("duration", time.Since(start))
		if status >= http.StatusInternalServerError {
			log.Warn("Request failed")
			return
		}
		log.Info("Request handled")
	})
}

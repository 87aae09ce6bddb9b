/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package httpapi exposes repository provisioning and tree lookup over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"chainguard.dev/provisioner/provision"
	"chainguard.dev/provisioner/treefetch"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultProjectName is used when a generate request has no projectName.
const DefaultProjectName = "flutter_studio"

// Provisioner is the service behind the HTTP surface.
type Provisioner interface {
	ProvisionRepository(ctx context.Context, req provision.ProvisionRequest) (*provision.Provisioned, error)
	FetchRepositoryTree(ctx context.Context, req provision.TreeRequest) (*treefetch.Tree, error)
}

type options struct {
	defaultProjectName string
	allowedOrigins     []string
}

// Option configures the handler returned by NewHandler.
type Option func(*options)

// WithDefaultProjectName overrides DefaultProjectName.
func WithDefaultProjectName(name string) Option {
	return func(o *options) {
		o.defaultProjectName = name
	}
}

// WithAllowedOrigins sets the CORS origins (default: all).
func WithAllowedOrigins(origins ...string) Option {
	return func(o *options) {
		o.allowedOrigins = origins
	}
}

type handler struct {
	svc                Provisioner
	defaultProjectName string
}

// NewHandler returns the routes of the provisioner API.
func NewHandler(svc Provisioner, opts ...Option) http.Handler {
	o := options{
		defaultProjectName: DefaultProjectName,
		allowedOrigins:     []string{"*"},
	}
	for _, opt := range opts {
		opt(&o)
	}
	h := &handler{svc: svc, defaultProjectName: o.defaultProjectName}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(traceContext)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: o.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Post("/generate-repo", h.generateRepo)
	r.Get("/repo-info", h.repoInfo)
	r.Get("/health", health)
	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main runs the repository provisioner HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainguard.dev/provisioner/config"
	"chainguard.dev/provisioner/ghclient"
	"chainguard.dev/provisioner/httpapi"
	"chainguard.dev/provisioner/provision"
	"chainguard.dev/provisioner/telemetry"
	"chainguard.dev/provisioner/treefetch"
	"github.com/chainguard-dev/clog"
	_ "github.com/chainguard-dev/clog/gcp/init"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		clog.FatalContextf(ctx, "loading config: %v", err)
	}

	shutdownTracer, err := telemetry.SetupTracer(ctx,
		telemetry.WithServiceName("provisioner"),
		telemetry.WithOTLP(cfg.ExportsTraces()))
	if err != nil {
		clog.FatalContextf(ctx, "setting up tracing: %v", err)
	}
	defer shutdownTracer()
	if !cfg.HasToken() {
		clog.WarnContextf(ctx, "GH_TOKEN is not set; repository operations will fail with missing_github_token")
	}

	gh, err := ghclient.New(ctx, cfg.GitHubToken,
		ghclient.WithBaseURL(cfg.GitHubAPIURL),
		ghclient.WithHTTPClient(&http.Client{Transport: ghclient.InstrumentedTransport(nil)}),
		ghclient.WithUserAgent("chainguard.dev/provisioner"))
	if err != nil {
		clog.FatalContextf(ctx, "creating GitHub client: %v", err)
	}

	engine, err := treefetch.New(gh,
		treefetch.WithMaxAttempts(cfg.TreeMaxAttempts),
		treefetch.WithInterval(cfg.TreePollInterval))
	if err != nil {
		clog.FatalContextf(ctx, "creating tree engine: %v", err)
	}

	svc, err := provision.New(cfg.Settings(), gh, engine)
	if err != nil {
		clog.FatalContextf(ctx, "creating provisioning service: %v", err)
	}

	api := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: httpapi.NewHandler(svc,
			httpapi.WithDefaultProjectName(cfg.DefaultProjectName),
			httpapi.WithAllowedOrigins(cfg.CORSAllowedOrigins...)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metrics := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range []*http.Server{api, metrics} {
		g.Go(func() error {
			clog.InfoContextf(ctx, "Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		clog.InfoContextf(ctx, "Shutting down")
		sctx, scancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer scancel()
		return errors.Join(api.Shutdown(sctx), metrics.Shutdown(sctx))
	})

	if err := g.Wait(); err != nil {
		clog.FatalContextf(ctx, "server failed: %v", err)
	}
}

/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package config loads the provisioner settings from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"chainguard.dev/provisioner/provision"
	"github.com/sethvargo/go-envconfig"
)

// Config holds every setting of the provisioner service.
type Config struct {
	Port        int `env:"PORT,default=8080"`
	MetricsPort int `env:"METRICS_PORT,default=2112"`

	// GitHubToken is optional at startup; operations fail with
	// missing_github_token while it is unset.
	GitHubToken  string `env:"GH_TOKEN"`
	GitHubAPIURL string `env:"GITHUB_API_URL,default=https://api.github.com/"`

	DefaultOwner       string `env:"GH_OWNER,default=leochanvin"`
	TemplateOwner      string `env:"TEMPLATE_OWNER,default=leochanvin"`
	TemplateRepo       string `env:"TEMPLATE_REPO,default=flutter-studio-template"`
	DefaultProjectName string `env:"DEFAULT_PROJECT_NAME,default=flutter_studio"`
	DefaultBranch      string `env:"DEFAULT_BRANCH,default=main"`

	TreeMaxAttempts  int           `env:"TREE_MAX_ATTEMPTS,default=60"`
	TreePollInterval time.Duration `env:"TREE_POLL_INTERVAL,default=2s"`

	// Spans are exported over OTLP/HTTP when either endpoint is set.
	OTLPEndpoint       string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPTracesEndpoint string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`

	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS,default=*"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWith reads the configuration through the given lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.MetricsPort <= 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("METRICS_PORT out of range: %d", c.MetricsPort))
	}
	if c.MetricsPort == c.Port {
		errs = append(errs, errors.New("METRICS_PORT must differ from PORT"))
	}
	if u, err := url.Parse(c.GitHubAPIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("GITHUB_API_URL is not an absolute URL: %q", c.GitHubAPIURL))
	}
	if c.TemplateOwner == "" || c.TemplateRepo == "" {
		errs = append(errs, errors.New("TEMPLATE_OWNER and TEMPLATE_REPO are required"))
	}
	if c.TreeMaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("TREE_MAX_ATTEMPTS must be positive: %d", c.TreeMaxAttempts))
	}
	if c.TreePollInterval < 0 {
		errs = append(errs, fmt.Errorf("TREE_POLL_INTERVAL cannot be negative: %v", c.TreePollInterval))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive: %v", c.ShutdownTimeout))
	}
	return errors.Join(errs...)
}

// HasToken reports whether a GitHub token was configured.
func (c *Config) HasToken() bool {
	return c.GitHubToken != ""
}

// ExportsTraces reports whether an OTLP collector endpoint was configured.
func (c *Config) ExportsTraces() bool {
	return c.OTLPEndpoint != "" || c.OTLPTracesEndpoint != ""
}

// Settings returns the provisioning settings derived from c.
func (c *Config) Settings() provision.Settings {
	return provision.Settings{
		HasCredential: c.HasToken(),
		DefaultOwner:  c.DefaultOwner,
		TemplateOwner: c.TemplateOwner,
		TemplateRepo:  c.TemplateRepo,
		DefaultBranch: c.DefaultBranch,
	}
}

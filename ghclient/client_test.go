/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package ghclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"chainguard.dev/provisioner/ghclient"
	"github.com/google/go-github/v75/github"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, token string, h http.Handler) *ghclient.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := ghclient.New(context.Background(), token, ghclient.WithBaseURL(srv.URL))
	require.NoError(t, err)
	return c
}

func TestCallSetsStandardHeaders(t *testing.T) {
	t.Parallel()
	var got http.Header
	c := newTestClient(t, "s3cr3t", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))

	var out map[string]bool
	require.NoError(t, c.Call(context.Background(), http.MethodGet, "/rate_limit", nil, &out))
	require.True(t, out["ok"])
	require.Equal(t, "Bearer s3cr3t", got.Get("Authorization"))
	require.Equal(t, ghclient.MediaType, got.Get("Accept"))
	require.Equal(t, ghclient.APIVersion, got.Get(ghclient.APIVersionHeader))
}

func TestCallMergesCallerOptions(t *testing.T) {
	t.Parallel()
	var (
		method string
		accept string
		extra  string
		body   map[string]any
	)
	c := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		accept = r.Header.Get("Accept")
		extra = r.Header.Get("X-Extra")
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{}`)
	}))

	err := c.Call(context.Background(), http.MethodPost, "repos/o/r/things", map[string]any{"name": "demo"}, nil,
		ghclient.WithHeader("Accept", "application/vnd.github.raw+json"),
		ghclient.WithHeader("X-Extra", "yes"),
	)
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, method)
	require.Equal(t, "application/vnd.github.raw+json", accept)
	require.Equal(t, "yes", extra)
	require.Equal(t, "demo", body["name"])
}

func TestCallAnonymousClientSendsNoCredential(t *testing.T) {
	t.Parallel()
	var auth string
	c := newTestClient(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{}`)
	}))
	require.NoError(t, c.Call(context.Background(), http.MethodGet, "meta", nil, nil))
	require.Empty(t, auth)
}

func TestCallNonSuccessStatus(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Not Found"}`)
	}))

	err := c.Call(context.Background(), http.MethodGet, "/repos/o/r/branches/main", nil, nil)
	require.Error(t, err)

	var rce *ghclient.RemoteCallError
	require.ErrorAs(t, err, &rce)
	require.Equal(t, "/repos/o/r/branches/main", rce.Path)
	require.Equal(t, http.StatusNotFound, rce.StatusCode)
	require.Equal(t, "Not Found", rce.Status)
	require.JSONEq(t, `{"message":"Not Found"}`, rce.Body)
	require.False(t, rce.Transport())
	require.True(t, ghclient.IsNotFound(err))
	require.Equal(t, `GitHub /repos/o/r/branches/main -> 404 Not Found: {"message":"Not Found"}`, err.Error())

	// The go-github error remains reachable for callers that need it.
	var ghErr *github.ErrorResponse
	require.ErrorAs(t, err, &ghErr)
	require.Equal(t, "Not Found", ghErr.Message)
}

func TestCallServerErrorWithPlainBody(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))

	err := c.Call(context.Background(), http.MethodGet, "repos/o/r", nil, nil)
	var rce *ghclient.RemoteCallError
	require.ErrorAs(t, err, &rce)
	require.Equal(t, http.StatusBadGateway, rce.StatusCode)
	require.Equal(t, "upstream exploded\n", rce.Body)
}

func TestCallTransportFailure(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := ghclient.New(context.Background(), "tok", ghclient.WithBaseURL(url))
	require.NoError(t, err)

	err = c.Call(context.Background(), http.MethodGet, "repos/o/r", nil, nil)
	var rce *ghclient.RemoteCallError
	require.ErrorAs(t, err, &rce)
	require.True(t, rce.Transport())
	require.Zero(t, rce.StatusCode)
	require.Empty(t, rce.Body)
}

func TestCallCancelledContext(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Call(ctx, http.MethodGet, "repos/o/r", nil, nil)
	var rce *ghclient.RemoteCallError
	require.ErrorAs(t, err, &rce)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestCallAcceptedIsSuccess(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, `{"name":"pending"}`)
	}))

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.Call(context.Background(), http.MethodGet, "repos/o/r/stats", nil, &out))
	require.Equal(t, "pending", out.Name)
}

func TestCallUndecodableSuccess(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, "tok", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"type":"file","path":"README.md"}`)
	}))

	_, err := c.ListContents(context.Background(), "o", "r", "main")
	var rce *ghclient.RemoteCallError
	require.ErrorAs(t, err, &rce)
	require.Equal(t, http.StatusOK, rce.StatusCode)
}

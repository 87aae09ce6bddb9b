/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package ghclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"
)

const (
	// MediaType is sent as the Accept header on every request.
	MediaType = "application/vnd.github+json"
	// APIVersion is the pinned REST API version.
	APIVersion = "2022-11-28"
	// APIVersionHeader carries APIVersion.
	APIVersionHeader = "X-GitHub-Api-Version"
)

// Client issues authenticated GitHub REST calls. It is safe for concurrent
// use and holds no per-request state.
type Client struct {
	gh *github.Client
}

// Option configures a Client.
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// WithBaseURL points the client at a different API root, such as a GitHub
// Enterprise server or a test server. A trailing slash is added if missing.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// WithHTTPClient sets the underlying HTTP client. The bearer credential is
// layered on top of its transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// CallOption modifies a single outgoing request after the standard headers
// have been applied.
type CallOption func(*http.Request)

// WithHeader sets a request header, replacing any standard value.
func WithHeader(key, value string) CallOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

// New constructs a Client that authenticates with the given bearer token. An
// empty token produces an anonymous client.
func New(ctx context.Context, token string, opts ...Option) (*Client, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	httpClient := o.httpClient
	if token != "" {
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	gh := github.NewClient(httpClient)
	if o.baseURL != "" {
		base := o.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parsing base url: %w", err)
		}
		gh.BaseURL = u
	}
	if o.userAgent != "" {
		gh.UserAgent = o.userAgent
	}

	return &Client{gh: gh}, nil
}

// Call performs one request against path (relative to the API root; a
// leading slash is accepted) and decodes a successful JSON response into v,
// which may be nil. A non-nil body is JSON encoded.
//
// Every failure is returned as a *RemoteCallError.
func (c *Client) Call(ctx context.Context, method, path string, body, v any, opts ...CallOption) error {
	req, err := c.gh.NewRequest(method, strings.TrimPrefix(path, "/"), body)
	if err != nil {
		return &RemoteCallError{Method: method, Path: path, Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Accept", MediaType)
	req.Header.Set(APIVersionHeader, APIVersion)
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.gh.Do(ctx, req, v)
	if err == nil {
		return nil
	}

	// go-github reports 202 Accepted as an error; it is still a success.
	var accepted *github.AcceptedError
	if errors.As(err, &accepted) {
		if v == nil || len(accepted.Raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(accepted.Raw, v); err != nil {
			return &RemoteCallError{
				Method:     method,
				Path:       path,
				StatusCode: http.StatusAccepted,
				Status:     http.StatusText(http.StatusAccepted),
				Err:        fmt.Errorf("decoding response: %w", err),
			}
		}
		return nil
	}

	if resp != nil && resp.Response != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// The request succeeded but the payload did not match v.
		return &RemoteCallError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     statusText(resp.Status, resp.StatusCode),
			Err:        fmt.Errorf("decoding response: %w", err),
		}
	}
	return newRemoteCallError(method, path, resp, err)
}

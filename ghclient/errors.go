/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package ghclient

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/go-github/v75/github"
)

// RemoteCallError describes a GitHub call that did not succeed. StatusCode is
// zero when the request never produced an HTTP response (DNS failure,
// connection reset, timeout, cancelled context).
type RemoteCallError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	// Body is the raw response body, best effort.
	Body string
	Err  error
}

func (e *RemoteCallError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("GitHub %s -> %v", e.Path, e.Err)
	case e.StatusCode >= 200 && e.StatusCode < 300:
		return fmt.Sprintf("GitHub %s -> %d %s: %v", e.Path, e.StatusCode, e.Status, e.Err)
	}
	return fmt.Sprintf("GitHub %s -> %d %s: %s", e.Path, e.StatusCode, e.Status, e.Body)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// Code returns the stable machine-readable code for this error class.
func (e *RemoteCallError) Code() string {
	return "remote_call_failed"
}

// Transport reports whether the call failed before any HTTP status was
// received.
func (e *RemoteCallError) Transport() bool {
	return e.StatusCode == 0
}

// IsNotFound reports whether err is a RemoteCallError for a 404 response.
func IsNotFound(err error) bool {
	var rce *RemoteCallError
	return errors.As(err, &rce) && rce.StatusCode == http.StatusNotFound
}

// newRemoteCallError builds a RemoteCallError from the response go-github
// returned alongside err. go-github re-populates the body of error responses,
// so it can be read here after CheckResponse consumed it.
func newRemoteCallError(method, path string, resp *github.Response, err error) *RemoteCallError {
	rce := &RemoteCallError{
		Method: method,
		Path:   path,
		Err:    err,
	}
	if resp == nil || resp.Response == nil {
		return rce
	}
	rce.StatusCode = resp.StatusCode
	rce.Status = statusText(resp.Status, resp.StatusCode)
	if resp.Body != nil {
		if b, readErr := io.ReadAll(resp.Body); readErr == nil {
			rce.Body = string(b)
		}
	}
	return rce
}

// statusText strips the numeric prefix net/http puts on Response.Status.
func statusText(status string, code int) string {
	if status == "" {
		return http.StatusText(code)
	}
	return strings.TrimPrefix(status, strconv.Itoa(code)+" ")
}

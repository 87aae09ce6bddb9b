/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"chainguard.dev/provisioner/provision"
	"github.com/chainguard-dev/clog"
)

const codeInvalidBody = "invalid_body"

type generateRequest struct {
	ProjectName string `json:"projectName"`
	Owner       string `json:"owner"`
	Private     bool   `json:"private"`
}

type errorBody struct {
	OK      *bool  `json:"ok,omitempty"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (h *handler) generateRepo(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		clog.FromContext(r.Context()).Warnf("Rejecting malformed body: %v", err)
		writeJSON(w, http.StatusBadRequest, failure(true, codeInvalidBody, ""))
		return
	}
	// Absent, null and "" all select the default. Whitespace is rejected
	// downstream.
	name := body.ProjectName
	if name == "" {
		name = h.defaultProjectName
	}

	// The caller going away must not abandon a repository mid-provisioning.
	ctx := context.WithoutCancel(r.Context())
	res, err := h.svc.ProvisionRepository(ctx, provision.ProvisionRequest{
		ProjectName: name,
		Owner:       body.Owner,
		Private:     body.Private,
	})
	if err != nil {
		writeError(w, r, true, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) repoInfo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := context.WithoutCancel(r.Context())
	tree, err := h.svc.FetchRepositoryTree(ctx, provision.TreeRequest{
		Owner:  q.Get("owner"),
		Repo:   q.Get("repo"),
		Branch: q.Get("branch"),
	})
	if err != nil {
		writeError(w, r, false, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func failure(withOK bool, code, message string) errorBody {
	b := errorBody{Error: code, Message: message}
	if withOK {
		ok := false
		b.OK = &ok
	}
	return b
}

// writeError maps service errors onto status codes. Validation problems are
// the caller's fault; everything else is reported as a server error.
func writeError(w http.ResponseWriter, r *http.Request, withOK bool, err error) {
	var (
		verr *provision.ValidationError
		cerr *provision.ConfigError
		oerr *provision.OperationError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, failure(withOK, verr.Code(), ""))
	case errors.As(err, &cerr):
		clog.FromContext(r.Context()).Warnf("Service misconfigured: %v", err)
		writeJSON(w, http.StatusInternalServerError, failure(withOK, cerr.Code(), ""))
	case errors.As(err, &oerr):
		clog.FromContext(r.Context()).Warnf("Operation failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, failure(withOK, oerr.Code(), oerr.Err.Error()))
	default:
		clog.FromContext(r.Context()).Warnf("Unexpected failure: %v", err)
		writeJSON(w, http.StatusInternalServerError, failure(withOK, "internal_error", err.Error()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

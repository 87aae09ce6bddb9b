/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package ghclient performs single authenticated calls against the GitHub
// REST API and normalizes every failure into a RemoteCallError.
//
// Requests are built and checked by go-github, authenticated with a bearer
// credential through an oauth2 token source, and always carry the
// application/vnd.github+json accept header and a pinned API version:
//
//	c, err := ghclient.New(ctx, token)
//	if err != nil {
//		return err
//	}
//	tree, err := c.GetTree(ctx, "octo", "hello", "main", true)
//
// Nothing here retries. Callers that need to tolerate eventual consistency
// (see package treefetch) own their retry policy.
package ghclient

/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package treefetch obtains the complete file tree of a GitHub repository,
// tolerating the eventual consistency GitHub exhibits right after a
// repository has been generated from a template.
//
// # Strategies
//
// Every round tries three strategies in a fixed order and returns the first
// tree that is non-empty:
//
//   - branch-tree: the recursive git tree of the branch, by name.
//   - commit-tree: the branch's head commit SHA, then the recursive tree of
//     that SHA.
//   - contents-listing: the root contents listing of the branch, converted
//     into a hierarchy and flattened back into tree entries. Trees built
//     this way have no SHA and are never truncated.
//
// A strategy that errors or comes back empty only means "not this round";
// it never aborts the round or the acquisition. When a whole round fails the
// engine waits for the configured interval and starts over, up to the
// configured number of rounds, after which Acquire reports
// ErrAcquisitionTimeout.
//
// # Usage
//
//	engine, err := treefetch.New(client)
//	if err != nil {
//		return err
//	}
//	tree, err := engine.Acquire(ctx, treefetch.Coordinates{
//		Owner: "acme", Repo: "demo", Branch: "main",
//	})
//
// Entry order depends on which strategy succeeded; callers must not rely on
// a stable ordering across calls.
package treefetch

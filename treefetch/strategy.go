/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package treefetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v75/github"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// ErrNotReady is returned by a strategy that reached GitHub but got nothing
// usable back yet (an empty tree, a branch without a commit, an empty
// listing).
var ErrNotReady = errors.New("tree not ready")

// API is the subset of the GitHub client the strategies need.
type API interface {
	GetTree(ctx context.Context, owner, repo, ref string, recursive bool) (*github.Tree, error)
	GetBranch(ctx context.Context, owner, repo, branch string) (*github.Branch, error)
	ListContents(ctx context.Context, owner, repo, ref string) ([]*github.RepositoryContent, error)
}

// Strategy is one way of obtaining a tree. Fetch returns a tree or an error,
// never both nil.
type Strategy struct {
	Name  string
	Fetch func(ctx context.Context, c Coordinates) (*Tree, error)
}

// Attempt is the typed outcome of running one strategy once.
type Attempt struct {
	Strategy string
	Tree     *Tree
	Err      error
}

// OK reports whether the attempt produced a tree.
func (a Attempt) OK() bool {
	return a.Err == nil && a.Tree != nil
}

// DefaultStrategies returns the branch-tree, commit-tree and
// contents-listing strategies, in that order.
func DefaultStrategies(api API) []Strategy {
	return []Strategy{
		BranchTree(api),
		CommitTree(api),
		ContentsListing(api),
	}
}

// BranchTree requests the recursive tree of the branch by name.
func BranchTree(api API) Strategy {
	return Strategy{
		Name: "branch-tree",
		Fetch: func(ctx context.Context, c Coordinates) (*Tree, error) {
			gt, err := api.GetTree(ctx, c.Owner, c.Repo, c.Branch, true)
			if err != nil {
				return nil, err
			}
			return nonEmpty(fromGitHub(gt), "branch tree")
		},
	}
}

// CommitTree resolves the branch to its head commit and requests the
// recursive tree of that commit.
func CommitTree(api API) Strategy {
	return Strategy{
		Name: "commit-tree",
		Fetch: func(ctx context.Context, c Coordinates) (*Tree, error) {
			b, err := api.GetBranch(ctx, c.Owner, c.Repo, c.Branch)
			if err != nil {
				return nil, err
			}
			sha := b.GetCommit().GetSHA()
			if sha == "" {
				return nil, fmt.Errorf("branch %q has no head commit: %w", c.Branch, ErrNotReady)
			}
			gt, err := api.GetTree(ctx, c.Owner, c.Repo, sha, true)
			if err != nil {
				return nil, err
			}
			return nonEmpty(fromGitHub(gt), "commit tree")
		},
	}
}

// ContentsListing builds a tree from the root contents listing of the
// branch. Any non-empty listing wins, even when none of its items carries a
// usable path. The resulting tree has no SHA and is not truncated.
func ContentsListing(api API) Strategy {
	return Strategy{
		Name: "contents-listing",
		Fetch: func(ctx context.Context, c Coordinates) (*Tree, error) {
			items, err := api.ListContents(ctx, c.Owner, c.Repo, c.Branch)
			if err != nil {
				return nil, err
			}
			if len(items) == 0 {
				return nil, fmt.Errorf("empty contents listing: %w", ErrNotReady)
			}
			return treeFromListing(c.Repo, items), nil
		},
	}
}

func nonEmpty(t *Tree, what string) (*Tree, error) {
	if t.Empty() {
		return nil, fmt.Errorf("empty %s: %w", what, ErrNotReady)
	}
	return t, nil
}

// firstSuccess runs the strategies in order and stops at the first one that
// produces a tree. It returns the winning attempt (zero Attempt when none
// won) and every attempt made, in order. Failures are values, never panics
// or early returns.
func firstSuccess(ctx context.Context, strategies []Strategy, c Coordinates) (Attempt, []Attempt) {
	attempts := make([]Attempt, 0, len(strategies))
	for _, s := range strategies {
		a := runStrategy(ctx, s, c)
		attempts = append(attempts, a)
		if a.OK() {
			return a, attempts
		}
	}
	return Attempt{}, attempts
}

func runStrategy(ctx context.Context, s Strategy, c Coordinates) Attempt {
	tr := otel.Tracer("chainguard.dev/provisioner/treefetch",
		oteltrace.WithInstrumentationVersion("1.0.0"))
	ctx, span := tr.Start(ctx, "treefetch.strategy", oteltrace.WithAttributes(
		attribute.String("strategy", s.Name),
		attribute.String("repository", c.Owner+"/"+c.Repo),
		attribute.String("branch", c.Branch),
	))
	defer span.End()

	tree, err := s.Fetch(ctx, c)
	if err == nil && tree == nil {
		err = fmt.Errorf("strategy %s returned no tree: %w", s.Name, ErrNotReady)
	}
	a := Attempt{Strategy: s.Name, Tree: tree, Err: err}

	switch {
	case a.OK():
		strategyAttempts.WithLabelValues(s.Name, outcomeSuccess).Inc()
		span.SetAttributes(attribute.Int("entries", len(tree.Entries)))
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, ErrNotReady):
		a.Tree = nil
		strategyAttempts.WithLabelValues(s.Name, outcomeNotReady).Inc()
		span.SetStatus(codes.Unset, err.Error())
	default:
		a.Tree = nil
		strategyAttempts.WithLabelValues(s.Name, outcomeError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return a
}

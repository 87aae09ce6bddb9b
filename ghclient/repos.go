/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package ghclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/go-github/v75/github"
)

// GenerateFromTemplate creates a repository from templateOwner/templateRepo.
func (c *Client) GenerateFromTemplate(ctx context.Context, templateOwner, templateRepo string, req *github.TemplateRepoRequest) (*github.Repository, error) {
	path := fmt.Sprintf("/repos/%s/%s/generate", url.PathEscape(templateOwner), url.PathEscape(templateRepo))
	var repo github.Repository
	if err := c.Call(ctx, http.MethodPost, path, req, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// GetTree fetches the git tree for ref, which may be a branch name or a
// commit/tree SHA.
func (c *Client) GetTree(ctx context.Context, owner, repo, ref string, recursive bool) (*github.Tree, error) {
	path := fmt.Sprintf("/repos/%s/%s/git/trees/%s", url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(ref))
	if recursive {
		path += "?recursive=1"
	}
	var tree github.Tree
	if err := c.Call(ctx, http.MethodGet, path, nil, &tree); err != nil {
		return nil, err
	}
	return &tree, nil
}

// GetBranch looks up a branch and its head commit.
func (c *Client) GetBranch(ctx context.Context, owner, repo, branch string) (*github.Branch, error) {
	path := fmt.Sprintf("/repos/%s/%s/branches/%s", url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(branch))
	var b github.Branch
	if err := c.Call(ctx, http.MethodGet, path, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListContents returns the root directory listing of the repository at ref.
func (c *Client) ListContents(ctx context.Context, owner, repo, ref string) ([]*github.RepositoryContent, error) {
	path := fmt.Sprintf("/repos/%s/%s/contents?ref=%s", url.PathEscape(owner), url.PathEscape(repo), url.QueryEscape(ref))
	var contents []*github.RepositoryContent
	if err := c.Call(ctx, http.MethodGet, path, nil, &contents); err != nil {
		return nil, err
	}
	return contents, nil
}

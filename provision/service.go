/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package provision creates repositories from a template and reports their
// file trees.
package provision

import (
	"context"
	"errors"
	"strings"

	"chainguard.dev/provisioner/treefetch"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v75/github"
)

// TemplateGenerator creates a repository from a template repository.
type TemplateGenerator interface {
	GenerateFromTemplate(ctx context.Context, templateOwner, templateRepo string, req *github.TemplateRepoRequest) (*github.Repository, error)
}

// TreeAcquirer returns the tree of a repository once it can be read.
type TreeAcquirer interface {
	Acquire(ctx context.Context, c treefetch.Coordinates) (*treefetch.Tree, error)
}

// Settings is the immutable configuration of a Service.
type Settings struct {
	// HasCredential is false when no GitHub token was configured. Every
	// operation then fails with missing_github_token.
	HasCredential bool
	DefaultOwner  string
	TemplateOwner string
	TemplateRepo  string
	DefaultBranch string
}

// ProvisionRequest asks for a new repository generated from the template.
type ProvisionRequest struct {
	ProjectName string
	// Owner defaults to Settings.DefaultOwner.
	Owner   string
	Private bool
}

// Provisioned describes a created repository. Tree is nil when the
// repository was created but its tree could not be read in time.
type Provisioned struct {
	OK            bool            `json:"ok" yaml:"ok"`
	Owner         string          `json:"owner" yaml:"owner"`
	Repo          string          `json:"repo" yaml:"repo"`
	HTMLURL       string          `json:"html_url" yaml:"html_url"`
	DefaultBranch string          `json:"default_branch" yaml:"default_branch"`
	Tree          *treefetch.Tree `json:"tree" yaml:"tree"`
}

// TreeRequest identifies the repository tree to fetch. Owner and Branch are
// optional.
type TreeRequest struct {
	Owner  string
	Repo   string
	Branch string
}

// Service implements repository provisioning and tree lookup.
type Service struct {
	settings  Settings
	generator TemplateGenerator
	trees     TreeAcquirer
}

// New creates a Service.
func New(settings Settings, generator TemplateGenerator, trees TreeAcquirer) (*Service, error) {
	if generator == nil {
		return nil, errors.New("template generator cannot be nil")
	}
	if trees == nil {
		return nil, errors.New("tree acquirer cannot be nil")
	}
	if settings.DefaultBranch == "" {
		settings.DefaultBranch = treefetch.DefaultBranch
	}
	return &Service{
		settings:  settings,
		generator: generator,
		trees:     trees,
	}, nil
}

// ProvisionRepository generates a repository from the template and waits for
// its tree. A repository whose tree never became readable is still reported
// as created, with a nil Tree.
func (s *Service) ProvisionRepository(ctx context.Context, req ProvisionRequest) (*Provisioned, error) {
	name := strings.TrimSpace(req.ProjectName)
	if name == "" {
		return nil, &ValidationError{ErrCode: CodeMissingProjectName, Field: "projectName"}
	}
	if !s.settings.HasCredential {
		return nil, &ConfigError{ErrCode: CodeMissingGitHubToken, Setting: "GH_TOKEN"}
	}
	owner := strings.TrimSpace(req.Owner)
	if owner == "" {
		owner = s.settings.DefaultOwner
	}

	log := clog.FromContext(ctx).With("owner", owner).With("repo", name)
	log.Infof("Generating repository from template %s/%s", s.settings.TemplateOwner, s.settings.TemplateRepo)

	created, err := s.generator.GenerateFromTemplate(ctx, s.settings.TemplateOwner, s.settings.TemplateRepo, &github.TemplateRepoRequest{
		Name:               github.Ptr(name),
		Owner:              github.Ptr(owner),
		Private:            github.Ptr(req.Private),
		IncludeAllBranches: github.Ptr(false),
	})
	if err != nil {
		provisions.WithLabelValues("failed").Inc()
		log.Warnf("Repository generation failed: %v", err)
		return nil, &OperationError{ErrCode: CodeRepoGenerationFailed, Err: err}
	}

	out := &Provisioned{
		OK:            true,
		Owner:         owner,
		Repo:          name,
		HTMLURL:       created.GetHTMLURL(),
		DefaultBranch: created.GetDefaultBranch(),
	}
	if login := created.GetOwner().GetLogin(); login != "" {
		out.Owner = login
	}
	if n := created.GetName(); n != "" {
		out.Repo = n
	}
	if out.DefaultBranch == "" {
		out.DefaultBranch = treefetch.DefaultBranch
	}

	tree, err := s.trees.Acquire(ctx, treefetch.Coordinates{
		Owner:  out.Owner,
		Repo:   out.Repo,
		Branch: out.DefaultBranch,
	})
	if err != nil {
		provisions.WithLabelValues("created_without_tree").Inc()
		log.Warnf("Repository created but its tree is not available: %v", err)
		return out, nil
	}
	provisions.WithLabelValues("created").Inc()
	out.Tree = tree
	return out, nil
}

// FetchRepositoryTree returns the tree of an existing repository.
func (s *Service) FetchRepositoryTree(ctx context.Context, req TreeRequest) (*treefetch.Tree, error) {
	repo := strings.TrimSpace(req.Repo)
	if repo == "" {
		return nil, &ValidationError{ErrCode: CodeMissingRepo, Field: "repo"}
	}
	if !s.settings.HasCredential {
		return nil, &ConfigError{ErrCode: CodeMissingGitHubToken, Setting: "GH_TOKEN"}
	}
	owner := strings.TrimSpace(req.Owner)
	if owner == "" {
		owner = s.settings.DefaultOwner
	}
	branch := strings.TrimSpace(req.Branch)
	if branch == "" {
		branch = s.settings.DefaultBranch
	}

	tree, err := s.trees.Acquire(ctx, treefetch.Coordinates{Owner: owner, Repo: repo, Branch: branch})
	if err != nil {
		return nil, &OperationError{ErrCode: CodeRepoInfoFailed, Err: err}
	}
	return tree, nil
}

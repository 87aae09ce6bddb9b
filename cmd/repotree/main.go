/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main is an operator CLI for generating repositories from the
// template and inspecting repository trees.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"chainguard.dev/provisioner/ghclient"
	"chainguard.dev/provisioner/provision"
	"chainguard.dev/provisioner/treefetch"
	"chainguard.dev/provisioner/treeview"
	"github.com/chainguard-dev/clog"
	"gopkg.in/alecthomas/kingpin.v2"
)

type globalParams struct {
	token    string
	apiURL   string
	attempts int
	interval time.Duration
	format   string
}

type treeParams struct {
	owner  string
	repo   string
	branch string
}

type generateParams struct {
	name          string
	owner         string
	private       bool
	templateOwner string
	templateRepo  string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var (
		global globalParams
		tp     treeParams
		gp     generateParams
	)

	app := kingpin.New(filepath.Base(os.Args[0]), "Generate repositories from a template and inspect repository trees.").UsageWriter(os.Stdout)
	app.HelpFlag.Short('h')
	app.Flag("token", "GitHub token.").Envar("GH_TOKEN").StringVar(&global.token)
	app.Flag("api-url", "GitHub REST API base URL.").Envar("GITHUB_API_URL").Default("https://api.github.com/").StringVar(&global.apiURL)
	app.Flag("attempts", "Rounds to try before giving up on a tree.").Default("60").IntVar(&global.attempts)
	app.Flag("interval", "Pause between unsuccessful rounds.").Default("2s").DurationVar(&global.interval)
	app.Flag("format", "Output format.").Short('o').Default(string(treeview.FormatTree)).EnumVar(&global.format, treeview.Formats()...)

	treeCmd := app.Command("tree", "Print the file tree of a repository.")
	treeCmd.Flag("owner", "Repository owner.").Envar("GH_OWNER").Default("leochanvin").StringVar(&tp.owner)
	treeCmd.Flag("repo", "Repository name.").Required().StringVar(&tp.repo)
	treeCmd.Flag("branch", "Branch to read.").Default(treefetch.DefaultBranch).StringVar(&tp.branch)

	generateCmd := app.Command("generate", "Generate a repository from the template and print its tree.")
	generateCmd.Flag("name", "Name of the new repository.").Required().StringVar(&gp.name)
	generateCmd.Flag("owner", "Owner of the new repository.").Envar("GH_OWNER").Default("leochanvin").StringVar(&gp.owner)
	generateCmd.Flag("private", "Create a private repository.").BoolVar(&gp.private)
	generateCmd.Flag("template-owner", "Owner of the template repository.").Envar("TEMPLATE_OWNER").Default("leochanvin").StringVar(&gp.templateOwner)
	generateCmd.Flag("template-repo", "Name of the template repository.").Envar("TEMPLATE_REPO").Default("flutter-studio-template").StringVar(&gp.templateRepo)

	parsedCmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	var err error
	switch parsedCmd {
	case treeCmd.FullCommand():
		err = runTree(ctx, os.Stdout, global, tp)
	case generateCmd.FullCommand():
		err = runGenerate(ctx, os.Stdout, global, gp)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newEngine(ctx context.Context, global globalParams) (*ghclient.Client, *treefetch.Engine, error) {
	gh, err := ghclient.New(ctx, global.token,
		ghclient.WithBaseURL(global.apiURL),
		ghclient.WithUserAgent("chainguard.dev/provisioner/repotree"))
	if err != nil {
		return nil, nil, fmt.Errorf("creating GitHub client: %w", err)
	}
	engine, err := treefetch.New(gh,
		treefetch.WithMaxAttempts(global.attempts),
		treefetch.WithInterval(global.interval))
	if err != nil {
		return nil, nil, fmt.Errorf("creating tree engine: %w", err)
	}
	return gh, engine, nil
}

func runTree(ctx context.Context, out io.Writer, global globalParams, p treeParams) error {
	_, engine, err := newEngine(ctx, global)
	if err != nil {
		return err
	}
	tree, err := engine.Acquire(ctx, treefetch.Coordinates{Owner: p.owner, Repo: p.repo, Branch: p.branch})
	if err != nil {
		return err
	}
	return treeview.Tree(out, treeview.Format(global.format), p.repo, tree)
}

func runGenerate(ctx context.Context, out io.Writer, global globalParams, p generateParams) error {
	gh, engine, err := newEngine(ctx, global)
	if err != nil {
		return err
	}
	svc, err := provision.New(provision.Settings{
		HasCredential: global.token != "",
		DefaultOwner:  p.owner,
		TemplateOwner: p.templateOwner,
		TemplateRepo:  p.templateRepo,
	}, gh, engine)
	if err != nil {
		return err
	}
	res, err := svc.ProvisionRepository(ctx, provision.ProvisionRequest{
		ProjectName: p.name,
		Owner:       p.owner,
		Private:     p.private,
	})
	if err != nil {
		return err
	}
	if res.Tree == nil {
		clog.WarnContextf(ctx, "Created %s/%s but its tree did not become readable", res.Owner, res.Repo)
	}
	return treeview.Provisioned(out, treeview.Format(global.format), res)
}

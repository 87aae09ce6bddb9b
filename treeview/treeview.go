/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package treeview renders repository trees for terminals and scripts.
package treeview

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strconv"

	"chainguard.dev/provisioner/provision"
	"chainguard.dev/provisioner/treefetch"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/xlab/treeprint"
	"gopkg.in/yaml.v3"
)

// Format selects the output representation.
type Format string

// Supported formats.
const (
	FormatTree  Format = "tree"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists the supported formats.
func Formats() []string {
	return []string{string(FormatTree), string(FormatTable), string(FormatJSON), string(FormatYAML)}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if s == f {
			return Format(s), nil
		}
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// Tree writes t in the given format. root labels the top of the tree view.
func Tree(w io.Writer, f Format, root string, t *treefetch.Tree) error {
	switch f {
	case FormatTree:
		_, err := io.WriteString(w, hierarchy(root, t).String())
		return err
	case FormatTable:
		return table(w, t)
	case FormatJSON:
		return writeJSON(w, t)
	case FormatYAML:
		return writeYAML(w, t)
	}
	return fmt.Errorf("unknown format %q", f)
}

// Provisioned writes the outcome of a provisioning request.
func Provisioned(w io.Writer, f Format, p *provision.Provisioned) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, p)
	case FormatYAML:
		return writeYAML(w, p)
	case FormatTree, FormatTable:
		if _, err := fmt.Fprintf(w, "Created %s/%s on branch %s\n%s\n\n", p.Owner, p.Repo, p.DefaultBranch, p.HTMLURL); err != nil {
			return err
		}
		if p.Tree == nil {
			_, err := io.WriteString(w, "Repository tree is not available yet.\n")
			return err
		}
		return Tree(w, f, p.Repo, p.Tree)
	}
	return fmt.Errorf("unknown format %q", f)
}

// hierarchy nests entries under their parent directories. Parents missing
// from the entry list are created on demand.
func hierarchy(root string, t *treefetch.Tree) treeprint.Tree {
	top := treeprint.NewWithRoot(root)
	dirs := map[string]treeprint.Tree{".": top}

	var dir func(p string) treeprint.Tree
	dir = func(p string) treeprint.Tree {
		if d, ok := dirs[p]; ok {
			return d
		}
		if p == "/" || p == "" {
			return top
		}
		d := dir(path.Dir(p)).AddBranch(path.Base(p))
		dirs[p] = d
		return d
	}

	if t == nil {
		return top
	}
	for _, e := range t.Entries {
		switch e.Type {
		case treefetch.KindTree:
			dir(e.Path)
		case treefetch.KindBlob:
			dir(path.Dir(e.Path)).AddNode(path.Base(e.Path))
		default:
			dir(path.Dir(e.Path)).AddNode(fmt.Sprintf("%s (%s)", path.Base(e.Path), e.Type))
		}
	}
	return top
}

func table(w io.Writer, t *treefetch.Tree) error {
	tbl := markdownTable(w, "Path", "Type", "Mode", "Size", "SHA")
	if t == nil {
		return tbl.Render()
	}
	for _, e := range t.Entries {
		size := ""
		if e.Size != nil {
			size = strconv.Itoa(*e.Size)
		}
		if err := tbl.Append([]string{e.Path, string(e.Type), e.Mode, size, e.SHA}); err != nil {
			return err
		}
	}
	return tbl.Render()
}

// markdownTable is a left-aligned pipe table without top or bottom rules.
// Headers and cells are printed as given.
func markdownTable(w io.Writer, header ...string) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithHeader(header),
		tablewriter.WithHeaderAutoFormat(tw.Off),
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
		tablewriter.WithTrimSpace(tw.Off),
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Right: tw.On, Top: tw.Off, Bottom: tw.Off},
		})),
	)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package treefetch

import (
	"strings"

	"github.com/google/go-github/v75/github"
)

type nodeKind int

const (
	nodeDir nodeKind = iota
	nodeFile
)

// dirNode is the transient hierarchy built from a flat contents listing.
// Children keep insertion order; index only speeds up sibling lookup.
type dirNode struct {
	name     string
	kind     nodeKind
	children []*dirNode
	index    map[string]*dirNode
}

func newDirNode(name string) *dirNode {
	return &dirNode{name: name, kind: nodeDir}
}

// child returns the existing child called name, or adds one of the given kind.
func (n *dirNode) child(name string, kind nodeKind) *dirNode {
	if c, ok := n.index[name]; ok {
		return c
	}
	c := &dirNode{name: name, kind: kind}
	if n.index == nil {
		n.index = make(map[string]*dirNode)
	}
	n.index[name] = c
	n.children = append(n.children, c)
	return c
}

// buildHierarchy inserts every path segment of every listed item under a root
// named after the repository. A segment becomes a file only when it is the
// last segment of an item typed "file"; everything else is a directory.
// Siblings are never duplicated.
func buildHierarchy(root string, items []*github.RepositoryContent) *dirNode {
	top := newDirNode(root)
	for _, item := range items {
		parts := splitPath(item.GetPath())
		parent := top
		for i, part := range parts {
			kind := nodeDir
			last := i == len(parts)-1
			if last && item.GetType() == "file" {
				kind = nodeFile
			}
			node := parent.child(part, kind)
			if !last && node.kind == nodeFile {
				// A later item lives below what was listed as a file.
				node.kind = nodeDir
			}
			parent = node
		}
	}
	return top
}

// flatten walks the hierarchy depth first: each child is emitted with its
// full path and, when it is a directory, its own subtree follows directly.
func (n *dirNode) flatten(base string) []Entry {
	if n.kind != nodeDir {
		return nil
	}
	var out []Entry
	for _, c := range n.children {
		path := c.name
		if base != "" {
			path = base + "/" + c.name
		}
		kind := KindBlob
		if c.kind == nodeDir {
			kind = KindTree
		}
		out = append(out, Entry{Path: path, Type: kind})
		if c.kind == nodeDir {
			out = append(out, c.flatten(path)...)
		}
	}
	return out
}

// treeFromListing converts a contents listing into a Tree. The result carries
// no SHA and is never truncated.
func treeFromListing(root string, items []*github.RepositoryContent) *Tree {
	entries := buildHierarchy(root, items).flatten("")
	if entries == nil {
		entries = []Entry{}
	}
	return &Tree{
		SHA:       nil,
		Truncated: false,
		Entries:   entries,
	}
}

func splitPath(p string) []string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

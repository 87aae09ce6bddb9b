/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package treefetch

import (
	"strings"

	"github.com/google/go-github/v75/github"
)

// DefaultBranch is used when Coordinates.Branch is empty.
const DefaultBranch = "main"

// Coordinates identify the branch of a repository whose tree is wanted.
type Coordinates struct {
	Owner  string
	Repo   string
	Branch string
}

// withDefaults trims the coordinates and fills in the default branch.
func (c Coordinates) withDefaults() Coordinates {
	c.Owner = strings.TrimSpace(c.Owner)
	c.Repo = strings.TrimSpace(c.Repo)
	c.Branch = strings.TrimSpace(c.Branch)
	if c.Branch == "" {
		c.Branch = DefaultBranch
	}
	return c
}

func (c Coordinates) String() string {
	return c.Owner + "/" + c.Repo + "@" + c.Branch
}

// Kind is the git object type of a tree entry.
type Kind string

const (
	// KindTree is a directory.
	KindTree Kind = "tree"
	// KindBlob is a file.
	KindBlob Kind = "blob"
)

// Entry is one file or directory, addressed by its slash-separated path
// relative to the repository root. Mode, SHA and Size are only known when the
// entry came from the git trees API.
type Entry struct {
	Path string `json:"path" yaml:"path"`
	Type Kind   `json:"type" yaml:"type"`
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`
	SHA  string `json:"sha,omitempty" yaml:"sha,omitempty"`
	Size *int   `json:"size,omitempty" yaml:"size,omitempty"`
}

// Tree is the normalized listing of every entry reachable from the root.
type Tree struct {
	SHA       *string `json:"sha" yaml:"sha"`
	Truncated bool    `json:"truncated" yaml:"truncated"`
	Entries   []Entry `json:"tree" yaml:"tree"`
}

// Empty reports whether the tree holds no entries.
func (t *Tree) Empty() bool {
	return t == nil || len(t.Entries) == 0
}

// fromGitHub normalizes a git trees API response. Entries without a path are
// dropped.
func fromGitHub(gt *github.Tree) *Tree {
	if gt == nil {
		return nil
	}
	t := &Tree{
		SHA:       gt.SHA,
		Truncated: gt.GetTruncated(),
		Entries:   make([]Entry, 0, len(gt.Entries)),
	}
	for _, e := range gt.Entries {
		if e.GetPath() == "" {
			continue
		}
		t.Entries = append(t.Entries, Entry{
			Path: e.GetPath(),
			Type: Kind(e.GetType()),
			Mode: e.GetMode(),
			SHA:  e.GetSHA(),
			Size: e.Size,
		})
	}
	return t
}

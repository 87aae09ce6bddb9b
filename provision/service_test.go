/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package provision_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"chainguard.dev/provisioner/ghclient"
	"chainguard.dev/provisioner/provision"
	"chainguard.dev/provisioner/treefetch"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-github/v75/github"
	"github.com/stretchr/testify/require"
)

var settings = provision.Settings{
	HasCredential: true,
	DefaultOwner:  "leochanvin",
	TemplateOwner: "leochanvin",
	TemplateRepo:  "flutter-studio-template",
	DefaultBranch: "main",
}

type fakeGenerator struct {
	calls         int
	templateOwner string
	templateRepo  string
	req           *github.TemplateRepoRequest
	repo          *github.Repository
	err           error
}

func (f *fakeGenerator) GenerateFromTemplate(_ context.Context, owner, repo string, req *github.TemplateRepoRequest) (*github.Repository, error) {
	f.calls++
	f.templateOwner, f.templateRepo, f.req = owner, repo, req
	return f.repo, f.err
}

type fakeAcquirer struct {
	calls  int
	coords treefetch.Coordinates
	tree   *treefetch.Tree
	err    error
}

func (f *fakeAcquirer) Acquire(_ context.Context, c treefetch.Coordinates) (*treefetch.Tree, error) {
	f.calls++
	f.coords = c
	return f.tree, f.err
}

var oneFile = &treefetch.Tree{Entries: []treefetch.Entry{{Path: "README.md", Type: treefetch.KindBlob}}}

func newService(t *testing.T, s provision.Settings, g provision.TemplateGenerator, a provision.TreeAcquirer) *provision.Service {
	t.Helper()
	svc, err := provision.New(s, g, a)
	require.NoError(t, err)
	return svc
}

func TestProvisionRepository(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{repo: &github.Repository{
		Name:          github.Ptr("demo"),
		Owner:         &github.User{Login: github.Ptr("acme")},
		HTMLURL:       github.Ptr("https://github.com/acme/demo"),
		DefaultBranch: github.Ptr("trunk"),
	}}
	acq := &fakeAcquirer{tree: oneFile}

	got, err := newService(t, settings, gen, acq).ProvisionRepository(context.Background(), provision.ProvisionRequest{
		ProjectName: "  demo ",
		Owner:       "acme",
		Private:     true,
	})
	require.NoError(t, err)

	want := &provision.Provisioned{
		OK:            true,
		Owner:         "acme",
		Repo:          "demo",
		HTMLURL:       "https://github.com/acme/demo",
		DefaultBranch: "trunk",
		Tree:          oneFile,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "leochanvin", gen.templateOwner)
	require.Equal(t, "flutter-studio-template", gen.templateRepo)
	require.Equal(t, "demo", gen.req.GetName())
	require.Equal(t, "acme", gen.req.GetOwner())
	require.True(t, gen.req.GetPrivate())
	require.False(t, gen.req.GetIncludeAllBranches())
	require.Equal(t, treefetch.Coordinates{Owner: "acme", Repo: "demo", Branch: "trunk"}, acq.coords)
}

func TestProvisionRepository_Defaults(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{repo: &github.Repository{}}
	acq := &fakeAcquirer{tree: oneFile}

	got, err := newService(t, settings, gen, acq).ProvisionRepository(context.Background(), provision.ProvisionRequest{
		ProjectName: "demo",
	})
	require.NoError(t, err)
	require.Equal(t, "leochanvin", gen.req.GetOwner())
	require.Equal(t, "leochanvin", got.Owner)
	require.Equal(t, "demo", got.Repo)
	require.Equal(t, "main", got.DefaultBranch)
	require.Equal(t, "main", acq.coords.Branch)
}

func TestProvisionRepository_TreeUnavailable(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{repo: &github.Repository{Name: github.Ptr("demo")}}
	acq := &fakeAcquirer{err: treefetch.ErrAcquisitionTimeout}

	got, err := newService(t, settings, gen, acq).ProvisionRepository(context.Background(), provision.ProvisionRequest{
		ProjectName: "demo",
	})
	require.NoError(t, err)
	require.True(t, got.OK)
	require.Nil(t, got.Tree)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	require.Contains(t, string(b), `"tree":null`)
}

func TestProvisionRepository_Errors(t *testing.T) {
	t.Parallel()
	remote := &ghclient.RemoteCallError{Method: http.MethodPost, Path: "/repos/leochanvin/flutter-studio-template/generate", StatusCode: 422, Status: "Unprocessable Entity"}

	tests := []struct {
		name     string
		settings provision.Settings
		req      provision.ProvisionRequest
		genErr   error
		wantCode string
		wantGen  int
	}{{
		name:     "blank project name",
		settings: settings,
		req:      provision.ProvisionRequest{ProjectName: "   "},
		wantCode: provision.CodeMissingProjectName,
	}, {
		name:     "no credential",
		settings: provision.Settings{DefaultOwner: "leochanvin"},
		req:      provision.ProvisionRequest{ProjectName: "demo"},
		wantCode: provision.CodeMissingGitHubToken,
	}, {
		name:     "generate fails",
		settings: settings,
		req:      provision.ProvisionRequest{ProjectName: "demo"},
		genErr:   remote,
		wantCode: provision.CodeRepoGenerationFailed,
		wantGen:  1,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gen := &fakeGenerator{err: tt.genErr}
			acq := &fakeAcquirer{}
			got, err := newService(t, tt.settings, gen, acq).ProvisionRepository(context.Background(), tt.req)
			require.Nil(t, got)
			require.Error(t, err)

			var coded interface{ Code() string }
			require.True(t, errors.As(err, &coded))
			require.Equal(t, tt.wantCode, coded.Code())
			require.Equal(t, tt.wantGen, gen.calls)
			require.Zero(t, acq.calls)
			if tt.genErr != nil {
				require.ErrorIs(t, err, tt.genErr)
			}
		})
	}
}

func TestFetchRepositoryTree(t *testing.T) {
	t.Parallel()
	acq := &fakeAcquirer{tree: oneFile}
	svc := newService(t, settings, &fakeGenerator{}, acq)

	got, err := svc.FetchRepositoryTree(context.Background(), provision.TreeRequest{Repo: "demo"})
	require.NoError(t, err)
	require.Equal(t, oneFile, got)
	require.Equal(t, treefetch.Coordinates{Owner: "leochanvin", Repo: "demo", Branch: "main"}, acq.coords)

	_, err = svc.FetchRepositoryTree(context.Background(), provision.TreeRequest{Owner: "acme", Repo: "demo", Branch: "dev"})
	require.NoError(t, err)
	require.Equal(t, treefetch.Coordinates{Owner: "acme", Repo: "demo", Branch: "dev"}, acq.coords)
}

func TestFetchRepositoryTree_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing repo", func(t *testing.T) {
		t.Parallel()
		acq := &fakeAcquirer{}
		_, err := newService(t, settings, &fakeGenerator{}, acq).FetchRepositoryTree(context.Background(), provision.TreeRequest{Repo: " "})
		var verr *provision.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, provision.CodeMissingRepo, verr.Code())
		require.Zero(t, acq.calls)
	})

	t.Run("no credential", func(t *testing.T) {
		t.Parallel()
		acq := &fakeAcquirer{}
		_, err := newService(t, provision.Settings{}, &fakeGenerator{}, acq).FetchRepositoryTree(context.Background(), provision.TreeRequest{Repo: "demo"})
		var cerr *provision.ConfigError
		require.ErrorAs(t, err, &cerr)
		require.Equal(t, provision.CodeMissingGitHubToken, cerr.Code())
		require.Zero(t, acq.calls)
	})

	t.Run("acquisition fails", func(t *testing.T) {
		t.Parallel()
		acq := &fakeAcquirer{err: treefetch.ErrAcquisitionTimeout}
		_, err := newService(t, settings, &fakeGenerator{}, acq).FetchRepositoryTree(context.Background(), provision.TreeRequest{Repo: "demo"})
		var oerr *provision.OperationError
		require.ErrorAs(t, err, &oerr)
		require.Equal(t, provision.CodeRepoInfoFailed, oerr.Code())
		require.ErrorIs(t, err, treefetch.ErrAcquisitionTimeout)
	})
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()
	_, err := provision.New(settings, nil, &fakeAcquirer{})
	require.Error(t, err)
	_, err = provision.New(settings, &fakeGenerator{}, nil)
	require.Error(t, err)
}

// fakeGitHub serves a repository that was just generated: the branch tree
// comes back empty for the first emptyRounds requests, branches and contents
// are not found yet.
type fakeGitHub struct {
	mu          sync.Mutex
	emptyRounds int
	treeCalls   int
	requests    []string
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/repos/leochanvin/flutter-studio-template/generate":
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"name":"demo","owner":{"login":"acme"},"html_url":"https://github.com/acme/demo","default_branch":"main"}`)

	case r.Method == http.MethodGet && r.URL.Path == "/repos/acme/demo/git/trees/main":
		f.treeCalls++
		if f.treeCalls <= f.emptyRounds {
			_, _ = io.WriteString(w, `{"sha":"e0","tree":[],"truncated":false}`)
			return
		}
		_, _ = io.WriteString(w, `{"sha":"abc","truncated":false,"tree":[
			{"path":"lib","type":"tree","mode":"040000","sha":"d1"},
			{"path":"lib/main.dart","type":"blob","mode":"100644","sha":"f1","size":42}]}`)

	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Not Found"}`)
	}
}

func (f *fakeGitHub) snapshot() (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.treeCalls, append([]string(nil), f.requests...)
}

func TestProvisionRepository_EndToEnd(t *testing.T) {
	t.Parallel()
	gh := &fakeGitHub{emptyRounds: 3}
	srv := httptest.NewServer(gh)
	t.Cleanup(srv.Close)

	client, err := ghclient.New(context.Background(), "tok", ghclient.WithBaseURL(srv.URL))
	require.NoError(t, err)

	var slept time.Duration
	engine, err := treefetch.New(client,
		treefetch.WithMaxAttempts(10),
		treefetch.WithInterval(2*time.Second),
		treefetch.WithSleep(func(_ context.Context, d time.Duration) error {
			slept += d
			return nil
		}))
	require.NoError(t, err)

	svc := newService(t, settings, client, engine)
	got, err := svc.ProvisionRepository(context.Background(), provision.ProvisionRequest{
		ProjectName: "demo",
		Owner:       "acme",
	})
	require.NoError(t, err)
	require.True(t, got.OK)
	require.Equal(t, "demo", got.Repo)
	require.Equal(t, "acme", got.Owner)
	require.NotNil(t, got.Tree)
	require.Equal(t, "abc", *got.Tree.SHA)
	require.Len(t, got.Tree.Entries, 2)
	treeCalls, _ := gh.snapshot()
	require.Equal(t, 4, treeCalls)
	require.Equal(t, 6*time.Second, slept)
}

func TestFetchRepositoryTree_MissingRepoMakesNoCall(t *testing.T) {
	t.Parallel()
	gh := &fakeGitHub{}
	srv := httptest.NewServer(gh)
	t.Cleanup(srv.Close)

	client, err := ghclient.New(context.Background(), "tok", ghclient.WithBaseURL(srv.URL))
	require.NoError(t, err)
	engine, err := treefetch.New(client)
	require.NoError(t, err)

	_, err = newService(t, settings, client, engine).FetchRepositoryTree(context.Background(), provision.TreeRequest{Repo: ""})
	var verr *provision.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "missing_repo", verr.Code())
	_, requests := gh.snapshot()
	require.Empty(t, requests)
}

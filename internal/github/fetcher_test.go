package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	gogithub "github.com/google/go-github/v60/github"
)

func fetcherForServer(t *testing.T, handler http.Handler) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := gogithub.NewClient(nil)
	base, _ := url.Parse(srv.URL + "/")
	client.BaseURL = base
	return NewFetcher(client)
}

func TestFetchRepo(t *testing.T) {
	f := fetcherForServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octocat/Hello-World" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{
			"full_name": "octocat/Hello-World",
			"stargazers_count": 1700,
			"language": "Python",
			"homepage": "https://example.com",
			"description": "My first repository",
			"created_at": "2024-03-01T12:00:00Z"
		}`)
	}))

	raw, err := f.FetchRepo(context.Background(), "octocat/Hello-World")
	if err != nil {
		t.Fatalf("FetchRepo failed: %v", err)
	}
	if raw.FullName != "octocat/Hello-World" {
		t.Errorf("unexpected full name %q", raw.FullName)
	}
	if raw.Stars != 1700 {
		t.Errorf("expected 1700 stars, got %d", raw.Stars)
	}
	if raw.Language != "Python" {
		t.Errorf("unexpected language %q", raw.Language)
	}
	if raw.CreatedAt.IsZero() {
		t.Error("expected non-zero created_at")
	}
}

func TestFetchRepoNotFound(t *testing.T) {
	f := fetcherForServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := f.FetchRepo(context.Background(), "nobody/nothing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchRepoInvalidPath(t *testing.T) {
	f := fetcherForServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for invalid path")
	}))

	for _, path := range []string{"no-slash", "/leading", "trailing/", ""} {
		_, err := f.FetchRepo(context.Background(), path)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("FetchRepo(%q): expected ErrNotFound, got %v", path, err)
		}
	}
}

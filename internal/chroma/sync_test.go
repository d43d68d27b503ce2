package chroma

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"repotrack/internal/project"
)

func TestUpsertProject(t *testing.T) {
	var addBody struct {
		IDs       []string         `json:"ids"`
		Documents []string         `json:"documents"`
		Metadatas []map[string]any `json:"metadatas"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/collections"):
			json.NewEncoder(w).Encode(Collection{ID: "col-1", Name: "projects"})
		case strings.HasSuffix(r.URL.Path, "/add"):
			json.NewDecoder(r.Body).Decode(&addBody)
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{Tenant: "t", Database: "d", APIKey: "k", BaseURL: srv.URL})
	sync := NewSync(client, "projects")

	p := &project.Project{
		RepoPath:    "octocat/Hello-World",
		Stars:       1700,
		Language:    "Python",
		Description: "My first repository",
	}
	if err := sync.UpsertProject(context.Background(), p); err != nil {
		t.Fatalf("UpsertProject failed: %v", err)
	}

	if len(addBody.IDs) != 1 || addBody.IDs[0] != "octocat/Hello-World" {
		t.Errorf("expected repo path as document id, got %v", addBody.IDs)
	}
	if addBody.Documents[0] != "My first repository" {
		t.Errorf("unexpected document %q", addBody.Documents[0])
	}
	meta := addBody.Metadatas[0]
	if meta["language"] != "Python" {
		t.Errorf("expected language metadata, got %v", meta)
	}
	if meta["collection_name"] != "projects" {
		t.Errorf("expected collection_name metadata, got %v", meta)
	}
	if _, ok := meta["website"]; ok {
		t.Error("empty website must be dropped from metadata")
	}
}

func TestQueryProjectsThresholdFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(Collection{ID: "col-1", Name: "projects"})
		case strings.HasSuffix(r.URL.Path, "/query"):
			json.NewEncoder(w).Encode(queryResponse{
				IDs:       [][]string{{"a/b", "c/d", "e/f"}},
				Distances: [][]float64{{0.1, 0.3, 0.8}},
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{Tenant: "t", Database: "d", APIKey: "k", BaseURL: srv.URL})
	sync := NewSync(client, "projects")

	paths, err := sync.QueryProjects(context.Background(), "machine learning", 10, 0.3)
	if err != nil {
		t.Fatalf("QueryProjects failed: %v", err)
	}
	// 0.8 exceeds the threshold; 0.3 is inclusive.
	if len(paths) != 2 || paths[0] != "a/b" || paths[1] != "c/d" {
		t.Errorf("expected [a/b c/d], got %v", paths)
	}
}

func TestQueryProjectsMissingCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{Tenant: "t", Database: "d", APIKey: "k", BaseURL: srv.URL})
	sync := NewSync(client, "projects")

	_, err := sync.QueryProjects(context.Background(), "anything", 10, 0.5)
	if !errors.Is(err, ErrCollectionNotFound) {
		t.Errorf("expected ErrCollectionNotFound, got %v", err)
	}
}

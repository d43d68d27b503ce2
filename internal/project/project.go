package project

import (
	"fmt"
	"regexp"
	"time"
)

// repoURLPattern matches a full GitHub repository URL. Anchored so that
// anything with extra path segments fails the match and is passed through
// as-is by ExtractRepoPath.
var repoURLPattern = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+)$`)

// ExtractRepoPath returns the owner/name path from a full GitHub URL.
// Any input that is not a full repository URL is returned unchanged; a bare
// owner/name path is the expected alternative, but no validation is applied
// here.
func ExtractRepoPath(input string) string {
	m := repoURLPattern.FindStringSubmatch(input)
	if m == nil {
		return input
	}
	return m[1] + "/" + m[2]
}

// Project is the canonical record for one tracked repository. RepoPath is
// the identity key everywhere (cache, store, vector index) and is immutable
// once set.
type Project struct {
	RepoPath    string
	Stars       int
	Language    string
	Website     string
	Description string
	CreatedAt   time.Time
}

// RawRepo is the normalized result of a repository metadata fetch.
type RawRepo struct {
	FullName    string
	Stars       int
	Language    string
	Homepage    string
	Description string
	CreatedAt   time.Time
}

// FromRepo builds a Project from a fetched repository record. Absent
// optional fields stay at their zero values.
func FromRepo(raw RawRepo) *Project {
	return &Project{
		RepoPath:    raw.FullName,
		Stars:       raw.Stars,
		Language:    raw.Language,
		Website:     raw.Homepage,
		Description: raw.Description,
		CreatedAt:   raw.CreatedAt,
	}
}

// RepoURL returns the canonical GitHub URL derived from the repo path.
func (p *Project) RepoURL() string {
	return "https://github.com/" + p.RepoPath
}

// SetDescription overwrites the description in place. The enrichment step
// calls this at most once per ingestion cycle.
func (p *Project) SetDescription(description string) {
	p.Description = description
}

// Document returns the text indexed for semantic search. Falls back to the
// repo path when no description is available so the document is never empty.
func (p *Project) Document() string {
	if p.Description == "" {
		return p.RepoPath
	}
	return p.Description
}

// Metadata returns the indexable metadata map restricted to keys. Keys whose
// value is absent on the project are dropped, not defaulted.
func (p *Project) Metadata(keys []string) map[string]any {
	full := map[string]any{
		"repo_path": p.RepoPath,
		"repo_url":  p.RepoURL(),
		"stars":     p.Stars,
		"language":  p.Language,
		"website":   p.Website,
	}
	meta := make(map[string]any, len(keys))
	for _, key := range keys {
		v, ok := full[key]
		if !ok {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		meta[key] = v
	}
	return meta
}

// Row converts the project to the shape the dashboard grid binds to.
func (p *Project) Row() map[string]any {
	return map[string]any{
		"repo_path":   p.RepoPath,
		"repo_url":    p.RepoURL(),
		"stars":       fmt.Sprintf("%d", p.Stars),
		"language":    p.Language,
		"website":     p.Website,
		"description": p.Description,
		"created_at":  p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

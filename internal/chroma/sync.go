package chroma

import (
	"context"
	"fmt"

	"repotrack/internal/project"
)

// DefaultMetadataKeys are the project fields indexed alongside each
// document.
var DefaultMetadataKeys = []string{"repo_path", "repo_url", "stars", "language", "website"}

// Sync keeps project documents in a named collection and answers semantic
// queries over them.
type Sync struct {
	client     *Client
	collection string
}

// NewSync creates a Sync over the given collection name.
func NewSync(client *Client, collection string) *Sync {
	return &Sync{client: client, collection: collection}
}

// UpsertProject indexes the project's searchable text and metadata, keyed
// by repo path. Re-ingesting the same project overwrites its document. The
// collection is created on first use.
func (s *Sync) UpsertProject(ctx context.Context, p *project.Project) error {
	col, err := s.client.GetOrCreateCollection(ctx, s.collection)
	if err != nil {
		return err
	}

	meta := p.Metadata(DefaultMetadataKeys)
	meta["collection_name"] = s.collection

	if err := s.client.Add(ctx, col.ID,
		[]string{p.RepoPath},
		[]string{p.Document()},
		[]map[string]any{meta},
	); err != nil {
		return fmt.Errorf("indexing project %s: %w", p.RepoPath, err)
	}
	return nil
}

// QueryProjects runs a nearest-neighbor search and returns the repo paths
// of matches whose semantic distance does not exceed threshold. Returns
// ErrCollectionNotFound when nothing has been indexed yet; callers treat
// that as "no results".
func (s *Sync) QueryProjects(ctx context.Context, text string, nResults int, threshold float64) ([]string, error) {
	col, err := s.client.GetCollection(ctx, s.collection)
	if err != nil {
		return nil, err
	}

	result, err := s.client.Query(ctx, col.ID, text, nResults)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(result.IDs))
	for i, id := range result.IDs {
		// Distances are parallel to IDs; a missing distance is treated as
		// within the threshold.
		if i < len(result.Distances) && result.Distances[i] > threshold {
			continue
		}
		paths = append(paths, id)
	}
	return paths, nil
}

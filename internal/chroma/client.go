package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the Chroma Cloud API endpoint.
const DefaultBaseURL = "https://api.trychroma.com"

// ErrCollectionNotFound indicates the named collection does not exist.
// Callers querying a collection that has never been indexed into should
// treat this as "no results", since indexing is best-effort.
var ErrCollectionNotFound = errors.New("collection not found")

// Config holds the settings for a Chroma Cloud client.
type Config struct {
	Tenant   string
	Database string
	APIKey   string
	BaseURL  string // defaults to DefaultBaseURL
}

// Client is an HTTP client for a tenant- and database-scoped slice of the
// Chroma Cloud API.
type Client struct {
	baseURL string
	apiKey  string
	prefix  string
	client  *http.Client
}

// NewClient creates a Chroma client for the configured tenant and database.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		prefix:  fmt.Sprintf("/api/v2/tenants/%s/databases/%s", cfg.Tenant, cfg.Database),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Collection identifies a named document collection.
type Collection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GetOrCreateCollection returns the named collection, creating it if it
// does not exist.
func (c *Client) GetOrCreateCollection(ctx context.Context, name string) (*Collection, error) {
	body := map[string]any{
		"name":          name,
		"get_or_create": true,
	}

	var col Collection
	if err := c.do(ctx, http.MethodPost, c.prefix+"/collections", body, &col); err != nil {
		return nil, fmt.Errorf("get-or-create collection %s: %w", name, err)
	}
	return &col, nil
}

// GetCollection returns the named collection, or ErrCollectionNotFound.
func (c *Client) GetCollection(ctx context.Context, name string) (*Collection, error) {
	var col Collection
	err := c.do(ctx, http.MethodGet, c.prefix+"/collections/"+name, nil, &col)
	if err != nil {
		if errors.Is(err, ErrCollectionNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("get collection %s: %w", name, err)
	}
	return &col, nil
}

// Add inserts documents into a collection. The three slices are parallel;
// ids are caller-supplied and stable, so re-adding the same id upserts the
// document.
func (c *Client) Add(ctx context.Context, collectionID string, ids, documents []string, metadatas []map[string]any) error {
	body := map[string]any{
		"ids":       ids,
		"documents": documents,
		"metadatas": metadatas,
	}
	if err := c.do(ctx, http.MethodPost, c.prefix+"/collections/"+collectionID+"/add", body, nil); err != nil {
		return fmt.Errorf("adding to collection: %w", err)
	}
	return nil
}

// QueryResult holds nearest-neighbor matches for a single query text, in
// ascending distance order. IDs and Distances are parallel.
type QueryResult struct {
	IDs       []string
	Distances []float64
}

// queryResponse mirrors the Chroma wire format: one inner slice per query
// text. We always send exactly one text.
type queryResponse struct {
	IDs       [][]string  `json:"ids"`
	Distances [][]float64 `json:"distances"`
}

// Query runs a nearest-neighbor search over the collection and returns up
// to nResults matches with their semantic distances.
func (c *Client) Query(ctx context.Context, collectionID, text string, nResults int) (*QueryResult, error) {
	body := map[string]any{
		"query_texts": []string{text},
		"n_results":   nResults,
		"include":     []string{"distances"},
	}

	var resp queryResponse
	if err := c.do(ctx, http.MethodPost, c.prefix+"/collections/"+collectionID+"/query", body, &resp); err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	result := &QueryResult{}
	if len(resp.IDs) > 0 {
		result.IDs = resp.IDs[0]
	}
	if len(resp.Distances) > 0 {
		result.Distances = resp.Distances[0]
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-chroma-token", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrCollectionNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chroma returned %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

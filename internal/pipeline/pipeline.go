package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"repotrack/internal/chroma"
	"repotrack/internal/enrich"
	"repotrack/internal/project"
	"repotrack/internal/pubsub"
	"repotrack/internal/state"
	"repotrack/internal/store"
)

// ErrFetcherRequired indicates an ingestion was attempted without a
// configured repository fetcher. Unlike the optional enrichment and index
// clients, the fetcher is the pipeline's primary objective; a nil handle
// here is a programmer error, not a skip.
var ErrFetcherRequired = errors.New("repo fetcher client is required")

// Stage identifies a step of the ingestion pipeline.
type Stage string

const (
	StageResolving         Stage = "resolving"
	StageNotFound          Stage = "not_found"
	StageResolved          Stage = "resolved"
	StageDisplayed         Stage = "displayed"
	StageEnriching         Stage = "enriching"
	StageEnriched          Stage = "enriched"
	StageEnrichmentSkipped Stage = "enrichment_skipped"
	StageEnrichmentFailed  Stage = "enrichment_failed"
	StagePersisting        Stage = "persisting"
	StagePersisted         Stage = "persisted"
	StagePersistFailed     Stage = "persist_failed"
	StageIndexing          Stage = "indexing"
	StageIndexFailed       Stage = "index_failed"
	StageDone              Stage = "done"
)

// Event is published after each pipeline transition so observers see the
// interim states between fetch, display, enrich, persist, and index.
type Event struct {
	RepoPath string `json:"repo_path"`
	Stage    Stage  `json:"stage"`
	Error    string `json:"error,omitempty"`
}

// RepoFetcher resolves a repo path to a normalized repository record.
type RepoFetcher interface {
	FetchRepo(ctx context.Context, repoPath string) (*project.RawRepo, error)
}

// Index upserts project documents and answers semantic queries. Satisfied
// by *chroma.Sync.
type Index interface {
	UpsertProject(ctx context.Context, p *project.Project) error
	QueryProjects(ctx context.Context, text string, nResults int, threshold float64) ([]string, error)
}

// Deps holds the dependencies for the Pipeline. Fetcher, Describer, and
// Index may be nil when the corresponding credentials are missing; only
// the fetcher is mandatory at ingestion time.
type Deps struct {
	Fetcher       RepoFetcher
	Describer     enrich.Describer
	Index         Index
	Store         store.Store
	Cache         *state.Cache
	Broker        *pubsub.Broker[Event]
	Logger        *slog.Logger
	EnrichTimeout time.Duration
	SearchResults int
}

// Pipeline orchestrates one project ingestion: fetch, display, enrich,
// persist, index. It also serves semantic search over the vector index.
type Pipeline struct {
	deps Deps
}

// New creates a new Pipeline with the given dependencies.
func New(deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.EnrichTimeout == 0 {
		deps.EnrichTimeout = 30 * time.Second
	}
	if deps.SearchResults == 0 {
		deps.SearchResults = 10
	}
	return &Pipeline{deps: deps}
}

// Result summarizes a completed ingestion run.
type Result struct {
	Project  *project.Project
	Index    int
	Inserted int
	Enriched bool
	Indexed  bool
}

// Ingest runs the full pipeline for one user-submitted repository path or
// URL. Enrichment and indexing failures are reported but non-fatal; a
// not-found repository or a failed durable flush aborts the run with an
// error. On flush failure the staging queue is retained so the next run
// retries the same batch.
func (p *Pipeline) Ingest(ctx context.Context, input string) (*Result, error) {
	repoPath := project.ExtractRepoPath(strings.TrimSpace(input))
	logger := p.deps.Logger.With("repo", repoPath)

	start := time.Now()

	// Guard before the first publish so a misconfigured run never leaves
	// observers with an in-progress repo that has no terminal event.
	if p.deps.Fetcher == nil {
		return nil, ErrFetcherRequired
	}
	p.publish(repoPath, StageResolving, nil)

	raw, err := p.deps.Fetcher.FetchRepo(ctx, repoPath)
	if err != nil {
		p.publish(repoPath, StageNotFound, err)
		logger.Warn("repo did not resolve", "error", err)
		return nil, err
	}
	p.publish(repoPath, StageResolved, nil)

	// The cache may already hold this repo path; AddToVisible returns the
	// existing index in that case, and the cached entity is the one the
	// rest of the run mutates.
	idx, err := p.deps.Cache.AddToVisible(project.FromRepo(*raw))
	if err != nil {
		logger.Error("display cache corrupted", "error", err)
		return nil, err
	}
	proj := p.deps.Cache.Project(idx)
	p.publish(proj.RepoPath, StageDisplayed, nil)

	result := &Result{Project: proj, Index: idx}

	result.Enriched = p.enrich(ctx, proj, logger)

	inserted, err := p.persist(proj)
	if err != nil {
		logger.Error("durable flush failed", "error", err)
		return result, err
	}
	result.Inserted = inserted

	result.Indexed = p.index(ctx, proj, logger)

	p.publish(proj.RepoPath, StageDone, nil)
	logger.Info("project ingested",
		"enriched", result.Enriched,
		"inserted", result.Inserted,
		"indexed", result.Indexed,
		"duration", time.Since(start),
	)
	return result, nil
}

// enrich overwrites the project description with the enrichment provider's
// text when one is returned. A nil client or empty result is a skip;
// timeouts and other provider errors are reported and swallowed.
func (p *Pipeline) enrich(ctx context.Context, proj *project.Project, logger *slog.Logger) bool {
	if p.deps.Describer == nil {
		p.publish(proj.RepoPath, StageEnrichmentSkipped, nil)
		return false
	}

	p.publish(proj.RepoPath, StageEnriching, nil)

	enrichCtx, cancel := context.WithTimeout(ctx, p.deps.EnrichTimeout)
	defer cancel()

	description, err := p.deps.Describer.Describe(enrichCtx, proj.RepoURL())
	if err != nil {
		p.publish(proj.RepoPath, StageEnrichmentFailed, err)
		if errors.Is(err, enrich.ErrTimeout) {
			logger.Warn("enrichment timed out, keeping fetched description")
		} else {
			logger.Warn("enrichment failed, keeping fetched description", "error", err)
		}
		return false
	}
	if description == "" {
		p.publish(proj.RepoPath, StageEnrichmentSkipped, nil)
		return false
	}

	proj.SetDescription(description)
	p.publish(proj.RepoPath, StageEnriched, nil)
	return true
}

// persist stages the project and flushes a snapshot of the staging queue,
// so projects queued by concurrent ingestions are committed together. Only
// the flushed snapshot is cleared, and only on flush success: a project
// staged by a concurrent run after the snapshot stays queued for that
// run's own flush.
func (p *Pipeline) persist(proj *project.Project) (int, error) {
	p.deps.Cache.Stage(proj)
	p.publish(proj.RepoPath, StagePersisting, nil)

	pending := p.deps.Cache.Pending()
	inserted, err := p.deps.Store.FlushProjects(pending)
	if err != nil {
		p.publish(proj.RepoPath, StagePersistFailed, err)
		return 0, fmt.Errorf("flushing projects: %w", err)
	}

	p.deps.Cache.ClearPending(len(pending))
	p.publish(proj.RepoPath, StagePersisted, nil)
	return inserted, nil
}

// index upserts the project into the vector collection. A nil client is a
// skip; failures are reported and swallowed, and never roll back the
// persisted row.
func (p *Pipeline) index(ctx context.Context, proj *project.Project, logger *slog.Logger) bool {
	if p.deps.Index == nil {
		return false
	}

	p.publish(proj.RepoPath, StageIndexing, nil)
	if err := p.deps.Index.UpsertProject(ctx, proj); err != nil {
		p.publish(proj.RepoPath, StageIndexFailed, err)
		logger.Warn("vector indexing failed", "error", err)
		return false
	}
	return true
}

// Search runs a semantic query over the vector index and replaces the
// visible set with the indices of matching cached projects. threshold is
// the slider value in [0, 100], mapped to a 0.00-1.00 distance fraction.
// Repo paths the cache does not hold are dropped silently; a missing index
// client or collection yields no results rather than an error.
func (p *Pipeline) Search(ctx context.Context, text string, threshold int) ([]int, error) {
	if threshold < 0 || threshold > 100 {
		return nil, fmt.Errorf("distance threshold must be between 0 and 100, got %d", threshold)
	}
	if p.deps.Index == nil {
		return nil, nil
	}

	paths, err := p.deps.Index.QueryProjects(ctx, text, p.deps.SearchResults, float64(threshold)/100)
	if err != nil {
		if errors.Is(err, chroma.ErrCollectionNotFound) {
			p.deps.Logger.Debug("vector collection missing, returning no results")
			return nil, nil
		}
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if len(paths) == 0 {
		return nil, nil
	}

	return p.deps.Cache.ResolveVisibleByPaths(paths), nil
}

// LoadExisting hydrates the display cache from the durable store and marks
// every project visible. Called once at startup.
func (p *Pipeline) LoadExisting(ctx context.Context) error {
	projects, err := p.deps.Store.ListProjects()
	if err != nil {
		return fmt.Errorf("loading persisted projects: %w", err)
	}
	p.deps.Cache.Replace(projects)
	p.deps.Logger.Info("projects loaded", "count", len(projects))
	return nil
}

func (p *Pipeline) publish(repoPath string, stage Stage, err error) {
	if p.deps.Broker == nil {
		return
	}
	evt := Event{RepoPath: repoPath, Stage: stage}
	if err != nil {
		evt.Error = err.Error()
	}
	p.deps.Broker.Publish(evt)
}

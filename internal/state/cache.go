package state

import (
	"errors"
	"fmt"
	"sync"

	"repotrack/internal/project"
)

// ErrInvariant indicates the cache observed a state that must never occur
// in correct operation, such as an appended project not resolving to an
// index. It signals concurrent-mutation corruption and is never swallowed.
var ErrInvariant = errors.New("display state invariant violated")

// Cache is the process-wide display state: the ordered list of all known
// projects this session, the index subset currently visible in the grid,
// and the staging queue awaiting the next durable flush.
//
// All access goes through the mutex; each method is one atomic step of the
// ingestion pipeline.
type Cache struct {
	mu       sync.Mutex
	projects []*project.Project
	visible  []int
	pending  []*project.Project
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{}
}

// FindIndexByRepoPath returns the index of the first project with the given
// repo path, or -1 if none exists. Repo paths are unique by invariant, so
// the first match is the only match.
func (c *Cache) FindIndexByRepoPath(repoPath string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findIndexLocked(repoPath)
}

func (c *Cache) findIndexLocked(repoPath string) int {
	if repoPath == "" {
		return -1
	}
	for i, p := range c.projects {
		if p.RepoPath == repoPath {
			return i
		}
	}
	return -1
}

// FindOrAppend returns the index of the project with the same repo path if
// one is already cached, otherwise appends the project and returns its new
// index. The post-append lookup re-verifies that the index resolves.
func (c *Cache) FindOrAppend(p *project.Project) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findOrAppendLocked(p)
}

func (c *Cache) findOrAppendLocked(p *project.Project) (int, error) {
	if idx := c.findIndexLocked(p.RepoPath); idx >= 0 {
		return idx, nil
	}

	c.projects = append(c.projects, p)
	idx := c.findIndexLocked(p.RepoPath)
	if idx < 0 {
		return -1, fmt.Errorf("%w: appended project %s not found", ErrInvariant, p.RepoPath)
	}
	return idx, nil
}

// AddToVisible runs find-or-append and ensures the resulting index is part
// of the visible set. Returns the project's index.
func (c *Cache) AddToVisible(p *project.Project) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, err := c.findOrAppendLocked(p)
	if err != nil {
		return -1, err
	}

	for _, v := range c.visible {
		if v == idx {
			return idx, nil
		}
	}
	c.visible = append(c.visible, idx)
	return idx, nil
}

// SetVisible replaces the visible index set wholesale. Every index must be
// a valid index into the project list.
func (c *Cache) SetVisible(indices []int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, idx := range indices {
		if idx < 0 || idx >= len(c.projects) {
			return fmt.Errorf("visible index %d out of range [0, %d)", idx, len(c.projects))
		}
	}
	c.visible = append([]int(nil), indices...)
	return nil
}

// Visible returns a copy of the visible index set.
func (c *Cache) Visible() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.visible...)
}

// Project returns the project at the given index, or nil if out of range.
func (c *Cache) Project(idx int) *project.Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx < 0 || idx >= len(c.projects) {
		return nil
	}
	return c.projects[idx]
}

// Len returns the number of known projects.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.projects)
}

// Rows returns grid rows for the visible subset, in visible order.
func (c *Cache) Rows() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]map[string]any, 0, len(c.visible))
	for _, idx := range c.visible {
		if idx < 0 || idx >= len(c.projects) {
			continue
		}
		rows = append(rows, c.projects[idx].Row())
	}
	return rows
}

// ResolveVisibleByPaths maps repo paths to indices, silently dropping paths
// that are not cached, and replaces the visible set with the result. Used
// by semantic search, where the index may hold documents for projects this
// session has never loaded.
func (c *Cache) ResolveVisibleByPaths(repoPaths []string) []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	indices := make([]int, 0, len(repoPaths))
	for _, path := range repoPaths {
		if idx := c.findIndexLocked(path); idx >= 0 {
			indices = append(indices, idx)
		}
	}
	c.visible = indices
	return append([]int(nil), indices...)
}

// Stage appends a project to the staging queue for the next durable flush.
func (c *Cache) Stage(p *project.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, p)
}

// Pending returns a copy of the staging queue.
func (c *Cache) Pending() []*project.Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*project.Project(nil), c.pending...)
}

// ClearPending drops the first n entries of the staging queue. Called only
// after a successful flush, with n the size of the flushed Pending snapshot,
// so projects staged by a concurrent run after the snapshot was taken stay
// queued for the next flush. On flush failure the queue is retained so the
// next attempt retries the same batch.
func (c *Cache) ClearPending(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n >= len(c.pending) {
		c.pending = c.pending[:0]
		return
	}
	c.pending = append(c.pending[:0], c.pending[n:]...)
}

// Replace swaps in a full project list and marks all of it visible. Used to
// hydrate the cache from the durable store at startup.
func (c *Cache) Replace(projects []*project.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.projects = append([]*project.Project(nil), projects...)
	c.visible = make([]int, len(c.projects))
	for i := range c.visible {
		c.visible[i] = i
	}
}

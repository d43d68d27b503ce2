package store

import "repotrack/internal/project"

// Store defines the storage operations used by the ingestion pipeline.
// It is satisfied by *DB and can be replaced with a mock for testing.
type Store interface {
	// ExistingRepoPaths returns the set of all persisted repo paths.
	ExistingRepoPaths() (map[string]struct{}, error)

	// FlushProjects inserts every pending project not already persisted,
	// in one transaction, and returns the number inserted.
	FlushProjects(pending []*project.Project) (int, error)

	// ListProjects returns all persisted projects in insertion order.
	ListProjects() ([]*project.Project, error)
}

// Compile-time check that *DB satisfies the Store interface.
var _ Store = (*DB)(nil)

package store

import (
	"database/sql"
	"fmt"
	"time"

	"repotrack/internal/project"
)

// ExistingRepoPaths returns the set of all repo paths already persisted.
func (d *DB) ExistingRepoPaths() (map[string]struct{}, error) {
	rows, err := d.db.Query(`SELECT repo_path FROM projects`)
	if err != nil {
		return nil, fmt.Errorf("querying repo paths: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scanning repo path: %w", err)
		}
		existing[path] = struct{}{}
	}
	return existing, rows.Err()
}

// FlushProjects persists every pending project whose repo path is not yet
// in the table, in a single transaction. Already-persisted projects are
// filtered out by key; rows are never updated or deleted. Returns the
// number of newly inserted projects (zero is a silent no-op).
func (d *DB) FlushProjects(pending []*project.Project) (int, error) {
	if len(pending) == 0 {
		return 0, nil
	}

	existing, err := d.ExistingRepoPaths()
	if err != nil {
		return 0, fmt.Errorf("loading existing repo paths: %w", err)
	}

	var toSave []*project.Project
	for _, p := range pending {
		if _, ok := existing[p.RepoPath]; !ok {
			toSave = append(toSave, p)
		}
	}
	if len(toSave) == 0 {
		return 0, nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning flush transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO projects (repo_path, stars, language, website, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range toSave {
		var createdAt any
		if !p.CreatedAt.IsZero() {
			createdAt = p.CreatedAt.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.Exec(p.RepoPath, p.Stars, p.Language, p.Website, p.Description, createdAt); err != nil {
			return 0, fmt.Errorf("inserting project %s: %w", p.RepoPath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing flush: %w", err)
	}
	return len(toSave), nil
}

// ListProjects returns all persisted projects in insertion order.
func (d *DB) ListProjects() ([]*project.Project, error) {
	rows, err := d.db.Query(
		`SELECT repo_path, stars, language, website, description, created_at FROM projects ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func scanProject(rows *sql.Rows) (*project.Project, error) {
	var p project.Project
	var language, website, description, createdAt sql.NullString

	err := rows.Scan(&p.RepoPath, &p.Stars, &language, &website, &description, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("scanning project: %w", err)
	}

	p.Language = language.String
	p.Website = website.String
	p.Description = description.String
	if createdAt.Valid {
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt.String)
	}

	return &p, nil
}

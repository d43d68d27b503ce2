package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gogithub "github.com/google/go-github/v60/github"

	"repotrack/internal/project"
)

// ErrNotFound indicates the repository path does not resolve to a
// repository the client can see.
var ErrNotFound = errors.New("repository not found")

// Fetcher resolves repo paths to normalized repository records.
type Fetcher struct {
	client *gogithub.Client
}

// NewFetcher wraps a GitHub client. The client must be non-nil; callers
// obtain it from the registry, which returns nil when credentials are
// missing, and must check before constructing a Fetcher.
func NewFetcher(client *gogithub.Client) *Fetcher {
	return &Fetcher{client: client}
}

// FetchRepo resolves an owner/name path to a RawRepo. A path that does not
// split into owner and name, or that GitHub reports as missing, yields
// ErrNotFound.
func (f *Fetcher) FetchRepo(ctx context.Context, repoPath string) (*project.RawRepo, error) {
	parts := strings.SplitN(repoPath, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: invalid repo path %q", ErrNotFound, repoPath)
	}
	owner, name := parts[0], parts[1]

	repo, resp, err := f.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		var rateErr *gogithub.RateLimitError
		if errors.As(err, &rateErr) {
			return nil, fmt.Errorf("github rate limit exceeded (resets %s): %w", rateErr.Rate.Reset.Format("15:04:05"), err)
		}
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, repoPath)
		}
		return nil, fmt.Errorf("fetching repo %s: %w", repoPath, err)
	}

	return convertRepo(repo), nil
}

// convertRepo converts a go-github repository to the normalized RawRepo
// shape. Absent optional fields stay at their zero values.
func convertRepo(repo *gogithub.Repository) *project.RawRepo {
	raw := &project.RawRepo{
		FullName:    repo.GetFullName(),
		Stars:       repo.GetStargazersCount(),
		Language:    repo.GetLanguage(),
		Homepage:    repo.GetHomepage(),
		Description: repo.GetDescription(),
	}
	if repo.CreatedAt != nil {
		raw.CreatedAt = repo.CreatedAt.Time
	}
	return raw
}

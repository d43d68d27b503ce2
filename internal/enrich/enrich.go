// Package enrich fetches natural-language repository descriptions from
// LLM-backed search APIs. Enrichment is always best-effort: an empty result
// is a skip, not an error, and the pipeline proceeds with the provisional
// description on any failure.
package enrich

import (
	"context"
	"errors"
	"strings"
)

// Sentinel errors for enrichment operations.
var (
	ErrTimeout         = errors.New("enrichment request timed out")
	ErrInvalidResponse = errors.New("invalid response from enrichment provider")
)

// Describer fetches a free-text description for a repository URL. An empty
// string with a nil error means the provider had nothing to say.
type Describer interface {
	Describe(ctx context.Context, repoURL string) (string, error)
}

// repoURLPlaceholder is substituted with the repository URL in the prompt.
const repoURLPlaceholder = "<link_to_github_repository>"

const defaultPrompt = `Describe the GitHub repository at ` + repoURLPlaceholder + `.
Summarize what the project does, who it is for, and what makes it notable,
in two or three plain sentences. Do not include links or markdown.`

// BuildPrompt returns the enrichment prompt for a repository URL.
func BuildPrompt(repoURL string) string {
	return strings.ReplaceAll(defaultPrompt, repoURLPlaceholder, repoURL)
}

package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("https://github.com/octocat/Hello-World")
	if !strings.Contains(prompt, "https://github.com/octocat/Hello-World") {
		t.Errorf("prompt missing repo URL: %q", prompt)
	}
	if strings.Contains(prompt, "<link_to_github_repository>") {
		t.Error("placeholder not substituted")
	}
}

// chatCompletionResponse is the minimal OpenAI-wire response shape the
// Perplexity describer parses.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func perplexityTestServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", auth)
		}

		var resp chatCompletionResponse
		if content != "" {
			resp.Choices = append(resp.Choices, struct {
				Message struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"message"`
			}{})
			resp.Choices[0].Message.Role = "assistant"
			resp.Choices[0].Message.Content = content
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPerplexityDescribe(t *testing.T) {
	srv := perplexityTestServer(t, "A sample repository for demos.")
	d := NewPerplexityDescriber("test-key", "", srv.URL)

	got, err := d.Describe(context.Background(), "https://github.com/octocat/Hello-World")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if got != "A sample repository for demos." {
		t.Errorf("unexpected description %q", got)
	}
}

func TestPerplexityDescribeNoChoices(t *testing.T) {
	srv := perplexityTestServer(t, "")
	d := NewPerplexityDescriber("test-key", "", srv.URL)

	_, err := d.Describe(context.Background(), "https://github.com/a/b")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestPerplexityDescribeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	d := NewPerplexityDescriber("test-key", "", srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.Describe(ctx, "https://github.com/a/b")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

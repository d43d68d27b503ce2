package registry

import (
	"errors"
	"testing"

	"repotrack/internal/config"
)

func fullConfig() *config.Config {
	cfg, err := config.Parse([]byte(`
github:
  owner: octocat
  repo: Hello-World
  client_id: id
  client_secret: secret
chroma:
  tenant: tenant
  database: db
  api_key: key
enrich:
  api_key: pplx-key
`))
	if err != nil {
		panic(err)
	}
	return cfg
}

func TestGetMemoizes(t *testing.T) {
	r := New(fullConfig())

	first, err := r.Get(KindVectorIndex)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if first == nil {
		t.Fatal("expected non-nil handle with full credentials")
	}

	second, err := r.Get(KindVectorIndex)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if first != second {
		t.Error("expected the same handle on repeated calls")
	}
}

func TestGetMemoizesNil(t *testing.T) {
	cfg := config.FromEnv()
	cfg.Chroma = config.ChromaConfig{}
	r := New(cfg)

	handle, err := r.Get(KindVectorIndex)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if handle != nil {
		t.Fatal("expected nil handle with missing credentials")
	}

	// The nil is memoized; setting credentials afterwards must not cause a
	// retry on the next call.
	cfg.Chroma = config.ChromaConfig{Tenant: "t", Database: "d", APIKey: "k"}
	handle, err = r.Get(KindVectorIndex)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if handle != nil {
		t.Error("expected memoized nil handle, got a new client")
	}
}

func TestGetUnknownKind(t *testing.T) {
	r := New(fullConfig())

	_, err := r.Get(Kind(42))
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestTypedAccessors(t *testing.T) {
	r := New(fullConfig())

	vec, err := r.VectorIndex()
	if err != nil || vec == nil {
		t.Errorf("expected vector index client, got %v, %v", vec, err)
	}
	fetcher, err := r.RepoFetcher()
	if err != nil || fetcher == nil {
		t.Errorf("expected repo fetcher, got %v, %v", fetcher, err)
	}
	describer, err := r.Enrichment()
	if err != nil || describer == nil {
		t.Errorf("expected enrichment client, got %v, %v", describer, err)
	}
}

func TestTypedAccessorsNilWhenUnconfigured(t *testing.T) {
	cfg := &config.Config{}
	r := New(cfg)

	vec, err := r.VectorIndex()
	if err != nil {
		t.Fatalf("VectorIndex failed: %v", err)
	}
	if vec != nil {
		t.Error("expected nil vector index client")
	}

	fetcher, err := r.RepoFetcher()
	if err != nil {
		t.Fatalf("RepoFetcher failed: %v", err)
	}
	if fetcher != nil {
		t.Error("expected nil repo fetcher")
	}

	describer, err := r.Enrichment()
	if err != nil {
		t.Fatalf("Enrichment failed: %v", err)
	}
	if describer != nil {
		t.Error("expected nil enrichment client")
	}
}

func TestKindString(t *testing.T) {
	if KindVectorIndex.String() != "vector_index" {
		t.Errorf("unexpected name %q", KindVectorIndex.String())
	}
	if Kind(42).String() != "unknown" {
		t.Errorf("unexpected name %q", Kind(42).String())
	}
}

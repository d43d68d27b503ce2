package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"repotrack/internal/config"
	"repotrack/internal/pipeline"
)

func testComponents(t *testing.T, cfg *config.Config) *components {
	t.Helper()
	if cfg.Store.Path == "" {
		cfg.Store.Path = ":memory:"
	}
	c, err := initComponents(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("initComponents failed: %v", err)
	}
	t.Cleanup(func() { c.Store.Close() })
	return c
}

func TestInitComponentsWithoutCredentials(t *testing.T) {
	cfg := &config.Config{}
	cfg.GitHub.Auth = "oauth"
	c := testComponents(t, cfg)

	if c.Fetcher != nil {
		t.Error("expected nil fetcher without credentials")
	}
	if c.Describer != nil {
		t.Error("expected nil describer without credentials")
	}
	if c.Index != nil {
		t.Error("expected nil index without credentials")
	}
	if c.Store == nil || c.Cache == nil || c.Broker == nil {
		t.Error("expected store, cache, and broker regardless of credentials")
	}
}

func TestCreatePipelineNilClients(t *testing.T) {
	cfg := &config.Config{}
	cfg.GitHub.Auth = "oauth"
	c := testComponents(t, cfg)

	p := createPipeline(c)

	// A nil fetcher must surface as the sentinel, not as a call through a
	// nil pointer inside a non-nil interface.
	_, err := p.Ingest(context.Background(), "octocat/Hello-World")
	if !errors.Is(err, pipeline.ErrFetcherRequired) {
		t.Errorf("expected ErrFetcherRequired, got %v", err)
	}

	// A nil index client makes search a skip.
	indices, err := p.Search(context.Background(), "anything", 50)
	if err != nil || indices != nil {
		t.Errorf("expected silent skip, got indices=%v err=%v", indices, err)
	}
}

func TestLoadConfigMissingFileFallsBackToEnv(t *testing.T) {
	oldCfgFile := cfgFile
	cfgFile = ""
	defer func() { cfgFile = oldCfgFile }()

	// The default path will not exist in the test environment's fake home.
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GITHUB_OWNER", "octocat")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.GitHub.Owner != "octocat" {
		t.Errorf("expected env-derived owner, got %q", cfg.GitHub.Owner)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr, got %q", cfg.Server.Addr)
	}
}

func TestLoadConfigExplicitMissingFileFails(t *testing.T) {
	oldCfgFile := cfgFile
	cfgFile = filepath.Join(t.TempDir(), "nope.yaml")
	defer func() { cfgFile = oldCfgFile }()

	if _, err := loadConfig(); err == nil {
		t.Error("expected error for explicitly named missing config file")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "server:\n  addr: :9090\nstore:\n  path: " + filepath.Join(dir, "test.db") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	oldCfgFile := cfgFile
	cfgFile = path
	defer func() { cfgFile = oldCfgFile }()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected addr from file, got %q", cfg.Server.Addr)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := defaultConfigPath()
	if !strings.HasSuffix(path, ".repotrack/config.yaml") {
		t.Errorf("unexpected default config path %q", path)
	}
}

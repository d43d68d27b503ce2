package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"repotrack/internal/chroma"
	"repotrack/internal/config"
	"repotrack/internal/enrich"
	"repotrack/internal/github"
	"repotrack/internal/pipeline"
	"repotrack/internal/pubsub"
	"repotrack/internal/registry"
	"repotrack/internal/state"
	"repotrack/internal/store"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "repotrack",
	Short: "Track GitHub repositories with AI-enriched descriptions and semantic search",
	Long: `Repotrack fetches GitHub repository metadata, enriches descriptions
with an LLM, persists projects to a local database, and indexes them
into a Chroma vector collection for semantic search.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default %s)", defaultConfigPath()))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".repotrack/config.yaml"
	}
	return home + "/.repotrack/config.yaml"
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// loadConfig reads the config file when one exists; otherwise configuration
// comes from the environment alone.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = defaultConfigPath()
	}
	if _, err := os.Stat(path); err != nil {
		if cfgFile != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		return config.FromEnv(), nil
	}
	return config.Load(path)
}

// components holds initialized components for use by subcommands.
type components struct {
	Config    *config.Config
	Store     *store.DB
	Cache     *state.Cache
	Broker    *pubsub.Broker[pipeline.Event]
	Fetcher   *github.Fetcher
	Describer enrich.Describer
	Index     *chroma.Sync
	Logger    *slog.Logger
}

// initComponents creates all components from config. Clients whose
// credentials are missing come back nil from the registry and the
// dependent pipeline steps become skips.
func initComponents(cfg *config.Config, logger *slog.Logger) (*components, error) {
	c := &components{
		Config: cfg,
		Cache:  state.New(),
		Broker: pubsub.NewBroker[pipeline.Event](),
		Logger: logger,
	}

	dbPath := config.ExpandPath(cfg.Store.Path)
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	c.Store = db

	reg := registry.New(cfg)

	fetcher, err := reg.RepoFetcher()
	if err != nil {
		return nil, fmt.Errorf("creating repo fetcher: %w", err)
	}
	c.Fetcher = fetcher
	if fetcher == nil {
		logger.Warn("github credentials not configured, ingestion disabled")
	}

	describer, err := reg.Enrichment()
	if err != nil {
		return nil, fmt.Errorf("creating enrichment client: %w", err)
	}
	c.Describer = describer
	if describer == nil {
		logger.Info("enrichment credentials not configured, descriptions will not be enriched")
	}

	vectorClient, err := reg.VectorIndex()
	if err != nil {
		return nil, fmt.Errorf("creating vector index client: %w", err)
	}
	if vectorClient != nil {
		c.Index = chroma.NewSync(vectorClient, cfg.Chroma.Collection)
	} else {
		logger.Info("chroma credentials not configured, semantic search disabled")
	}

	return c, nil
}

// createPipeline builds a Pipeline from components. Nil clients must not
// be assigned to the interface fields or the pipeline would see a non-nil
// interface holding a nil pointer.
func createPipeline(c *components) *pipeline.Pipeline {
	timeout, err := c.Config.Defaults.EnrichTimeout()
	if err != nil {
		timeout = 0 // pipeline applies its own default
	}

	deps := pipeline.Deps{
		Store:         c.Store,
		Cache:         c.Cache,
		Broker:        c.Broker,
		Logger:        c.Logger,
		EnrichTimeout: timeout,
		SearchResults: c.Config.Defaults.SearchResults,
	}
	if c.Fetcher != nil {
		deps.Fetcher = c.Fetcher
	}
	if c.Describer != nil {
		deps.Describer = c.Describer
	}
	if c.Index != nil {
		deps.Index = c.Index
	}
	return pipeline.New(deps)
}

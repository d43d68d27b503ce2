package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var searchThreshold int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Semantically search tracked repositories",
	Long: `Search the vector index for tracked repositories matching a free-text
query. The threshold is a 0-100 slider: lower values demand closer
semantic matches.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchThreshold, "threshold", -1, "max semantic distance, 0-100 (default from config)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	c, err := initComponents(cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing components: %w", err)
	}
	defer c.Store.Close()

	if c.Index == nil {
		return fmt.Errorf("chroma credentials not configured; semantic search is unavailable")
	}

	p := createPipeline(c)

	// Search resolves matches against the display cache, so the cache must
	// hold everything the store knows about.
	if err := p.LoadExisting(cmd.Context()); err != nil {
		return fmt.Errorf("loading existing projects: %w", err)
	}

	threshold := searchThreshold
	if threshold < 0 {
		threshold = cfg.Defaults.DistanceThreshold
	}

	query := strings.Join(args, " ")
	indices, err := p.Search(cmd.Context(), query, threshold)
	if err != nil {
		return err
	}
	if len(indices) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REPO\tSTARS\tLANGUAGE\tDESCRIPTION")
	for _, idx := range indices {
		proj := c.Cache.Project(idx)
		if proj == nil {
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", proj.RepoPath, proj.Stars, proj.Language, truncate(proj.Description, 80))
	}
	return w.Flush()
}

// truncate shortens s to at most max runes, cutting on a rune boundary so
// multi-byte characters are never split.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

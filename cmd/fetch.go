package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var fetchQuiet bool

var fetchCmd = &cobra.Command{
	Use:   "fetch <owner/repo | url>",
	Short: "Fetch, enrich, persist, and index one repository",
	Long: `Fetch runs the full ingestion pipeline for a single repository,
printing each stage transition as it happens:

  repotrack fetch octocat/Hello-World
  repotrack fetch https://github.com/octocat/Hello-World`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVarP(&fetchQuiet, "quiet", "q", false, "suppress stage output")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
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

	p := createPipeline(c)

	if err := p.LoadExisting(cmd.Context()); err != nil {
		return fmt.Errorf("loading existing projects: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Print stage transitions as the pipeline publishes them.
	events := c.Broker.Subscribe(ctx)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for evt := range events {
			if fetchQuiet {
				continue
			}
			if evt.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", evt.Stage, evt.Error)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", evt.Stage)
			}
		}
	}()

	result, err := p.Ingest(ctx, args[0])
	cancel()
	<-printed
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d stars, %s\n",
		result.Project.RepoPath, result.Project.Stars, result.Project.Description)
	return nil
}

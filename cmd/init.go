package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup for repotrack configuration",
	Long:  `Creates a default configuration file with guided prompts.`,
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("Welcome to repotrack setup!")
	fmt.Println("This will create a configuration file for you.")
	fmt.Println()

	configPath := cfgFile
	if configPath == "" {
		configPath = defaultConfigPath()
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file already exists at %s\n", configPath)
		fmt.Print("Overwrite? [y/N]: ")
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Print("GitHub owner for API quota attribution (or press Enter to skip): ")
	owner, _ := reader.ReadString('\n')
	owner = strings.TrimSpace(owner)

	fmt.Print("GitHub repo for API quota attribution (or press Enter to skip): ")
	repo, _ := reader.ReadString('\n')
	repo = strings.TrimSpace(repo)

	fmt.Print("Enrichment provider (perplexity/anthropic) [perplexity]: ")
	enrichType, _ := reader.ReadString('\n')
	enrichType = strings.TrimSpace(enrichType)
	if enrichType == "" {
		enrichType = "perplexity"
	}

	config := buildConfigYAML(owner, repo, enrichType)

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(config), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", configPath)
	fmt.Println("Export the referenced environment variables before running serve or fetch.")
	return nil
}

func buildConfigYAML(owner, repo, enrichType string) string {
	var b strings.Builder

	b.WriteString("# repotrack configuration\n")
	b.WriteString("# ${VAR} placeholders are expanded from the environment at load time.\n\n")

	b.WriteString("github:\n")
	b.WriteString("  auth: oauth\n")
	if owner != "" {
		b.WriteString(fmt.Sprintf("  owner: %s\n", owner))
	} else {
		b.WriteString("  owner: ${GITHUB_OWNER}\n")
	}
	if repo != "" {
		b.WriteString(fmt.Sprintf("  repo: %s\n", repo))
	} else {
		b.WriteString("  repo: ${GITHUB_REPO}\n")
	}
	b.WriteString("  client_id: ${GITHUB_CLIENT_ID}\n")
	b.WriteString("  client_secret: ${GITHUB_CLIENT_SECRET}\n")
	b.WriteString("\n")

	b.WriteString("chroma:\n")
	b.WriteString("  tenant: ${CHROMA_TENANT}\n")
	b.WriteString("  database: ${CHROMA_DATABASE}\n")
	b.WriteString("  api_key: ${CHROMA_API_KEY}\n")
	b.WriteString("  collection: projects\n")
	b.WriteString("\n")

	b.WriteString("enrich:\n")
	b.WriteString(fmt.Sprintf("  type: %s\n", enrichType))
	model, apiKey := enrichProviderDefaults(enrichType)
	b.WriteString(fmt.Sprintf("  model: %s\n", model))
	b.WriteString(fmt.Sprintf("  api_key: %s\n", apiKey))
	b.WriteString("\n")

	b.WriteString("server:\n")
	b.WriteString("  addr: :8080\n")
	b.WriteString("\n")

	b.WriteString("defaults:\n")
	b.WriteString("  enrich_timeout: 30s\n")
	b.WriteString("  search_results: 10\n")
	b.WriteString("  distance_threshold: 50\n")
	b.WriteString("\n")

	b.WriteString("store:\n")
	b.WriteString("  path: ~/.repotrack/repotrack.db\n")

	return b.String()
}

// enrichProviderDefaults returns the default model and api_key placeholder
// for the given enrichment provider type.
func enrichProviderDefaults(provider string) (model, apiKey string) {
	switch provider {
	case "anthropic":
		return "claude-sonnet-4-20250514", "${ANTHROPIC_API_KEY}"
	default: // perplexity
		return "sonar", "${PERPLEXITY_API_KEY}"
	}
}

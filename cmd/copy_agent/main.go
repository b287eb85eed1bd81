// Package main provides the copy_agent CLI: campaign copy generation,
// compliance checks and the HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	logFormat  string
	provider   string
	model      string
)

var rootCmd = &cobra.Command{
	Use:   "copy_agent",
	Short: "Campaign copy generator with compliance review",
	Long: `copy_agent writes marketing copy for a product across distribution channels
and screens every variant against the product category's compliance rules.

Configuration can be loaded from a JSON file using --config. Command-line flags
override config file values, which override environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (default info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json (default console)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "Generation provider: openai or gemini")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Model identifier")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

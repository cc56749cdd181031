package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/lumeoapp/lumeo/backend/internal/logger"
	"github.com/spf13/cobra"
)

var (
	output string = "text" // "text" or "json"
)

var rootCmd = &cobra.Command{
	Use:   "lumeo",
	Short: "Lumeo CLI - Inspect and manage composer server state",
	Long: `Lumeo CLI provides command-line access to the composer backend.
Inspect saved post drafts, clear stale ones, and review upload limits.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		godotenv.Load()
		logger.InitializeQuiet()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	// Add command groups
	rootCmd.AddCommand(draftsCmd)
	rootCmd.AddCommand(limitsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

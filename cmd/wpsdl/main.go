// Package main provides the entry point for the wpsdl download CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wpsdl",
	Short: "Download linked documents from a web page",
	Long:  "wpsdl fetches a web page, extracts hyperlinks matching an extension allow-list (default PDF and ZIP), and downloads each match with retry, backoff, and collision handling.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridable at build time via -ldflags "-X main.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the wpsdl version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("wpsdl %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

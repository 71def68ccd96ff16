package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run download rounds continuously, reading page URLs from stdin",
	Long:  "Reads one page URL per line from stdin and runs a download round for each. A blank line or EOF ends the session. Exits 100 if no round was run at all.",
	RunE:  runWatch,
}

func init() {
	// watch shares run's flags; the per-round URL comes from stdin and any
	// --url value is ignored.
	watchCmd.Flags().AddFlagSet(runCmd.Flags())

	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, _ []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	rounds := 0

	for {
		fmt.Print("URL> ")
		if !scanner.Scan() {
			break
		}
		pageURL := strings.TrimSpace(scanner.Text())
		if pageURL == "" {
			break
		}

		if _, err := executeRound(ctx, cfg, pageURL); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		rounds++
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	if rounds == 0 {
		os.Exit(100)
	}
	return nil
}

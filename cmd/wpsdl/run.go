package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/stevechang0459/wps-pdf-downloader/internal/config"
	"github.com/stevechang0459/wps-pdf-downloader/internal/download"
	"github.com/stevechang0459/wps-pdf-downloader/internal/extract"
	"github.com/stevechang0459/wps-pdf-downloader/internal/fetch"
	"github.com/stevechang0459/wps-pdf-downloader/internal/localize"
	"github.com/stevechang0459/wps-pdf-downloader/internal/observability"
	"github.com/stevechang0459/wps-pdf-downloader/internal/round"
	"github.com/stevechang0459/wps-pdf-downloader/internal/transcript"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one download round against a page URL",
	Long:  "Fetches the page, extracts and filters links, and downloads every match into the output directory. Exit codes: 0 completed, 2 page fetch failed, 3 no matching links, 100 aborted.",
	RunE:  runRun,
}

var (
	runConfigPath string
	runURL        string
	runOut        string
	runExtensions []string
	runRetries    int
	runPolicy     string
	runBrowser    bool
	runLocalize   bool
	runTranscript bool
	runUserAgent  string
	runVerbose    bool
)

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Path to JSON config file")
	runCmd.Flags().StringVarP(&runURL, "url", "u", "", "Page URL to scan for downloadable links")
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "Output directory (blank: current directory)")
	runCmd.Flags().StringSliceVar(&runExtensions, "ext", nil, "Extension allow-list (default .pdf,.zip)")
	runCmd.Flags().IntVar(&runRetries, "retries", 0, "Attempts per file (default 3)")
	runCmd.Flags().StringVar(&runPolicy, "policy", "", "Collision policy: overwrite, rename, or skip (default overwrite)")
	runCmd.Flags().BoolVar(&runBrowser, "browser", false, "Render the page in a headless browser before extraction")
	runCmd.Flags().BoolVar(&runLocalize, "localize", false, "Save an offline copy of the page with localized images")
	runCmd.Flags().BoolVar(&runTranscript, "transcript", false, "Write a session transcript (log_<timestamp>.txt)")
	runCmd.Flags().StringVar(&runUserAgent, "user-agent", "", "Custom User-Agent header")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed progress")

	rootCmd.AddCommand(runCmd)
}

func runRun(_ *cobra.Command, _ []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	code, err := executeRound(context.Background(), cfg, cfg.URL)
	if err != nil {
		return err
	}
	if code != 0 {
		os.Exit(code)
	}
	return nil
}

// resolveConfig merges CLI flags over the optional config file over the
// built-in defaults, then validates the result.
func resolveConfig() (*config.Config, error) {
	flags := config.Config{
		URL:             runURL,
		Out:             runOut,
		Extensions:      runExtensions,
		MaxRetries:      runRetries,
		CollisionPolicy: runPolicy,
		UseBrowser:      runBrowser,
		Localize:        runLocalize,
		Transcript:      runTranscript,
		UserAgent:       runUserAgent,
		Verbose:         runVerbose,
	}

	merged := flags
	if runConfigPath != "" {
		fileCfg, err := config.Load(runConfigPath)
		if err != nil {
			return nil, err
		}
		merged = flags.MergeWithDefaults(*fileCfg)
	}
	merged = merged.MergeWithDefaults(config.Config{
		Extensions:      config.DefaultExtensions,
		MaxRetries:      config.DefaultMaxRetries,
		CollisionPolicy: config.DefaultCollisionPolicy,
		UserAgent:       fetch.DefaultUserAgent,
	})

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// executeRound runs one download round and returns the exit code for the
// round's outcome. An error return means setup failed before any round ran.
func executeRound(ctx context.Context, cfg *config.Config, pageURL string) (int, error) {
	outDir, err := config.ExpandOutputDir(cfg.Out)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}

	policy, err := download.ParsePolicy(cfg.CollisionPolicy)
	if err != nil {
		return 0, err
	}

	if cfg.Verbose {
		log.Printf("[VERBOSE] Output directory: %s", outDir)
		log.Printf("[VERBOSE] Collision policy: %s, retries per file: %d", policy, cfg.MaxRetries)
		log.Printf("[VERBOSE] Extension allow-list: %v", cfg.Extensions)
	}

	dl := download.New(download.Options{
		MaxRetries: cfg.MaxRetries,
		UserAgent:  cfg.UserAgent,
		Headers:    cfg.Headers,
	})
	fetcher := fetch.NewClient(&fetch.Options{
		Timeout:   fetch.DefaultTimeout,
		UserAgent: cfg.UserAgent,
		Headers:   cfg.Headers,
	}, cfg.UseBrowser, cfg.Verbose)

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintBanner(pageURL, outDir, cfg.Extensions, policy)

	observers := []round.Observer{printer}
	var session *transcript.Writer
	if cfg.Transcript {
		session, err = transcript.New(outDir, pageURL, time.Now())
		if err != nil {
			return 0, err
		}
		observers = append(observers, session)
	}

	runner := round.NewRunner(round.Config{
		OutputDir: outDir,
		Allowed:   extract.NewAllowSet(cfg.Extensions),
		Policy:    policy,
	}, fetcher, dl, observers...)

	res := runner.Run(ctx, pageURL)

	if cfg.Localize && res.Page != nil {
		lr, err := localize.Page(ctx, dl, res.Page.HTML, pageURL, outDir, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: page localization failed: %v\n", err)
		} else {
			fmt.Printf("Saved offline copy: %s (%d image(s) localized, %d left remote)\n",
				lr.PagePath, lr.Localized, lr.Failed)
		}
	}

	if session != nil {
		if err := session.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close transcript: %v\n", err)
		}
	}

	return res.Outcome.ExitCode(), nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/form-autofill/internal/config"
	"github.com/jonathan/form-autofill/internal/llm"
	"github.com/jonathan/form-autofill/internal/pipeline"
	"github.com/jonathan/form-autofill/internal/review"
	"github.com/jonathan/form-autofill/internal/store"
	"github.com/jonathan/form-autofill/internal/surface"
	"github.com/jonathan/form-autofill/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the form-fill pipeline against the current page",
	Long: `Attaches to a running Chrome (or a static HTML page for dry runs) and walks the form page by page: extraction -> resolution -> filling -> change monitoring -> review -> persistence.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath  string
	runDataFile    string
	runDryRun      string
	runChromePort  int
	runStartURL    string
	runAPIKey      string
	runModel       string
	runMonitorMS   int
	runNavPollMS   int
	runVerbose     bool
	runDatabaseURL string
	runAutoAccept  bool
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runDataFile, "data-file", "d", "", "Path to the profile document (JSON)")
	runCommand.Flags().StringVar(&runDryRun, "dry-run", "", "Path to a static HTML page; no browser is attached (mutually exclusive with --chrome-port)")
	runCommand.Flags().IntVarP(&runChromePort, "chrome-port", "p", 0, "Remote debugging port of a running Chrome instance")
	runCommand.Flags().StringVar(&runStartURL, "start-url", "", "Page URL reported during a dry run")
	runCommand.Flags().StringVar(&runModel, "model", "", "Text generation model name")
	runCommand.Flags().IntVar(&runMonitorMS, "monitor-interval-ms", 0, "Field change poll interval in milliseconds")
	runCommand.Flags().IntVar(&runNavPollMS, "nav-poll-ms", 0, "Navigation poll interval in milliseconds")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")
	runCommand.Flags().BoolVar(&runAutoAccept, "auto-accept", false, "Accept every review without prompting")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for the optional session ledger
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

// acceptAllReviewer accepts every page without prompting. Used by --auto-accept.
type acceptAllReviewer struct{}

func (acceptAllReviewer) PresentForReview(_ context.Context, aiItems, manualItems []types.PendingReviewItem) (bool, error) {
	fmt.Printf("Auto-accepting %d answer(s).\n", len(aiItems)+len(manualItems))
	return true, nil
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if runConfigPath != "" {
		loadedCfg, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
		if runVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", runConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("data-file") {
		cfg.DataFile = runDataFile
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = runDryRun
	}
	if cmd.Flags().Changed("chrome-port") {
		cfg.ChromeDebugPort = runChromePort
	}
	if cmd.Flags().Changed("start-url") {
		cfg.StartURL = runStartURL
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = runModel
	}
	if cmd.Flags().Changed("monitor-interval-ms") {
		cfg.MonitorIntervalMS = runMonitorMS
	}
	if cmd.Flags().Changed("nav-poll-ms") {
		cfg.NavPollMS = runNavPollMS
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if cmd.Flags().Changed("auto-accept") {
		cfg.AutoAccept = runAutoAccept
	}

	// Step 3: Apply defaults for unset values
	defaults := config.Config{
		DataFile: "user_profile.json",
		StartURL: "https://localhost/form",
	}
	if cfg.DryRun == "" {
		defaults.ChromeDebugPort = 9222
	}
	cfg = cfg.MergeWithDefaults(defaults)

	// Step 4: Validate the merged configuration
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Step 5: API Key handling. Without a key the AI tier is skipped and only
	// learned and profile answers are used.
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	// Step 6: Database URL handling (optional session ledger)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	profileStore, err := store.Open(cfg.DataFile, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to open profile store: %w", err)
	}

	surf, cleanup, err := buildSurface(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var client llm.Client
	if cfg.APIKey != "" {
		llmCfg := llm.DefaultConfig()
		if cfg.Model != "" {
			llmCfg.Model = cfg.Model
		}
		client, err = llm.NewClient(ctx, llmCfg, cfg.APIKey)
		if err != nil {
			return fmt.Errorf("failed to create text generation client: %w", err)
		}
		defer client.Close()
	} else {
		fmt.Printf("Warning: No API key configured, AI answer resolution disabled.\n")
	}

	var reviewer review.Reviewer
	if cfg.AutoAccept {
		reviewer = acceptAllReviewer{}
	} else {
		reviewer = review.NewTerminalReviewer()
	}

	orch := pipeline.New(pipeline.Options{
		Surface:         surf,
		Store:           profileStore,
		Client:          client,
		Reviewer:        reviewer,
		DatabaseURL:     cfg.DatabaseURL,
		NavPollInterval: msDuration(cfg.NavPollMS),
		MonitorInterval: msDuration(cfg.MonitorIntervalMS),
		Verbose:         cfg.Verbose,
	})

	// Ctrl-C finishes the current page through review before exiting.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		fmt.Printf("\nStop requested, finishing current page...\n")
		orch.Stop()
	}()
	defer signal.Stop(sigCh)

	return orch.Run(ctx)
}

// msDuration converts a millisecond count to a duration, zero meaning "use
// the pipeline default".
func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// buildSurface attaches to Chrome, or loads the dry-run page when one is
// configured.
func buildSurface(ctx context.Context, cfg config.Config) (surface.Surface, func(), error) {
	if cfg.DryRun != "" {
		html, err := os.ReadFile(cfg.DryRun)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read dry-run page: %w", err)
		}
		surf, err := surface.NewStatic(cfg.StartURL, string(html))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load dry-run page: %w", err)
		}
		fmt.Printf("Dry run: using static page %s\n", cfg.DryRun)
		return surf, func() {}, nil
	}

	surf, err := surface.ConnectChrome(ctx, cfg.ChromeDebugPort)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to attach to Chrome on port %d: %w", cfg.ChromeDebugPort, err)
	}
	fmt.Printf("Attached to Chrome on port %d\n", cfg.ChromeDebugPort)
	return surf, surf.Close, nil
}

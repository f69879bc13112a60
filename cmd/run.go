package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tannerhall/repowatch/internal/commentary"
	"github.com/tannerhall/repowatch/internal/config"
	"github.com/tannerhall/repowatch/internal/github"
	"github.com/tannerhall/repowatch/internal/history"
	"github.com/tannerhall/repowatch/internal/logging"
	"github.com/tannerhall/repowatch/internal/notify"
	"github.com/tannerhall/repowatch/internal/runner"
	"github.com/tannerhall/repowatch/internal/tracker"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the repository monitor daemon",
	Long: `Starts the repowatch monitor which periodically polls the configured
GitHub repositories, diffs new commits against the last-seen state, and
broadcasts notifications to the subscribed chat groups. Configuration is
re-read every cycle, so edits take effect without a restart.`,
	Run: func(cmd *cobra.Command, args []string) {
		runMonitor(cfgFile)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runMonitor(configPath string) {
	// Bootstrap snapshot: needed to initialize the logger itself.
	cfg, err := config.NewProvider(configPath, logging.NewNop()).Snapshot()
	if err != nil {
		// Use standard log since the logger isn't initialized yet.
		log.Fatalf("Error loading configuration: %v", err)
	}

	logging.InitializeLogger(cfg.LogLevel, cfg.LogFormat)
	logger := logging.Get()

	if !cfg.Plugin.Enable {
		logger.Warn("Monitor is disabled (plugin.enable=false). Exiting.")
		return
	}

	logger.Info("Configuration loaded", "repositories", len(cfg.Monitor.Repositories), "subscribers", len(cfg.Monitor.Subscribers), "interval", cfg.PollInterval())

	var recorder history.Recorder
	switch cfg.History.Sink {
	case "file":
		recorder, err = history.NewFileRecorder(cfg.History.Dir, logger)
	case "sql":
		recorder, err = history.NewSQLRecorder(cfg.History.DSN, logger)
	default:
		recorder = history.NewNoopRecorder()
	}
	if err != nil {
		logger.Error("Error initializing history recorder", "sink", cfg.History.Sink, "error", err)
		os.Exit(1)
	}
	logger.Info("History recorder initialized", "sink", cfg.History.Sink)

	fetcher := github.NewClient(cfg.GitHub.APIURL, logger)

	onebotClient := notify.NewOneBotClient(cfg.OneBot.APIURL, cfg.OneBot.AccessToken, logger)
	var commentator notify.Commentator
	if cfg.Commentary.APIURL != "" {
		commentator = commentary.NewClient(cfg.Commentary.APIURL, cfg.Commentary.APIKey, cfg.Commentary.Model, logger)
		logger.Info("Commentary generation available", "model", cfg.Commentary.Model)
	}

	dispatcher := notify.NewDispatcher(onebotClient, onebotClient, commentator, recorder, logger)
	revTracker := tracker.New(logger)

	// The runner re-reads configuration through this provider every cycle.
	provider := config.NewProvider(configPath, logger)
	monitor := runner.NewRunner(provider, fetcher, revTracker, dispatcher, logger)
	logger.Info("Monitor initialized. Starting main loop...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()

	sig := <-signalChan
	logger.Warn("Received signal, initiating shutdown...", "signal", sig)

	cancel()
	<-done

	if err := recorder.Close(); err != nil {
		logger.Error("Error closing history recorder", "error", err)
	}

	logger.Info("repowatch shut down gracefully.")
}

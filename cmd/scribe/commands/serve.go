package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spf13/cobra"

	"github.com/carelog/scribe/pkg/pipeline"
	"github.com/carelog/scribe/pkg/server"
	"github.com/carelog/scribe/pkg/session"
	"github.com/carelog/scribe/pkg/textgen"
	"github.com/carelog/scribe/pkg/transcribe"
)

var flagConfig string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the session ingestion server and processing pipeline",
	Long: `Run the HTTP ingestion server. Uploaded sessions are transcribed,
speaker-labeled, summarized, and reviewed against the clinician's notes in
the background; results land in the session store as they complete.

Example:
  scribe serve -c config.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&flagConfig, "config", "c", "config.yaml", "path to config file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if IsVerbose() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := LoadConfig(flagConfig)
	if err != nil {
		return err
	}

	completer, err := buildCompleter(cmd, cfg.Completer)
	if err != nil {
		return err
	}
	transcriber, err := buildTranscriber(cfg.Transcriber)
	if err != nil {
		return err
	}

	store, err := session.NewBadgerStore(session.BadgerOptions{Dir: cfg.BadgerDir})
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	runner := pipeline.NewRunner(store, transcriber, completer, cfg.Completer.Model)
	runner.Logger = logger

	srv := &server.Server{
		Store:   store,
		Runner:  runner,
		DataDir: cfg.DataDir,
		Logger:  logger,
	}
	logger.Info("scribe starting",
		"listen", cfg.Listen,
		"completer", cfg.Completer.Engine,
		"transcriber", cfg.Transcriber.Engine)
	return srv.ListenAndServe(cfg.Listen)
}

func buildCompleter(cmd *cobra.Command, cfg CompleterConfig) (textgen.Completer, error) {
	switch cfg.Engine {
	case "openai":
		return textgen.NewOpenAICompleter(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case "gemini":
		return textgen.NewGeminiCompleter(cmd.Context(), cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown completer engine: %q", cfg.Engine)
	}
}

func buildTranscriber(cfg TranscriberConfig) (transcribe.Transcriber, error) {
	switch cfg.Engine {
	case "assemblyai":
		return &transcribe.AssemblyAI{
			APIKey:           cfg.APIKey,
			SpeakerLabels:    true,
			SpeakersExpected: cfg.SpeakersExpected,
		}, nil
	case "whisper":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("transcriber.api_key is required for whisper")
		}
		client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
		return &transcribe.Whisper{
			Client: &client,
			Model:  openai.AudioModel(cfg.Model),
		}, nil
	default:
		return nil, fmt.Errorf("unknown transcriber engine: %q", cfg.Engine)
	}
}

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/ai"
	"github.com/ishitcode/hire/internal/ai/gemini"
	"github.com/ishitcode/hire/internal/api"
	"github.com/ishitcode/hire/internal/evaluation"
	"github.com/ishitcode/hire/internal/events"
	"github.com/ishitcode/hire/internal/interview"
	"github.com/ishitcode/hire/internal/logger"
	"github.com/ishitcode/hire/internal/metrics"
	"github.com/ishitcode/hire/internal/notify"
	"github.com/ishitcode/hire/internal/resilience"
	"github.com/ishitcode/hire/internal/secrets"
	"github.com/ishitcode/hire/internal/store"
	"github.com/ishitcode/hire/internal/voice"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the hire HTTP server",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address, e.g. :4000 (default from server.addr or PORT)")
	serveCmd.Flags().StringSlice("allowed-origin", nil, "CORS allowed origin, may be repeated")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("server.allowed-origins", serveCmd.Flags().Lookup("allowed-origin"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(logger.Config{
		JSON:    viper.GetBool("json"),
		Debug:   viper.GetBool("debug"),
		Command: "serve",
		Version: version,
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the hire server", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	m := metrics.New()

	st, err := store.New(ctx, config.Storage, logger)
	if err != nil {
		logger.Fatal("opening audit storage", zap.Error(err))
	}
	defer st.Close()

	evaluator, analyzer, err := newAI(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal(
			"configuring the ai provider",
			zap.Error(err),
			zap.String("hint", "set GOOGLE_API_KEY or the 'ai.gemini.api-key-file' key in the configuration file"),
		)
	}

	voiceProvider, err := newVoiceProvider(config.Voice, logger)
	if err != nil {
		logger.Fatal("configuring the voice provider", zap.Error(err))
	}

	sender, err := newSMSSender(config.SMS)
	if err != nil {
		logger.Fatal("configuring sms notifications", zap.Error(err))
	}
	if sender == nil {
		logger.Info("twilio not configured, sms notifications and phone validation are disabled")
	}
	dispatcher := notify.NewDispatcher(sender, logger.Named("notify"), m)

	publisher := events.New(&config.Events, logger.Named("events"))
	defer publisher.Close()

	service := evaluation.NewService(evaluator, logger.Named("evaluation"),
		evaluation.WithNotifier(dispatcher),
		evaluation.WithAudit(st),
		evaluation.WithPublisher(publisher),
		evaluation.WithRecorder(m),
	)

	server := api.New(config.Server, api.Dependencies{
		Evaluator: service,
		Analyzer:  analyzer,
		Voice:     voiceProvider,
		Resumes:   st,
		Builder:   interview.NewBuilder(nil, config.Interview.DefaultSummary),
		Metrics:   m,
		Logger:    logger,
	})

	if err := server.ListenAndServe(ctx); err != nil {
		logger.Fatal("serving http", zap.Error(err))
	}
}

func newAI(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Evaluator, ai.Analyzer, error) {
	if cfg == nil {
		cfg = &AIConfig{}
	}
	if cfg.Gemini == nil {
		cfg.Gemini = &GeminiConfig{}
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, nil, err
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, log.Named("gemini"))
	if err != nil {
		return nil, nil, err
	}

	aiLogger := logger.WithCommonFields(log, "gemini", generator.Model())
	aiLogger.Info("ai provider configured", zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	return gemini.NewEvaluator(generator, aiLogger, cfg.Gemini.MaxLogLength),
		gemini.NewAnalyzer(generator, aiLogger, cfg.Gemini.MaxLogLength),
		nil
}

// newVoiceProvider returns nil when no provider url is configured; the call
// routes then answer 503.
func newVoiceProvider(cfg voice.Config, log *zap.Logger) (api.VoiceProvider, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		log.Warn("voice provider not configured, interview call routes are disabled",
			zap.String("hint", "set VOICE_API_URL or the 'voice.base-url' key in the configuration file"),
		)
		return nil, nil
	}

	apiKey, err := secrets.LoadOptional(secrets.Source{
		Name:  "voice api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
	})
	if err != nil {
		return nil, err
	}
	cfg.APIKey = apiKey

	voiceLogger := log.Named("voice")
	client, err := voice.New(cfg, resilience.NewExecutor(cfg.Resilience, voiceLogger), voiceLogger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newSMSSender(cfg SMSConfig) (notify.Sender, error) {
	token, err := secrets.LoadOptional(secrets.Source{
		Name:  "twilio auth token",
		Value: cfg.AuthToken,
		File:  cfg.AuthTokenFile,
	})
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.AccountSID) == "" || token == "" || strings.TrimSpace(cfg.From) == "" {
		if cfg.AccountSID != "" || token != "" || cfg.From != "" {
			return nil, errors.New("twilio needs account sid, auth token and sender phone number together")
		}
		return nil, nil
	}

	sender, err := notify.NewTwilioSender(cfg.AccountSID, token, cfg.From)
	if err != nil {
		return nil, err
	}
	return sender, nil
}

// redacted copies the config with secrets masked for debug output.
func redacted(config *Config) Config {
	out := *config
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}

	if config.AI != nil {
		aiConfig := *config.AI
		if aiConfig.Gemini != nil {
			g := *aiConfig.Gemini
			g.APIKey = mask(g.APIKey)
			aiConfig.Gemini = &g
		}
		out.AI = &aiConfig
	}
	out.Voice.APIKey = mask(out.Voice.APIKey)
	out.SMS.AuthToken = mask(out.SMS.AuthToken)
	out.Storage.Postgres.DSN = mask(out.Storage.Postgres.DSN)

	return out
}

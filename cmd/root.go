package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ishitcode/hire/internal/api"
	"github.com/ishitcode/hire/internal/events"
	"github.com/ishitcode/hire/internal/session"
	"github.com/ishitcode/hire/internal/store"
	"github.com/ishitcode/hire/internal/voice"
)

const (
	app = "hire"
)

type Config struct {
	Server    api.Config     `mapstructure:"server"`
	Port      string         `mapstructure:"port"`
	API       APIConfig      `mapstructure:"api"`
	AI        *AIConfig      `mapstructure:"ai"`
	Voice     voice.Config   `mapstructure:"voice"`
	SMS       SMSConfig      `mapstructure:"sms"`
	Storage   store.Config   `mapstructure:"storage"`
	Events    events.Config  `mapstructure:"events"`
	Interview session.Config `mapstructure:"interview"`
}

// APIConfig points the client commands at a running server.
type APIConfig struct {
	BaseURL string        `mapstructure:"base-url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type SMSConfig struct {
	AccountSID    string `mapstructure:"account-sid"`
	AuthToken     string `mapstructure:"auth-token"`
	AuthTokenFile string `mapstructure:"auth-token-file"`
	From          string `mapstructure:"from"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hire screens resumes, runs AI phone interviews and evaluates them",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

var envBindings = map[string]string{
	"port":                   "PORT",
	"api.base-url":           "HIRE_API_URL",
	"ai.gemini.api-key":      "GOOGLE_API_KEY",
	"ai.gemini.model":        "GEMINI_MODEL",
	"voice.base-url":         "VOICE_API_URL",
	"voice.api-key":          "VOICE_API_KEY",
	"sms.account-sid":        "TWILIO_ACCOUNT_SID",
	"sms.auth-token":         "TWILIO_AUTH_TOKEN",
	"sms.from":               "TWILIO_PHONE_NUMBER",
	"storage.driver":         "STORAGE_DRIVER",
	"storage.postgres.dsn":   "DATABASE_URL",
	"events.brokers":         "KAFKA_BROKERS",
	"interview.phone-number": "CANDIDATE_PHONE_NUMBER",
}

func init() {
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hire.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("api-url", "http://localhost:4000", "base url of the hire server used by client commands")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("api.base-url", rootCmd.PersistentFlags().Lookup("api-url"))
}

func initConfig() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional, but an explicit or malformed one must parse.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}

	if config.Server.Addr == "" && strings.TrimSpace(config.Port) != "" {
		config.Server.Addr = ":" + strings.TrimSpace(config.Port)
	}
	if len(config.Events.Brokers) == 1 && strings.Contains(config.Events.Brokers[0], ",") {
		config.Events.Brokers = strings.Split(config.Events.Brokers[0], ",")
	}

	return config, nil
}

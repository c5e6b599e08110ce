package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"contenthub"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"contenthub"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	EnableReplayWorker bool   `envconfig:"ENABLE_REPLAY_WORKER" default:"true"`
	MigrationPath      string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Ingestion
	DefaultLanguage   string `envconfig:"DEFAULT_LANGUAGE" default:"fr"`
	TaxonomyPath      string `envconfig:"TAXONOMY_PATH"`
	WebhookRequireKey bool   `envconfig:"WEBHOOK_REQUIRE_KEY" default:"true"`
	MaxBodyBytes      int64  `envconfig:"MAX_BODY_BYTES" default:"2097152"` // 2MB

	// Text generation
	GeneratorProvider       string `envconfig:"GENERATOR_PROVIDER" default:"anthropic"`
	AnthropicAPIKey         string `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicModel          string `envconfig:"ANTHROPIC_MODEL" default:"claude-sonnet-4-5"`
	GeminiAPIKey            string `envconfig:"GEMINI_API_KEY"`
	GeminiModel             string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	GeneratorTimeoutSeconds int    `envconfig:"GENERATOR_TIMEOUT_SECONDS" default:"120"`

	// Notion
	NotionAPIKey            string  `envconfig:"NOTION_API_KEY"`
	NotionBaseURL           string  `envconfig:"NOTION_BASE_URL" default:"https://api.notion.com"`
	NotionRequestsPerSecond float64 `envconfig:"NOTION_REQUESTS_PER_SECOND" default:"3"`

	// Server
	ServerPort int `envconfig:"SERVER_PORT" default:"8081"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Ignore errors, env vars might be set in the shell
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	rootEnv := filepath.Join(cwd, "../../.env")
	_ = godotenv.Load(rootEnv)

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if len(c.DefaultLanguage) != 2 {
		return fmt.Errorf("%w: DEFAULT_LANGUAGE must be a two-letter tag", ErrMissingRequired)
	}
	switch c.GeneratorProvider {
	case "anthropic", "gemini":
	default:
		return fmt.Errorf("%w: GENERATOR_PROVIDER must be anthropic or gemini", ErrMissingRequired)
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName)
}

func (c *Config) GeneratorTimeout() time.Duration {
	if c.GeneratorTimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.GeneratorTimeoutSeconds) * time.Second
}

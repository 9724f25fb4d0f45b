package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Analysis struct {
		Concurrency int           `yaml:"concurrency" json:"concurrency" jsonschema:"default=10,minimum=1,description=Maximum concurrent classification requests"`
		MaxAttempts int           `yaml:"max_attempts" json:"max_attempts" jsonschema:"default=4,minimum=1,description=Classification attempts per repo including the first"`
		BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay" jsonschema:"default=1s,description=Initial retry backoff delay"`
		MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay" jsonschema:"default=30s,description=Retry backoff delay cap"`
		CacheDir    string        `yaml:"cache_dir" json:"cache_dir" jsonschema:"default=.starscope/cache,description=Directory for per-repo analysis cache"`
	} `yaml:"analysis" json:"analysis" jsonschema:"description=Analysis pipeline configuration"`

	LLM LLMConfig `yaml:"llm" json:"llm" jsonschema:"description=LLM configuration for repo classification"`

	Stars struct {
		Limit    int           `yaml:"limit" json:"limit" jsonschema:"default=0,description=Maximum starred repos to fetch (0 for all)"`
		ListTTL  time.Duration `yaml:"list_ttl" json:"list_ttl" jsonschema:"default=24h,description=How long the fetched star list stays fresh"`
		GHBinary string        `yaml:"gh_binary" json:"gh_binary" jsonschema:"default=gh,description=Path to the gh CLI binary"`
	} `yaml:"stars" json:"stars" jsonschema:"description=Starred repo fetching configuration"`

	Database struct {
		DSN string `yaml:"dsn" json:"dsn" jsonschema:"default=file:starscope.db?cache=shared&mode=rwc,description=Database connection string"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Sync struct {
		ListPrefix string `yaml:"list_prefix" json:"list_prefix" jsonschema:"default=★,description=Prefix marking lists managed by starscope"`
		BatchSize  int    `yaml:"batch_size" json:"batch_size" jsonschema:"default=10,minimum=1,description=Repos per list-mutation call"`
	} `yaml:"sync" json:"sync" jsonschema:"description=GitHub Lists synchronization configuration"`

	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry" jsonschema:"description=Optional analytics for classifier calls"`
}

// LLMConfig holds LLM access settings for repo classification
type LLMConfig struct {
	Endpoint    string        `yaml:"endpoint" json:"endpoint" jsonschema:"description=OpenAI-compatible API endpoint (empty for api.openai.com)"`
	APIKey      string        `yaml:"api_key" json:"api_key" jsonschema:"required,description=API key (can use environment variable)"`
	Model       string        `yaml:"model" json:"model" jsonschema:"required,description=Model name (e.g. gpt-4o-mini)"`
	Temperature float64       `yaml:"temperature" json:"temperature" jsonschema:"default=0.2,description=Temperature for response generation"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=400,description=Maximum tokens in response"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=60s,description=Per-request timeout"`
}

// TelemetryConfig enables the classifier telemetry decorator when Endpoint is set
type TelemetryConfig struct {
	Endpoint string `yaml:"endpoint" json:"endpoint" jsonschema:"description=Analytics collector URL (empty disables telemetry)"`
	APIKey   string `yaml:"api_key" json:"api_key" jsonschema:"description=Analytics API key"`
}

// Enabled reports whether the telemetry decorator should be constructed
func (t TelemetryConfig) Enabled() bool {
	return t.Endpoint != ""
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Analysis.Concurrency == 0 {
		c.Analysis.Concurrency = 10
	}
	if c.Analysis.MaxAttempts == 0 {
		c.Analysis.MaxAttempts = 4
	}
	if c.Analysis.BaseDelay == 0 {
		c.Analysis.BaseDelay = time.Second
	}
	if c.Analysis.MaxDelay == 0 {
		c.Analysis.MaxDelay = 30 * time.Second
	}
	if c.Analysis.CacheDir == "" {
		c.Analysis.CacheDir = ".starscope/cache"
	}

	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.2
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 400
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 60 * time.Second
	}

	if c.Stars.ListTTL == 0 {
		c.Stars.ListTTL = 24 * time.Hour
	}
	if c.Stars.GHBinary == "" {
		c.Stars.GHBinary = "gh"
	}

	if c.Database.DSN == "" {
		c.Database.DSN = "file:starscope.db?cache=shared&mode=rwc&_txlock=immediate"
	}

	if c.Sync.ListPrefix == "" {
		c.Sync.ListPrefix = "★"
	}
	if c.Sync.BatchSize == 0 {
		c.Sync.BatchSize = 10
	}
}

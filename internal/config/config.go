package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	RapidAPI   RapidAPIConfig   `yaml:"rapidapi" mapstructure:"rapidapi"`
	Snov       SnovConfig       `yaml:"snov" mapstructure:"snov"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Prompts    PromptsConfig    `yaml:"prompts" mapstructure:"prompts"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// RapidAPIConfig holds the LinkedIn data API settings.
type RapidAPIConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	Host              string  `yaml:"host" mapstructure:"host"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// SnovConfig holds Snov.io credentials and polling behavior.
type SnovConfig struct {
	ClientID          string        `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret      string        `yaml:"client_secret" mapstructure:"client_secret"`
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	ListID            string        `yaml:"list_id" mapstructure:"list_id"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	PhaseBDelay       time.Duration `yaml:"phase_b_delay" mapstructure:"phase_b_delay"`
	PollInterval      time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	PollTimeout       time.Duration `yaml:"poll_timeout" mapstructure:"poll_timeout"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	InputPrice  float64 `yaml:"input_price_per_mtok" mapstructure:"input_price_per_mtok"`
	OutputPrice float64 `yaml:"output_price_per_mtok" mapstructure:"output_price_per_mtok"`
}

// NotionConfig holds the optional FinalData mirror settings.
type NotionConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Token   string `yaml:"token" mapstructure:"token"`
	FinalDB string `yaml:"final_db" mapstructure:"final_db"`
}

// SalesforceConfig holds the optional Lead export settings.
type SalesforceConfig struct {
	Enabled       bool   `yaml:"enabled" mapstructure:"enabled"`
	ClientID      string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret  string `yaml:"client_secret" mapstructure:"client_secret"`
	Username      string `yaml:"username" mapstructure:"username"`
	Password      string `yaml:"password" mapstructure:"password"`
	SecurityToken string `yaml:"security_token" mapstructure:"security_token"`
	LoginURL      string `yaml:"login_url" mapstructure:"login_url"`
}

// RetryConfig mirrors resilience.Policy for file/env configuration.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	Multiplier     float64       `yaml:"multiplier" mapstructure:"multiplier"`
}

// PipelineConfig configures stage thresholds and throttling.
type PipelineConfig struct {
	MinCompanies        int           `yaml:"min_companies" mapstructure:"min_companies"`
	MaxAttempts         int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	ICPMaxEmployees     int           `yaml:"icp_max_employees" mapstructure:"icp_max_employees"`
	PostFreshness       time.Duration `yaml:"post_freshness" mapstructure:"post_freshness"`
	QuestionnaireWindow time.Duration `yaml:"questionnaire_window" mapstructure:"questionnaire_window"`
	PeopleTargetMin     int           `yaml:"people_target_min" mapstructure:"people_target_min"`
	PeopleTargetMax     int           `yaml:"people_target_max" mapstructure:"people_target_max"`
	ProfileDelay        time.Duration `yaml:"profile_delay" mapstructure:"profile_delay"`
	PostDelay           time.Duration `yaml:"post_delay" mapstructure:"post_delay"`
	FallbackEmailDomain string        `yaml:"fallback_email_domain" mapstructure:"fallback_email_domain"`
	SkipQuestionnaire   bool          `yaml:"skip_questionnaire" mapstructure:"skip_questionnaire"`
	Retry               RetryConfig   `yaml:"retry" mapstructure:"retry"`
}

// PromptsConfig points at an optional prompt override file.
type PromptsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	// .env is optional; values already in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.sqlite_path", "leadgen.db")

	v.SetDefault("rapidapi.key", "")
	v.SetDefault("rapidapi.host", "linkedin-data-api.p.rapidapi.com")
	v.SetDefault("rapidapi.base_url", "https://linkedin-data-api.p.rapidapi.com")
	v.SetDefault("rapidapi.requests_per_second", 2.0)

	v.SetDefault("snov.client_id", "")
	v.SetDefault("snov.client_secret", "")
	v.SetDefault("snov.base_url", "https://api.snov.io")
	v.SetDefault("snov.list_id", "")
	v.SetDefault("snov.requests_per_second", 1.0)
	v.SetDefault("snov.phase_b_delay", 30*time.Second)
	v.SetDefault("snov.poll_interval", 5*time.Second)
	v.SetDefault("snov.poll_timeout", 2*time.Minute)

	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 5000)
	v.SetDefault("anthropic.temperature", 0.0)
	v.SetDefault("anthropic.input_price_per_mtok", 3.0)
	v.SetDefault("anthropic.output_price_per_mtok", 15.0)

	v.SetDefault("notion.enabled", false)
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.final_db", "")

	v.SetDefault("salesforce.enabled", false)
	v.SetDefault("salesforce.client_id", "")
	v.SetDefault("salesforce.client_secret", "")
	v.SetDefault("salesforce.username", "")
	v.SetDefault("salesforce.password", "")
	v.SetDefault("salesforce.security_token", "")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")

	v.SetDefault("pipeline.min_companies", 50)
	v.SetDefault("pipeline.max_attempts", 3)
	v.SetDefault("pipeline.icp_max_employees", 200)
	v.SetDefault("pipeline.post_freshness", 30*24*time.Hour)
	v.SetDefault("pipeline.questionnaire_window", 60*24*time.Hour)
	v.SetDefault("pipeline.people_target_min", 5)
	v.SetDefault("pipeline.people_target_max", 10)
	v.SetDefault("pipeline.profile_delay", 2*time.Second)
	v.SetDefault("pipeline.post_delay", time.Second)
	v.SetDefault("pipeline.fallback_email_domain", "yopmail.com")
	v.SetDefault("pipeline.skip_questionnaire", false)
	v.SetDefault("pipeline.retry.max_attempts", 5)
	v.SetDefault("pipeline.retry.initial_backoff", 2*time.Second)
	v.SetDefault("pipeline.retry.max_backoff", time.Minute)
	v.SetDefault("pipeline.retry.multiplier", 2.0)

	v.SetDefault("prompts.path", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks required fields for the given command mode.
// Modes: "run" (full pipeline), "serve" (run API), "migrate" (store only).
func (c *Config) Validate(mode string) error {
	var errs []string

	require := func(val, name string) {
		if strings.TrimSpace(val) == "" {
			errs = append(errs, name+" is required")
		}
	}

	switch c.Store.Driver {
	case "sqlite":
		require(c.Store.SQLitePath, "store.sqlite_path")
	case "postgres":
		require(c.Store.DatabaseURL, "store.database_url")
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}

	switch mode {
	case "migrate":
	case "run", "serve":
		require(c.RapidAPI.Key, "rapidapi.key")
		require(c.Snov.ClientID, "snov.client_id")
		require(c.Snov.ClientSecret, "snov.client_secret")
		require(c.Anthropic.Key, "anthropic.key")
		if c.Notion.Enabled {
			require(c.Notion.Token, "notion.token")
			require(c.Notion.FinalDB, "notion.final_db")
		}
		if c.Salesforce.Enabled {
			require(c.Salesforce.ClientID, "salesforce.client_id")
			require(c.Salesforce.Username, "salesforce.username")
		}
		if mode == "serve" && c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	p := c.Pipeline
	if p.MinCompanies < 1 {
		errs = append(errs, "pipeline.min_companies must be >= 1")
	}
	if p.MaxAttempts < 1 {
		errs = append(errs, "pipeline.max_attempts must be >= 1")
	}
	if p.PeopleTargetMax < p.PeopleTargetMin {
		errs = append(errs, "pipeline.people_target_max must be >= people_target_min")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

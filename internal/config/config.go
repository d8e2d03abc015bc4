package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/legalcrawl/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	OutputDir    string          `yaml:"output_dir" mapstructure:"output_dir"`
	ArchiveDir   string          `yaml:"archive_dir" mapstructure:"archive_dir"`
	ProgressFile string          `yaml:"progress_file" mapstructure:"progress_file"`
	MaxFiles     int             `yaml:"max_files" mapstructure:"max_files"`
	Fetch        FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Anthropic    AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Detect       DetectConfig    `yaml:"detect" mapstructure:"detect"`
	Pricing      cost.Rates      `yaml:"pricing" mapstructure:"pricing"`
	Log          LogConfig       `yaml:"log" mapstructure:"log"`
}

// FetchConfig configures the dataset host and download throttling.
type FetchConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	CrawlName         string  `yaml:"crawl_name" mapstructure:"crawl_name"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	MaxListedPaths    int     `yaml:"max_listed_paths" mapstructure:"max_listed_paths"`
}

// AnthropicConfig holds Anthropic API settings for clause classification.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// DetectConfig configures the filtering thresholds.
type DetectConfig struct {
	// MinConfidence is the phase-2 deep-detection threshold.
	MinConfidence float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	// MinTextLength is the minimum clean-text length for phase-2 scoring.
	MinTextLength int `yaml:"min_text_length" mapstructure:"min_text_length"`
	// MinAnalysisTextLength is the minimum clean-text length for phase-3
	// classification.
	MinAnalysisTextLength int `yaml:"min_analysis_text_length" mapstructure:"min_analysis_text_length"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEGALCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("output_dir", "analysis_output")
	v.SetDefault("archive_dir", "warc_files")
	v.SetDefault("progress_file", "analysis_progress.json")
	v.SetDefault("max_files", 5)
	v.SetDefault("fetch.base_url", "https://data.commoncrawl.org")
	v.SetDefault("fetch.crawl_name", "CC-MAIN-2025-08")
	v.SetDefault("fetch.timeout_secs", 600)
	v.SetDefault("fetch.requests_per_second", 2)
	v.SetDefault("fetch.max_listed_paths", 90000)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2000)
	v.SetDefault("anthropic.temperature", 0.1)
	v.SetDefault("detect.min_confidence", 0.3)
	v.SetDefault("detect.min_text_length", 30)
	v.SetDefault("detect.min_analysis_text_length", 200)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
	if cfg.Pricing == nil {
		cfg.Pricing = cost.DefaultRates()
	}

	return &cfg, nil
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

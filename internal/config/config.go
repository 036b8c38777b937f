// Package config loads and validates jobsift configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"jobsift/internal/assist"
	"jobsift/internal/classify"
	"jobsift/internal/crawler"
	"jobsift/internal/extract"
	"jobsift/internal/fetch"
	"jobsift/internal/sink"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig   `mapstructure:"server"`
	Logging   LoggingConfig  `mapstructure:"logging"`
	Crawl     CrawlConfig    `mapstructure:"crawl"`
	Fetch     FetchConfig    `mapstructure:"fetch"`
	Render    RenderConfig   `mapstructure:"render"`
	Classify  ClassifyConfig `mapstructure:"classify"`
	Assist    AssistConfig   `mapstructure:"assist"`
	Extract   ExtractConfig  `mapstructure:"extract"`
	Output    OutputConfig   `mapstructure:"output"`
	Snapshots SnapshotConfig `mapstructure:"snapshots"`
}

// ServerConfig controls the status HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// CrawlConfig governs frontier budgets and link admission.
type CrawlConfig struct {
	Seeds             []string `mapstructure:"seeds"`
	AllowedHosts      []string `mapstructure:"allowed_hosts"`
	MaxDepth          int      `mapstructure:"max_depth"`
	MaxPages          int      `mapstructure:"max_pages"`
	MaxPagesPerHost   int      `mapstructure:"max_pages_per_host"`
	RunTimeoutSeconds int      `mapstructure:"run_timeout_seconds"`
	MaxLinksPerPage   int      `mapstructure:"max_links_per_page"`
	SnapshotRecords   bool     `mapstructure:"snapshot_records"`
}

// FetchConfig configures the static HTTP fetch path.
type FetchConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Concurrency    int    `mapstructure:"concurrency"`
	DelayMs        int    `mapstructure:"delay_ms"`
}

// RenderConfig configures the headless rendering subsystem.
type RenderConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	TimeoutSeconds  int      `mapstructure:"timeout_seconds"`
	Concurrency     int      `mapstructure:"concurrency"`
	HostQPS         float64  `mapstructure:"host_qps"`
	DetectMinBytes  int      `mapstructure:"detect_min_html_bytes"`
	DetectKeywords  []string `mapstructure:"detect_keywords"`
	DetectSelectors []string `mapstructure:"detect_selectors"`
}

// ClassifyConfig sets heuristic acceptance thresholds.
type ClassifyConfig struct {
	ListingThreshold float64 `mapstructure:"listing_threshold"`
	DetailThreshold  float64 `mapstructure:"detail_threshold"`
	AmbiguousLow     float64 `mapstructure:"ambiguous_low"`
	AmbiguousHigh    float64 `mapstructure:"ambiguous_high"`
}

// AssistConfig configures the optional model-backed labeling service.
type AssistConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Endpoint         string `mapstructure:"endpoint"`
	Model            string `mapstructure:"model"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MaxFragmentBytes int    `mapstructure:"max_fragment_bytes"`
}

// ExtractConfig bounds description extraction.
type ExtractConfig struct {
	MaxDescriptionChars int `mapstructure:"max_description_chars"`
	MinDescriptionChars int `mapstructure:"min_description_chars"`
}

// OutputConfig selects where validated records land. Multiple outputs may be
// enabled at once.
type OutputConfig struct {
	JSONLPath   string           `mapstructure:"jsonl_path"`
	HTTP        OutputHTTPConfig `mapstructure:"http"`
	PostgresDSN string           `mapstructure:"postgres_dsn"`
}

// OutputHTTPConfig configures the ingest-endpoint sink.
type OutputHTTPConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// SnapshotConfig selects where raw page HTML is archived.
type SnapshotConfig struct {
	Dir       string `mapstructure:"dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// Load builds a Config from disk/environment. Environment variables use the
// JOBSIFT_ prefix with dots replaced by underscores.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("JOBSIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("crawl.max_depth", 3)
	v.SetDefault("crawl.max_pages", 200)
	v.SetDefault("crawl.max_pages_per_host", 0)
	v.SetDefault("crawl.run_timeout_seconds", 0)
	v.SetDefault("crawl.max_links_per_page", 100)
	v.SetDefault("crawl.snapshot_records", false)
	v.SetDefault("fetch.user_agent", "jobsift-bot/0.1")
	v.SetDefault("fetch.timeout_seconds", 15)
	v.SetDefault("fetch.concurrency", 4)
	v.SetDefault("fetch.delay_ms", 500)
	v.SetDefault("render.enabled", false)
	v.SetDefault("render.timeout_seconds", 25)
	v.SetDefault("render.concurrency", 1)
	v.SetDefault("render.host_qps", 0.5)
	v.SetDefault("render.detect_min_html_bytes", 2048)
	v.SetDefault("render.detect_keywords", []string{"__NEXT_DATA__", "ng-app", "data-reactroot"})
	v.SetDefault("classify.listing_threshold", 0.5)
	v.SetDefault("classify.detail_threshold", 0.5)
	v.SetDefault("classify.ambiguous_low", 0.35)
	v.SetDefault("classify.ambiguous_high", 0.65)
	v.SetDefault("assist.enabled", false)
	v.SetDefault("assist.endpoint", "http://localhost:11434/api/chat")
	v.SetDefault("assist.model", "llama3.1")
	v.SetDefault("assist.timeout_seconds", 30)
	v.SetDefault("assist.max_fragment_bytes", 8000)
	v.SetDefault("extract.max_description_chars", 2000)
	v.SetDefault("extract.min_description_chars", 100)
	v.SetDefault("output.jsonl_path", "jobs.jsonl")
	v.SetDefault("output.http.timeout_seconds", 10)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if len(c.Crawl.Seeds) == 0 {
		return fmt.Errorf("crawl.seeds must not be empty")
	}
	if c.Crawl.MaxDepth < 0 {
		return fmt.Errorf("crawl.max_depth must be >= 0")
	}
	if c.Crawl.MaxPages <= 0 {
		return fmt.Errorf("crawl.max_pages must be > 0")
	}
	if c.Fetch.UserAgent == "" {
		return fmt.Errorf("fetch.user_agent must be set")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Render.Enabled && c.Render.Concurrency <= 0 {
		return fmt.Errorf("render.concurrency must be > 0 when render is enabled")
	}
	if c.Classify.AmbiguousLow > c.Classify.AmbiguousHigh {
		return fmt.Errorf("classify.ambiguous_low must be <= classify.ambiguous_high")
	}
	if c.Assist.Enabled && c.Assist.Endpoint == "" {
		return fmt.Errorf("assist.endpoint must be set when assist is enabled")
	}
	if c.Output.JSONLPath == "" && c.Output.HTTP.Endpoint == "" && c.Output.PostgresDSN == "" {
		return fmt.Errorf("at least one output must be configured")
	}
	return nil
}

// CrawlerConfig converts the crawl section into the engine's config struct.
func (c Config) CrawlerConfig() crawler.Config {
	return crawler.Config{
		Seeds:           c.Crawl.Seeds,
		AllowedHosts:    c.Crawl.AllowedHosts,
		MaxDepth:        c.Crawl.MaxDepth,
		MaxPages:        c.Crawl.MaxPages,
		MaxPagesPerHost: c.Crawl.MaxPagesPerHost,
		RunTimeout:      time.Duration(c.Crawl.RunTimeoutSeconds) * time.Second,
		RequestTimeout:  time.Duration(c.Fetch.TimeoutSeconds) * time.Second,
		RenderEnabled:   c.Render.Enabled,
		RenderTimeout:   time.Duration(c.Render.TimeoutSeconds) * time.Second,
		MaxLinksPerPage: c.Crawl.MaxLinksPerPage,
		SnapshotRecords: c.Crawl.SnapshotRecords,
	}
}

// FetchConfig converts the fetch and render sections into fetch.Config.
func (c Config) FetchConfig() fetch.Config {
	return fetch.Config{
		UserAgent:          c.Fetch.UserAgent,
		RequestTimeout:     time.Duration(c.Fetch.TimeoutSeconds) * time.Second,
		Concurrency:        c.Fetch.Concurrency,
		DelayPerHost:       time.Duration(c.Fetch.DelayMs) * time.Millisecond,
		RenderTimeout:      time.Duration(c.Render.TimeoutSeconds) * time.Second,
		RenderConcurrency:  c.Render.Concurrency,
		RenderHostQPS:      c.Render.HostQPS,
		DetectMinHTMLBytes: c.Render.DetectMinBytes,
		DetectKeywords:     c.Render.DetectKeywords,
		DetectSelectors:    c.Render.DetectSelectors,
	}
}

// ClassifierConfig converts the classify section into the heuristic config.
func (c Config) ClassifierConfig() classify.Config {
	return classify.Config{
		ListingThreshold: c.Classify.ListingThreshold,
		DetailThreshold:  c.Classify.DetailThreshold,
	}
}

// AssistedConfig converts the classify section into the ambiguous-band config.
func (c Config) AssistedConfig() classify.AssistedConfig {
	return classify.AssistedConfig{
		AmbiguousLow:  c.Classify.AmbiguousLow,
		AmbiguousHigh: c.Classify.AmbiguousHigh,
		Timeout:       time.Duration(c.Assist.TimeoutSeconds) * time.Second,
	}
}

// AssistClientConfig converts the assist section into the Ollama client config.
func (c Config) AssistClientConfig() assist.Config {
	return assist.Config{
		Endpoint:         c.Assist.Endpoint,
		Model:            c.Assist.Model,
		Timeout:          time.Duration(c.Assist.TimeoutSeconds) * time.Second,
		MaxFragmentBytes: c.Assist.MaxFragmentBytes,
	}
}

// ExtractorConfig converts the extract and assist sections into extract.Config.
func (c Config) ExtractorConfig() extract.Config {
	return extract.Config{
		MaxDescriptionChars: c.Extract.MaxDescriptionChars,
		MinDescriptionChars: c.Extract.MinDescriptionChars,
		AssistTimeout:       time.Duration(c.Assist.TimeoutSeconds) * time.Second,
	}
}

// HTTPSinkConfig converts the output.http section into sink.HTTPConfig.
func (c Config) HTTPSinkConfig() sink.HTTPConfig {
	return sink.HTTPConfig{
		Endpoint: c.Output.HTTP.Endpoint,
		APIKey:   c.Output.HTTP.APIKey,
		Timeout:  time.Duration(c.Output.HTTP.TimeoutSeconds) * time.Second,
	}
}

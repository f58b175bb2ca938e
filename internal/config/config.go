package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv        = "LACARTE_CONFIG"
	redditTokenEnv       = "REDDIT_TOKEN"
	legacyRedditTokenEnv = "HARDCODED_REDDIT_TOKEN"
	openAIKeyEnv         = "OPENAI_API_KEY"
	chatModelEnv         = "CHAT_MODEL"
	hfTokenEnv           = "HF_TOKEN"
	embeddingProviderEnv = "EMBEDDING_PROVIDER"
	listenAddrEnv        = "LISTEN_ADDR"
	serverURLEnv         = "LACARTE_SERVER_URL"
	logLevelEnv          = "LOG_LEVEL"
	redditRPSEnv         = "REDDIT_REQUESTS_PER_SECOND"
)

// Embedding providers understood by the projector wiring.
const (
	ProviderOpenAI      = "openai"
	ProviderHuggingFace = "huggingface"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Client     ClientConfig     `yaml:"client"`
	Reddit     RedditConfig     `yaml:"reddit"`
	Chat       ChatConfig       `yaml:"chat"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig describes the HTTP surface and the server cache tier.
type ServerConfig struct {
	ListenAddr  string        `yaml:"listenAddr"`
	CookieName  string        `yaml:"cookieName"`
	StaleWindow time.Duration `yaml:"staleWindow"`
}

// ClientConfig describes the CLI client and its durable cache tier.
type ClientConfig struct {
	BaseURL     string        `yaml:"baseUrl"`
	CacheDir    string        `yaml:"cacheDir"`
	StaleWindow time.Duration `yaml:"staleWindow"`
	Timeout     time.Duration `yaml:"timeout"`
}

// RedditConfig wires the post source.
type RedditConfig struct {
	APIBase           string  `yaml:"apiBase"`
	ListingPath       string  `yaml:"listingPath"`
	Token             string  `yaml:"token"`
	UserAgent         string  `yaml:"userAgent"`
	Limit             int     `yaml:"limit"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
}

// ChatConfig defines how to contact the chat completion API.
type ChatConfig struct {
	BaseURL      string        `yaml:"baseUrl"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	JSONMode     bool          `yaml:"jsonMode"`
	Temperature  float32       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxAttempts  int           `yaml:"maxAttempts"`
	DefaultDelay time.Duration `yaml:"defaultDelay"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	Endpoint    string        `yaml:"endpoint"`
	APIKey      string        `yaml:"apiKey"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
	Fallback    float64       `yaml:"fallback"`
}

// EnrichmentConfig holds the pipeline defaults.
type EnrichmentConfig struct {
	DefaultTone float64 `yaml:"defaultTone"`
	Source      string  `yaml:"source"`
}

// LoggingConfig selects verbosity and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads .env, YAML configuration (if present) and applies environment overrides.
func Load() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			var explicit explicitValues
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else if err := yaml.Unmarshal(raw, &explicit); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
				explicit.apply(&cfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// explicitValues holds the settings for which zero is a valid value, so
// presence in the file decides the override rather than a non-zero check.
type explicitValues struct {
	Embedding struct {
		Fallback *float64 `yaml:"fallback"`
	} `yaml:"embedding"`
	Enrichment struct {
		DefaultTone *float64 `yaml:"defaultTone"`
	} `yaml:"enrichment"`
}

func (e explicitValues) apply(cfg *Config) {
	if e.Embedding.Fallback != nil {
		cfg.Embedding.Fallback = *e.Embedding.Fallback
	}
	if e.Enrichment.DefaultTone != nil {
		cfg.Enrichment.DefaultTone = *e.Enrichment.DefaultTone
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(legacyRedditTokenEnv); v != "" {
		c.Reddit.Token = v
	}
	if v := os.Getenv(redditTokenEnv); v != "" {
		c.Reddit.Token = v
	}

	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.Chat.APIKey = v
		if c.Embedding.Provider == ProviderOpenAI && c.Embedding.APIKey == "" {
			c.Embedding.APIKey = v
		}
	}
	if v := os.Getenv(chatModelEnv); v != "" {
		c.Chat.Model = v
	}

	if v := os.Getenv(embeddingProviderEnv); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv(hfTokenEnv); v != "" && c.Embedding.Provider == ProviderHuggingFace {
		c.Embedding.APIKey = v
	}

	if v := os.Getenv(listenAddrEnv); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv(serverURLEnv); v != "" {
		c.Client.BaseURL = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	c.Reddit.RequestsPerSecond = parseFloatEnv(redditRPSEnv, c.Reddit.RequestsPerSecond)
}

func mergeConfig(base, override Config) Config {
	if override.Server.ListenAddr != "" {
		base.Server.ListenAddr = override.Server.ListenAddr
	}
	if override.Server.CookieName != "" {
		base.Server.CookieName = override.Server.CookieName
	}
	if override.Server.StaleWindow > 0 {
		base.Server.StaleWindow = override.Server.StaleWindow
	}

	if override.Client.BaseURL != "" {
		base.Client.BaseURL = override.Client.BaseURL
	}
	if override.Client.CacheDir != "" {
		base.Client.CacheDir = override.Client.CacheDir
	}
	if override.Client.StaleWindow > 0 {
		base.Client.StaleWindow = override.Client.StaleWindow
	}
	if override.Client.Timeout > 0 {
		base.Client.Timeout = override.Client.Timeout
	}

	if override.Reddit.APIBase != "" {
		base.Reddit.APIBase = override.Reddit.APIBase
	}
	if override.Reddit.ListingPath != "" {
		base.Reddit.ListingPath = override.Reddit.ListingPath
	}
	if override.Reddit.Token != "" {
		base.Reddit.Token = override.Reddit.Token
	}
	if override.Reddit.UserAgent != "" {
		base.Reddit.UserAgent = override.Reddit.UserAgent
	}
	if override.Reddit.Limit > 0 {
		base.Reddit.Limit = override.Reddit.Limit
	}
	if override.Reddit.RequestsPerSecond > 0 {
		base.Reddit.RequestsPerSecond = override.Reddit.RequestsPerSecond
	}

	if override.Chat.BaseURL != "" {
		base.Chat.BaseURL = override.Chat.BaseURL
	}
	if override.Chat.Model != "" {
		base.Chat.Model = override.Chat.Model
	}
	if override.Chat.APIKey != "" {
		base.Chat.APIKey = override.Chat.APIKey
	}
	if override.Chat.JSONMode {
		base.Chat.JSONMode = true
	}
	if override.Chat.Temperature > 0 {
		base.Chat.Temperature = override.Chat.Temperature
	}
	if override.Chat.Timeout > 0 {
		base.Chat.Timeout = override.Chat.Timeout
	}
	if override.Chat.MaxAttempts > 0 {
		base.Chat.MaxAttempts = override.Chat.MaxAttempts
	}
	if override.Chat.DefaultDelay > 0 {
		base.Chat.DefaultDelay = override.Chat.DefaultDelay
	}

	if override.Embedding.Provider != "" {
		base.Embedding.Provider = override.Embedding.Provider
	}
	if override.Embedding.Model != "" {
		base.Embedding.Model = override.Embedding.Model
	}
	if override.Embedding.Endpoint != "" {
		base.Embedding.Endpoint = override.Embedding.Endpoint
	}
	if override.Embedding.APIKey != "" {
		base.Embedding.APIKey = override.Embedding.APIKey
	}
	if override.Embedding.Timeout > 0 {
		base.Embedding.Timeout = override.Embedding.Timeout
	}
	if override.Embedding.Concurrency > 0 {
		base.Embedding.Concurrency = override.Embedding.Concurrency
	}

	if override.Enrichment.Source != "" {
		base.Enrichment.Source = override.Enrichment.Source
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

// Default returns the built-in configuration.
func Default() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:  ":8080",
			CookieName:  "lacarteLastFetch",
			StaleWindow: time.Hour,
		},
		Client: ClientConfig{
			BaseURL:     "http://localhost:8080",
			CacheDir:    defaultCacheDir(),
			StaleWindow: 20 * time.Minute,
			Timeout:     5 * time.Minute,
		},
		Reddit: RedditConfig{
			APIBase:           "https://oauth.reddit.com",
			ListingPath:       "/best",
			UserAgent:         "lacarte/1.0",
			Limit:             25,
			RequestsPerSecond: 1,
		},
		Chat: ChatConfig{
			BaseURL:      "https://api.openai.com/v1",
			Model:        "gpt-4o-mini",
			JSONMode:     true,
			Temperature:  0.2,
			Timeout:      90 * time.Second,
			MaxAttempts:  3,
			DefaultDelay: 15 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:    ProviderHuggingFace,
			Model:       "sentence-transformers/all-MiniLM-L6-v2",
			Endpoint:    "https://router.huggingface.co/hf-inference/models",
			Timeout:     30 * time.Second,
			Concurrency: 8,
			Fallback:    0.5,
		},
		Enrichment: EnrichmentConfig{
			DefaultTone: 0.499999,
			Source:      "reddit",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + string(os.PathSeparator) + "lacarte"
	}
	return ".lacarte-cache"
}

func parseFloatEnv(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("config: cannot parse %s=%q: %v", key, v, err)
		return fallback
	}
	return f
}

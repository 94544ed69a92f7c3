package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Backend struct {
		Type         string        `yaml:"type"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Providers struct {
		FMP struct {
			BaseURL string        `yaml:"base_url"`
			APIKey  string        `yaml:"api_key"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"fmp"`
		Reddit struct {
			BaseURL    string        `yaml:"base_url"`
			UserAgent  string        `yaml:"user_agent"`
			Subreddits []string      `yaml:"subreddits"`
			TimeFilter string        `yaml:"time_filter"`
			Timeout    time.Duration `yaml:"timeout"`
		} `yaml:"reddit"`
		AIKeywords []string `yaml:"ai_keywords"`
	} `yaml:"providers"`
	Collection struct {
		Tickers         []string      `yaml:"tickers"`
		Interval        time.Duration `yaml:"interval"`
		ProviderTimeout time.Duration `yaml:"provider_timeout"`
		MaxConcurrent   int           `yaml:"max_concurrent"`
		NewsLimit       int           `yaml:"news_limit"`
		FilingsLimit    int           `yaml:"filings_limit"`
	} `yaml:"collection"`
	Cache struct {
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		ResultTTL time.Duration `yaml:"result_ttl"`
	} `yaml:"cache"`
	Queue struct {
		Enabled    bool          `yaml:"enabled"`
		Workers    int           `yaml:"workers"`
		QueueSize  int           `yaml:"queue_size"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"queue"`
	// Scoring optionally overrides the engine constants. Empty sections keep
	// the built-in weights, caps, and thresholds; whatever ends up effective
	// is validated before the app starts.
	Scoring struct {
		Weights    map[string]float64 `yaml:"weights"`
		Caps       map[string]float64 `yaml:"caps"`
		Thresholds struct {
			Extreme  float64 `yaml:"extreme"`
			High     float64 `yaml:"high"`
			Moderate float64 `yaml:"moderate"`
			Low      float64 `yaml:"low"`
		} `yaml:"thresholds"`
	} `yaml:"scoring"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("FMP_API_KEY"); v != "" {
		c.Providers.FMP.APIKey = v
	}
	if v := os.Getenv("TICKERS"); v != "" {
		c.Collection.Tickers = strings.Split(v, ",")
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Providers.FMP.BaseURL == "" {
		c.Providers.FMP.BaseURL = "https://financialmodelingprep.com/api/v3"
	}
	if c.Providers.Reddit.BaseURL == "" {
		c.Providers.Reddit.BaseURL = "https://www.reddit.com"
	}
	if len(c.Providers.Reddit.Subreddits) == 0 {
		c.Providers.Reddit.Subreddits = []string{"stocks", "investing", "wallstreetbets"}
	}
	if c.Providers.Reddit.TimeFilter == "" {
		c.Providers.Reddit.TimeFilter = "week"
	}
	if len(c.Providers.AIKeywords) == 0 {
		c.Providers.AIKeywords = []string{
			"artificial intelligence",
			"machine learning",
			"deep learning",
			"neural network",
			"natural language processing",
			"computer vision",
			"robotics",
			"automation",
			"predictive analytics",
			"data science",
		}
	}
	if c.Collection.Interval <= 0 {
		c.Collection.Interval = 5 * time.Minute
	}
	if c.Collection.ProviderTimeout <= 0 {
		c.Collection.ProviderTimeout = 30 * time.Second
	}
	if c.Collection.MaxConcurrent <= 0 {
		c.Collection.MaxConcurrent = 4
	}
	if c.Collection.NewsLimit <= 0 {
		c.Collection.NewsLimit = 50
	}
	if c.Collection.FilingsLimit <= 0 {
		c.Collection.FilingsLimit = 10
	}
	if c.Cache.ResultTTL <= 0 {
		c.Cache.ResultTTL = time.Hour
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if len(c.Collection.Tickers) == 0 {
		return fmt.Errorf("collection.tickers cannot be empty")
	}
	if c.Providers.FMP.APIKey == "" {
		return fmt.Errorf("providers.fmp.api_key is required")
	}
	return nil
}

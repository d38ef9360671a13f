package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Log            LogConfig            `mapstructure:"log" yaml:"log"`
	Server         ServerConfig         `mapstructure:"server" yaml:"server"`
	Database       DatabaseConfig       `mapstructure:"database" yaml:"database"`
	Search         SearchConfig         `mapstructure:"search" yaml:"search"`
	Embedding      EmbeddingConfig      `mapstructure:"embedding" yaml:"embedding"`
	Reranker       RerankerConfig       `mapstructure:"reranker" yaml:"reranker"`
	Enrichment     EnrichmentConfig     `mapstructure:"enrichment" yaml:"enrichment"`
	Cache          CacheConfig          `mapstructure:"cache" yaml:"cache"`
	Telemetry      TelemetryConfig      `mapstructure:"telemetry" yaml:"telemetry"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker" yaml:"circuit_breaker"`
	Alert          AlertConfig          `mapstructure:"alert" yaml:"alert"`
}

// AlertConfig holds configuration for alerting
type AlertConfig struct {
	Enabled  bool     `mapstructure:"enabled" yaml:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host" yaml:"smtp_host"`
	SMTPPort int      `mapstructure:"smtp_port" yaml:"smtp_port" validate:"gte=0,lte=65535"`
	Username string   `mapstructure:"username" yaml:"username"`
	Password string   `mapstructure:"password" yaml:"password"`
	From     string   `mapstructure:"from" yaml:"from"`
	To       []string `mapstructure:"to" yaml:"to"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled" yaml:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests" yaml:"max_requests"`
	Interval         int     `mapstructure:"interval" yaml:"interval" validate:"gte=0"` // in seconds
	Timeout          int     `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"`   // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio" yaml:"ready_to_trip_ratio" validate:"gte=0,lte=1"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	// ParquetPath is the directory for error records. Empty disables the sink.
	ParquetPath string `mapstructure:"parquet_path" yaml:"parquet_path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port" validate:"gte=1,lte=65535"`
	Mode string `mapstructure:"mode" yaml:"mode" validate:"oneof=debug release test"` // gin mode

	// MaxK caps k and initial_k on search routes.
	MaxK int `mapstructure:"max_k" yaml:"max_k" validate:"gte=1"`
	// MaxEnrich caps max_enrich on search routes.
	MaxEnrich int `mapstructure:"max_enrich" yaml:"max_enrich" validate:"gte=0"`
}

// DatabaseConfig holds Neo4j connection settings
type DatabaseConfig struct {
	URI                   string `mapstructure:"uri" yaml:"uri" validate:"required"`
	Username              string `mapstructure:"username" yaml:"username"`
	Password              string `mapstructure:"password" yaml:"password"`
	Database              string `mapstructure:"database" yaml:"database"`
	MaxConnectionPoolSize int    `mapstructure:"max_connection_pool_size" yaml:"max_connection_pool_size" validate:"gte=0"`
}

// SearchConfig holds retrieval settings
type SearchConfig struct {
	VectorIndex       string  `mapstructure:"vector_index" yaml:"vector_index" validate:"required"`
	LexicalLimit      int     `mapstructure:"lexical_limit" yaml:"lexical_limit" validate:"gte=1"`
	DescriptionWeight float64 `mapstructure:"description_weight" yaml:"description_weight" validate:"gte=0,lte=1"`
}

// EmbeddingConfig holds embedding configuration
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider" yaml:"provider" validate:"oneof=embedeverything openai mock"`
	Model      string `mapstructure:"model" yaml:"model"`
	Dimensions int    `mapstructure:"dimensions" yaml:"dimensions" validate:"gte=1"`
	BatchSize  int    `mapstructure:"batch_size" yaml:"batch_size" validate:"gte=1"`
	APIKey     string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	// Workers bounds concurrency of the offline embedding job.
	Workers int `mapstructure:"workers" yaml:"workers" validate:"gte=1"`
}

// RerankerConfig holds cross-encoder configuration
type RerankerConfig struct {
	Provider  string `mapstructure:"provider" yaml:"provider" validate:"oneof=embedeverything embedding local mock"`
	Model     string `mapstructure:"model" yaml:"model"`
	BatchSize int    `mapstructure:"batch_size" yaml:"batch_size" validate:"gte=0"`
}

// EnrichmentConfig holds knowledge-base settings
type EnrichmentConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint" validate:"omitempty,url"`
	Locale    string `mapstructure:"locale" yaml:"locale"`
	Timeout   int    `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"` // in seconds
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
}

// CacheConfig holds the enrichment cache settings
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Path is the badger directory. Empty keeps the cache in memory.
	Path string `mapstructure:"path" yaml:"path"`
	TTL  int    `mapstructure:"ttl" yaml:"ttl" validate:"gte=0"` // in hours
}

var validate = validator.New()

// Load loads configuration from defaults, the config file read into the
// global viper instance, a .env file and environment variables.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load against a specific viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.max_k", 100)
	v.SetDefault("server.max_enrich", 20)

	v.SetDefault("database.uri", "bolt://localhost:7687")
	v.SetDefault("database.username", "neo4j")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "")
	v.SetDefault("database.max_connection_pool_size", 50)

	v.SetDefault("search.vector_index", "place_embedding")
	v.SetDefault("search.lexical_limit", 20)
	v.SetDefault("search.description_weight", 0.3)

	v.SetDefault("embedding.provider", "embedeverything")
	v.SetDefault("embedding.model", "sentence-transformers/all-MiniLM-L6-v2")
	v.SetDefault("embedding.dimensions", 384)
	v.SetDefault("embedding.batch_size", 32)
	v.SetDefault("embedding.workers", 4)

	v.SetDefault("reranker.provider", "embedeverything")
	v.SetDefault("reranker.model", "cross-encoder/ms-marco-MiniLM-L-6-v2")
	v.SetDefault("reranker.batch_size", 32)

	v.SetDefault("enrichment.enabled", true)
	v.SetDefault("enrichment.endpoint", "https://query.wikidata.org/sparql")
	v.SetDefault("enrichment.locale", "id")
	v.SetDefault("enrichment.timeout", 10)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 24*7)
	if home, err := os.UserHomeDir(); err == nil {
		v.SetDefault("cache.path", filepath.Join(home, ".lancong", "cache"))
		v.SetDefault("telemetry.parquet_path", filepath.Join(home, ".lancong", "telemetry"))
	}

	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 1)
	v.SetDefault("circuit_breaker.interval", 60)
	v.SetDefault("circuit_breaker.timeout", 30)
	v.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	v.SetDefault("alert.enabled", false)
	v.SetDefault("alert.smtp_port", 587)
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	// Database credentials
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Database.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Database.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Database.Password = pass
	}
	if db := os.Getenv("NEO4J_DATABASE"); db != "" {
		config.Database.Database = db
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Embedding.APIKey = apiKey
	}

	// Server settings
	if host := os.Getenv("HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = strings.ToLower(level)
	}

	if endpoint := os.Getenv("WIKIDATA_ENDPOINT"); endpoint != "" {
		config.Enrichment.Endpoint = endpoint
	}

	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}

const masked = "********"

// Masked returns a copy with secrets replaced.
func (c *Config) Masked() *Config {
	out := *c
	if out.Database.Password != "" {
		out.Database.Password = masked
	}
	if out.Embedding.APIKey != "" {
		out.Embedding.APIKey = masked
	}
	if out.Alert.Password != "" {
		out.Alert.Password = masked
	}
	out.Alert.To = append([]string(nil), c.Alert.To...)
	return &out
}

// YAML renders the configuration with secrets masked.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c.Masked())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Package config provides application configuration with multi-source
// priority.
//
// Sources (highest to lowest):
//  1. Environment variables
//  2. Config file (~/.scribe/config.yaml)
//  3. Defaults
//
// Categories: AI provider/model catalog, vector index, PostgreSQL storage,
// classifier locale, tool endpoints, observability.
//
// Sensitive values (API keys, passwords) are masked in MarshalJSON/String and
// never logged in the clear.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey indicates a required provider API key is absent.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrMissingIndexName indicates no vector index name is configured.
	ErrMissingIndexName = errors.New("missing vector index name")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidDimension indicates the embedding dimension is out of range.
	ErrInvalidDimension = errors.New("invalid embedding dimension")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrUnknownModel indicates a requested model id is not in the catalog.
	ErrUnknownModel = errors.New("unknown model")
)

// Defaults.
const (
	// DefaultEmbedderModel is the default embedding model.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultEmbeddingDimension must match the remote index configuration.
	DefaultEmbeddingDimension = 768

	// DefaultContextBudget bounds the summarized context injected into the
	// system prompt, in runes.
	DefaultContextBudget = 4000

	// DefaultModelID is the catalog entry used when a caller names none.
	DefaultModelID = "standard"
)

// Model describes one entry of the model catalog exposed to clients.
// ID is the client-facing identifier; APIIdentifier is the
// provider-qualified Genkit model name.
type Model struct {
	ID            string `mapstructure:"id" json:"id"`
	Label         string `mapstructure:"label" json:"label"`
	APIIdentifier string `mapstructure:"api_identifier" json:"api_identifier"`
}

// VectorIndexConfig configures the remote vector index service.
type VectorIndexConfig struct {
	BaseURL   string `mapstructure:"base_url" json:"base_url"`
	APIKey    string `mapstructure:"api_key" json:"api_key"` // SENSITIVE: masked in MarshalJSON
	Index     string `mapstructure:"index" json:"index"`
	Namespace string `mapstructure:"namespace" json:"namespace"`
}

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON(); update it when
// adding new secrets.
type Config struct {
	// AI configuration
	Models        []Model `mapstructure:"models" json:"models"`
	EmbedderModel string  `mapstructure:"embedder_model" json:"embedder_model"`
	Dimension     int     `mapstructure:"embedding_dimension" json:"embedding_dimension"`
	MaxTurns      int     `mapstructure:"max_turns" json:"max_turns"`

	// Classifier configuration
	Language       string `mapstructure:"language" json:"language"`
	ClassifierMode string `mapstructure:"classifier_mode" json:"classifier_mode"`
	ContextBudget  int    `mapstructure:"context_budget" json:"context_budget"`

	// Vector index
	VectorIndex VectorIndexConfig `mapstructure:"vector_index" json:"vector_index"`

	// Storage
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Tool endpoints
	WeatherBaseURL string `mapstructure:"weather_base_url" json:"weather_base_url"`

	// Observability
	OTLPEndpoint string `mapstructure:"otlp_endpoint" json:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name" json:"service_name"`

	// HTTP server
	ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".scribe")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("models", []map[string]any{
		{"id": "standard", "label": "Standard", "api_identifier": "googleai/gemini-2.5-flash"},
		{"id": "advanced", "label": "Advanced", "api_identifier": "googleai/gemini-2.5-pro"},
	})
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("embedding_dimension", DefaultEmbeddingDimension)
	v.SetDefault("max_turns", 5)

	v.SetDefault("language", "en")
	v.SetDefault("classifier_mode", "heuristic")
	v.SetDefault("context_budget", DefaultContextBudget)

	v.SetDefault("vector_index.base_url", "https://api.pinecone.io")
	v.SetDefault("vector_index.namespace", "")

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "scribe")
	v.SetDefault("postgres_password", "scribe_dev_password")
	v.SetDefault("postgres_db_name", "scribe")
	v.SetDefault("postgres_ssl_mode", "disable")

	v.SetDefault("weather_base_url", "https://api.open-meteo.com")

	v.SetDefault("otlp_endpoint", "")
	v.SetDefault("service_name", "scribe")

	v.SetDefault("listen_addr", ":8080")
}

// bindEnvVariables binds environment variables for secrets and overrides.
// GEMINI_API_KEY is read directly by the Genkit plugin, not via viper;
// Validate() only checks its presence.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("vector_index.api_key", "PINECONE_API_KEY")
	mustBind("vector_index.index", "PINECONE_INDEX")
	mustBind("vector_index.namespace", "PINECONE_NAMESPACE")
	mustBind("postgres_password", "SCRIBE_POSTGRES_PASSWORD")
	mustBind("language", "SCRIBE_LANGUAGE")
	mustBind("listen_addr", "SCRIBE_LISTEN_ADDR")
	mustBind("otlp_endpoint", "SCRIBE_OTLP_ENDPOINT")
}

// parseDatabaseURL overrides PostgreSQL settings from DATABASE_URL when set.
func (c *Config) parseDatabaseURL() error {
	raw := os.Getenv("DATABASE_URL")
	if raw == "" {
		return nil
	}
	host, port, user, password, dbName, sslMode, err := splitDatabaseURL(raw)
	if err != nil {
		return err
	}
	c.PostgresHost = host
	c.PostgresPort = port
	c.PostgresUser = user
	c.PostgresPassword = password
	c.PostgresDBName = dbName
	if sslMode != "" {
		c.PostgresSSLMode = sslMode
	}
	return nil
}

// ModelByID resolves a client-facing model id against the catalog.
func (c *Config) ModelByID(id string) (Model, error) {
	for _, m := range c.Models {
		if m.ID == id {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("%w: %q", ErrUnknownModel, id)
}

// ConnString returns the pgx connection string.
func (c *Config) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort,
		c.PostgresDBName, c.PostgresSSLMode)
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret for safe logging. Short secrets are fully
// masked to prevent substring matches; longer ones keep the first and last
// two characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	a.VectorIndex.APIKey = maskSecret(a.VectorIndex.APIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}

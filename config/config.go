package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Matching  MatchingConfig
	Gemini    GeminiConfig
	Proposals ProposalsConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig points at the in-house product CSV and names its columns
type CatalogConfig struct {
	Path        string `mapstructure:"path"`
	IDColumn    string `mapstructure:"id_column"`
	NameColumn  string `mapstructure:"name_column"`
	PriceColumn string `mapstructure:"price_column"`
	UnitColumn  string `mapstructure:"unit_column"`
}

// MatchingConfig holds reconciliation tuning
type MatchingConfig struct {
	Threshold int `mapstructure:"threshold"`
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	Debug   bool   `mapstructure:"debug"`
}

// ProposalsConfig holds proposal storage configuration
type ProposalsConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/proposal-g/")

	// Environment variable settings
	v.SetEnvPrefix("PROPOSALG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory when one exists.
// Variables already present in the environment are never overridden.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load()
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Catalog defaults match the column names of the in-house product CSV
	v.SetDefault("catalog.path", "products.csv")
	v.SetDefault("catalog.id_column", "product_no")
	v.SetDefault("catalog.name_column", "product_name")
	v.SetDefault("catalog.price_column", "unit_price")
	v.SetDefault("catalog.unit_column", "unit")

	// Matching defaults
	v.SetDefault("matching.threshold", 60)

	// Gemini defaults. The key stays empty so the key is still registered
	// for env binding; without one the server runs catalog-only.
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini.debug", false)

	// Proposal storage defaults
	v.SetDefault("proposals.ttl", "24h")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Catalog.Path == "" {
		return fmt.Errorf("catalog path is required (set PROPOSALG_CATALOG_PATH)")
	}

	if config.Matching.Threshold < 0 || config.Matching.Threshold > 100 {
		return fmt.Errorf("matching threshold must be between 0 and 100, got: %d", config.Matching.Threshold)
	}

	if config.Proposals.TTL <= 0 {
		return fmt.Errorf("proposal TTL must be positive, got: %v", config.Proposals.TTL)
	}

	return nil
}

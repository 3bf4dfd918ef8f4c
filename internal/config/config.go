// Package config provides application configuration loading and management.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Customer persistence backends selectable via CUSTOMER_SOURCE.
const (
	SourceDB    = "db"
	SourceSheet = "sheet"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env       string `mapstructure:"APP_ENV"`
	Port      string `mapstructure:"PORT"`
	JWTSecret string `mapstructure:"JWT_SECRET"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`

	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	// CustomerSource selects the customer-request backend: "db" or "sheet".
	CustomerSource string `mapstructure:"CUSTOMER_SOURCE"`

	// DriveRoot is the blob directory for uploaded documents; SheetRoot holds
	// the workbook tab files.
	DriveRoot string `mapstructure:"DRIVE_ROOT"`
	SheetRoot string `mapstructure:"SHEET_ROOT"`

	// PDF renderer limits
	PDFMaxConcurrent int `mapstructure:"PDF_MAX_CONCURRENT"`
	PDFTimeoutSec    int `mapstructure:"PDF_TIMEOUT_SEC"`
}

// LoadConfig loads application configuration from environment variables with
// development defaults.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "postgres")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	viper.SetDefault("CUSTOMER_SOURCE", SourceDB)
	viper.SetDefault("DRIVE_ROOT", "data/drive")
	viper.SetDefault("SHEET_ROOT", "data/sheets")
	viper.SetDefault("PDF_MAX_CONCURRENT", 4)
	viper.SetDefault("PDF_TIMEOUT_SEC", 30)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.CustomerSource != SourceDB && cfg.CustomerSource != SourceSheet {
		return nil, fmt.Errorf("invalid CUSTOMER_SOURCE %q: must be %q or %q", cfg.CustomerSource, SourceDB, SourceSheet)
	}

	return &cfg, nil
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

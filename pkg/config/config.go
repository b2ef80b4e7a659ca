// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Source database
	Database *DatabaseConfig

	// Export settings
	Export *ExportConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	v := newViper()

	cfg := &Config{
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	dbConfig, err := loadDatabaseConfig(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load database configuration: %w", err)
	}
	cfg.Database = dbConfig

	exportConfig, err := loadExportConfig(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load export configuration: %w", err)
	}
	cfg.Export = exportConfig

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newViper returns a viper instance reading the process environment with
// the built-in defaults applied
func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MART_DB_DRIVER", string(DriverPostgres))
	v.SetDefault("MART_DB_HOST", "localhost")
	v.SetDefault("MART_DB_PORT", 5432)
	v.SetDefault("MART_DB_NAME", "martdb")
	v.SetDefault("MART_DB_USERNAME", "bahmni-mart")
	v.SetDefault("MART_DB_PASSWORD", "password")
	v.SetDefault("MART_DB_SSLMODE", "disable")
	v.SetDefault("MART_DB_SCHEMA", "public")
	v.SetDefault("MART_DB_QUERY_TIMEOUT_SECONDS", 300)
	v.SetDefault("MART_DB_CONN_MAX_LIFETIME_SECONDS", 1800)

	v.SetDefault("SNOWFLAKE_AUTHENTICATOR", "snowflake")
	v.SetDefault("SNOWFLAKE_SCHEMA", "PUBLIC")

	v.SetDefault("SQLITE_PATH", "mart.db")

	v.SetDefault("EXPORT_BASE_DIR", "exports")
	v.SetDefault("EXPORT_DATE_COLUMN", "date_created")
	v.SetDefault("EXPORT_WRITE_MANIFEST", false)

	return v
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.Database == nil {
		return errors.New("database configuration is required")
	}
	if c.Export == nil {
		return errors.New("export configuration is required")
	}

	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Export.Validate(); err != nil {
		return err
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}

	return nil
}

// String renders the configuration for logging with secrets masked
func (c *Config) String() string {
	var b strings.Builder
	if c.Database != nil {
		fmt.Fprintf(&b, "database: %s", c.Database)
	}
	if c.Export != nil {
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "export: %s", c.Export)
	}
	fmt.Fprintf(&b, "; log: %s/%s", c.LogLevel, c.LogFormat)
	return b.String()
}

// splitList splits a comma separated value, trimming whitespace and
// dropping empty entries
func splitList(value string) []string {
	var result []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

// pkg/config/database.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/snowflakedb/gosnowflake"
	"github.com/spf13/viper"
)

// Driver names the source database engine
type Driver string

const (
	DriverPostgres  Driver = "postgres"
	DriverSnowflake Driver = "snowflake"
	DriverSQLite    Driver = "sqlite"
)

// DatabaseConfig holds the settings of the mart database the export reads
type DatabaseConfig struct {
	Driver Driver
	Schema string

	QueryTimeout    time.Duration
	ConnMaxLifetime time.Duration

	// Exactly one of these is set, matching Driver
	Postgres  *PostgresConfig
	Snowflake *SnowflakeConfig
	SQLite    *SQLiteConfig
}

// PostgresConfig holds PostgreSQL connection parameters
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// Statement timeout
	StatementTimeout time.Duration
}

// SnowflakeConfig holds Snowflake connection parameters
type SnowflakeConfig struct {
	User          string
	Password      string
	Account       string
	Warehouse     string
	Database      string
	Role          string
	Authenticator gosnowflake.AuthType
}

// SQLiteConfig points at a SQLite database file
type SQLiteConfig struct {
	Path string
}

func loadDatabaseConfig(v *viper.Viper) (*DatabaseConfig, error) {
	driver := Driver(strings.ToLower(v.GetString("MART_DB_DRIVER")))

	cfg := &DatabaseConfig{
		Driver:          driver,
		Schema:          v.GetString("MART_DB_SCHEMA"),
		QueryTimeout:    time.Duration(v.GetInt("MART_DB_QUERY_TIMEOUT_SECONDS")) * time.Second,
		ConnMaxLifetime: time.Duration(v.GetInt("MART_DB_CONN_MAX_LIFETIME_SECONDS")) * time.Second,
	}

	switch driver {
	case DriverPostgres:
		cfg.Postgres = &PostgresConfig{
			Host:             v.GetString("MART_DB_HOST"),
			Port:             v.GetInt("MART_DB_PORT"),
			User:             v.GetString("MART_DB_USERNAME"),
			Password:         v.GetString("MART_DB_PASSWORD"),
			Database:         v.GetString("MART_DB_NAME"),
			SSLMode:          v.GetString("MART_DB_SSLMODE"),
			StatementTimeout: cfg.QueryTimeout,
		}

	case DriverSnowflake:
		sfConfig, err := loadSnowflakeConfig(v)
		if err != nil {
			return nil, err
		}
		cfg.Snowflake = sfConfig
		cfg.Schema = v.GetString("SNOWFLAKE_SCHEMA")

	case DriverSQLite:
		cfg.SQLite = &SQLiteConfig{Path: v.GetString("SQLITE_PATH")}

	default:
		return nil, fmt.Errorf("unsupported MART_DB_DRIVER %q", driver)
	}

	return cfg, nil
}

// loadSnowflakeConfig loads Snowflake configuration from environment variables
func loadSnowflakeConfig(v *viper.Viper) (*SnowflakeConfig, error) {
	required := []string{"SNOWFLAKE_USER", "SNOWFLAKE_PASSWORD", "SNOWFLAKE_ACCOUNT", "SNOWFLAKE_WAREHOUSE", "SNOWFLAKE_DATABASE"}
	for _, key := range required {
		if v.GetString(key) == "" {
			return nil, fmt.Errorf("%s environment variable is required", key)
		}
	}

	return &SnowflakeConfig{
		User:          v.GetString("SNOWFLAKE_USER"),
		Password:      v.GetString("SNOWFLAKE_PASSWORD"),
		Account:       v.GetString("SNOWFLAKE_ACCOUNT"),
		Warehouse:     v.GetString("SNOWFLAKE_WAREHOUSE"),
		Database:      v.GetString("SNOWFLAKE_DATABASE"),
		Role:          v.GetString("SNOWFLAKE_ROLE"),
		Authenticator: parseAuthenticator(v.GetString("SNOWFLAKE_AUTHENTICATOR")),
	}, nil
}

// parseAuthenticator converts an authenticator name to the driver's type
func parseAuthenticator(name string) gosnowflake.AuthType {
	switch strings.ToLower(name) {
	case "oauth":
		return gosnowflake.AuthTypeOAuth
	case "externalbrowser":
		return gosnowflake.AuthTypeExternalBrowser
	case "username_password_mfa":
		return gosnowflake.AuthTypeUsernamePasswordMFA
	case "jwt":
		return gosnowflake.AuthTypeJwt
	case "token":
		return gosnowflake.AuthTypeTokenAccessor
	case "okta":
		return gosnowflake.AuthTypeOkta
	default:
		return gosnowflake.AuthTypeSnowflake
	}
}

// Validate checks the settings for the selected driver
func (c *DatabaseConfig) Validate() error {
	if c.QueryTimeout <= 0 {
		return errors.New("query timeout must be positive")
	}

	switch c.Driver {
	case DriverPostgres:
		if c.Postgres == nil {
			return errors.New("postgres configuration is required")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			return fmt.Errorf("invalid postgres port %d", c.Postgres.Port)
		}
		if c.Postgres.Database == "" {
			return errors.New("MART_DB_NAME must not be empty")
		}
	case DriverSnowflake:
		if c.Snowflake == nil {
			return errors.New("snowflake configuration is required")
		}
	case DriverSQLite:
		if c.SQLite == nil || c.SQLite.Path == "" {
			return errors.New("SQLITE_PATH must not be empty")
		}
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}

	return nil
}

// Name returns the database name used in log fields
func (c *DatabaseConfig) Name() string {
	switch {
	case c.Postgres != nil:
		return c.Postgres.Database
	case c.Snowflake != nil:
		return c.Snowflake.Database
	case c.SQLite != nil:
		return c.SQLite.Path
	default:
		return ""
	}
}

func (c *DatabaseConfig) String() string {
	switch {
	case c.Postgres != nil:
		return fmt.Sprintf("postgres %s@%s:%d/%s schema=%s", c.Postgres.User, c.Postgres.Host, c.Postgres.Port, c.Postgres.Database, c.Schema)
	case c.Snowflake != nil:
		return fmt.Sprintf("snowflake %s@%s/%s schema=%s", c.Snowflake.User, c.Snowflake.Account, c.Snowflake.Database, c.Schema)
	case c.SQLite != nil:
		return fmt.Sprintf("sqlite %s", c.SQLite.Path)
	default:
		return string(c.Driver)
	}
}

// ConnectionString returns a formatted PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}

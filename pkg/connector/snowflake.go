// pkg/connector/snowflake.go
package connector

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	sf "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/David-Botos/mart-export/pkg/config"
)

// Snowflake upper-cases unquoted identifiers, so the catalog columns are
// aliased with quoted lower-case names to match the scan targets.
var snowflakeDialect = dialect{
	name:         "snowflake",
	versionQuery: "SELECT CURRENT_VERSION()",
	tablesQuery: `
		SELECT table_name AS "table_name"
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name`,
	columnsQuery: `
		SELECT column_name AS "column_name", data_type AS "data_type", is_nullable AS "is_nullable"
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`,
	qualify: true,
}

// NewSnowflakeConnector creates a new Snowflake connection
func NewSnowflakeConnector(ctx context.Context, cfg *config.DatabaseConfig) (*SQLConnector, error) {
	if cfg.Snowflake == nil {
		return nil, fmt.Errorf("snowflake configuration is required")
	}
	sfCfg := cfg.Snowflake
	logger := zap.L().Named("snowflake-connector")

	logger.Info("Connecting to Snowflake",
		zap.String("account", sfCfg.Account),
		zap.String("user", sfCfg.User),
		zap.String("database", sfCfg.Database),
		zap.String("warehouse", sfCfg.Warehouse),
		zap.String("role", sfCfg.Role))

	dsnConfig := &sf.Config{
		Account:       sfCfg.Account,
		User:          sfCfg.User,
		Password:      sfCfg.Password,
		Database:      sfCfg.Database,
		Schema:        cfg.Schema,
		Warehouse:     sfCfg.Warehouse,
		Role:          sfCfg.Role,
		Authenticator: sfCfg.Authenticator,
	}
	if cfg.QueryTimeout > 0 {
		seconds := strconv.Itoa(int(cfg.QueryTimeout.Seconds()))
		dsnConfig.Params = map[string]*string{
			"STATEMENT_TIMEOUT_IN_SECONDS": &seconds,
		}
	}

	dsn, err := sf.DSN(dsnConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build Snowflake DSN: %w", err)
	}

	db, err := sqlx.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Snowflake connection: %w", err)
	}

	return newSQLConnector(ctx, db, snowflakeDialect, sfCfg.Database, cfg.Schema, cfg.QueryTimeout, cfg.ConnMaxLifetime, logger)
}

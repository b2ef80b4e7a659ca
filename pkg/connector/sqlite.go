// pkg/connector/sqlite.go
package connector

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/David-Botos/mart-export/pkg/config"
)

var sqliteDialect = dialect{
	name:         "sqlite",
	versionQuery: "SELECT sqlite_version()",
	tablesQuery: `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`,
	columnsQuery: `
		SELECT name AS column_name,
			type AS data_type,
			CASE WHEN "notnull" = 0 THEN 'YES' ELSE 'NO' END AS is_nullable
		FROM pragma_table_info(?)
		ORDER BY cid`,
	qualify: false,
}

// NewSQLiteConnector opens a SQLite database file with the pure Go driver
func NewSQLiteConnector(ctx context.Context, cfg *config.DatabaseConfig) (*SQLConnector, error) {
	if cfg.SQLite == nil || cfg.SQLite.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	logger := zap.L().Named("sqlite-connector")

	logger.Info("Opening SQLite database", zap.String("path", cfg.SQLite.Path))

	db, err := sqlx.Open("sqlite", cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	return newSQLConnector(ctx, db, sqliteDialect, cfg.SQLite.Path, "", cfg.QueryTimeout, cfg.ConnMaxLifetime, logger)
}

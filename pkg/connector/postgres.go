// pkg/connector/postgres.go
package connector

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/mart-export/pkg/config"
)

var postgresDialect = dialect{
	name:         "postgres",
	versionQuery: "SELECT version()",
	tablesQuery: `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name`,
	columnsQuery: `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`,
	qualify: true,
}

// NewPostgresConnector creates and initializes a PostgreSQL connector
func NewPostgresConnector(ctx context.Context, cfg *config.DatabaseConfig) (*SQLConnector, error) {
	if cfg.Postgres == nil {
		return nil, fmt.Errorf("postgres configuration is required")
	}
	pg := cfg.Postgres
	logger := zap.L().Named("postgres-connector")

	logger.Info("Connecting to PostgreSQL",
		zap.String("host", pg.Host),
		zap.Int("port", pg.Port),
		zap.String("database", pg.Database),
		zap.String("user", pg.User))

	// statement_timeout travels as a startup parameter so it survives
	// reconnects of the pooled connection
	connStr := pg.ConnectionString()
	if pg.StatementTimeout > 0 {
		connStr += fmt.Sprintf(" statement_timeout=%d", pg.StatementTimeout.Milliseconds())
	}

	db, err := sqlx.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	return newSQLConnector(ctx, db, postgresDialect, pg.Database, cfg.Schema, cfg.QueryTimeout, cfg.ConnMaxLifetime, logger)
}

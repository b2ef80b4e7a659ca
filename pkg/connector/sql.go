// pkg/connector/sql.go
package connector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/mart-export/pkg/model"
)

// The export reads one table at a time; a single pooled connection is enough.
const (
	maxOpenConns = 1
	maxIdleConns = 1
)

// dialect holds the engine specific catalog queries. Queries use ? and
// are rebound for the driver by sqlx.
type dialect struct {
	name         string
	versionQuery string
	tablesQuery  string
	columnsQuery string
	// qualify reports whether table references carry the schema
	qualify bool
}

// columnRow is one row of a columns catalog query
type columnRow struct {
	Name       string `db:"column_name"`
	DataType   string `db:"data_type"`
	IsNullable string `db:"is_nullable"`
}

// SQLConnector implements DatabaseConnector on top of database/sql
type SQLConnector struct {
	db           *sqlx.DB
	logger       *zap.Logger
	dialect      dialect
	database     string
	schema       string
	queryTimeout time.Duration
}

func newSQLConnector(
	ctx context.Context,
	db *sqlx.DB,
	d dialect,
	database string,
	schema string,
	queryTimeout time.Duration,
	maxLifetime time.Duration,
	logger *zap.Logger,
) (*SQLConnector, error) {
	ApplyConnectionSettings(db.DB, maxOpenConns, maxIdleConns, maxLifetime)

	if err := PingWithTimeout(ctx, db.DB, 10*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", d.name, err)
	}

	if queryTimeout <= 0 {
		queryTimeout = 5 * time.Minute
	}

	c := &SQLConnector{
		db:           db,
		logger:       logger,
		dialect:      d,
		database:     database,
		schema:       schema,
		queryTimeout: queryTimeout,
	}

	LogConnectionStats(logger, database, db.DB)
	return c, nil
}

// DB returns the underlying database connection
func (c *SQLConnector) DB() *sqlx.DB {
	return c.db
}

// Validate checks connectivity by reading the server version
func (c *SQLConnector) Validate(ctx context.Context) error {
	queryCtx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	var version string
	if err := c.db.GetContext(queryCtx, &version, c.dialect.versionQuery); err != nil {
		return fmt.Errorf("failed to query %s version: %w", c.dialect.name, err)
	}

	c.logger.Info("Connected to database",
		zap.String("dialect", c.dialect.name),
		zap.String("database", c.database),
		zap.String("schema", c.schema),
		zap.String("version", version))
	return nil
}

// Close closes the database connection
func (c *SQLConnector) Close() error {
	c.logger.Info("Closing database connection", zap.String("dialect", c.dialect.name))
	return c.db.Close()
}

// ListTables returns the base tables of the configured schema
func (c *SQLConnector) ListTables(ctx context.Context) ([]string, error) {
	queryCtx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	var args []interface{}
	if c.dialect.qualify {
		args = append(args, c.schema)
	}

	var tables []string
	if err := c.db.SelectContext(queryCtx, &tables, c.db.Rebind(c.dialect.tablesQuery), args...); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	c.logger.Debug("Listed tables", zap.Int("count", len(tables)))
	return tables, nil
}

// ListColumns returns column metadata for one table in ordinal order
func (c *SQLConnector) ListColumns(ctx context.Context, table string) (*model.TableMetadata, error) {
	queryCtx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	args := []interface{}{table}
	if c.dialect.qualify {
		args = []interface{}{c.schema, table}
	}

	var rows []columnRow
	if err := c.db.SelectContext(queryCtx, &rows, c.db.Rebind(c.dialect.columnsQuery), args...); err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", table, err)
	}

	meta := &model.TableMetadata{
		Schema:  c.schema,
		Table:   table,
		Columns: make([]model.Column, 0, len(rows)),
	}
	for _, row := range rows {
		meta.Columns = append(meta.Columns, model.Column{
			Name:     row.Name,
			DataType: row.DataType,
			Nullable: row.IsNullable == "YES",
		})
	}
	return meta, nil
}

// ReadTable runs SELECT * over a scoped connection and materializes the
// result. The connection is returned to the pool before ReadTable returns.
func (c *SQLConnector) ReadTable(ctx context.Context, table string) (*model.Table, error) {
	if table == "" {
		return nil, errors.New("table name cannot be empty")
	}

	conn, err := c.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	queryCtx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	rows, err := conn.QueryxContext(queryCtx, "SELECT * FROM "+c.tableRef(table))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	result := &model.Table{Name: table, Columns: columns}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row %d of %s: %w", len(result.Rows)+1, table, err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows of %s: %w", table, err)
	}

	c.logger.Debug("Read table",
		zap.String("table", table),
		zap.Int("columns", len(columns)),
		zap.Int("rows", len(result.Rows)))
	return result, nil
}

// tableRef returns the quoted, optionally schema qualified table reference
func (c *SQLConnector) tableRef(table string) string {
	if c.dialect.qualify && c.schema != "" {
		return pq.QuoteIdentifier(c.schema) + "." + pq.QuoteIdentifier(table)
	}
	return pq.QuoteIdentifier(table)
}

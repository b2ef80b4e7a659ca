// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/mart-export/pkg/config"
)

// ConnectorFactory creates database connectors
type ConnectorFactory struct {
	cfg    *config.DatabaseConfig
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.DatabaseConfig, logger *zap.Logger) *ConnectorFactory {
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateConnector opens a connector for the configured driver and validates it
func (f *ConnectorFactory) CreateConnector(ctx context.Context) (DatabaseConnector, error) {
	f.logger.Info("Creating database connector", zap.String("driver", string(f.cfg.Driver)))

	var (
		conn *SQLConnector
		err  error
	)
	switch f.cfg.Driver {
	case config.DriverPostgres:
		conn, err = NewPostgresConnector(ctx, f.cfg)
	case config.DriverSnowflake:
		conn, err = NewSnowflakeConnector(ctx, f.cfg)
	case config.DriverSQLite:
		conn, err = NewSQLiteConnector(ctx, f.cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", f.cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s connector: %w", f.cfg.Driver, err)
	}

	if err := conn.Validate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to validate %s connector: %w", f.cfg.Driver, err)
	}

	return conn, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/David-Botos/mart-export/pkg/anonymizer"
	"github.com/David-Botos/mart-export/pkg/classifier"
	"github.com/David-Botos/mart-export/pkg/config"
	"github.com/David-Botos/mart-export/pkg/connector"
	"github.com/David-Botos/mart-export/pkg/export"
	"github.com/David-Botos/mart-export/pkg/filter"
	"github.com/David-Botos/mart-export/pkg/logging"
	"github.com/David-Botos/mart-export/pkg/policy"
	"github.com/David-Botos/mart-export/pkg/taxonomy"
)

// loggerInstalled reports whether the global zap logger has been configured
var loggerInstalled bool

func runExport(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	loggerInstalled = true
	defer logger.Sync()

	logger.Info("Starting export", zap.String("version", version), zap.Stringer("config", cfg))

	rules, err := config.LoadOptionalRules(cfg.Export.RulesFile)
	if err != nil {
		return err
	}
	tax := rules.Taxonomy(taxonomy.Default())
	columnPolicy := rules.ColumnPolicy(policy.DefaultPolicy())

	conn, err := connector.NewConnectorFactory(cfg.Database, logger).CreateConnector(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Database.Name(), err)
	}
	defer conn.Close()

	hasher, err := anonymizer.NewHasher()
	if err != nil {
		return err
	}

	engine, err := policy.NewEngine(columnPolicy, hasher, logger.Named("policy"))
	if err != nil {
		return err
	}

	cls, err := classifier.NewClassifier(tax, conn, logger.Named("classifier"))
	if err != nil {
		return err
	}

	dates, err := filter.NewDateRangeFilter(cfg.Export.DateColumn, cfg.Export.DateLayout, cfg.Export.StartDate, cfg.Export.EndDate)
	if err != nil {
		return err
	}

	exporter, err := export.NewExporter(conn, cls, engine, dates, export.Options{
		BaseDir:       cfg.Export.BaseDir,
		WriteManifest: cfg.Export.WriteManifest,
	}, logger.Named("export"))
	if err != nil {
		return err
	}

	summary, err := exporter.Run(ctx, cfg.Export.Categories)
	if err != nil {
		return err
	}

	fmt.Print(exporter.Metrics().GenerateReport())

	if failed := summary.FailedTables(); len(failed) > 0 {
		fields := []zap.Field{
			zap.Int("failed", len(failed)),
			zap.Int("exported", len(summary.SuccessfulTables())),
		}
		for category, share := range exporter.Metrics().GetErrorDistribution() {
			fields = append(fields, zap.Float64(category.String()+"_pct", share))
		}
		logger.Warn("Some tables were not exported", fields...)
	}
	connector.LogConnectionStats(logger, cfg.Database.Name(), conn.DB().DB)
	logger.Info("Export finished", zap.String("archive", summary.ArchivePath))

	return nil
}

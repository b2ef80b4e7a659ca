// Package export runs a full export: it selects tables, applies the column
// policy and date window to each, writes CSV files and bundles them into a
// zip archive.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/mart-export/pkg/model"
	"github.com/David-Botos/mart-export/pkg/output"
	"github.com/David-Botos/mart-export/pkg/policy"
)

// TableSource lists and reads tables
type TableSource interface {
	ListTables(ctx context.Context) ([]string, error)
	ReadTable(ctx context.Context, table string) (*model.Table, error)
}

// TableClassifier resolves categories to tables
type TableClassifier interface {
	Classify(ctx context.Context, allTables, requested []string) ([]string, error)
}

// ColumnPolicy rewrites the columns of a table
type ColumnPolicy interface {
	Apply(table *model.Table) (policy.Report, error)
}

// RowFilter drops rows from a table
type RowFilter interface {
	Apply(table *model.Table) error
}

// Options configures an Exporter
type Options struct {
	BaseDir       string
	WriteManifest bool
	// Now stamps the run artifacts; time.Now when nil
	Now func() time.Time
}

// Exporter orchestrates one export run
type Exporter struct {
	source     TableSource
	classifier TableClassifier
	policy     ColumnPolicy
	filter     RowFilter
	metrics    *ExportMetrics
	opts       Options
	logger     *zap.Logger
}

// NewExporter creates an exporter
func NewExporter(
	source TableSource,
	classifier TableClassifier,
	columnPolicy ColumnPolicy,
	filter RowFilter,
	opts Options,
	logger *zap.Logger,
) (*Exporter, error) {
	switch {
	case source == nil:
		return nil, errors.New("table source cannot be nil")
	case classifier == nil:
		return nil, errors.New("classifier cannot be nil")
	case columnPolicy == nil:
		return nil, errors.New("column policy cannot be nil")
	case filter == nil:
		return nil, errors.New("row filter cannot be nil")
	case logger == nil:
		return nil, errors.New("logger cannot be nil")
	case opts.BaseDir == "":
		return nil, errors.New("base directory cannot be empty")
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Exporter{
		source:     source,
		classifier: classifier,
		policy:     columnPolicy,
		filter:     filter,
		metrics:    NewExportMetrics(logger),
		opts:       opts,
		logger:     logger,
	}, nil
}

// Metrics returns the metrics collected by the last run
func (e *Exporter) Metrics() *ExportMetrics {
	return e.metrics
}

// Run exports the tables selected by categories. Failures of individual
// tables, including a CSV whose archived row count differs from what was
// written, are recorded in the summary and do not stop the run. The returned
// error is set only for failures that leave no usable archive: listing or
// classifying tables, preparing the output directory, or archiving.
func (e *Exporter) Run(ctx context.Context, categories []string) (*RunSummary, error) {
	summary := NewRunSummary(categories)
	e.metrics = NewExportMetrics(e.logger)
	logger := e.logger.With(zap.String("run_id", summary.RunID))

	allTables, err := e.source.ListTables(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list tables: %w", err)
	}

	tables, err := e.classifier.Classify(ctx, allTables, categories)
	if err != nil {
		return summary, fmt.Errorf("failed to classify tables: %w", err)
	}
	summary.SelectedTables = tables

	layout := output.NewLayout(e.opts.BaseDir, e.opts.Now())
	summary.OutputDir = layout.Dir()
	summary.ArchivePath = layout.ArchivePath()

	if err := output.PrepareDir(layout.Dir()); err != nil {
		return summary, fmt.Errorf("failed to prepare output directory: %w", err)
	}

	if len(tables) == 0 {
		summary.NothingToExport = true
		logger.Warn("No tables to export", zap.Strings("categories", categories))
	}

	expectedRows := make(map[string]int, len(tables))
	fileOwners := make(map[string]string, len(tables))
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("export interrupted before %s: %w", table, err)
		}

		job := NewTableJob(table)
		name := output.CSVFileName(table)
		if owner, taken := fileOwners[name]; taken {
			summary.AddTableResult(e.collision(job, name, owner, logger))
			continue
		}

		result := e.exportTable(ctx, layout, job, logger)
		summary.AddTableResult(result)
		if result.Success {
			fileOwners[name] = table
			expectedRows[name] = result.RowsWritten
		}
	}

	count, err := output.ZipDir(layout.Dir(), layout.ArchivePath())
	if err != nil {
		return summary, fmt.Errorf("failed to create archive: %w", err)
	}
	summary.ArchivedFiles = count

	report, err := output.VerifyArchive(layout.Dir(), layout.ArchivePath(), expectedRows)
	if err != nil {
		return summary, fmt.Errorf("failed to verify archive: %w", err)
	}
	if len(report.MissingFiles) > 0 || len(report.SizeMismatches) > 0 {
		return summary, fmt.Errorf("archive %s does not match %s: %d missing, %d size mismatches",
			layout.ArchivePath(), layout.Dir(), len(report.MissingFiles), len(report.SizeMismatches))
	}
	for _, mismatch := range report.RowMismatches {
		e.failVerification(summary, fileOwners[mismatch.Name], mismatch, logger)
	}

	for _, result := range summary.Results {
		e.metrics.RecordTableExport(result)
	}

	logger.Info("Created archive",
		zap.String("archive", layout.ArchivePath()),
		zap.Int("files", count),
		zap.Duration("verification", report.Duration))

	summary.Complete()
	e.metrics.Complete()

	if e.opts.WriteManifest {
		if err := output.WriteManifest(layout.ManifestPath(), summary); err != nil {
			logger.Warn("Failed to write manifest", zap.Error(err))
		} else {
			logger.Info("Wrote manifest", zap.String("path", layout.ManifestPath()))
		}
	}

	logger.Info("Export finished",
		zap.Int("selected", len(tables)),
		zap.Int("succeeded", len(summary.SuccessfulTables())),
		zap.Int("failed", len(summary.FailedTables())),
		zap.Duration("duration", summary.Duration))

	return summary, nil
}

// exportTable reads, rewrites, filters and writes one table
func (e *Exporter) exportTable(ctx context.Context, layout output.Layout, job TableJob, logger *zap.Logger) TableResult {
	result := NewTableResult(job)
	logger = logger.With(zap.String("table", job.Table), zap.String("job_id", job.ID))

	fail := func(stage Stage, err error) TableResult {
		record := NewErrorRecord(err, CategorizeError(err)).WithTable(job.Table).WithStage(stage)
		result.AddError(record)
		result.Complete(false)
		logger.Error("Error exporting table",
			zap.String("stage", string(stage)),
			zap.String("category", record.Category.String()),
			zap.Error(err))
		return *result
	}

	table, err := e.source.ReadTable(ctx, job.Table)
	if err != nil {
		return fail(StageRead, err)
	}
	result.RowsRead = table.RowCount()

	report, err := e.policy.Apply(table)
	if err != nil {
		return fail(StagePolicy, err)
	}
	result.DroppedColumns = report.Dropped()
	result.AnonymizedColumns = report.Anonymized()
	for _, op := range report.Operations {
		if op.Operation == model.OperationUnknownAction {
			result.AddWarning(fmt.Sprintf("unknown policy action %q ignored", op.Reason))
		}
	}

	if err := e.filter.Apply(table); err != nil {
		return fail(StageFilter, err)
	}

	path := layout.CSVPath(job.Table)
	written, err := output.WriteCSV(path, table)
	if err != nil {
		return fail(StageWrite, err)
	}
	result.RowsWritten = written
	result.OutputFile = output.CSVFileName(job.Table)
	if info, err := os.Stat(path); err == nil {
		result.BytesWritten = info.Size()
	}

	result.Complete(true)
	logger.Info("Exported table to CSV",
		zap.Int("rows_read", result.RowsRead),
		zap.Int("rows_written", result.RowsWritten),
		zap.Strings("dropped", result.DroppedColumns),
		zap.Strings("anonymized", result.AnonymizedColumns),
		zap.Duration("duration", result.Duration))

	return *result
}

// collision fails a table whose CSV name is already used by an earlier table
func (e *Exporter) collision(job TableJob, name, owner string, logger *zap.Logger) TableResult {
	result := NewTableResult(job)
	err := fmt.Errorf("output file %s already written for table %s", name, owner)
	result.AddError(NewErrorRecord(err, ErrorCategoryTableLevel).WithTable(job.Table).WithStage(StageWrite))
	result.Complete(false)
	logger.Error("Error exporting table",
		zap.String("table", job.Table),
		zap.String("stage", string(StageWrite)),
		zap.Error(err))
	return *result
}

// failVerification marks the table behind an archived CSV as failed when the
// archive holds a different number of rows than were written
func (e *Exporter) failVerification(summary *RunSummary, table string, mismatch output.RowDiscrepancy, logger *zap.Logger) {
	err := fmt.Errorf("archived %s has %d rows, %d were written",
		mismatch.Name, mismatch.ArchivedRows, mismatch.ExpectedRows)
	for i := range summary.Results {
		result := &summary.Results[i]
		if result.Table != table {
			continue
		}
		result.AddError(NewErrorRecord(err, ErrorCategoryTableLevel).WithTable(table).WithStage(StageVerify))
		result.Success = false
	}
	logger.Error("Error exporting table",
		zap.String("table", table),
		zap.String("stage", string(StageVerify)),
		zap.Error(err))
}

package export

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ExportMetrics tracks metrics for an export run
type ExportMetrics struct {
	mu                     sync.Mutex
	logger                 *zap.Logger
	StartTime              time.Time
	EndTime                time.Time
	SuccessfulTables       int
	FailedTables           int
	TotalRowsRead          int64
	TotalRowsWritten       int64
	TotalBytesWritten      int64
	TotalColumnsDropped    int
	TotalColumnsAnonymized int
	PeakMemoryUsage        int64
	ErrorCounts            map[ErrorCategory]int
	TableDurations         map[string]time.Duration
}

// NewExportMetrics creates a new ExportMetrics instance
func NewExportMetrics(logger *zap.Logger) *ExportMetrics {
	return &ExportMetrics{
		StartTime:      time.Now(),
		ErrorCounts:    make(map[ErrorCategory]int),
		TableDurations: make(map[string]time.Duration),
		logger:         logger,
	}
}

// RecordTableExport records metrics for a finished table
func (em *ExportMetrics) RecordTableExport(result TableResult) {
	em.mu.Lock()
	defer em.mu.Unlock()

	em.TotalRowsRead += int64(result.RowsRead)
	em.TotalRowsWritten += int64(result.RowsWritten)
	em.TotalBytesWritten += result.BytesWritten
	em.TotalColumnsDropped += len(result.DroppedColumns)
	em.TotalColumnsAnonymized += len(result.AnonymizedColumns)
	em.TableDurations[result.Table] = result.Duration

	if result.Success {
		em.SuccessfulTables++
	} else {
		em.FailedTables++
		for _, err := range result.Errors {
			em.ErrorCounts[err.Category]++
		}
	}

	em.sampleMemory()
}

// sampleMemory updates the peak heap usage; callers hold the lock
func (em *ExportMetrics) sampleMemory() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	if alloc := int64(memStats.Alloc); alloc > em.PeakMemoryUsage {
		em.PeakMemoryUsage = alloc
	}
}

// Complete marks the export run as complete
func (em *ExportMetrics) Complete() {
	em.mu.Lock()
	defer em.mu.Unlock()

	em.EndTime = time.Now()
	em.sampleMemory()

	if em.logger != nil {
		em.logger.Info("Export metrics",
			zap.Duration("totalDuration", em.EndTime.Sub(em.StartTime)),
			zap.Int("successfulTables", em.SuccessfulTables),
			zap.Int("failedTables", em.FailedTables),
			zap.Int64("totalRowsWritten", em.TotalRowsWritten),
			zap.Float64("throughput", em.calculateThroughput()))
	}
}

// calculateThroughput returns rows written per second; callers hold the lock
func (em *ExportMetrics) calculateThroughput() float64 {
	duration := em.duration().Seconds()
	if duration <= 0 {
		return 0
	}
	return float64(em.TotalRowsWritten) / duration
}

func (em *ExportMetrics) duration() time.Duration {
	if em.EndTime.IsZero() {
		return time.Since(em.StartTime)
	}
	return em.EndTime.Sub(em.StartTime)
}

// GetErrorDistribution returns error distribution by category in percent
func (em *ExportMetrics) GetErrorDistribution() map[ErrorCategory]float64 {
	em.mu.Lock()
	defer em.mu.Unlock()

	distribution := make(map[ErrorCategory]float64)
	totalErrors := 0
	for _, count := range em.ErrorCounts {
		totalErrors += count
	}
	if totalErrors == 0 {
		return distribution
	}

	for category, count := range em.ErrorCounts {
		distribution[category] = float64(count) / float64(totalErrors) * 100
	}
	return distribution
}

// formatBytes converts bytes to a human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// getPercentage safely calculates a percentage, avoiding division by zero
func getPercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * 100
}

// GenerateReport creates a plain text metrics report
func (em *ExportMetrics) GenerateReport() string {
	em.mu.Lock()
	defer em.mu.Unlock()

	total := em.SuccessfulTables + em.FailedTables

	var sb strings.Builder
	fmt.Fprintf(&sb, `
Export Metrics Report
=====================
Duration:                %s
Start Time:              %s
End Time:                %s

Tables Summary
--------------
Total Tables:            %d
Successful Tables:       %d (%.1f%%)
Failed Tables:           %d (%.1f%%)

Data Summary
------------
Total Rows Read:         %d
Total Rows Written:      %d
Total Data Written:      %s
Columns Dropped:         %d
Columns Anonymized:      %d
Average Throughput:      %.2f rows/sec
Peak Memory Usage:       %s
`,
		formatDuration(em.duration()),
		em.StartTime.Format(time.RFC3339),
		em.EndTime.Format(time.RFC3339),

		total,
		em.SuccessfulTables, getPercentage(float64(em.SuccessfulTables), float64(total)),
		em.FailedTables, getPercentage(float64(em.FailedTables), float64(total)),

		em.TotalRowsRead,
		em.TotalRowsWritten,
		formatBytes(em.TotalBytesWritten),
		em.TotalColumnsDropped,
		em.TotalColumnsAnonymized,
		em.calculateThroughput(),
		formatBytes(em.PeakMemoryUsage),
	)

	if len(em.TableDurations) > 0 {
		sb.WriteString("\nTable Details\n-------------\n")
		tables := make([]string, 0, len(em.TableDurations))
		for table := range em.TableDurations {
			tables = append(tables, table)
		}
		sort.Strings(tables)
		for _, table := range tables {
			fmt.Fprintf(&sb, "- %s: %s\n", table, formatDuration(em.TableDurations[table]))
		}
	}

	if len(em.ErrorCounts) > 0 {
		sb.WriteString("\nError Distribution\n------------------\n")
		totalErrors := 0
		categories := make([]ErrorCategory, 0, len(em.ErrorCounts))
		for category, count := range em.ErrorCounts {
			totalErrors += count
			categories = append(categories, category)
		}
		sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

		for _, category := range categories {
			count := em.ErrorCounts[category]
			fmt.Fprintf(&sb, "- %s: %d (%.1f%%)\n", category, count, getPercentage(float64(count), float64(totalErrors)))
		}
	}

	return sb.String()
}

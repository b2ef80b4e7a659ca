package export

import (
	"time"

	"github.com/google/uuid"
)

// TableJob represents the export of one table
type TableJob struct {
	ID        string    // Unique job identifier
	Table     string    // Table name
	CreatedAt time.Time // Job creation timestamp
}

// NewTableJob creates a new table job
func NewTableJob(table string) TableJob {
	return TableJob{
		ID:        uuid.New().String(),
		Table:     table,
		CreatedAt: time.Now(),
	}
}

// TableResult represents the outcome of a table export
type TableResult struct {
	JobID             string        `json:"job_id"`
	Table             string        `json:"table"`
	Success           bool          `json:"success"`
	Message           string        `json:"message,omitempty"`
	RowsRead          int           `json:"rows_read"`
	RowsWritten       int           `json:"rows_written"`
	BytesWritten      int64         `json:"bytes_written"`
	DroppedColumns    []string      `json:"dropped_columns,omitempty"`
	AnonymizedColumns []string      `json:"anonymized_columns,omitempty"`
	OutputFile        string        `json:"output_file,omitempty"`
	Errors            []ErrorRecord `json:"errors,omitempty"`
	Warnings          []string      `json:"warnings,omitempty"`
	StartTime         time.Time     `json:"start_time"`
	EndTime           time.Time     `json:"end_time"`
	Duration          time.Duration `json:"duration_ns"`
}

// NewTableResult initializes a result for a job
func NewTableResult(job TableJob) *TableResult {
	return &TableResult{
		JobID:     job.ID,
		Table:     job.Table,
		StartTime: time.Now(),
	}
}

// Complete marks the export as complete and calculates duration
func (r *TableResult) Complete(success bool) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = success && len(r.Errors) == 0
}

// AddError adds an error to the result. The first error becomes the
// result's message.
func (r *TableResult) AddError(err ErrorRecord) {
	r.Errors = append(r.Errors, err)
	r.Success = false
	if r.Message == "" {
		r.Message = err.Message
	}
}

// AddWarning adds a warning to the result
func (r *TableResult) AddWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// HasErrors checks if any errors occurred
func (r *TableResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// RunSummary is the explicit outcome of one export run
type RunSummary struct {
	RunID           string        `json:"run_id"`
	Categories      []string      `json:"categories"`
	SelectedTables  []string      `json:"selected_tables"`
	NothingToExport bool          `json:"nothing_to_export"`
	Results         []TableResult `json:"results"`
	OutputDir       string        `json:"output_dir"`
	ArchivePath     string        `json:"archive_path"`
	ArchivedFiles   int           `json:"archived_files"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	Duration        time.Duration `json:"duration_ns"`
}

// NewRunSummary initializes a summary for a run
func NewRunSummary(categories []string) *RunSummary {
	return &RunSummary{
		RunID:      uuid.New().String(),
		Categories: categories,
		StartTime:  time.Now(),
	}
}

// AddTableResult appends a table outcome
func (s *RunSummary) AddTableResult(result TableResult) {
	s.Results = append(s.Results, result)
}

// Complete marks the run as complete and calculates duration
func (s *RunSummary) Complete() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// SuccessfulTables returns the names of the tables exported without error
func (s *RunSummary) SuccessfulTables() []string {
	var tables []string
	for _, r := range s.Results {
		if r.Success {
			tables = append(tables, r.Table)
		}
	}
	return tables
}

// FailedTables returns the results of the tables that failed
func (s *RunSummary) FailedTables() []TableResult {
	var failed []TableResult
	for _, r := range s.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

// Result returns the outcome for a table
func (s *RunSummary) Result(table string) (TableResult, bool) {
	for _, r := range s.Results {
		if r.Table == table {
			return r, true
		}
	}
	return TableResult{}, false
}

package export

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/David-Botos/mart-export/pkg/converter"
)

// ErrorCategory defines categories of errors during an export
type ErrorCategory int

const (
	// Error categories with increasing severity
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryDataConversion
	ErrorCategoryTableLevel
	ErrorCategoryConnectionLevel
	ErrorCategoryCritical
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryDataConversion:
		return "DataConversion"
	case ErrorCategoryTableLevel:
		return "TableLevel"
	case ErrorCategoryConnectionLevel:
		return "ConnectionLevel"
	case ErrorCategoryCritical:
		return "Critical"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// MarshalText renders the category by name in the manifest
func (ec ErrorCategory) MarshalText() ([]byte, error) {
	return []byte(ec.String()), nil
}

// UnmarshalText parses a category name written by MarshalText
func (ec *ErrorCategory) UnmarshalText(text []byte) error {
	for c := ErrorCategoryNone; c <= ErrorCategoryCritical; c++ {
		if c.String() == string(text) {
			*ec = c
			return nil
		}
	}
	return fmt.Errorf("unknown error category %q", text)
}

// Stage names the step of a table export that failed
type Stage string

const (
	StageRead   Stage = "read"
	StagePolicy Stage = "policy"
	StageFilter Stage = "filter"
	StageWrite  Stage = "write"
	StageVerify Stage = "verify"
)

// ErrorRecord represents a single error during an export
type ErrorRecord struct {
	Category    ErrorCategory `json:"category"`
	Stage       Stage         `json:"stage,omitempty"`
	TableName   string        `json:"table,omitempty"`
	Error       error         `json:"-"`
	Message     string        `json:"message"` // Derived from Error but stored for serialization
	Timestamp   time.Time     `json:"timestamp"`
	Recoverable bool          `json:"recoverable"`
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, category ErrorCategory) ErrorRecord {
	record := ErrorRecord{
		Category:    category,
		Error:       err,
		Timestamp:   time.Now(),
		Recoverable: category < ErrorCategoryCritical,
	}

	if err != nil {
		record.Message = err.Error()
	}

	return record
}

// WithTable adds table information to the error record
func (r ErrorRecord) WithTable(table string) ErrorRecord {
	r.TableName = table
	return r
}

// WithStage records the step that failed
func (r ErrorRecord) WithStage(stage Stage) ErrorRecord {
	r.Stage = stage
	return r
}

// String returns a formatted error message
func (r ErrorRecord) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] ", r.Category))

	if r.TableName != "" {
		sb.WriteString(fmt.Sprintf("Table: %s ", r.TableName))
	}
	if r.Stage != "" {
		sb.WriteString(fmt.Sprintf("Stage: %s ", r.Stage))
	}

	if r.Error != nil {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Error.Error()))
	} else if r.Message != "" {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Message))
	}

	return sb.String()
}

// CategorizeError determines the category of an error
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}

	if errors.Is(err, context.Canceled) {
		return ErrorCategoryCritical
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return ErrorCategoryConnectionLevel
	}

	if errors.Is(err, converter.ErrConversion) {
		return ErrorCategoryDataConversion
	}

	errMsg := strings.ToLower(err.Error())
	for _, pattern := range []string{"connection refused", "connection reset", "broken pipe", "too many connections"} {
		if strings.Contains(errMsg, pattern) {
			return ErrorCategoryConnectionLevel
		}
	}

	return ErrorCategoryTableLevel
}

// pkg/config/export.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DateLayout is the DD/MM/YYYY layout of EXPORT_START_DATE, EXPORT_END_DATE
// and of text timestamps stored in the date column
const DateLayout = "02/01/2006"

// now is replaced in tests
var now = time.Now

// ExportConfig holds the per-run export settings. It is read once at
// startup and never changed during the run.
type ExportConfig struct {
	Categories []string  // Requested categories; empty means every table
	StartDate  time.Time // Inclusive, UTC midnight
	EndDate    time.Time // Inclusive, UTC midnight; defaults to today

	BaseDir       string // Parent of the run directory and archive
	DateColumn    string // Column the date window applies to
	DateLayout    string // Layout for text timestamps in DateColumn
	RulesFile     string // Optional YAML or TOML taxonomy/policy override
	WriteManifest bool
}

// ErrStartDateRequired is returned when EXPORT_START_DATE is unset
var ErrStartDateRequired = errors.New("EXPORT_START_DATE environment variable is required")

func loadExportConfig(v *viper.Viper) (*ExportConfig, error) {
	startText := strings.TrimSpace(v.GetString("EXPORT_START_DATE"))
	if startText == "" {
		return nil, ErrStartDateRequired
	}

	start, err := ParseDate(startText)
	if err != nil {
		return nil, fmt.Errorf("invalid EXPORT_START_DATE: %w", err)
	}

	end := today()
	if endText := strings.TrimSpace(v.GetString("EXPORT_END_DATE")); endText != "" {
		end, err = ParseDate(endText)
		if err != nil {
			return nil, fmt.Errorf("invalid EXPORT_END_DATE: %w", err)
		}
	}

	return &ExportConfig{
		Categories:    splitList(v.GetString("EXPORT_CATEGORIES")),
		StartDate:     start,
		EndDate:       end,
		BaseDir:       v.GetString("EXPORT_BASE_DIR"),
		DateColumn:    v.GetString("EXPORT_DATE_COLUMN"),
		DateLayout:    DateLayout,
		RulesFile:     v.GetString("EXPORT_RULES_FILE"),
		WriteManifest: v.GetBool("EXPORT_WRITE_MANIFEST"),
	}, nil
}

// ParseDate parses a DD/MM/YYYY date as UTC midnight
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

func today() time.Time {
	t := now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Validate ensures the export window and paths are usable
func (c *ExportConfig) Validate() error {
	if c.StartDate.IsZero() {
		return ErrStartDateRequired
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("end date %s is before start date %s",
			c.EndDate.Format(DateLayout), c.StartDate.Format(DateLayout))
	}
	if c.BaseDir == "" {
		return errors.New("EXPORT_BASE_DIR must not be empty")
	}
	if c.DateColumn == "" {
		return errors.New("EXPORT_DATE_COLUMN must not be empty")
	}
	return nil
}

func (c *ExportConfig) String() string {
	categories := "all"
	if len(c.Categories) > 0 {
		categories = strings.Join(c.Categories, ",")
	}
	return fmt.Sprintf("categories=%s window=%s..%s dir=%s",
		categories, c.StartDate.Format(DateLayout), c.EndDate.Format(DateLayout), c.BaseDir)
}

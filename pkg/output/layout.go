// pkg/output/layout.go

// Package output owns the on-disk artifacts of an export run: the run
// directory of CSV files, the zip archive and the optional manifest.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StampLayout formats the run timestamp used in artifact names
const StampLayout = "2006-01-02_15-04-05"

// Layout names the artifacts of one run under a base directory
type Layout struct {
	BaseDir string
	Stamp   string
}

// NewLayout creates the layout for a run started at t
func NewLayout(baseDir string, t time.Time) Layout {
	return Layout{BaseDir: baseDir, Stamp: t.Format(StampLayout)}
}

// Dir is the directory holding the run's CSV files
func (l Layout) Dir() string {
	return filepath.Join(l.BaseDir, l.Stamp+"_exported_csv_files")
}

// ArchivePath is the zip file, a sibling of Dir
func (l Layout) ArchivePath() string {
	return filepath.Join(l.BaseDir, l.Stamp+"_export.zip")
}

// ManifestPath is the JSON run manifest, a sibling of Dir
func (l Layout) ManifestPath() string {
	return filepath.Join(l.BaseDir, l.Stamp+"_manifest.json")
}

// CSVPath returns the file a table is exported to
func (l Layout) CSVPath(table string) string {
	return filepath.Join(l.Dir(), CSVFileName(table))
}

// CSVFileName returns <table>.csv with path separators replaced
func CSVFileName(table string) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, table)
	return name + ".csv"
}

// PrepareDir removes anything already at path and creates it empty
func PrepareDir(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove existing directory %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// pkg/output/verifier.go
package output

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"time"
)

// SizeDiscrepancy records an archived file whose size differs from disk
type SizeDiscrepancy struct {
	Name         string
	DiskSize     int64
	ArchivedSize int64
}

// RowDiscrepancy records a CSV whose archived row count is not the
// number of rows the export wrote
type RowDiscrepancy struct {
	Name         string
	ExpectedRows int
	ArchivedRows int
}

// VerificationReport contains the results of an archive verification
type VerificationReport struct {
	ArchivePath      string
	VerificationTime time.Time
	ExpectedFiles    int
	ArchivedFiles    int
	MissingFiles     []string
	SizeMismatches   []SizeDiscrepancy
	RowMismatches    []RowDiscrepancy
	Duration         time.Duration
}

// Verified reports whether the archive matched the directory
func (r *VerificationReport) Verified() bool {
	return len(r.MissingFiles) == 0 && len(r.SizeMismatches) == 0 && len(r.RowMismatches) == 0
}

// VerifyArchive re-opens zipPath and checks that every file under dir is
// present with the same size. For each entry of expectedRows (archive name
// to data row count) the archived CSV is re-read and its rows counted.
func VerifyArchive(dir, zipPath string, expectedRows map[string]int) (*VerificationReport, error) {
	start := time.Now()
	report := &VerificationReport{
		ArchivePath:      zipPath,
		VerificationTime: start,
	}

	onDisk, err := listFiles(dir)
	if err != nil {
		return nil, err
	}
	report.ExpectedFiles = len(onDisk)

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", zipPath, err)
	}
	defer zr.Close()

	archived := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		archived[f.Name] = f
	}
	report.ArchivedFiles = len(archived)

	for name, size := range onDisk {
		f, ok := archived[name]
		if !ok {
			report.MissingFiles = append(report.MissingFiles, name)
			continue
		}
		if int64(f.UncompressedSize64) != size {
			report.SizeMismatches = append(report.SizeMismatches, SizeDiscrepancy{
				Name:         name,
				DiskSize:     size,
				ArchivedSize: int64(f.UncompressedSize64),
			})
		}
	}

	for name, want := range expectedRows {
		f, ok := archived[name]
		if !ok {
			continue
		}
		got, err := countCSVRows(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from archive: %w", name, err)
		}
		if got != want {
			report.RowMismatches = append(report.RowMismatches, RowDiscrepancy{
				Name:         name,
				ExpectedRows: want,
				ArchivedRows: got,
			})
		}
	}

	report.Duration = time.Since(start)
	return report, nil
}

// listFiles maps slash separated paths relative to dir to file sizes
func listFiles(dir string) (map[string]int64, error) {
	files := make(map[string]int64)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = info.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	return files, nil
}

// countCSVRows counts the data records of an archived CSV, excluding the header
func countCSVRows(f *zip.File) (int, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1

	records := 0
	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		records++
	}

	if records == 0 {
		return 0, nil
	}
	return records - 1, nil
}

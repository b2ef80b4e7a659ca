package output

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/David-Botos/mart-export/pkg/model"
)

func TestLayout(t *testing.T) {
	l := NewLayout("exports", time.Date(2024, 3, 5, 17, 4, 9, 0, time.UTC))

	tests := []struct {
		got, want string
	}{
		{l.Dir(), filepath.Join("exports", "2024-03-05_17-04-09_exported_csv_files")},
		{l.ArchivePath(), filepath.Join("exports", "2024-03-05_17-04-09_export.zip")},
		{l.ManifestPath(), filepath.Join("exports", "2024-03-05_17-04-09_manifest.json")},
		{l.CSVPath("patient"), filepath.Join(l.Dir(), "patient.csv")},
		{CSVFileName("a/b"), "a_b.csv"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestPrepareDir_RecreatesEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "stale.csv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := PrepareDir(dir); err != nil {
		t.Fatalf("PrepareDir() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("directory not empty: %d entries", len(entries))
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patient.csv")
	table := &model.Table{
		Name:    "patient",
		Columns: []string{"patient_id", "note", "created"},
		Rows: [][]interface{}{
			{"abc", "says \"hi\", twice", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
			{nil, nil, int64(3)},
		},
	}

	n, err := WriteCSV(path, table)
	if err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if n != 2 {
		t.Errorf("WriteCSV() wrote %d rows, want 2", n)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "patient_id,note,created\n" +
		"abc,\"says \"\"hi\"\", twice\",2024-01-10\n" +
		",,3\n"
	if string(data) != want {
		t.Errorf("csv =\n%s\nwant\n%s", data, want)
	}
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	n, err := WriteCSV(path, &model.Table{Name: "empty", Columns: []string{"id"}})
	if err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if n != 0 || string(data) != "id\n" {
		t.Errorf("got %d rows and %q", n, data)
	}
}

func TestWriteCSV_RaggedRowRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	table := &model.Table{Name: "bad", Columns: []string{"a", "b"}, Rows: [][]interface{}{{"1"}}}

	if _, err := WriteCSV(path, table); err == nil {
		t.Fatal("WriteCSV() expected error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("partial file left behind: %v", err)
	}
}

func TestWriteCSV_SingleEmptyColumnRoundTrips(t *testing.T) {
	base := t.TempDir()
	layout := NewLayout(base, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	if err := PrepareDir(layout.Dir()); err != nil {
		t.Fatal(err)
	}

	table := &model.Table{Name: "notes", Columns: []string{"comment"}, Rows: [][]interface{}{{nil}, {""}, {"ok"}}}
	n, err := WriteCSV(layout.CSVPath(table.Name), table)
	if err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if n != 3 {
		t.Errorf("WriteCSV() wrote %d rows, want 3", n)
	}

	data, _ := os.ReadFile(layout.CSVPath(table.Name))
	if want := "comment\n\"\"\n\"\"\nok\n"; string(data) != want {
		t.Errorf("csv = %q, want %q", data, want)
	}

	if _, err := ZipDir(layout.Dir(), layout.ArchivePath()); err != nil {
		t.Fatal(err)
	}
	report, err := VerifyArchive(layout.Dir(), layout.ArchivePath(), map[string]int{"notes.csv": 3})
	if err != nil {
		t.Fatalf("VerifyArchive() error = %v", err)
	}
	if !report.Verified() {
		t.Errorf("RowMismatches = %+v", report.RowMismatches)
	}
}

func TestWriteCSV_NoColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stripped.csv")
	table := &model.Table{Name: "stripped", Rows: [][]interface{}{{}, {}}}

	if _, err := WriteCSV(path, table); !errors.Is(err, ErrNoColumns) {
		t.Fatalf("WriteCSV() error = %v, want ErrNoColumns", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file left behind: %v", err)
	}
}

func writeRunDir(t *testing.T) (string, string) {
	t.Helper()
	base := t.TempDir()
	layout := NewLayout(base, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	if err := PrepareDir(layout.Dir()); err != nil {
		t.Fatal(err)
	}

	tables := []*model.Table{
		{Name: "patient", Columns: []string{"id"}, Rows: [][]interface{}{{int64(1)}, {int64(2)}}},
		{Name: "visit", Columns: []string{"id"}},
	}
	for _, table := range tables {
		if _, err := WriteCSV(layout.CSVPath(table.Name), table); err != nil {
			t.Fatal(err)
		}
	}
	return layout.Dir(), layout.ArchivePath()
}

func TestZipDir(t *testing.T) {
	dir, zipPath := writeRunDir(t)

	count, err := ZipDir(dir, zipPath)
	if err != nil {
		t.Fatalf("ZipDir() error = %v", err)
	}
	if count != 2 {
		t.Errorf("ZipDir() archived %d files, want 2", count)
	}

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Method != zip.Deflate {
			t.Errorf("%s stored with method %d, want deflate", f.Name, f.Method)
		}
	}
	if want := []string{"patient.csv", "visit.csv"}; !reflect.DeepEqual(names, want) {
		t.Errorf("archive entries = %v, want %v", names, want)
	}
}

func TestZipDir_EmptyDirectory(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "run")
	if err := PrepareDir(dir); err != nil {
		t.Fatal(err)
	}

	count, err := ZipDir(dir, filepath.Join(base, "run.zip"))
	if err != nil {
		t.Fatalf("ZipDir() error = %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestVerifyArchive(t *testing.T) {
	dir, zipPath := writeRunDir(t)
	if _, err := ZipDir(dir, zipPath); err != nil {
		t.Fatal(err)
	}

	report, err := VerifyArchive(dir, zipPath, map[string]int{"patient.csv": 2, "visit.csv": 0})
	if err != nil {
		t.Fatalf("VerifyArchive() error = %v", err)
	}
	if !report.Verified() {
		t.Errorf("report not verified: %+v", report)
	}
	if report.ExpectedFiles != 2 || report.ArchivedFiles != 2 {
		t.Errorf("files = %d/%d", report.ArchivedFiles, report.ExpectedFiles)
	}
}

func TestVerifyArchive_DetectsProblems(t *testing.T) {
	dir, zipPath := writeRunDir(t)
	if _, err := ZipDir(dir, zipPath); err != nil {
		t.Fatal(err)
	}

	// a file written after archiving is missing from the archive
	if err := os.WriteFile(filepath.Join(dir, "late.csv"), []byte("id\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := VerifyArchive(dir, zipPath, map[string]int{"patient.csv": 5})
	if err != nil {
		t.Fatalf("VerifyArchive() error = %v", err)
	}
	if report.Verified() {
		t.Fatal("report verified despite problems")
	}
	if !reflect.DeepEqual(report.MissingFiles, []string{"late.csv"}) {
		t.Errorf("MissingFiles = %v", report.MissingFiles)
	}
	if len(report.RowMismatches) != 1 || report.RowMismatches[0].ArchivedRows != 2 {
		t.Errorf("RowMismatches = %+v", report.RowMismatches)
	}
}

func TestVerifyArchive_MissingArchive(t *testing.T) {
	dir := t.TempDir()
	if _, err := VerifyArchive(dir, filepath.Join(dir, "nope.zip"), nil); err == nil {
		t.Error("VerifyArchive() expected error")
	}
}

func TestWriteManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	in := map[string]interface{}{"run_id": "r1", "tables": []string{"patient"}}

	if err := WriteManifest(path, in); err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("manifest should end with a newline")
	}

	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if out["run_id"] != "r1" {
		t.Errorf("run_id = %v", out["run_id"])
	}
}

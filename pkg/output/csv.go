// pkg/output/csv.go
package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/David-Botos/mart-export/pkg/converter"
	"github.com/David-Botos/mart-export/pkg/model"
)

// WriteCSV writes the table to path with a header row of the column names.
// Values use their natural text form and NULL becomes an empty field. It
// returns the number of data rows written.
func WriteCSV(path string, table *model.Table) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}

	written, err := writeRecords(f, table)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close %s: %w", path, closeErr)
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return written, nil
}

// ErrNoColumns is returned for a table the column policy left without columns
var ErrNoColumns = errors.New("no columns left to export")

func writeRecords(out io.Writer, table *model.Table) (int, error) {
	if len(table.Columns) == 0 {
		return 0, ErrNoColumns
	}

	w := csv.NewWriter(out)
	if err := writeRecord(w, out, table.Columns); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(table.Columns))
	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return i, fmt.Errorf("row %d has %d values for %d columns", i, len(row), len(table.Columns))
		}
		for j, value := range row {
			record[j] = converter.FormatValue(value)
		}
		if err := writeRecord(w, out, record); err != nil {
			return i, fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush csv: %w", err)
	}
	return len(table.Rows), nil
}

// writeRecord writes one record. csv.Writer renders a record holding a
// single empty field as a blank line, which readers skip, so that case is
// written as a quoted empty field instead.
func writeRecord(w *csv.Writer, out io.Writer, record []string) error {
	if len(record) != 1 || record[0] != "" {
		return w.Write(record)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	_, err := io.WriteString(out, "\"\"\n")
	return err
}

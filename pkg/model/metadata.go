// pkg/model/metadata.go
package model

import "strings"

// TableMetadata contains the structure information for a database table
type TableMetadata struct {
	Schema  string   // Schema name
	Table   string   // Table name
	Columns []Column // Column definitions in ordinal order
}

// Column represents metadata about a database column
type Column struct {
	Name     string // Column name as reported by the database
	DataType string // Database data type
	Nullable bool   // Whether column allows NULL values
}

// HasColumn reports whether the table has a column with exactly this name.
func (tm *TableMetadata) HasColumn(name string) bool {
	for _, col := range tm.Columns {
		if col.Name == name {
			return true
		}
	}
	return false
}

// GetColumnByName returns a column by name (case-insensitive)
// Returns nil if column not found
func (tm *TableMetadata) GetColumnByName(name string) *Column {
	normalizedName := normalizeColumnName(name)
	for i, col := range tm.Columns {
		if normalizeColumnName(col.Name) == normalizedName {
			return &tm.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the column names in ordinal order
func (tm *TableMetadata) ColumnNames() []string {
	names := make([]string, len(tm.Columns))
	for i, col := range tm.Columns {
		names[i] = col.Name
	}
	return names
}

func normalizeColumnName(name string) string {
	return strings.ToLower(name)
}

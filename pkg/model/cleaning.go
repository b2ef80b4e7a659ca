// pkg/model/cleaning.go
package model

// Cleaning operation kinds recorded by the column policy engine
const (
	OperationDeleteColumn    = "delete_column"
	OperationAnonymizeColumn = "anonymize_column"
	OperationUnknownAction   = "unknown_action"
)

// CleaningOperation represents a single column-level policy operation
// performed on a table before export
type CleaningOperation struct {
	TableName    string // Table name
	ColumnName   string // Column that was removed or rewritten (empty for unknown actions)
	Operation    string // Kind of operation (e.g., "delete_column")
	Reason       string // Policy action that triggered it (e.g., "delete_keys_by_pattern")
	RowsAffected int    // Values rewritten (anonymize only)
}

// pkg/policy/engine.go
package policy

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/mart-export/pkg/model"
)

// Anonymizer replaces a single value with its digest
type Anonymizer interface {
	Anonymize(value interface{}) interface{}
}

// Engine applies a Policy to tables
type Engine struct {
	policy     Policy
	anonymizer Anonymizer
	logger     *zap.Logger
}

// Report lists the operations performed on one table
type Report struct {
	Operations []model.CleaningOperation
}

// Dropped returns the names of the columns removed from the table
func (r Report) Dropped() []string {
	return r.columnsFor(model.OperationDeleteColumn)
}

// Anonymized returns the names of the columns whose values were replaced
func (r Report) Anonymized() []string {
	return r.columnsFor(model.OperationAnonymizeColumn)
}

func (r Report) columnsFor(operation string) []string {
	var cols []string
	for _, op := range r.Operations {
		if op.Operation == operation {
			cols = append(cols, op.ColumnName)
		}
	}
	return cols
}

// NewEngine creates a policy engine
func NewEngine(policy Policy, anonymizer Anonymizer, logger *zap.Logger) (*Engine, error) {
	if anonymizer == nil {
		return nil, errors.New("anonymizer cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Engine{
		policy:     policy,
		anonymizer: anonymizer,
		logger:     logger,
	}, nil
}

// Apply runs every rule of the policy against the table in order, mutating
// it in place. Columns named by a rule but absent from the table are ignored.
func (e *Engine) Apply(table *model.Table) (Report, error) {
	var report Report

	if table == nil {
		return report, errors.New("table cannot be nil")
	}
	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return report, fmt.Errorf("row %d has %d values for %d columns", i, len(row), len(table.Columns))
		}
	}

	for _, rule := range e.policy {
		switch rule.Action {
		case ActionDeleteKeys:
			drop := make(map[string]bool, len(rule.Columns))
			for _, col := range rule.Columns {
				drop[col] = true
			}
			report.addDeleted(table, table.DropColumns(drop), rule.Action)

		case ActionDeleteKeysByPattern:
			drop := matchPatterns(table.Columns, rule.Columns)
			report.addDeleted(table, table.DropColumns(drop), rule.Action)

		case ActionAnonymize:
			for _, col := range rule.Columns {
				idx := table.ColumnIndex(col)
				if idx < 0 {
					continue
				}
				for _, row := range table.Rows {
					row[idx] = e.anonymizer.Anonymize(row[idx])
				}
				report.Operations = append(report.Operations, model.CleaningOperation{
					TableName:    table.Name,
					ColumnName:   col,
					Operation:    model.OperationAnonymizeColumn,
					Reason:       string(rule.Action),
					RowsAffected: len(table.Rows),
				})
			}

		default:
			e.logger.Warn("Unknown policy action",
				zap.String("action", string(rule.Action)),
				zap.String("table", table.Name))
			report.Operations = append(report.Operations, model.CleaningOperation{
				TableName: table.Name,
				Operation: model.OperationUnknownAction,
				Reason:    string(rule.Action),
			})
		}
	}

	e.logger.Debug("Applied column policy",
		zap.String("table", table.Name),
		zap.Strings("dropped", report.Dropped()),
		zap.Strings("anonymized", report.Anonymized()))

	return report, nil
}

// matchPatterns returns the set of columns whose lower-cased name contains
// any lower-cased token. The set is computed once over the current columns.
func matchPatterns(columns, tokens []string) map[string]bool {
	lowered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		lowered = append(lowered, strings.ToLower(token))
	}

	matched := make(map[string]bool)
	for _, col := range columns {
		name := strings.ToLower(col)
		for _, token := range lowered {
			if strings.Contains(name, token) {
				matched[col] = true
				break
			}
		}
	}
	return matched
}

func (r *Report) addDeleted(table *model.Table, removed []string, action Action) {
	for _, col := range removed {
		r.Operations = append(r.Operations, model.CleaningOperation{
			TableName:  table.Name,
			ColumnName: col,
			Operation:  model.OperationDeleteColumn,
			Reason:     string(action),
		})
	}
}

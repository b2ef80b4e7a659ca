// pkg/classifier/classifier.go

// Package classifier resolves requested export categories to the concrete
// tables that should be exported.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/mart-export/pkg/model"
	"github.com/David-Botos/mart-export/pkg/taxonomy"
)

// ObsDatetimeColumn marks a table as holding clinical observations
const ObsDatetimeColumn = "obs_datetime"

// denylistTerms exclude operational tables. Matching is a case-insensitive
// substring test on the table name.
var denylistTerms = []string{"batch", "job", "execution", "task"}

// ColumnLister provides column metadata for a table
type ColumnLister interface {
	ListColumns(ctx context.Context, table string) (*model.TableMetadata, error)
}

// Classifier maps categories to tables using a taxonomy
type Classifier struct {
	taxonomy taxonomy.Taxonomy
	columns  ColumnLister
	logger   *zap.Logger
}

// NewClassifier creates a classifier
func NewClassifier(tax taxonomy.Taxonomy, columns ColumnLister, logger *zap.Logger) (*Classifier, error) {
	if columns == nil {
		return nil, errors.New("column lister cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Classifier{taxonomy: tax, columns: columns, logger: logger}, nil
}

// FilterDenylisted drops tables whose name contains a denylisted term,
// keeping the input order
func FilterDenylisted(tables []string) []string {
	kept := make([]string, 0, len(tables))
	for _, table := range tables {
		if !isDenylisted(table) {
			kept = append(kept, table)
		}
	}
	return kept
}

func isDenylisted(table string) bool {
	name := strings.ToLower(table)
	for _, term := range denylistTerms {
		if strings.Contains(name, term) {
			return true
		}
	}
	return false
}

// Classify returns the sorted, deduplicated tables to export for the
// requested categories. When nothing resolves, including when no
// categories are requested, every non-denylisted table is returned.
// The result never contains a table outside allTables or a denylisted one.
func (c *Classifier) Classify(ctx context.Context, allTables, requested []string) ([]string, error) {
	candidates := FilterDenylisted(allTables)

	pool := make(map[string]bool, len(candidates))
	for _, table := range candidates {
		pool[table] = true
	}

	resolved := make(map[string]bool)
	scannedObs := false
	for _, category := range requested {
		if category == taxonomy.ObservationsCategory && !scannedObs {
			scannedObs = true
			obsTables, err := c.observationTables(ctx, candidates)
			if err != nil {
				return nil, err
			}
			for _, table := range obsTables {
				resolved[table] = true
			}
		}

		tables, ok := c.taxonomy.Tables(category)
		if !ok {
			if category != taxonomy.ObservationsCategory {
				c.logger.Warn("Ignoring unknown category", zap.String("category", category))
			}
			continue
		}
		for _, table := range tables {
			resolved[table] = true
		}
	}

	var result []string
	if len(resolved) == 0 {
		result = append(result, candidates...)
	} else {
		for table := range resolved {
			if pool[table] {
				result = append(result, table)
			}
		}
	}

	result = dedupe(result)
	sort.Strings(result)

	c.logger.Info("Classified tables",
		zap.Strings("categories", requested),
		zap.Int("available", len(allTables)),
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(result)))

	return result, nil
}

// observationTables returns the candidates having an obs_datetime column
func (c *Classifier) observationTables(ctx context.Context, candidates []string) ([]string, error) {
	var tables []string
	for _, table := range candidates {
		meta, err := c.columns.ListColumns(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect columns of %s: %w", table, err)
		}
		if meta.HasColumn(ObsDatetimeColumn) {
			tables = append(tables, table)
		} else if col := meta.GetColumnByName(ObsDatetimeColumn); col != nil {
			c.logger.Debug("Column name differs from obs_datetime only in case, table not included",
				zap.String("table", table),
				zap.String("column", col.Name))
		}
	}
	return tables, nil
}

func dedupe(tables []string) []string {
	seen := make(map[string]bool, len(tables))
	out := tables[:0]
	for _, table := range tables {
		if seen[table] {
			continue
		}
		seen[table] = true
		out = append(out, table)
	}
	return out
}

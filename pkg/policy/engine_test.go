package policy

import (
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/David-Botos/mart-export/pkg/model"
)

// tagAnonymizer makes anonymized values easy to recognise in assertions
type tagAnonymizer struct{}

func (tagAnonymizer) Anonymize(value interface{}) interface{} {
	if value == nil {
		return nil
	}
	return "anon:" + value.(string)
}

func newTestEngine(t *testing.T, p Policy) *Engine {
	t.Helper()
	engine, err := NewEngine(p, tagAnonymizer{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}

func newTable(columns ...string) *model.Table {
	row := make([]interface{}, len(columns))
	for i, col := range columns {
		row[i] = col + "-value"
	}
	return &model.Table{Name: "t", Columns: columns, Rows: [][]interface{}{row}}
}

func TestApply_DeleteKeys(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		delete  []string
		want    []string
	}{
		{"removes named columns", []string{"id", "given_name", "family_name"}, []string{"given_name", "family_name"}, []string{"id"}},
		{"absent column is a no-op", []string{"id", "gender"}, []string{"given_name"}, []string{"id", "gender"}},
		{"exact match only", []string{"Given_Name", "id"}, []string{"given_name"}, []string{"Given_Name", "id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, Policy{{Action: ActionDeleteKeys, Columns: tt.delete}})
			table := newTable(tt.columns...)

			if _, err := engine.Apply(table); err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if !reflect.DeepEqual(table.Columns, tt.want) {
				t.Errorf("columns = %v, want %v", table.Columns, tt.want)
			}
			if len(table.Rows[0]) != len(tt.want) {
				t.Errorf("row width = %d, want %d", len(table.Rows[0]), len(tt.want))
			}
		})
	}
}

func TestApply_DeleteKeysByPattern(t *testing.T) {
	engine := newTestEngine(t, Policy{{Action: ActionDeleteKeysByPattern, Columns: []string{"secret"}}})

	table := newTable("id", "Secret_Code", "user_secret_id", "gender")
	report, err := engine.Apply(table)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if want := []string{"id", "gender"}; !reflect.DeepEqual(table.Columns, want) {
		t.Errorf("columns = %v, want %v", table.Columns, want)
	}
	if want := []interface{}{"id-value", "gender-value"}; !reflect.DeepEqual(table.Rows[0], want) {
		t.Errorf("row = %v, want %v", table.Rows[0], want)
	}
	if got := report.Dropped(); !reflect.DeepEqual(got, []string{"Secret_Code", "user_secret_id"}) {
		t.Errorf("Dropped() = %v", got)
	}
}

func TestApply_DeleteKeysByPattern_NoMatch(t *testing.T) {
	engine := newTestEngine(t, Policy{{Action: ActionDeleteKeysByPattern, Columns: []string{"secret"}}})

	table := newTable("id", "gender")
	if _, err := engine.Apply(table); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if want := []string{"id", "gender"}; !reflect.DeepEqual(table.Columns, want) {
		t.Errorf("columns = %v, want %v", table.Columns, want)
	}
}

func TestApply_DeleteKeysByPattern_OverlappingTokens(t *testing.T) {
	engine := newTestEngine(t, Policy{{Action: ActionDeleteKeysByPattern, Columns: []string{"phone", "home_phone", "PHONE"}}})

	table := newTable("home_phone", "id")
	report, err := engine.Apply(table)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if want := []string{"id"}; !reflect.DeepEqual(table.Columns, want) {
		t.Errorf("columns = %v, want %v", table.Columns, want)
	}
	if got := len(report.Dropped()); got != 1 {
		t.Errorf("dropped %d columns, want 1", got)
	}
}

func TestApply_Anonymize(t *testing.T) {
	engine := newTestEngine(t, Policy{{Action: ActionAnonymize, Columns: []string{"patient_id", "missing"}}})

	table := &model.Table{
		Name:    "visits",
		Columns: []string{"patient_id", "location"},
		Rows: [][]interface{}{
			{"p1", "ward"},
			{nil, "clinic"},
		},
	}

	report, err := engine.Apply(table)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	want := [][]interface{}{
		{"anon:p1", "ward"},
		{nil, "clinic"},
	}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Errorf("rows = %v, want %v", table.Rows, want)
	}
	if got := report.Anonymized(); !reflect.DeepEqual(got, []string{"patient_id"}) {
		t.Errorf("Anonymized() = %v", got)
	}
}

func TestApply_RulesSeePreviousRules(t *testing.T) {
	engine := newTestEngine(t, Policy{
		{Action: ActionDeleteKeysByPattern, Columns: []string{"patient"}},
		{Action: ActionAnonymize, Columns: []string{"patient_id"}},
	})

	table := newTable("patient_id", "obs_value")
	report, err := engine.Apply(table)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if want := []string{"obs_value"}; !reflect.DeepEqual(table.Columns, want) {
		t.Errorf("columns = %v, want %v", table.Columns, want)
	}
	if len(report.Anonymized()) != 0 {
		t.Errorf("anonymized a column that was already deleted: %v", report.Anonymized())
	}
}

func TestApply_UnknownActionIgnored(t *testing.T) {
	engine := newTestEngine(t, Policy{
		{Action: "delete_keys_whilecart", Columns: []string{"id"}},
		{Action: ActionDeleteKeys, Columns: []string{"name"}},
	})

	table := newTable("id", "name")
	report, err := engine.Apply(table)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if want := []string{"id"}; !reflect.DeepEqual(table.Columns, want) {
		t.Errorf("columns = %v, want %v", table.Columns, want)
	}

	var unknown int
	for _, op := range report.Operations {
		if op.Operation == model.OperationUnknownAction {
			unknown++
		}
	}
	if unknown != 1 {
		t.Errorf("unknown action operations = %d, want 1", unknown)
	}
}

func TestApply_RaggedRowFails(t *testing.T) {
	engine := newTestEngine(t, DefaultPolicy())

	table := &model.Table{Name: "t", Columns: []string{"a", "b"}, Rows: [][]interface{}{{"only-one"}}}
	if _, err := engine.Apply(table); err == nil {
		t.Fatal("Apply() expected error for ragged row")
	}
}

func TestNewEngine_RequiresCollaborators(t *testing.T) {
	if _, err := NewEngine(DefaultPolicy(), nil, zap.NewNop()); err == nil {
		t.Error("NewEngine() expected error for nil anonymizer")
	}
	if _, err := NewEngine(DefaultPolicy(), tagAnonymizer{}, nil); err == nil {
		t.Error("NewEngine() expected error for nil logger")
	}
}

func TestDeleteKeysByPattern_Property(t *testing.T) {
	engine := newTestEngine(t, Policy{{Action: ActionDeleteKeysByPattern, Columns: []string{"secret"}}})

	rapid.Check(t, func(t *rapid.T) {
		columns := rapid.SliceOfNDistinct(
			rapid.StringMatching(`[A-Za-z_]{0,6}(SeCrEt|secret)?[A-Za-z_]{0,6}`),
			1, 8, rapid.ID[string],
		).Draw(t, "columns")

		table := newTable(columns...)
		if _, err := engine.Apply(table); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}

		kept := make(map[string]bool, len(table.Columns))
		for _, col := range table.Columns {
			kept[col] = true
			if strings.Contains(strings.ToLower(col), "secret") {
				t.Fatalf("column %q survived", col)
			}
		}
		for _, col := range columns {
			if !strings.Contains(strings.ToLower(col), "secret") && !kept[col] {
				t.Fatalf("column %q was removed without matching", col)
			}
		}
	})
}

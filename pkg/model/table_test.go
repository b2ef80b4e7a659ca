package model

import (
	"reflect"
	"testing"
)

func TestTable_DropColumns(t *testing.T) {
	tests := []struct {
		name        string
		drop        map[string]bool
		wantColumns []string
		wantRows    [][]interface{}
		wantRemoved []string
	}{
		{
			name:        "drops middle column",
			drop:        map[string]bool{"b": true},
			wantColumns: []string{"a", "c"},
			wantRows:    [][]interface{}{{1, 3}, {4, 6}},
			wantRemoved: []string{"b"},
		},
		{
			name:        "missing column is ignored",
			drop:        map[string]bool{"z": true},
			wantColumns: []string{"a", "b", "c"},
			wantRows:    [][]interface{}{{1, 2, 3}, {4, 5, 6}},
		},
		{
			name:        "drops everything",
			drop:        map[string]bool{"a": true, "b": true, "c": true},
			wantColumns: []string{},
			wantRows:    [][]interface{}{{}, {}},
			wantRemoved: []string{"a", "b", "c"},
		},
		{
			name:        "empty drop set",
			drop:        nil,
			wantColumns: []string{"a", "b", "c"},
			wantRows:    [][]interface{}{{1, 2, 3}, {4, 5, 6}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &Table{
				Name:    "t",
				Columns: []string{"a", "b", "c"},
				Rows:    [][]interface{}{{1, 2, 3}, {4, 5, 6}},
			}

			removed := table.DropColumns(tt.drop)

			if !reflect.DeepEqual(removed, tt.wantRemoved) {
				t.Errorf("removed = %v, want %v", removed, tt.wantRemoved)
			}
			if !reflect.DeepEqual(table.Columns, tt.wantColumns) {
				t.Errorf("columns = %v, want %v", table.Columns, tt.wantColumns)
			}
			if !reflect.DeepEqual(table.Rows, tt.wantRows) {
				t.Errorf("rows = %v, want %v", table.Rows, tt.wantRows)
			}
		})
	}
}

func TestTable_ColumnIndex(t *testing.T) {
	table := &Table{Columns: []string{"id", "date_created"}}

	if got := table.ColumnIndex("date_created"); got != 1 {
		t.Errorf("ColumnIndex(date_created) = %d, want 1", got)
	}
	if got := table.ColumnIndex("Date_Created"); got != -1 {
		t.Errorf("ColumnIndex is case-sensitive, got %d", got)
	}
	if table.HasColumn("missing") {
		t.Error("HasColumn(missing) = true")
	}
}

func TestTableMetadata_HasColumn(t *testing.T) {
	meta := TableMetadata{
		Table: "encounter_obs",
		Columns: []Column{
			{Name: "id", DataType: "integer"},
			{Name: "obs_datetime", DataType: "timestamp", Nullable: true},
		},
	}

	if !meta.HasColumn("obs_datetime") {
		t.Error("HasColumn(obs_datetime) = false")
	}
	if meta.HasColumn("OBS_DATETIME") {
		t.Error("HasColumn should match names exactly")
	}
	if got := meta.ColumnNames(); !reflect.DeepEqual(got, []string{"id", "obs_datetime"}) {
		t.Errorf("ColumnNames() = %v", got)
	}
}

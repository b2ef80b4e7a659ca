package connector

import (
	"context"
	"database/sql"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/David-Botos/mart-export/pkg/config"
)

func newSQLiteFixture(t *testing.T) *config.DatabaseConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mart.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE patient (patient_id INTEGER NOT NULL, given_name TEXT, date_created TEXT)`,
		`CREATE TABLE "encounter obs" (id INTEGER, obs_datetime TEXT, value_numeric REAL)`,
		`INSERT INTO patient VALUES (1, 'Amina', '10/01/2024'), (2, NULL, '09/01/2024')`,
		`INSERT INTO "encounter obs" VALUES (7, '2024-01-10 08:00:00', 36.6)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("fixture %q: %v", stmt, err)
		}
	}

	return &config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		QueryTimeout: 30 * time.Second,
		SQLite:       &config.SQLiteConfig{Path: path},
	}
}

func openSQLite(t *testing.T) *SQLConnector {
	t.Helper()
	conn, err := NewSQLiteConnector(context.Background(), newSQLiteFixture(t))
	if err != nil {
		t.Fatalf("NewSQLiteConnector() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSQLiteConnector_ListTables(t *testing.T) {
	conn := openSQLite(t)

	tables, err := conn.ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if want := []string{"encounter obs", "patient"}; !reflect.DeepEqual(tables, want) {
		t.Errorf("ListTables() = %v, want %v", tables, want)
	}
}

func TestSQLiteConnector_ListColumns(t *testing.T) {
	conn := openSQLite(t)

	meta, err := conn.ListColumns(context.Background(), "patient")
	if err != nil {
		t.Fatalf("ListColumns() error = %v", err)
	}
	if want := []string{"patient_id", "given_name", "date_created"}; !reflect.DeepEqual(meta.ColumnNames(), want) {
		t.Errorf("columns = %v, want %v", meta.ColumnNames(), want)
	}
	if meta.Columns[0].Nullable {
		t.Error("patient_id reported nullable")
	}
	if !meta.Columns[1].Nullable {
		t.Error("given_name reported not nullable")
	}
}

func TestSQLiteConnector_ReadTable(t *testing.T) {
	conn := openSQLite(t)

	table, err := conn.ReadTable(context.Background(), "patient")
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}

	if want := []string{"patient_id", "given_name", "date_created"}; !reflect.DeepEqual(table.Columns, want) {
		t.Errorf("columns = %v, want %v", table.Columns, want)
	}
	if table.RowCount() != 2 {
		t.Fatalf("rows = %d, want 2", table.RowCount())
	}
	if got := table.Rows[0][0]; got != int64(1) {
		t.Errorf("patient_id = %#v, want int64(1)", got)
	}
	if got := table.Rows[1][1]; got != nil {
		t.Errorf("NULL given_name = %#v, want nil", got)
	}

	// the scoped connection must be back in the pool
	if inUse := conn.DB().Stats().InUse; inUse != 0 {
		t.Errorf("connections in use after ReadTable = %d", inUse)
	}
}

func TestSQLiteConnector_ReadTableQuotesNames(t *testing.T) {
	conn := openSQLite(t)

	table, err := conn.ReadTable(context.Background(), "encounter obs")
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if table.RowCount() != 1 {
		t.Errorf("rows = %d, want 1", table.RowCount())
	}

	if _, err := conn.ReadTable(context.Background(), `patient"; DROP TABLE patient; --`); err == nil {
		t.Error("ReadTable() expected error for unknown table")
	}
	if _, err := conn.ReadTable(context.Background(), "patient"); err != nil {
		t.Errorf("patient table damaged: %v", err)
	}
}

func TestSQLiteConnector_Validate(t *testing.T) {
	conn := openSQLite(t)
	if err := conn.Validate(context.Background()); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConnectorFactory_UnsupportedDriver(t *testing.T) {
	f := NewConnectorFactory(&config.DatabaseConfig{Driver: "oracle"}, zapNop())
	if _, err := f.CreateConnector(context.Background()); err == nil {
		t.Error("CreateConnector() expected error")
	}
}

func TestConnectorFactory_SQLite(t *testing.T) {
	f := NewConnectorFactory(newSQLiteFixture(t), zapNop())

	conn, err := f.CreateConnector(context.Background())
	if err != nil {
		t.Fatalf("CreateConnector() error = %v", err)
	}
	defer conn.Close()

	if conn.DB().Stats().MaxOpenConnections != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", conn.DB().Stats().MaxOpenConnections)
	}
}

func zapNop() *zap.Logger {
	return zap.NewNop()
}

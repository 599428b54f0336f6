package database

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// mockLogger is a simple test logger that doesn't write to files
type mockLogger struct{}

func (m *mockLogger) Error(msg, category string) {}
func (m *mockLogger) Info(msg, category string)  {}
func (m *mockLogger) Warn(msg, category string)  {}

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) (*sql.DB, *mockLogger) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			size_bytes INTEGER
		)
	`)
	if err != nil {
		t.Fatalf("Failed to create test table: %v", err)
	}

	logger := &mockLogger{}
	return db, logger
}

type entryRow struct {
	ID   int64
	Name string
	Size int64
}

func scanEntry(row *sql.Row) (*entryRow, error) {
	var e entryRow
	err := row.Scan(&e.ID, &e.Name, &e.Size)
	return &e, err
}

func scanEntryRows(rows *sql.Rows) (*entryRow, error) {
	var e entryRow
	err := rows.Scan(&e.ID, &e.Name, &e.Size)
	return &e, err
}

func TestQueryRowSingle(t *testing.T) {
	db, logger := setupTestDB(t)
	ctx := context.Background()

	_, err := db.Exec("INSERT INTO entries (name, size_bytes) VALUES (?, ?)", "genome.fasta", 1024)
	if err != nil {
		t.Fatalf("Failed to insert test data: %v", err)
	}

	t.Run("successful query", func(t *testing.T) {
		query := "SELECT id, name, size_bytes FROM entries WHERE name = ?"
		result, err := QueryRowSingle(ctx, db, query, scanEntry, logger, "test", "genome.fasta")

		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
		if result == nil {
			t.Fatal("Expected result, got nil")
		}
		if result.Name != "genome.fasta" {
			t.Errorf("Expected name 'genome.fasta', got '%s'", result.Name)
		}
		if result.Size != 1024 {
			t.Errorf("Expected size 1024, got %d", result.Size)
		}
	})

	t.Run("no rows found returns nil", func(t *testing.T) {
		query := "SELECT id, name, size_bytes FROM entries WHERE name = ?"
		result, err := QueryRowSingle(ctx, db, query, scanEntry, logger, "test", "nonexistent")

		if err != nil {
			t.Errorf("Expected no error for ErrNoRows, got: %v", err)
		}
		if result != nil {
			t.Error("Expected nil result for ErrNoRows")
		}
	})

	t.Run("scan error is returned", func(t *testing.T) {
		// Query returns 2 columns but the scanner expects 3
		query := "SELECT id, name FROM entries WHERE name = ?"
		result, err := QueryRowSingle(ctx, db, query, scanEntry, logger, "test", "genome.fasta")

		if err == nil {
			t.Error("Expected error for scan mismatch, got nil")
		}
		if result != nil {
			t.Error("Expected nil result on error")
		}
	})
}

func TestQueryRows(t *testing.T) {
	db, logger := setupTestDB(t)
	ctx := context.Background()

	testData := []struct {
		name string
		size int64
	}{
		{"reads_1.fastq", 100},
		{"reads_2.fastq", 200},
		{"reference.fasta", 300},
	}

	for _, td := range testData {
		_, err := db.Exec("INSERT INTO entries (name, size_bytes) VALUES (?, ?)", td.name, td.size)
		if err != nil {
			t.Fatalf("Failed to insert test data: %v", err)
		}
	}

	t.Run("successful multi-row query", func(t *testing.T) {
		query := "SELECT id, name, size_bytes FROM entries ORDER BY name"
		results, err := QueryRows(ctx, db, query, scanEntryRows, logger, "test")

		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
		if len(results) != 3 {
			t.Fatalf("Expected 3 results, got %d", len(results))
		}
		if results[0].Name != "reads_1.fastq" {
			t.Errorf("Expected first result name 'reads_1.fastq', got '%s'", results[0].Name)
		}
	})

	t.Run("empty result set returns empty slice", func(t *testing.T) {
		query := "SELECT id, name, size_bytes FROM entries WHERE name = ?"
		results, err := QueryRows(ctx, db, query, scanEntryRows, logger, "test", "nonexistent")

		if err != nil {
			t.Errorf("Expected no error for empty result, got: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("Expected empty slice, got %d results", len(results))
		}
	})

	t.Run("scan error skips the row and continues", func(t *testing.T) {
		// Query returns 2 columns but the scanner expects 3, so every row fails
		query := "SELECT id, name FROM entries ORDER BY name"
		results, err := QueryRows(ctx, db, query, scanEntryRows, logger, "test")

		if err != nil {
			t.Errorf("Expected no error (bad rows skipped), got: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("Expected 0 results (all skipped), got %d", len(results))
		}
	})
}

func TestExecWithLogging(t *testing.T) {
	db, logger := setupTestDB(t)
	ctx := context.Background()

	t.Run("successful insert", func(t *testing.T) {
		query := "INSERT INTO entries (name, size_bytes) VALUES (?, ?)"
		result, err := ExecWithLogging(ctx, db, query, logger, "test", "genome.fasta", 1024)

		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if result == nil {
			t.Fatal("Expected result, got nil")
		}

		id, err := result.LastInsertId()
		if err != nil {
			t.Errorf("Expected to get last insert ID, got error: %v", err)
		}
		if id <= 0 {
			t.Errorf("Expected positive ID, got %d", id)
		}
	})

	t.Run("syntax error is returned", func(t *testing.T) {
		query := "INVALID SQL SYNTAX"
		result, err := ExecWithLogging(ctx, db, query, logger, "test")

		if err == nil {
			t.Error("Expected error for invalid SQL, got nil")
		}
		if result != nil {
			t.Error("Expected nil result on error")
		}
	})
}

func TestExecWithAffectedRowsCheck(t *testing.T) {
	db, logger := setupTestDB(t)
	ctx := context.Background()

	_, err := db.Exec("INSERT INTO entries (name, size_bytes) VALUES (?, ?)", "genome.fasta", 1024)
	if err != nil {
		t.Fatalf("Failed to insert test data: %v", err)
	}

	t.Run("successful update", func(t *testing.T) {
		query := "UPDATE entries SET size_bytes = ? WHERE name = ?"
		rowsAffected, err := ExecWithAffectedRowsCheck(ctx, db, query, logger, "test", 2048, "genome.fasta")

		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
		if rowsAffected != 1 {
			t.Errorf("Expected 1 row affected, got %d", rowsAffected)
		}
	})

	t.Run("no rows affected returns ErrNoRows", func(t *testing.T) {
		query := "UPDATE entries SET size_bytes = ? WHERE name = ?"
		rowsAffected, err := ExecWithAffectedRowsCheck(ctx, db, query, logger, "test", 4096, "nonexistent")

		if err != sql.ErrNoRows {
			t.Errorf("Expected sql.ErrNoRows, got: %v", err)
		}
		if rowsAffected != 0 {
			t.Errorf("Expected 0 rows affected, got %d", rowsAffected)
		}
	})

	t.Run("successful delete", func(t *testing.T) {
		query := "DELETE FROM entries WHERE name = ?"
		rowsAffected, err := ExecWithAffectedRowsCheck(ctx, db, query, logger, "test", "genome.fasta")

		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
		if rowsAffected != 1 {
			t.Errorf("Expected 1 row affected, got %d", rowsAffected)
		}
	})
}

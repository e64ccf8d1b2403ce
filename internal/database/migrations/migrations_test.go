package migrations

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	err := MigrateUp(db)
	if err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Verify tables were created
	tables := []string{"game_dict", "play_time", "overall_time", "game_file_checksum", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestCheckDBMigrationStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Fresh database should need migration
	err := CheckDBMigrationStatus(db)
	if err == nil {
		t.Error("CheckDBMigrationStatus() expected error for fresh database, got nil")
	}

	if err.Error() != "database has no schema version (needs migration)" {
		t.Errorf("CheckDBMigrationStatus() error = %q, want error about needing migration", err.Error())
	}
}

func TestCheckDBMigrationStatus_AfterMigration(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	err := CheckDBMigrationStatus(db)
	if err != nil {
		t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}

	if err := MigrateUp(db); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}

	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after double migration returned error: %v", err)
	}
}

func TestSchema_ChecksumTripleUnique(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	insert := `
		INSERT INTO game_file_checksum (game_id, checksum, algorithm, chunk_size)
		VALUES ('100', 'abc', 'SHA256', 1024)`
	if _, err := db.Exec(insert); err != nil {
		t.Fatalf("Failed to insert checksum: %v", err)
	}

	// Duplicate (game_id, checksum, algorithm) triple must violate the
	// unique constraint.
	if _, err := db.Exec(insert); err == nil {
		t.Error("Expected unique constraint violation for duplicate checksum triple, but insert succeeded")
	}

	// Same checksum under a different algorithm is a distinct edge.
	_, err := db.Exec(`
		INSERT INTO game_file_checksum (game_id, checksum, algorithm, chunk_size)
		VALUES ('100', 'abc', 'SHA512', 1024)`)
	if err != nil {
		t.Errorf("Failed to insert same checksum under different algorithm: %v", err)
	}
}

func TestSchema_SessionsWithoutDictionaryEntry(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Sessions and checksums may arrive before any dictionary row exists.
	_, err := db.Exec(`
		INSERT INTO play_time (date_time, duration, game_id)
		VALUES ('2022-01-01T10:00:00', 3600, 'untracked')`)
	if err != nil {
		t.Errorf("Failed to insert session without dictionary entry: %v", err)
	}

	_, err = db.Exec(`
		INSERT INTO game_file_checksum (game_id, checksum, algorithm, chunk_size)
		VALUES ('untracked', 'abc', 'SHA256', 1024)`)
	if err != nil {
		t.Errorf("Failed to insert checksum without dictionary entry: %v", err)
	}
}

// openTestDB opens an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	return db
}

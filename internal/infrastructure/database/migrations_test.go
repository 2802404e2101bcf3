package database

import (
	"context"
	"testing"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantIsUp    bool
		wantOK      bool
	}{
		{
			name:        "valid up migration",
			filename:    "20260801_000000_state_history.up.sql",
			wantVersion: "20260801_000000",
			wantIsUp:    true,
			wantOK:      true,
		},
		{
			name:        "valid down migration",
			filename:    "20260801_000000_state_history.down.sql",
			wantVersion: "20260801_000000",
			wantIsUp:    false,
			wantOK:      true,
		},
		{
			name:     "not sql",
			filename: "readme.md",
			wantOK:   false,
		},
		{
			name:     "missing direction suffix",
			filename: "20260801_000000_state_history.sql",
			wantOK:   false,
		},
		{
			name:     "no version parts",
			filename: "schema.up.sql",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion {
				t.Errorf("version = %q, want %q", version, tt.wantVersion)
			}
			if isUp != tt.wantIsUp {
				t.Errorf("isUp = %v, want %v", isUp, tt.wantIsUp)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	if got := extractMigrationName("20260801_000000_state_history.up.sql"); got != "state_history" {
		t.Errorf("extractMigrationName() = %q, want %q", got, "state_history")
	}
}

func TestMigrateNoEmbeddedFS(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	// Without an embedded FS, Migrate creates the migrations table and no-ops.
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	var count int
	err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	if err != nil {
		t.Fatalf("schema_migrations table missing: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 applied migrations, got %d", count)
	}
}

func TestApplyMigration(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()
	if err := db.createMigrationsTable(ctx); err != nil {
		t.Fatalf("createMigrationsTable() error = %v", err)
	}

	m := Migration{
		Version: "20260801_000000",
		Name:    "state_history",
		UpSQL:   "CREATE TABLE state_history (id INTEGER PRIMARY KEY, zone TEXT NOT NULL)",
	}

	if err := db.applyMigration(ctx, m); err != nil {
		t.Fatalf("applyMigration() error = %v", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		t.Fatalf("getAppliedMigrations() error = %v", err)
	}
	if len(applied) != 1 || applied[0].Version != m.Version {
		t.Errorf("applied = %+v, want one record with version %s", applied, m.Version)
	}

	// Table from UpSQL should exist
	if _, err := db.ExecContext(ctx, "INSERT INTO state_history (zone) VALUES ('lounge')"); err != nil {
		t.Errorf("migrated table not usable: %v", err)
	}
}

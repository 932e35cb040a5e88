package migrations_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/msomdec/approval-gate/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Each pooled connection would get its own in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunMigrations(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("first migration run: %v", err)
	}

	_, err := db.ExecContext(ctx,
		"INSERT INTO users (id, username, email, phone_number, password_hash) VALUES (?, ?, ?, ?, ?)",
		"u-1", "alice", "alice@example.com", "+15550100", "hash123",
	)
	if err != nil {
		t.Fatalf("insert into users: %v", err)
	}

	var role string
	var approved bool
	if err := db.QueryRowContext(ctx, "SELECT role, is_approved FROM users WHERE id = 'u-1'").Scan(&role, &approved); err != nil {
		t.Fatalf("select defaults: %v", err)
	}
	if role != "user" || approved {
		t.Fatalf("expected defaults role=user approved=false, got %q %v", role, approved)
	}
}

func TestRunMigrations_RejectsEmptyPasswordHash(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	_, err := db.ExecContext(ctx,
		"INSERT INTO users (id, username, email, phone_number, password_hash) VALUES (?, ?, ?, ?, ?)",
		"u-1", "alice", "alice@example.com", "+15550100", "",
	)
	if err == nil {
		t.Fatal("expected check constraint to reject empty password hash")
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("second run (idempotent): %v", err)
	}

	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	if err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 migration records, got %d", count)
	}
}

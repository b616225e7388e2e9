// Package testutil holds the Postgres fixtures shared by the integration
// tests: connections, per-test transactions, the migrated schema and seeded
// accounts. Everything skips the calling test when TEST_DATABASE_URL is not
// set, so `go test ./...` works without a database.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql

	"github.com/pkordes/travel-itineraries/backend/internal/domain"
	"github.com/pkordes/travel-itineraries/backend/internal/repo"
	"github.com/pkordes/travel-itineraries/backend/migrations"
)

// DSNEnv names the variable holding the test database connection string.
const DSNEnv = "TEST_DATABASE_URL"

// fixtureHash is a syntactically valid bcrypt hash nobody can log in with.
const fixtureHash = "$2a$04$fixturefixturefixturefixturefixturefixturefixturefixt"

// NewPool returns a pool on the test database, closed when the test ends.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewPool: open pool: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

// NewTx begins a transaction on the test database and rolls it back when the
// test ends, so each test sees an empty schema and leaves nothing behind.
// The repos accept a pgx.Tx wherever they accept a pool.
func NewTx(t *testing.T) pgx.Tx {
	t.Helper()

	tx, err := NewPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("testutil.NewTx: begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}

// NewSQLDB returns a database/sql handle on the test database for goose,
// closed when the test ends.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: open: %v", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		t.Fatalf("testutil.NewSQLDB: ping: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// MustMigrate applies every pending migration to the database at dsn.
// It is meant for TestMain, where no *testing.T exists, and panics on error.
func MustMigrate(dsn string) {
	db := MustOpenSQLDB(dsn)
	defer db.Close()
	if _, err := migrations.Up(context.Background(), db); err != nil {
		panic("testutil.MustMigrate: " + err.Error())
	}
}

// MustOpenSQLDB opens a *sql.DB for dsn and panics on any error.
// Callers close the returned handle.
func MustOpenSQLDB(dsn string) *sql.DB {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		panic("testutil.MustOpenSQLDB: open: " + err.Error())
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		panic("testutil.MustOpenSQLDB: ping: " + err.Error())
	}
	return db
}

// SeedUser inserts an account named prefix plus a random suffix, so tests
// sharing a database never collide on the unique username index.
func SeedUser(t *testing.T, users repo.UserRepo, prefix string) domain.User {
	t.Helper()

	u, err := users.Create(context.Background(), domain.User{
		Username:     prefix + "-" + uuid.NewString()[:8],
		PasswordHash: fixtureHash,
	})
	if err != nil {
		t.Fatalf("testutil.SeedUser: %v", err)
	}
	return u
}

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		t.Skip(DSNEnv + " not set; skipping integration test")
	}
	return dsn
}

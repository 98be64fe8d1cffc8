// Package testsupport provides shared fixtures for tests that need a real
// database. Tests run against an in-memory sqlite instance with the same
// schema and seed data the server boots with.
package testsupport

import (
	"testing"

	"github.com/Sandy5604G/hospital-queue-management/internal/database"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB returns a migrated, seeded in-memory database. Each call yields an
// isolated instance; the connection pool is pinned to one connection so the
// memory database is shared across the test's queries.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate schema: %v", err)
	}
	if err := database.Seed(db); err != nil {
		t.Fatalf("seed defaults: %v", err)
	}

	return db
}

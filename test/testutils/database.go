// Package testutils provides database helpers for repository tests
package testutils

import (
	"testing"

	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/larderapp/v1/internal/infrastructure/persistence/sqlite"
)

// NewTestDatabase creates an isolated in-memory database with the full
// schema migrated
func NewTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := sqlite.SetupDatabase(":memory:", gormLogger.Silent)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access test database pool: %v", err)
	}
	// Every :memory: connection is a separate database, so the pool must
	// stay on a single connection or concurrent queries see empty schemas.
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

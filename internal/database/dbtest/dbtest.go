// Package dbtest opens throwaway in-memory SQLite databases for tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Code-Chilll/Task-Manager/internal/database"
)

// New returns a migrated database private to t. It is closed on cleanup.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:       database.DriverSQLite,
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.Must(uuid.NewV4())),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     logger.Silent,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	if err := pool.Migrate(); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return pool.DB
}

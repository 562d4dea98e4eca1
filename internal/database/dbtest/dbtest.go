// Package dbtest opens migrated SQLite databases for tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"riy-server/internal/database"
	"riy-server/internal/models"
)

// Open returns a fresh database. The pool is held to one connection because
// every SQLite ":memory:" connection is its own database, so transactions on
// it never overlap.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	return open(t, ":memory:", 1)
}

// OpenFile returns a fresh database in a temporary file, shared by up to
// conns connections. Writers wait on each other for up to five seconds.
func OpenFile(t *testing.T, conns int) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "riy.db")
	return open(t, "file:"+path+"?_busy_timeout=5000&_journal_mode=WAL", conns)
}

func open(t *testing.T, dsn string, conns int) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given totals.
func CreateUser(t *testing.T, db *gorm.DB, name string, points, itemsRecycled int) *models.User {
	t.Helper()

	email := fmt.Sprintf("%s@example.com", name)
	u := &models.User{
		Name:          name,
		Email:         &email,
		PasswordHash:  "hashed_password",
		Points:        points,
		ItemsRecycled: itemsRecycled,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return u
}

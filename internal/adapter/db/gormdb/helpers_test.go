package gormdb

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"user-reputation-service/internal/domain/role"
	"user-reputation-service/internal/domain/user"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// every pooled connection to :memory: would otherwise see its own empty database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))
	return db
}

func newTestUserRepo(t *testing.T, db *gorm.DB) *UserRepo {
	return NewUserRepo(db, sqliteDialect{}, zaptest.NewLogger(t))
}

func seedUser(t *testing.T, repo *UserRepo, email, name string, roles role.Set, createdAt time.Time) int64 {
	t.Helper()
	id, err := repo.Create(context.Background(), &user.User{
		Email:        email,
		Name:         name,
		PhoneNumber:  "12345678",
		PasswordHash: "hash",
		Roles:        roles,
		IsVerified:   true,
		CreatedAt:    createdAt,
	})
	require.NoError(t, err)
	return id
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 10, 0, 0, 0, time.UTC)
}

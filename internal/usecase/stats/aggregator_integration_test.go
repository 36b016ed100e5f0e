package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"user-reputation-service/internal/adapter/db/gormdb"
	"user-reputation-service/internal/domain/user"
	"user-reputation-service/internal/usecase/stats"
)

func TestMonthlyStats_OneRegistrationOneLoginInMarch(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gormdb.Migrate(db))

	dialect, err := gormdb.DialectFor(db.Dialector.Name())
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	users := gormdb.NewUserRepo(db, dialect, log)
	uc := stats.New(gormdb.NewStatsRepo(db, dialect, log), users, 3, log)

	ctx := context.Background()
	id, err := users.Create(ctx, &user.User{
		Email: "march@example.com", Name: "March", PhoneNumber: "12345678", PasswordHash: "x",
		CreatedAt: time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, users.RecordLogin(ctx, id, time.Date(2024, time.March, 11, 8, 0, 0, 0, time.UTC)))

	s, err := uc.MonthlyStats(ctx, 2024)
	require.NoError(t, err)

	var wantRegs, wantActives [12]int64
	wantRegs[2], wantActives[2] = 1, 1
	assert.Equal(t, wantRegs, s.Registrations)
	assert.Equal(t, wantActives, s.Actives)

	g, err := uc.GeneralStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), g.Total)
	assert.Equal(t, int64(1), g.Clients)
}

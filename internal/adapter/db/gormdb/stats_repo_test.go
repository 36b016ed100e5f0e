package gormdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-reputation-service/internal/domain/stats"
)

func TestStatsRepo_MonthlySeries(t *testing.T) {
	db := setupTestDB(t)
	users := newTestUserRepo(t, db)
	repo := NewStatsRepo(db, sqliteDialect{}, zaptest.NewLogger(t))
	ctx := context.Background()

	march := seedUser(t, users, "march@example.com", "March", 0, date(2024, time.March, 15))
	require.NoError(t, users.RecordLogin(ctx, march, date(2024, time.March, 20)))

	// registered in 2023, logged in during October 2024
	old := seedUser(t, users, "old@example.com", "Old", 0, date(2023, time.December, 31))
	require.NoError(t, users.RecordLogin(ctx, old, date(2024, time.October, 1)))

	// blocked users never count as active
	blocked := seedUser(t, users, "blocked@example.com", "Blocked", 0, date(2024, time.March, 1))
	require.NoError(t, users.RecordLogin(ctx, blocked, date(2024, time.March, 2)))
	require.NoError(t, db.Model(&UserSchema{}).Where("id = ?", blocked).Update("is_blocked", true).Error)

	// never logged in
	seedUser(t, users, "idle@example.com", "Idle", 0, date(2024, time.December, 31))

	registrations, err := repo.RegistrationsByMonth(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, []stats.MonthCount{{Month: 3, Total: 2}, {Month: 12, Total: 1}}, registrations)

	actives, err := repo.ActivesByMonth(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, []stats.MonthCount{{Month: 3, Total: 1}, {Month: 10, Total: 1}}, actives)

	none, err := repo.RegistrationsByMonth(ctx, 2022)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		wantErr  bool
	}{
		{"postgres", DialectPostgres, false},
		{"pgx", DialectPostgres, false},
		{"mysql", DialectMySQL, false},
		{"sqlite", DialectSQLite, false},
		{"SQLite3", DialectSQLite, false},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := DialectFor(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d.Name())
		})
	}
}

func TestDialect_Fragments(t *testing.T) {
	pg, _ := DialectFor(DialectPostgres)
	assert.Equal(t, "CAST(EXTRACT(MONTH FROM created_at) AS INTEGER)", pg.Month("created_at"))
	assert.Equal(t, "CAST(EXTRACT(YEAR FROM created_at) AS INTEGER)", pg.Year("created_at"))
	assert.Equal(t, 2024, pg.YearArg(2024))

	my, _ := DialectFor(DialectMySQL)
	assert.Equal(t, "MONTH(last_login_at)", my.Month("last_login_at"))
	assert.Equal(t, "YEAR(last_login_at)", my.Year("last_login_at"))
	assert.Equal(t, `ESCAPE '\\'`, my.LikeEscape())

	lite, _ := DialectFor(DialectSQLite)
	assert.Equal(t, "CAST(strftime('%m', created_at) AS INTEGER)", lite.Month("created_at"))
	assert.Equal(t, "0987", lite.YearArg(987))
	assert.Equal(t, `ESCAPE '\'`, lite.LikeEscape())
}

func TestDialect_ContainsFold(t *testing.T) {
	pg, _ := DialectFor(DialectPostgres)
	assert.Equal(t, `name ILIKE ? ESCAPE '\'`, pg.ContainsFold("name"))
	assert.Equal(t, `%Élodie\_%`, pg.ContainsArg("Élodie_"))

	my, _ := DialectFor(DialectMySQL)
	assert.Equal(t, `LOWER(name) LIKE ? ESCAPE '\\'`, my.ContainsFold("name"))
	assert.Equal(t, `%élodie 50\%%`, my.ContainsArg("ÉLODIE 50%"))

	lite, _ := DialectFor(DialectSQLite)
	assert.Equal(t, `casefold(name) LIKE ? ESCAPE '\'`, lite.ContainsFold("name"))
	assert.Equal(t, `%élodie%`, lite.ContainsArg("ÉLODIE"))
}

func TestCasefoldFunction(t *testing.T) {
	db := setupTestDB(t)

	var folded string
	require.NoError(t, db.Raw("SELECT casefold(?)", "Élodie ÇA").Scan(&folded).Error)
	assert.Equal(t, "élodie ça", folded)
}

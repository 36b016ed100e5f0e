package gormdb

import (
	"fmt"
	"strings"

	"user-reputation-service/pkg/security"
)

// Dialect isolates the SQL that differs between storage backends: date-part extraction,
// case folding and the LIKE escape clause. Every strategy must yield identical results
// for the same rows.
type Dialect interface {
	// Name is the gorm dialector name the strategy serves.
	Name() string
	// Year returns an expression comparable to YearArg(year).
	Year(column string) string
	// YearArg returns the bind value matching Year for the given year.
	YearArg(year int) any
	// Month returns an integer expression in 1..12.
	Month(column string) string
	// LikeEscape returns the clause declaring backslash as the LIKE escape character.
	LikeEscape() string
	// ContainsFold returns a case-insensitive substring predicate on column with one
	// placeholder, to be bound to ContainsArg.
	ContainsFold(column string) string
	// ContainsArg folds search the same way ContainsFold folds the column and wraps
	// the escaped result in LIKE wildcards.
	ContainsArg(search string) any
}

// Dialect names as reported by gorm dialectors.
const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

// DialectFor selects the strategy for a gorm dialector name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case DialectPostgres, "postgresql", "pgx":
		return postgresDialect{}, nil
	case DialectMySQL, "mariadb":
		return mysqlDialect{}, nil
	case DialectSQLite, "sqlite3":
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported SQL dialect %q", name)
	}
}

// postgresDialect uses EXTRACT, cast to integer so every driver scans it the same way.
type postgresDialect struct{}

func (postgresDialect) Name() string { return DialectPostgres }

func (postgresDialect) Year(column string) string {
	return "CAST(EXTRACT(YEAR FROM " + column + ") AS INTEGER)"
}

func (postgresDialect) YearArg(year int) any { return year }

func (postgresDialect) Month(column string) string {
	return "CAST(EXTRACT(MONTH FROM " + column + ") AS INTEGER)"
}

func (postgresDialect) LikeEscape() string { return `ESCAPE '\'` }

// ILIKE folds with the database locale on both sides.
func (d postgresDialect) ContainsFold(column string) string {
	return column + " ILIKE ? " + d.LikeEscape()
}

func (postgresDialect) ContainsArg(search string) any { return containsPattern(search) }

// mysqlDialect uses the YEAR() and MONTH() functions. MySQL string literals treat
// backslash as an escape, so the escape character itself must be doubled.
type mysqlDialect struct{}

func (mysqlDialect) Name() string { return DialectMySQL }

func (mysqlDialect) Year(column string) string { return "YEAR(" + column + ")" }

func (mysqlDialect) YearArg(year int) any { return year }

func (mysqlDialect) Month(column string) string { return "MONTH(" + column + ")" }

func (mysqlDialect) LikeEscape() string { return `ESCAPE '\\'` }

// LOWER is Unicode-aware for utf8mb4 columns.
func (d mysqlDialect) ContainsFold(column string) string {
	return "LOWER(" + column + ") LIKE ? " + d.LikeEscape()
}

func (mysqlDialect) ContainsArg(search string) any {
	return containsPattern(strings.ToLower(search))
}

// sqliteDialect formats timestamps with strftime. The year comes back as text.
type sqliteDialect struct{}

func (sqliteDialect) Name() string { return DialectSQLite }

func (sqliteDialect) Year(column string) string {
	return "strftime('%Y', " + column + ")"
}

func (sqliteDialect) YearArg(year int) any { return fmt.Sprintf("%04d", year) }

func (sqliteDialect) Month(column string) string {
	return "CAST(strftime('%m', " + column + ") AS INTEGER)"
}

func (sqliteDialect) LikeEscape() string { return `ESCAPE '\'` }

// The built-in LOWER only folds ASCII, so the column goes through casefoldFunc.
func (d sqliteDialect) ContainsFold(column string) string {
	return casefoldFunc + "(" + column + ") LIKE ? " + d.LikeEscape()
}

func (sqliteDialect) ContainsArg(search string) any { return containsPattern(casefold(search)) }

func containsPattern(s string) string {
	return "%" + security.SanitizeSearchString(s) + "%"
}

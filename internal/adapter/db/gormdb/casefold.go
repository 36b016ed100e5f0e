package gormdb

import (
	"database/sql/driver"

	sqlite "github.com/glebarez/go-sqlite"
	"golang.org/x/text/cases"
)

// casefoldFunc is the SQLite function applying casefold to a text column. NULL stays NULL.
const casefoldFunc = "casefold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(casefoldFunc, 1, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case string:
			return casefold(v), nil
		case []byte:
			return casefold(string(v)), nil
		default:
			return v, nil
		}
	})
}

// casefold applies full Unicode case folding. A Caser is stateful, so each call gets its own.
func casefold(s string) string {
	return cases.Fold().String(s)
}

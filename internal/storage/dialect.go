package storage

import (
	"time"
)

// sqliteTimeLayout matches the layout modernc.org/sqlite parses back for
// TIMESTAMP columns.
const sqliteTimeLayout = "2006-01-02 15:04:05.999999999-07:00"

// dialect captures the few places where SQLite and PostgreSQL differ.
type dialect struct {
	name          string
	driverName    string
	migrationsDir string
	clearSQL      []string
	timeArg       func(time.Time) any
}

var (
	sqliteDialect = dialect{
		name:          "sqlite",
		driverName:    "sqlite",
		migrationsDir: "migrations/sqlite",
		clearSQL: []string{
			`DELETE FROM expenses`,
			`DELETE FROM sqlite_sequence WHERE name = 'expenses'`,
		},
		timeArg: func(t time.Time) any {
			return t.UTC().Format(sqliteTimeLayout)
		},
	}

	postgresDialect = dialect{
		name:          "postgres",
		driverName:    "pgx",
		migrationsDir: "migrations/postgres",
		clearSQL: []string{
			`TRUNCATE TABLE expenses RESTART IDENTITY`,
		},
		timeArg: func(t time.Time) any {
			return t.UTC()
		},
	}
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	sqliteTimeLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// parseTimestamp accepts the textual forms the supported drivers return for
// timestamp columns, including SQLite's CURRENT_TIMESTAMP default.
func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

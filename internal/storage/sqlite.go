package storage

import (
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// sqliteDSN enables WAL and a busy timeout so a background reader and a
// writer can interleave without "database is locked" errors.
func sqliteDSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// NewSQLiteRepository opens (creating if needed) the SQLite database at
// dbPath and brings its schema up to date.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	repo, err := openRepository(sqliteDSN(dbPath), sqliteDialect)
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer; one pooled connection makes concurrent
	// callers queue on the pool instead of racing for the file lock.
	repo.db.SetMaxOpenConns(1)

	return repo, nil
}

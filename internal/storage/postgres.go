package storage

import (
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// NewPostgresRepository connects to PostgreSQL using a pgx connection string
// and brings the schema up to date.
func NewPostgresRepository(dsn string) (*Repository, error) {
	repo, err := openRepository(dsn, postgresDialect)
	if err != nil {
		return nil, err
	}

	repo.db.SetMaxOpenConns(5)
	repo.db.SetMaxIdleConns(1)
	repo.db.SetConnMaxIdleTime(2 * time.Minute)

	return repo, nil
}

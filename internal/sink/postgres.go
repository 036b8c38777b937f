package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobsift/internal/crawler"
)

// execCloser is the slice of pgxpool.Pool the sink needs; pgxmock satisfies
// it in tests.
type execCloser interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresSink inserts records into the job_records table, deduplicating on
// apply_url.
type PostgresSink struct {
	db execCloser
}

const insertRecordSQL = `
	INSERT INTO job_records (title, company, location, skills, description, apply_url, source_url)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (apply_url) DO UPDATE
	SET title = EXCLUDED.title,
		company = EXCLUDED.company,
		location = EXCLUDED.location,
		skills = EXCLUDED.skills,
		description = EXCLUDED.description,
		source_url = EXCLUDED.source_url;
`

// NewPostgresSink connects a pool to dsn.
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	return &PostgresSink{db: pool}, nil
}

// NewPostgresSinkWithDB wraps an existing connection; tests pass a pgxmock
// pool here.
func NewPostgresSinkWithDB(db execCloser) *PostgresSink {
	return &PostgresSink{db: db}
}

// Write upserts one record keyed by apply_url.
func (s *PostgresSink) Write(ctx context.Context, record crawler.JobRecord) error {
	_, err := s.db.Exec(ctx, insertRecordSQL,
		record.Title,
		record.Company,
		record.Location,
		record.Skills,
		record.Description,
		record.ApplyURL,
		record.SourceURL,
	)
	if err != nil {
		return fmt.Errorf("insert job record: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresSink) Close(context.Context) error {
	s.db.Close()
	return nil
}

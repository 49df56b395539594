package leads

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteSink struct {
	db *sql.DB
}

func NewSQLiteSink(dsn string) (*SQLiteSink, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateSQLite(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &SQLiteSink{db: sqlDB}, nil
}

func migrateSQLite(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS leads (
    id TEXT PRIMARY KEY,
    industry TEXT,
    source TEXT NOT NULL,
    status TEXT NOT NULL,
    fields TEXT NOT NULL,
    transcript TEXT,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leads_industry ON leads(industry);
`)
	return err
}

func (*SQLiteSink) Name() string { return "sqlite" }

func (s *SQLiteSink) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteSink) Record(ctx context.Context, lead Lead) Outcome {
	fields, err := json.Marshal(lead.Fields)
	if err != nil {
		return failed(fmt.Errorf("encode fields: %w", err))
	}
	transcript, err := json.Marshal(lead.Transcript)
	if err != nil {
		return failed(fmt.Errorf("encode transcript: %w", err))
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads(id, industry, source, status, fields, transcript, created_at) VALUES(?,?,?,?,?,?,?)`,
		lead.ID, lead.Industry, lead.Source, lead.Status, string(fields), string(transcript), lead.CreatedAt)
	if err != nil {
		return failed(fmt.Errorf("insert lead: %w", err))
	}
	return stored(lead.ID)
}

// Count reports how many leads are stored.
func (s *SQLiteSink) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&n)
	return n, err
}

func (s *SQLiteSink) Close() error { return s.db.Close() }

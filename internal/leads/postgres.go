package leads

import (
	"context"
	"encoding/json"
	"fmt"

	"leadbot-backend/internal/db"
)

// PostgresSink writes leads into the JSONB leads table created by the
// embedded migrations.
type PostgresSink struct {
	db *db.DB
}

func NewPostgresSink(d *db.DB) *PostgresSink {
	return &PostgresSink{db: d}
}

func (*PostgresSink) Name() string { return "postgres" }

func (p *PostgresSink) Ping(ctx context.Context) error { return p.db.HealthCheck(ctx) }

func (p *PostgresSink) Record(ctx context.Context, lead Lead) Outcome {
	fields, err := json.Marshal(lead.Fields)
	if err != nil {
		return failed(fmt.Errorf("encode fields: %w", err))
	}
	transcript, err := json.Marshal(lead.Transcript)
	if err != nil {
		return failed(fmt.Errorf("encode transcript: %w", err))
	}

	var id string
	err = p.db.QueryRowContext(ctx, `
		INSERT INTO leads (id, industry, source, status, fields, transcript, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		lead.ID, lead.Industry, lead.Source, lead.Status, fields, transcript, lead.CreatedAt,
	).Scan(&id)
	if err != nil {
		return failed(fmt.Errorf("insert lead: %w", err))
	}
	return stored(id)
}

package analytics

import (
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type MemoryRepo struct {
	mu     sync.RWMutex
	counts map[Stage]map[string]struct{}
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{counts: make(map[Stage]map[string]struct{})}
}

func (r *MemoryRepo) Hit(stage Stage, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.counts[stage]
	if !ok {
		m = make(map[string]struct{})
		r.counts[stage] = m
	}
	m[sessionID] = struct{}{}
	return nil
}

func (r *MemoryRepo) Counts() map[Stage]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[Stage]int, len(r.counts))
	for s, set := range r.counts {
		out[s] = len(set)
	}
	return out
}

// SQLiteRepo keeps funnel hits across restarts.
type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(dsn string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateFunnel(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteRepo{db: db}, nil
}

func migrateFunnel(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS funnel_hits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    stage TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_funnel_hits_stage ON funnel_hits(stage);
CREATE INDEX IF NOT EXISTS idx_funnel_hits_session_stage ON funnel_hits(session_id, stage);
`)
	return err
}

func (r *SQLiteRepo) Hit(stage Stage, sessionID string) error {
	_, err := r.db.Exec(`INSERT INTO funnel_hits(session_id, stage, created_at) VALUES(?,?,?)`, sessionID, string(stage), time.Now())
	return err
}

func (r *SQLiteRepo) Counts() map[Stage]int {
	rows, err := r.db.Query(`SELECT stage, COUNT(DISTINCT session_id) FROM funnel_hits GROUP BY stage`)
	if err != nil {
		return map[Stage]int{}
	}
	defer rows.Close()
	out := map[Stage]int{}
	for rows.Next() {
		var stage string
		var cnt int
		if err := rows.Scan(&stage, &cnt); err == nil {
			out[Stage(stage)] = cnt
		}
	}
	return out
}

func (r *SQLiteRepo) Close() error { return r.db.Close() }

// Package store persists scored messages to Postgres so the stats
// endpoint can report aggregates across restarts. Persistence is
// optional: with no DSN configured the engine runs stateless.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
    id          UUID PRIMARY KEY,
    text_hash   TEXT NOT NULL,
    is_fraud    BOOLEAN NOT NULL,
    confidence  DOUBLE PRECISION NOT NULL,
    score       DOUBLE PRECISION NOT NULL,
    method      TEXT NOT NULL,
    reason      TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS analyses_created_at_idx ON analyses (created_at);
`

// Analysis is one persisted verdict. The message text itself is never
// stored, only its hash, so the table holds no message content.
type Analysis struct {
	ID         string
	TextHash   string
	IsFraud    bool
	Confidence float64
	Score      float64
	Method     string
	Reason     string
	CreatedAt  time.Time
}

// Stats aggregates the persisted verdicts.
type Stats struct {
	TotalAnalyses int64   `json:"total_analyses"`
	FraudCount    int64   `json:"fraud_count"`
	FraudRate     float64 `json:"fraud_rate"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// Postgres wraps a pgx connection pool. Safe for concurrent use.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against the DSN and ensures the schema exists.
func Connect(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres unreachable: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// HashText returns the stored fingerprint for a message.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// SaveAnalysis records one verdict and returns its id.
func (p *Postgres) SaveAnalysis(ctx context.Context, text string, isFraud bool, confidence, score float64, method, reason string) (string, error) {
	id := uuid.NewString()
	_, err := p.pool.Exec(ctx,
		`INSERT INTO analyses (id, text_hash, is_fraud, confidence, score, method, reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, HashText(text), isFraud, confidence, score, method, reason)
	if err != nil {
		return "", fmt.Errorf("save analysis: %w", err)
	}
	return id, nil
}

// GetStats computes aggregates over every persisted verdict.
func (p *Postgres) GetStats(ctx context.Context) (Stats, error) {
	var s Stats
	err := p.pool.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE is_fraud),
		        coalesce(avg(confidence), 0)
		 FROM analyses`).Scan(&s.TotalAnalyses, &s.FraudCount, &s.AvgConfidence)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	if s.TotalAnalyses > 0 {
		s.FraudRate = float64(s.FraudCount) / float64(s.TotalAnalyses)
	}
	return s, nil
}

// RecentAnalyses returns the newest verdicts, capped at limit.
func (p *Postgres) RecentAnalyses(ctx context.Context, limit int) ([]Analysis, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := p.pool.Query(ctx,
		`SELECT id, text_hash, is_fraud, confidence, score, method, reason, created_at
		 FROM analyses ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent analyses: %w", err)
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var a Analysis
		if err := rows.Scan(&a.ID, &a.TextHash, &a.IsFraud, &a.Confidence, &a.Score, &a.Method, &a.Reason, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (p *Postgres) Close() {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
}

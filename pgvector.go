package ticketeta

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

// PgVectorConfig configures a Postgres table holding ticket embeddings.
type PgVectorConfig struct {
	DSN   string
	Table string
	Dims  int
}

// PgVectorIndex implements VectorIndex on Postgres with the pgvector extension.
type PgVectorIndex struct {
	pool   *pgxpool.Pool
	table  string
	dims   int
	logger *slog.Logger
}

var _ VectorIndex = (*PgVectorIndex)(nil)

// NewPgVectorIndex opens a connection pool and verifies connectivity.
func NewPgVectorIndex(ctx context.Context, cfg PgVectorConfig, logger *slog.Logger) (*PgVectorIndex, error) {
	if cfg.Table == "" {
		return nil, fmt.Errorf("pgvector table is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse pool DSN: %w", err)
	}
	// The vector extension may not exist before EnsureSchema runs.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if err := pgxvector.RegisterTypes(ctx, conn); err != nil {
			logger.Debug("pgvector types not registered", "error", err)
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pool: %w", err)
	}

	return &PgVectorIndex{
		pool:   pool,
		table:  pgx.Identifier{cfg.Table}.Sanitize(),
		dims:   cfg.Dims,
		logger: logger.With("table", cfg.Table),
	}, nil
}

// EnsureSchema creates the extension and table when missing.
func (p *PgVectorIndex) EnsureSchema(ctx context.Context) error {
	if p.dims <= 0 {
		return fmt.Errorf("ensure schema %s: dimensions not configured", p.table)
	}
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			ticket_id   text PRIMARY KEY,
			location_id integer NOT NULL,
			description text NOT NULL,
			fields      jsonb NOT NULL DEFAULT '{}',
			embedding   vector(%d) NOT NULL
		)`, p.table, p.dims),
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema %s: %w", p.table, err)
		}
	}
	return nil
}

// SearchNear orders rows by cosine distance to vector.
func (p *PgVectorIndex) SearchNear(ctx context.Context, vector []float32, locationID *int, limit int) ([]VectorHit, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	query := fmt.Sprintf(`SELECT ticket_id, location_id, description, fields, embedding <=> $1 AS distance
		FROM %s
		WHERE ($2::integer IS NULL OR location_id = $2)
		ORDER BY distance
		LIMIT $3`, p.table)

	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(vector), locationID, limit)
	if err != nil {
		return nil, fmt.Errorf("pgvector search: %w", err)
	}
	defer rows.Close()

	var hits []VectorHit
	for rows.Next() {
		var (
			c        Candidate
			raw      []byte
			distance float64
		)
		if err := rows.Scan(&c.TicketID, &c.LocationID, &c.Description, &raw, &distance); err != nil {
			return nil, fmt.Errorf("scan pgvector row: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &c.Fields); err != nil {
				p.logger.Warn("pgvector: malformed fields", "ticket_id", c.TicketID, "error", err)
			}
		}
		d := distance
		hits = append(hits, VectorHit{Candidate: c, Distance: &d})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgvector rows: %w", err)
	}
	return hits, nil
}

// Upsert inserts or replaces rows keyed by ticket ID.
func (p *PgVectorIndex) Upsert(ctx context.Context, records []VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (ticket_id, location_id, description, fields, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ticket_id) DO UPDATE
		SET location_id = EXCLUDED.location_id,
		    description = EXCLUDED.description,
		    fields = EXCLUDED.fields,
		    embedding = EXCLUDED.embedding`, p.table)

	batch := &pgx.Batch{}
	for _, r := range records {
		fields, err := json.Marshal(r.Fields)
		if err != nil {
			return fmt.Errorf("marshal fields for %s: %w", r.TicketID, err)
		}
		batch.Queue(query, r.TicketID, r.LocationID, r.Description, fields, pgvector.NewVector(r.Vector))
	}

	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("pgvector upsert %d rows: %w", len(records), err)
	}
	return nil
}

// Stats counts rows; a failed ping marks the index unhealthy.
func (p *PgVectorIndex) Stats(ctx context.Context) (IndexStats, error) {
	if err := p.pool.Ping(ctx); err != nil {
		return IndexStats{}, fmt.Errorf("pgvector ping: %w", err)
	}
	var n int
	if err := p.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, p.table)).Scan(&n); err != nil {
		return IndexStats{}, fmt.Errorf("pgvector count: %w", err)
	}
	return IndexStats{Count: n, Healthy: true}, nil
}

// Close releases the pool.
func (p *PgVectorIndex) Close() error {
	p.pool.Close()
	return nil
}

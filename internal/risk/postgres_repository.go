package risk

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saferoute/saferoute/internal/graph"
)

// PostgresRepository stores risk entries in the segment_risk table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL risk repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// LoadAll reads every stored entry.
func (r *PostgresRepository) LoadAll(ctx context.Context) ([]Entry, error) {
	query := `
		SELECT u, v, k, risk_proba
		FROM segment_risk
		ORDER BY u, v, k
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query segment_risk: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			u, v int64
			k    int32
			p    float64
		)
		if err := rows.Scan(&u, &v, &k, &p); err != nil {
			return nil, fmt.Errorf("scan segment_risk: %w", err)
		}
		entries = append(entries, Entry{From: graph.NodeID(u), To: graph.NodeID(v), Parallel: int(k), Risk: p})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segment_risk: %w", err)
	}
	return entries, nil
}

// LoadIndex reads every stored entry and builds an Index.
func (r *PostgresRepository) LoadIndex(ctx context.Context) (*Index, error) {
	entries, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return NewIndex(entries)
}

// ReplaceAll swaps the table contents for entries in a single transaction.
func (r *PostgresRepository) ReplaceAll(ctx context.Context, entries []Entry) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM segment_risk`); err != nil {
		return 0, fmt.Errorf("clear segment_risk: %w", err)
	}

	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{int64(e.From), int64(e.To), int32(e.Parallel), e.Risk}) //nolint:gosec // parallel indexes are small
	}
	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"segment_risk"},
		[]string{"u", "v", "k", "risk_proba"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("copy segment_risk: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return n, nil
}

// Ping verifies the database is reachable.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emiafrica/market-intel/internal/domain"
)

// HistoryStore implements domain.HistoryStore over the append-only
// price_history ledger. Rows are never updated; ordering is by
// (recorded_at, seq) so two appends in the same instant still resolve to
// the order the database accepted them in.
type HistoryStore struct {
	pool *pgxpool.Pool
}

// NewHistoryStore creates a HistoryStore backed by the given pool.
func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

const historyCols = `id, seq, listing_id, price, currency, recorded_at`

func scanPoint(row pgx.Row) (domain.PricePoint, error) {
	var p domain.PricePoint
	err := row.Scan(&p.ID, &p.Seq, &p.ListingID, &p.Price, &p.Currency, &p.RecordedAt)
	if err != nil {
		return domain.PricePoint{}, err
	}
	return p, nil
}

// appendHistoryTx inserts one ledger row inside an existing transaction.
// Shared with the listing write path so the append and the aggregate
// recompute commit or roll back together.
func appendHistoryTx(ctx context.Context, tx pgx.Tx, p domain.PricePoint) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Currency == "" {
		p.Currency = domain.DefaultCurrency
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO price_history (id, listing_id, price, currency)
		VALUES ($1, $2, $3, $4)`,
		p.ID, p.ListingID, p.Price, p.Currency,
	)
	return err
}

// Append inserts one ledger row outside the listing write path, for
// backfills and imports. It does not touch listing aggregates.
func (s *HistoryStore) Append(ctx context.Context, p domain.PricePoint) (domain.PricePoint, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Currency == "" {
		p.Currency = domain.DefaultCurrency
	}
	stored, err := scanPoint(s.pool.QueryRow(ctx, `
		INSERT INTO price_history (id, listing_id, price, currency)
		VALUES ($1, $2, $3, $4)
		RETURNING `+historyCols,
		p.ID, p.ListingID, p.Price, p.Currency,
	))
	if err != nil {
		return domain.PricePoint{}, fmt.Errorf("postgres: append history: %w", err)
	}
	return stored, nil
}

// ListForListing returns the ledger for one listing in the requested
// order. A limit of 0 means no cap.
func (s *HistoryStore) ListForListing(ctx context.Context, listingID string, order domain.HistoryOrder, limit int) ([]domain.PricePoint, error) {
	dir := "ASC"
	if order == domain.OrderDesc {
		dir = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM price_history WHERE listing_id = $1 ORDER BY recorded_at %s, seq %s`,
		historyCols, dir, dir)

	args := []any{listingID}
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list history %s: %w", listingID, err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan history row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list history rows: %w", err)
	}
	return points, nil
}

// CountForListing returns the ledger length for one listing.
func (s *HistoryStore) CountForListing(ctx context.Context, listingID string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM price_history WHERE listing_id = $1`, listingID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count history %s: %w", listingID, err)
	}
	return count, nil
}

// ListBefore streams ledger rows older than the cutoff in chronological
// order, for the export archiver. Paging via opts.Limit/Offset.
func (s *HistoryStore) ListBefore(ctx context.Context, before time.Time, opts domain.ListOpts) ([]domain.PricePoint, error) {
	query := `SELECT ` + historyCols + ` FROM price_history WHERE recorded_at < $1 ORDER BY recorded_at ASC, seq ASC`
	args := []any{before}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list history before: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan history row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list history rows: %w", err)
	}
	return points, nil
}

var _ domain.HistoryStore = (*HistoryStore)(nil)

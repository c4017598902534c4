package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/emiafrica/market-intel/internal/domain"
)

// ListingStore implements domain.ListingStore using PostgreSQL.
//
// The price write path holds a FOR UPDATE row lock on the listing for the
// duration of the (history append, aggregate recompute) pair, so two
// concurrent writers to the same listing serialize and neither recompute
// can miss the other's committed append. Writers to distinct listings do
// not contend.
type ListingStore struct {
	pool *pgxpool.Pool
}

// NewListingStore creates a ListingStore backed by the given pool.
func NewListingStore(pool *pgxpool.Pool) *ListingStore {
	return &ListingStore{pool: pool}
}

const listingCols = `id, stem_kind, stem_id, town_id, market_id,
	price, currency, average_price, lowest_price, highest_price,
	status, note, updated_at`

// scanListing scans a single listing row into a domain.PriceListing.
func scanListing(row pgx.Row) (domain.PriceListing, error) {
	var (
		l              domain.PriceListing
		kind           string
		townID, mktID  *string
	)
	err := row.Scan(
		&l.ID, &kind, &l.Stem.ID, &townID, &mktID,
		&l.Price, &l.Currency, &l.AveragePrice, &l.LowestPrice, &l.HighestPrice,
		&l.Status, &l.Note, &l.UpdatedAt,
	)
	if err != nil {
		return domain.PriceListing{}, err
	}
	l.Stem.Kind = domain.StemKind(kind)
	if townID != nil {
		l.Geo.TownID = *townID
	}
	if mktID != nil {
		l.Geo.MarketID = *mktID
	}
	return l, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// isIntegrityErr reports whether err is a Postgres integrity-constraint
// violation (SQLSTATE class 23). These are retried once on the write path.
func isIntegrityErr(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && len(pgErr.Code) >= 2 && pgErr.Code[:2] == "23"
}

// Create inserts a listing seeded with aggregates equal to its price and
// appends the first history row in the same transaction, so the returned
// listing never carries null or zero aggregates.
func (s *ListingStore) Create(ctx context.Context, l domain.PriceListing) (domain.PriceListing, error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.PriceListing{}, fmt.Errorf("postgres: begin create listing: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertListing = `
		INSERT INTO price_listings (
			id, stem_kind, stem_id, town_id, market_id,
			price, currency, average_price, lowest_price, highest_price,
			status, note, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $6, $6, $6,
			$8, $9, NOW()
		)
		RETURNING ` + listingCols

	created, err := scanListing(tx.QueryRow(ctx, insertListing,
		l.ID, string(l.Stem.Kind), l.Stem.ID,
		nullable(l.Geo.TownID), nullable(l.Geo.MarketID),
		l.Price, l.Currency, l.Status, l.Note,
	))
	if err != nil {
		return domain.PriceListing{}, fmt.Errorf("postgres: insert listing: %w", err)
	}

	if err := appendHistoryTx(ctx, tx, domain.PricePoint{
		ID:        uuid.New().String(),
		ListingID: created.ID,
		Price:     created.Price,
		Currency:  created.Currency,
	}); err != nil {
		return domain.PriceListing{}, fmt.Errorf("postgres: seed history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.PriceListing{}, fmt.Errorf("postgres: commit create listing: %w", err)
	}
	return created, nil
}

// UpdatePrice applies a price-bearing update to one listing. On an actual
// price or currency change it appends a history row and recomputes the
// aggregates from the full ledger inside the same transaction. An update
// carrying the values already stored leaves the ledger and aggregates
// untouched and reports appended=false.
func (s *ListingStore) UpdatePrice(ctx context.Context, id string, price decimal.Decimal, currency string) (domain.PriceListing, bool, error) {
	l, appended, err := s.updatePriceOnce(ctx, id, price, currency)
	if err != nil && isIntegrityErr(err) {
		// Transient constraint violation; the write is keyed by listing id
		// and safe to retry once.
		l, appended, err = s.updatePriceOnce(ctx, id, price, currency)
	}
	return l, appended, err
}

func (s *ListingStore) updatePriceOnce(ctx context.Context, id string, price decimal.Decimal, currency string) (domain.PriceListing, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.PriceListing{}, false, fmt.Errorf("postgres: begin update price: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := scanListing(tx.QueryRow(ctx,
		`SELECT `+listingCols+` FROM price_listings WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PriceListing{}, false, domain.ErrNotFound
		}
		return domain.PriceListing{}, false, fmt.Errorf("postgres: lock listing %s: %w", id, err)
	}

	if current.Price.Equal(price) && current.Currency == currency {
		// Idempotent re-save: the ledger records price changes, not write
		// attempts. Only the freshness timestamp moves.
		touched, err := scanListing(tx.QueryRow(ctx,
			`UPDATE price_listings SET updated_at = NOW() WHERE id = $1 RETURNING `+listingCols, id))
		if err != nil {
			return domain.PriceListing{}, false, fmt.Errorf("postgres: touch listing %s: %w", id, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return domain.PriceListing{}, false, fmt.Errorf("postgres: commit noop update: %w", err)
		}
		return touched, false, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE price_listings SET price = $2, currency = $3, updated_at = NOW() WHERE id = $1`,
		id, price, currency,
	); err != nil {
		return domain.PriceListing{}, false, fmt.Errorf("postgres: update price %s: %w", id, err)
	}

	if err := appendHistoryTx(ctx, tx, domain.PricePoint{
		ID:        uuid.New().String(),
		ListingID: id,
		Price:     price,
		Currency:  currency,
	}); err != nil {
		return domain.PriceListing{}, false, fmt.Errorf("postgres: append history %s: %w", id, err)
	}

	agg, err := recomputeAggregatesTx(ctx, tx, id, price)
	if err != nil {
		return domain.PriceListing{}, false, fmt.Errorf("postgres: recompute aggregates %s: %w", id, err)
	}

	updated, err := scanListing(tx.QueryRow(ctx, `
		UPDATE price_listings
		SET average_price = $2, lowest_price = $3, highest_price = $4
		WHERE id = $1
		RETURNING `+listingCols,
		id, agg.Average, agg.Lowest, agg.Highest,
	))
	if err != nil {
		return domain.PriceListing{}, false, fmt.Errorf("postgres: persist aggregates %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.PriceListing{}, false, fmt.Errorf("postgres: commit update price: %w", err)
	}
	return updated, true, nil
}

// recomputeAggregatesTx reads every history row for the listing and
// derives mean, minimum and maximum. The mean is exact decimal division
// rounded to the currency minor unit. An empty ledger (transient, during
// construction) falls back to the listing's current price so callers
// never see null aggregates.
func recomputeAggregatesTx(ctx context.Context, tx pgx.Tx, listingID string, fallback decimal.Decimal) (domain.Aggregates, error) {
	var sum, lo, hi *decimal.Decimal
	var n int64
	err := tx.QueryRow(ctx, `
		SELECT SUM(price), MIN(price), MAX(price), COUNT(*)
		FROM price_history WHERE listing_id = $1`, listingID,
	).Scan(&sum, &lo, &hi, &n)
	if err != nil {
		return domain.Aggregates{}, err
	}
	if n == 0 || sum == nil || lo == nil || hi == nil {
		return domain.Aggregates{Average: fallback, Lowest: fallback, Highest: fallback}, nil
	}
	avg := sum.Div(decimal.NewFromInt(n)).Round(2)
	return domain.Aggregates{Average: avg, Lowest: *lo, Highest: *hi}, nil
}

// SetStatus toggles the active flag only. No history append, no recompute.
func (s *ListingStore) SetStatus(ctx context.Context, id string, active bool) (domain.PriceListing, error) {
	l, err := scanListing(s.pool.QueryRow(ctx, `
		UPDATE price_listings SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+listingCols, id, active))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PriceListing{}, domain.ErrNotFound
		}
		return domain.PriceListing{}, fmt.Errorf("postgres: set status %s: %w", id, err)
	}
	return l, nil
}

// SetNote replaces the free-text annotation only.
func (s *ListingStore) SetNote(ctx context.Context, id string, note string) (domain.PriceListing, error) {
	l, err := scanListing(s.pool.QueryRow(ctx, `
		UPDATE price_listings SET note = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+listingCols, id, note))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PriceListing{}, domain.ErrNotFound
		}
		return domain.PriceListing{}, fmt.Errorf("postgres: set note %s: %w", id, err)
	}
	return l, nil
}

// GetByID retrieves a listing by its primary key.
func (s *ListingStore) GetByID(ctx context.Context, id string) (domain.PriceListing, error) {
	l, err := scanListing(s.pool.QueryRow(ctx,
		`SELECT `+listingCols+` FROM price_listings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PriceListing{}, domain.ErrNotFound
		}
		return domain.PriceListing{}, fmt.Errorf("postgres: get listing %s: %w", id, err)
	}
	return l, nil
}

// buildFilter appends WHERE clauses for the given filter, returning the
// clause string and its arguments starting at $1.
func buildFilter(f domain.ListingFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(cond string, val any) {
		args = append(args, val)
		clauses = append(clauses, fmt.Sprintf(cond, len(args)))
	}

	if f.TownID != "" {
		add("town_id = $%d", f.TownID)
	}
	if f.MarketID != "" {
		add("market_id = $%d", f.MarketID)
	}
	if f.StemKind != "" {
		add("stem_kind = $%d", string(f.StemKind))
	}
	if f.StemID != "" {
		add("stem_id = $%d", f.StemID)
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

// List returns listings matching the filter, newest-updated first.
func (s *ListingStore) List(ctx context.Context, f domain.ListingFilter, opts domain.ListOpts) ([]domain.PriceListing, error) {
	where, args := buildFilter(f)
	query := `SELECT ` + listingCols + ` FROM price_listings` + where + ` ORDER BY updated_at DESC`

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
		return nil, fmt.Errorf("postgres: list listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.PriceListing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list listings rows: %w", err)
	}
	return listings, nil
}

// Count returns the number of listings matching the filter.
func (s *ListingStore) Count(ctx context.Context, f domain.ListingFilter) (int64, error) {
	where, args := buildFilter(f)
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM price_listings`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count listings: %w", err)
	}
	return count, nil
}

// Delete hard-deletes a listing; the history rows go with it via the
// ON DELETE CASCADE constraint. Administrative use only.
func (s *ListingStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM price_listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete listing %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Compile-time interface check.
var _ domain.ListingStore = (*ListingStore)(nil)

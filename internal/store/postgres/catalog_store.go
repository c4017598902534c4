package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emiafrica/market-intel/internal/domain"
)

// CatalogStore serves the product/service stem tables and their taxonomy.
type CatalogStore struct {
	pool *pgxpool.Pool
}

// NewCatalogStore creates a CatalogStore backed by the given pool.
func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

const stemCols = `id, name, description, sku, category_id`

func (s *CatalogStore) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := s.pool.QueryRow(ctx,
		`SELECT `+stemCols+` FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.SKU, &p.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, domain.ErrNotFound
		}
		return domain.Product{}, fmt.Errorf("postgres: get product %s: %w", id, err)
	}
	p.TagIDs, err = s.tagIDs(ctx, "product_tags", "product_id", id)
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *CatalogStore) GetService(ctx context.Context, id string) (domain.Service, error) {
	var sv domain.Service
	err := s.pool.QueryRow(ctx,
		`SELECT `+stemCols+` FROM services WHERE id = $1`, id,
	).Scan(&sv.ID, &sv.Name, &sv.Description, &sv.SKU, &sv.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Service{}, domain.ErrNotFound
		}
		return domain.Service{}, fmt.Errorf("postgres: get service %s: %w", id, err)
	}
	sv.TagIDs, err = s.tagIDs(ctx, "service_tags", "service_id", id)
	if err != nil {
		return domain.Service{}, err
	}
	return sv, nil
}

func (s *CatalogStore) tagIDs(ctx context.Context, table, col, id string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT tag_id FROM %s WHERE %s = $1 ORDER BY tag_id`, table, col), id)
	if err != nil {
		return nil, fmt.Errorf("postgres: list %s: %w", table, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var tagID string
		if err := rows.Scan(&tagID); err != nil {
			return nil, fmt.Errorf("postgres: scan tag id: %w", err)
		}
		ids = append(ids, tagID)
	}
	return ids, rows.Err()
}

func (s *CatalogStore) listStems(ctx context.Context, table, categoryID string, opts domain.ListOpts) (pgx.Rows, error) {
	query := `SELECT ` + stemCols + ` FROM ` + table
	var args []any
	if categoryID != "" {
		args = append(args, categoryID)
		query += " WHERE category_id = $1"
	}
	query += " ORDER BY name"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return s.pool.Query(ctx, query, args...)
}

func (s *CatalogStore) ListProducts(ctx context.Context, categoryID string, opts domain.ListOpts) ([]domain.Product, error) {
	rows, err := s.listStems(ctx, "products", categoryID, opts)
	if err != nil {
		return nil, fmt.Errorf("postgres: list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.SKU, &p.CategoryID); err != nil {
			return nil, fmt.Errorf("postgres: scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *CatalogStore) ListServices(ctx context.Context, categoryID string, opts domain.ListOpts) ([]domain.Service, error) {
	rows, err := s.listStems(ctx, "services", categoryID, opts)
	if err != nil {
		return nil, fmt.Errorf("postgres: list services: %w", err)
	}
	defer rows.Close()

	var services []domain.Service
	for rows.Next() {
		var sv domain.Service
		if err := rows.Scan(&sv.ID, &sv.Name, &sv.Description, &sv.SKU, &sv.CategoryID); err != nil {
			return nil, fmt.Errorf("postgres: scan service: %w", err)
		}
		services = append(services, sv)
	}
	return services, rows.Err()
}

func (s *CatalogStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(parent_id::text, '') FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID); err != nil {
			return nil, fmt.Errorf("postgres: scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *CatalogStore) ListTags(ctx context.Context) ([]domain.Tag, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("postgres: scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

var _ domain.CatalogStore = (*CatalogStore)(nil)

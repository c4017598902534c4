package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emiafrica/market-intel/internal/domain"
)

// GeoStore serves the read-mostly region/district/town/market hierarchy.
type GeoStore struct {
	pool *pgxpool.Pool
}

// NewGeoStore creates a GeoStore backed by the given pool.
func NewGeoStore(pool *pgxpool.Pool) *GeoStore {
	return &GeoStore{pool: pool}
}

func (s *GeoStore) ListRegions(ctx context.Context) ([]domain.Region, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM regions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list regions: %w", err)
	}
	defer rows.Close()

	var regions []domain.Region
	for rows.Next() {
		var r domain.Region
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("postgres: scan region: %w", err)
		}
		regions = append(regions, r)
	}
	return regions, rows.Err()
}

func (s *GeoStore) ListDistricts(ctx context.Context, regionID string) ([]domain.District, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, region_id FROM districts WHERE region_id = $1 ORDER BY name`, regionID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list districts: %w", err)
	}
	defer rows.Close()

	var districts []domain.District
	for rows.Next() {
		var d domain.District
		if err := rows.Scan(&d.ID, &d.Name, &d.RegionID); err != nil {
			return nil, fmt.Errorf("postgres: scan district: %w", err)
		}
		districts = append(districts, d)
	}
	return districts, rows.Err()
}

func (s *GeoStore) ListTowns(ctx context.Context, districtID string) ([]domain.Town, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, district_id FROM towns WHERE district_id = $1 ORDER BY name`, districtID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list towns: %w", err)
	}
	defer rows.Close()

	var towns []domain.Town
	for rows.Next() {
		var t domain.Town
		if err := rows.Scan(&t.ID, &t.Name, &t.DistrictID); err != nil {
			return nil, fmt.Errorf("postgres: scan town: %w", err)
		}
		towns = append(towns, t)
	}
	return towns, rows.Err()
}

func (s *GeoStore) ListMarkets(ctx context.Context, townID string) ([]domain.Market, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, town_id FROM markets WHERE town_id = $1 ORDER BY name`, townID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		var m domain.Market
		if err := rows.Scan(&m.ID, &m.Name, &m.TownID); err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	return markets, rows.Err()
}

func (s *GeoStore) GetTown(ctx context.Context, id string) (domain.Town, error) {
	var t domain.Town
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, district_id FROM towns WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.DistrictID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Town{}, domain.ErrNotFound
		}
		return domain.Town{}, fmt.Errorf("postgres: get town %s: %w", id, err)
	}
	return t, nil
}

func (s *GeoStore) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	var m domain.Market
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, town_id FROM markets WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.TownID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %s: %w", id, err)
	}
	return m, nil
}

var _ domain.GeoStore = (*GeoStore)(nil)

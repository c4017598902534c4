package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/emiafrica/market-intel/internal/domain"
)

// GeoStore holds the geo hierarchy in maps. Fixture data is loaded by
// the Add helpers; lookups are read-only after that.
type GeoStore struct {
	mu        sync.RWMutex
	regions   map[string]domain.Region
	districts map[string]domain.District
	towns     map[string]domain.Town
	markets   map[string]domain.Market
}

// NewGeoStore creates an empty GeoStore.
func NewGeoStore() *GeoStore {
	return &GeoStore{
		regions:   make(map[string]domain.Region),
		districts: make(map[string]domain.District),
		towns:     make(map[string]domain.Town),
		markets:   make(map[string]domain.Market),
	}
}

func (s *GeoStore) AddRegion(r domain.Region) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regions[r.ID] = r
}

func (s *GeoStore) AddDistrict(d domain.District) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.districts[d.ID] = d
}

func (s *GeoStore) AddTown(t domain.Town) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.towns[t.ID] = t
}

func (s *GeoStore) AddMarket(m domain.Market) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markets[m.ID] = m
}

func (s *GeoStore) ListRegions(ctx context.Context) ([]domain.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Region, 0, len(s.regions))
	for _, r := range s.regions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *GeoStore) ListDistricts(ctx context.Context, regionID string) ([]domain.District, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.District
	for _, d := range s.districts {
		if d.RegionID == regionID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *GeoStore) ListTowns(ctx context.Context, districtID string) ([]domain.Town, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Town
	for _, t := range s.towns {
		if t.DistrictID == districtID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *GeoStore) ListMarkets(ctx context.Context, townID string) ([]domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Market
	for _, m := range s.markets {
		if m.TownID == townID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *GeoStore) GetTown(ctx context.Context, id string) (domain.Town, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.towns[id]
	if !ok {
		return domain.Town{}, domain.ErrNotFound
	}
	return t, nil
}

func (s *GeoStore) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

var _ domain.GeoStore = (*GeoStore)(nil)

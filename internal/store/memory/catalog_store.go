package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/emiafrica/market-intel/internal/domain"
)

// CatalogStore holds the stem catalogue in maps, loaded via Add helpers.
type CatalogStore struct {
	mu         sync.RWMutex
	products   map[string]domain.Product
	services   map[string]domain.Service
	categories map[string]domain.Category
	tags       map[string]domain.Tag
}

// NewCatalogStore creates an empty CatalogStore.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		products:   make(map[string]domain.Product),
		services:   make(map[string]domain.Service),
		categories: make(map[string]domain.Category),
		tags:       make(map[string]domain.Tag),
	}
}

func (s *CatalogStore) AddProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *CatalogStore) AddService(sv domain.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[sv.ID] = sv
}

func (s *CatalogStore) AddCategory(c domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

func (s *CatalogStore) AddTag(t domain.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[t.ID] = t
}

func (s *CatalogStore) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *CatalogStore) GetService(ctx context.Context, id string) (domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sv, ok := s.services[id]
	if !ok {
		return domain.Service{}, domain.ErrNotFound
	}
	return sv, nil
}

func page[T any](items []T, opts domain.ListOpts) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(items) {
			return nil
		}
		items = items[opts.Offset:]
	}
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}
	return items
}

func (s *CatalogStore) ListProducts(ctx context.Context, categoryID string, opts domain.ListOpts) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Product
	for _, p := range s.products {
		if categoryID == "" || p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, opts), nil
}

func (s *CatalogStore) ListServices(ctx context.Context, categoryID string, opts domain.ListOpts) ([]domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Service
	for _, sv := range s.services {
		if categoryID == "" || sv.CategoryID == categoryID {
			out = append(out, sv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, opts), nil
}

func (s *CatalogStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *CatalogStore) ListTags(ctx context.Context) ([]domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

var _ domain.CatalogStore = (*CatalogStore)(nil)

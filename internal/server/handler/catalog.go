package handler

import (
	"net/http"

	"github.com/emiafrica/market-intel/internal/domain"
)

// Catalog exposes the read-only stem catalogue endpoints.
type Catalog struct {
	store domain.CatalogStore
}

// NewCatalog creates the catalog handler.
func NewCatalog(store domain.CatalogStore) *Catalog {
	return &Catalog{store: store}
}

func (h *Catalog) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context(), r.URL.Query().Get("category_id"), parseListOpts(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Catalog) Services(w http.ResponseWriter, r *http.Request) {
	services, err := h.store.ListServices(r.Context(), r.URL.Query().Get("category_id"), parseListOpts(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if services == nil {
		services = []domain.Service{}
	}
	writeJSON(w, http.StatusOK, services)
}

func (h *Catalog) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Catalog) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.ListTags(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if tags == nil {
		tags = []domain.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

package handler

import (
	"net/http"

	"github.com/emiafrica/market-intel/internal/domain"
)

// Geo exposes the read-only geo hierarchy endpoints.
type Geo struct {
	store domain.GeoStore
}

// NewGeo creates the geo handler.
func NewGeo(store domain.GeoStore) *Geo {
	return &Geo{store: store}
}

func (h *Geo) Regions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.store.ListRegions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if regions == nil {
		regions = []domain.Region{}
	}
	writeJSON(w, http.StatusOK, regions)
}

func (h *Geo) Districts(w http.ResponseWriter, r *http.Request) {
	districts, err := h.store.ListDistricts(r.Context(), r.URL.Query().Get("region_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if districts == nil {
		districts = []domain.District{}
	}
	writeJSON(w, http.StatusOK, districts)
}

func (h *Geo) Towns(w http.ResponseWriter, r *http.Request) {
	towns, err := h.store.ListTowns(r.Context(), r.URL.Query().Get("district_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if towns == nil {
		towns = []domain.Town{}
	}
	writeJSON(w, http.StatusOK, towns)
}

func (h *Geo) Markets(w http.ResponseWriter, r *http.Request) {
	markets, err := h.store.ListMarkets(r.Context(), r.URL.Query().Get("town_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if markets == nil {
		markets = []domain.Market{}
	}
	writeJSON(w, http.StatusOK, markets)
}

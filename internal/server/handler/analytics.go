package handler

import (
	"net/http"
	"strings"

	"github.com/emiafrica/market-intel/internal/domain"
	"github.com/emiafrica/market-intel/internal/service"
)

// Analytics exposes the derived statistics endpoints.
type Analytics struct {
	svc *service.AnalyticsService
}

// NewAnalytics creates the analytics handler.
func NewAnalytics(svc *service.AnalyticsService) *Analytics {
	return &Analytics{svc: svc}
}

// View serves the bundled analytics for one listing.
func (h *Analytics) View(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.View(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type compareResponse struct {
	StemKind string                 `json:"stem_kind"`
	StemID   string                 `json:"stem_id"`
	Markets  []domain.MarketSummary `json:"markets"`
}

// CompareProduct compares one product's prices across up to three markets
// given as ?markets=a,b,c.
func (h *Analytics) CompareProduct(w http.ResponseWriter, r *http.Request) {
	h.compare(w, r, domain.ProductStem(r.PathValue("id")))
}

// CompareService is the service-stem variant of CompareProduct.
func (h *Analytics) CompareService(w http.ResponseWriter, r *http.Request) {
	h.compare(w, r, domain.ServiceStem(r.PathValue("id")))
}

func (h *Analytics) compare(w http.ResponseWriter, r *http.Request, stem domain.Stem) {
	var marketIDs []string
	for _, id := range strings.Split(r.URL.Query().Get("markets"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			marketIDs = append(marketIDs, id)
		}
	}

	summaries, err := h.svc.CompareMarkets(r.Context(), stem, marketIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []domain.MarketSummary{}
	}
	writeJSON(w, http.StatusOK, compareResponse{
		StemKind: string(stem.Kind), StemID: stem.ID, Markets: summaries,
	})
}

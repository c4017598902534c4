package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/emiafrica/market-intel/internal/domain"
	"github.com/emiafrica/market-intel/internal/service"
)

// Listing exposes the listing CRUD and ledger endpoints.
type Listing struct {
	svc *service.ListingService
}

// NewListing creates the listing handler.
func NewListing(svc *service.ListingService) *Listing {
	return &Listing{svc: svc}
}

type createListingRequest struct {
	StemKind string          `json:"stem_kind"`
	StemID   string          `json:"stem_id"`
	TownID   string          `json:"town_id"`
	MarketID string          `json:"market_id"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Note     string          `json:"note"`
}

func (h *Listing) Create(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	created, err := h.svc.Create(r.Context(), domain.NewListingInput{
		Stem:     domain.Stem{Kind: domain.StemKind(req.StemKind), ID: req.StemID},
		Geo:      domain.GeoAnchor{TownID: req.TownID, MarketID: req.MarketID},
		Price:    req.Price,
		Currency: req.Currency,
		Note:     req.Note,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type listingPage struct {
	Listings []domain.PriceListing `json:"listings"`
	Total    int64                 `json:"total"`
	Limit    int                   `json:"limit"`
	Offset   int                   `json:"offset"`
}

func (h *Listing) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.ListingFilter{
		TownID:   q.Get("town_id"),
		MarketID: q.Get("market_id"),
	}
	if v := q.Get("product_id"); v != "" {
		f.StemKind, f.StemID = domain.StemProduct, v
	}
	if v := q.Get("service_id"); v != "" {
		f.StemKind, f.StemID = domain.StemService, v
	}
	switch q.Get("status") {
	case "active":
		active := true
		f.Status = &active
	case "hidden":
		hidden := false
		f.Status = &hidden
	}

	opts := parseListOpts(r)
	listings, total, err := h.svc.List(r.Context(), f, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	if listings == nil {
		listings = []domain.PriceListing{}
	}
	writeJSON(w, http.StatusOK, listingPage{
		Listings: listings, Total: total, Limit: opts.Limit, Offset: opts.Offset,
	})
}

func (h *Listing) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

type updatePriceRequest struct {
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

func (h *Listing) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req updatePriceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	l, err := h.svc.UpdatePrice(r.Context(), r.PathValue("id"), req.Price, req.Currency)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

type setStatusRequest struct {
	Active bool `json:"active"`
}

func (h *Listing) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	l, err := h.svc.SetStatus(r.Context(), r.PathValue("id"), req.Active)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

type setNoteRequest struct {
	Note string `json:"note"`
}

func (h *Listing) SetNote(w http.ResponseWriter, r *http.Request) {
	var req setNoteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	l, err := h.svc.SetNote(r.Context(), r.PathValue("id"), req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Listing) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type historyPage struct {
	ListingID string              `json:"listing_id"`
	Points    []domain.PricePoint `json:"points"`
	Count     int                 `json:"count"`
}

// History serves the ledger most-recent-first, capped by ?limit.
func (h *Listing) History(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	limit := parseLimit(r, domain.DefaultHistoryWindow, 1000)

	points, err := h.svc.GetHistory(r.Context(), id, domain.OrderDesc, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if points == nil {
		points = []domain.PricePoint{}
	}
	writeJSON(w, http.StatusOK, historyPage{ListingID: id, Points: points, Count: len(points)})
}

// MarketListings serves the per-market listings view with recent history.
func (h *Listing) MarketListings(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.MarketListings(r.Context(), r.PathValue("id"), parseLimit(r, 0, 100))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/culinary-compass/internal/apperror"
	"github.com/sakif/culinary-compass/internal/auth"
	"github.com/sakif/culinary-compass/internal/repository"
	"github.com/sakif/culinary-compass/internal/service"
)

// VenueHandler serves venue lookup and the visit log.
type VenueHandler struct {
	venues *service.VenueService
	visits *service.VisitService
	logger *slog.Logger
}

func NewVenueHandler(venues *service.VenueService, visits *service.VisitService, logger *slog.Logger) *VenueHandler {
	return &VenueHandler{venues: venues, visits: visits, logger: logger}
}

// HandleGet returns a stored venue with its attributes.
//
// HTTP: GET /api/venues/{id}
func (h *VenueHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	d, err := h.venues.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleMatch finds a venue by name near a point, storing it if new.
//
// HTTP: POST /api/venues/match
// REQUEST BODY: {"name": "Ramen Ichi", "coordinates": "40.71,-74.00"}
func (h *VenueHandler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	var in service.MatchInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	d, err := h.venues.Match(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleRecordVisit logs a visit by the caller.
//
// HTTP: POST /api/visits
// REQUEST BODY: {"venueId": "4b5a...", "visitedOn": "2026-05-01", "rating": 4}
// Auth: required
func (h *VenueHandler) HandleRecordVisit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var in service.VisitInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	visit, err := h.visits.Record(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, visit)
}

// HandleListVisits returns the caller's visits, newest first.
//
// HTTP: GET /api/visits?q=ramen&limit=5&offset=0
// Auth: required
//
// PAGINATION: limit defaults to 5 and is capped at 100; page 3 of 5 is
// limit=5&offset=10.
func (h *VenueHandler) HandleListVisits(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := h.visits.History(r.Context(), userID, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
		Query:  r.URL.Query().Get("q"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

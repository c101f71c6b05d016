package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/culinary-compass/internal/apperror"
	"github.com/sakif/culinary-compass/internal/auth"
	"github.com/sakif/culinary-compass/internal/service"
)

type RecommendationHandler struct {
	recs   *service.RecommendationService
	logger *slog.Logger
}

func NewRecommendationHandler(recs *service.RecommendationService, logger *slog.Logger) *RecommendationHandler {
	return &RecommendationHandler{recs: recs, logger: logger}
}

// RecommendationsResponse wraps the ranked list so fields can be added
// without breaking clients.
type RecommendationsResponse struct {
	Recommendations []service.Recommendation `json:"recommendations"`
}

// HandleRecommend returns nearby venues ranked against the caller's taste.
//
// HTTP: POST /api/recommendations
// REQUEST BODY: {"coordinates": "40.71,-74.00", "radiusKm": 5}
// Auth: required
//
// A caller without coordinates or without a visit rated 3 or higher gets
// 422 not_ready. Provider trouble is 502, or 503 with Retry-After when it
// is likely to pass.
func (h *RecommendationHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var in service.RecommendInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	recs, err := h.recs.Recommend(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	h.logger.Debug("recommendations served",
		slog.String("user_id", userID),
		slog.Int("count", len(recs)),
	)
	writeJSON(w, http.StatusOK, RecommendationsResponse{Recommendations: recs})
}

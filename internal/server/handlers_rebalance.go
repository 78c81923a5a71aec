package server

import (
	"encoding/json"
	"net/http"

	"github.com/bobmcallan/optifolio/internal/models"
)

type applyRequest struct {
	Actions json.RawMessage `json:"actions"`
}

// handleRebalance handles GET|POST /api/rebalance.
func (s *Server) handleRebalance(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	recs, err := s.app.RebalanceService.Recommend(r.Context(), requestUserID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if recs == nil {
		recs = []models.RebalanceRecommendation{}
	}

	WriteJSON(w, http.StatusOK, recs)
}

// handleRebalanceApply handles POST /api/rebalance/apply.
func (s *Server) handleRebalanceApply(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req applyRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if !isJSONArray(req.Actions) {
		WriteErrorWithCode(w, http.StatusBadRequest, "actions must be an array", CodeValidation)
		return
	}

	var actions []models.RebalanceAction
	if err := json.Unmarshal(req.Actions, &actions); err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, "Invalid actions: "+err.Error(), CodeValidation)
		return
	}

	result, err := s.app.RebalanceService.Apply(r.Context(), requestUserID(r), actions)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

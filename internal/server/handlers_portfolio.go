package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bobmcallan/optifolio/internal/common"
	"github.com/bobmcallan/optifolio/internal/models"
)

// defaultChartHorizon is used when the chart request names no horizon.
const defaultChartHorizon = "1M"

// holdingsRequest is the PUT /api/portfolio/data/holdings body. Holdings is
// kept raw so a non-array value can be rejected with a precise message.
type holdingsRequest struct {
	PortfolioName string          `json:"portfolioName"`
	Description   string          `json:"description"`
	Holdings      json.RawMessage `json:"holdings"`
}

type historyRequest struct {
	PerformanceHistory map[string][]float64 `json:"performanceHistory"`
}

// requestUserID returns the authenticated user id set by requireAuth.
func requestUserID(r *http.Request) string {
	id, _ := common.UserIDFromContext(r.Context())
	return id
}

// handlePortfolioMe handles GET /api/portfolio/me: the caller's portfolio id, or null.
func (s *Server) handlePortfolioMe(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	p, err := s.app.PortfolioService.GetPortfolio(r.Context(), requestUserID(r))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			WriteJSON(w, http.StatusOK, nil)
			return
		}
		s.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"id": p.ID})
}

// handlePortfolioData handles GET /api/portfolio/data.
func (s *Server) handlePortfolioData(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	snapshot, err := s.app.PortfolioService.GetSnapshot(r.Context(), requestUserID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, snapshot)
}

// handlePortfolioChart handles GET /api/portfolio/data/chart?horizon=1M.
func (s *Server) handlePortfolioChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	horizon := r.URL.Query().Get("horizon")
	if horizon == "" {
		horizon = defaultChartHorizon
	}

	png, err := s.app.PortfolioService.RenderChart(r.Context(), requestUserID(r), horizon)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handlePortfolioHoldings handles PUT /api/portfolio/data/holdings.
func (s *Server) handlePortfolioHoldings(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPut) {
		return
	}

	var req holdingsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if !isJSONArray(req.Holdings) {
		WriteErrorWithCode(w, http.StatusBadRequest, "holdings must be an array", CodeValidation)
		return
	}

	var positions []models.Position
	if err := json.Unmarshal(req.Holdings, &positions); err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, "Invalid holdings: "+err.Error(), CodeValidation)
		return
	}

	meta := models.PortfolioMeta{PortfolioName: req.PortfolioName, Description: req.Description}
	p, err := s.app.PortfolioService.UpsertHoldings(r.Context(), requestUserID(r), meta, positions)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Holdings updated",
		"imported": len(p.Positions),
	})
}

// handlePortfolioHistory handles PUT /api/portfolio/data/history.
func (s *Server) handlePortfolioHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPut) {
		return
	}

	var req historyRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if len(req.PerformanceHistory) == 0 {
		WriteErrorWithCode(w, http.StatusBadRequest, "performanceHistory is required", CodeValidation)
		return
	}

	if err := s.app.PortfolioService.SaveHistory(r.Context(), requestUserID(r), req.PerformanceHistory); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"message": "History updated"})
}

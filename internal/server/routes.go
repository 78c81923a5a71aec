package server

import (
	"net/http"

	"github.com/bobmcallan/optifolio/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Portfolio
	mux.HandleFunc("/api/portfolio/me", s.requireAuth(s.handlePortfolioMe))
	mux.HandleFunc("/api/portfolio/data", s.requireAuth(s.handlePortfolioData))
	mux.HandleFunc("/api/portfolio/data/chart", s.requireAuth(s.handlePortfolioChart))
	mux.HandleFunc("/api/portfolio/data/holdings", s.requireAuth(s.handlePortfolioHoldings))
	mux.HandleFunc("/api/portfolio/data/history", s.requireAuth(s.handlePortfolioHistory))

	// Rebalancing
	mux.HandleFunc("/api/rebalance", s.requireAuth(s.handleRebalance))
	mux.HandleFunc("/api/rebalance/apply", s.requireAuth(s.handleRebalanceApply))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

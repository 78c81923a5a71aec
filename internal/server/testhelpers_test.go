package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bobmcallan/optifolio/internal/app"
	"github.com/bobmcallan/optifolio/internal/common"
	"github.com/bobmcallan/optifolio/internal/models"
)

// mockPortfolioService implements interfaces.PortfolioService for testing.
type mockPortfolioService struct {
	getSnapshot    func(ctx context.Context, userID string) (*models.PortfolioSnapshot, error)
	getPortfolio   func(ctx context.Context, userID string) (*models.Portfolio, error)
	upsertHoldings func(ctx context.Context, userID string, meta models.PortfolioMeta, positions []models.Position) (*models.Portfolio, error)
	saveHistory    func(ctx context.Context, userID string, history map[string][]float64) error
	renderChart    func(ctx context.Context, userID, horizon string) ([]byte, error)
}

func (m *mockPortfolioService) GetSnapshot(ctx context.Context, userID string) (*models.PortfolioSnapshot, error) {
	if m.getSnapshot != nil {
		return m.getSnapshot(ctx, userID)
	}
	return &models.PortfolioSnapshot{Holdings: []models.Holding{}}, nil
}

func (m *mockPortfolioService) GetPortfolio(ctx context.Context, userID string) (*models.Portfolio, error) {
	if m.getPortfolio != nil {
		return m.getPortfolio(ctx, userID)
	}
	return nil, common.ErrNotFound
}

func (m *mockPortfolioService) UpsertHoldings(ctx context.Context, userID string, meta models.PortfolioMeta, positions []models.Position) (*models.Portfolio, error) {
	if m.upsertHoldings != nil {
		return m.upsertHoldings(ctx, userID, meta, positions)
	}
	return &models.Portfolio{UserID: userID, Positions: positions, Version: 1}, nil
}

func (m *mockPortfolioService) SaveHistory(ctx context.Context, userID string, history map[string][]float64) error {
	if m.saveHistory != nil {
		return m.saveHistory(ctx, userID, history)
	}
	return nil
}

func (m *mockPortfolioService) RenderChart(ctx context.Context, userID, horizon string) ([]byte, error) {
	if m.renderChart != nil {
		return m.renderChart(ctx, userID, horizon)
	}
	return []byte("\x89PNG"), nil
}

// mockRebalanceService implements interfaces.RebalanceService for testing.
type mockRebalanceService struct {
	recommend func(ctx context.Context, userID string) ([]models.RebalanceRecommendation, error)
	apply     func(ctx context.Context, userID string, actions []models.RebalanceAction) (*models.ApplyResult, error)
}

func (m *mockRebalanceService) Policy() string { return common.PolicyOptimizer }

func (m *mockRebalanceService) Recommend(ctx context.Context, userID string) ([]models.RebalanceRecommendation, error) {
	if m.recommend != nil {
		return m.recommend(ctx, userID)
	}
	return nil, nil
}

func (m *mockRebalanceService) Apply(ctx context.Context, userID string, actions []models.RebalanceAction) (*models.ApplyResult, error) {
	if m.apply != nil {
		return m.apply(ctx, userID, actions)
	}
	return &models.ApplyResult{}, nil
}

const testSecret = "test-jwt-secret"

func newTestServer(portfolioSvc *mockPortfolioService, rebalanceSvc *mockRebalanceService) *Server {
	if portfolioSvc == nil {
		portfolioSvc = &mockPortfolioService{}
	}
	if rebalanceSvc == nil {
		rebalanceSvc = &mockRebalanceService{}
	}
	cfg := common.NewDefaultConfig()
	cfg.Auth.JWTSecret = testSecret
	a := &app.App{
		Config:           cfg,
		Logger:           common.NewSilentLogger(),
		PortfolioService: portfolioSvc,
		RebalanceService: rebalanceSvc,
	}
	return NewServer(a)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

// doRequest sends an authenticated request for user "user-1" through the full handler.
func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.MapClaims{"id": "user-1"}))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

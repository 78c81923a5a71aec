package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/optifolio/internal/common"
	"github.com/bobmcallan/optifolio/internal/models"
)

func TestHandleRebalance_ReturnsRecommendations(t *testing.T) {
	svc := &mockRebalanceService{
		recommend: func(ctx context.Context, userID string) ([]models.RebalanceRecommendation, error) {
			return []models.RebalanceRecommendation{
				{Symbol: "AAA", CurrentWeight: 50, TargetWeight: 40, Amount: 200, Action: models.ActionSell, Reason: "Optimizer target allocation", Matched: true},
				{Symbol: "BBB", CurrentWeight: 50, TargetWeight: 60, Amount: 200, Action: models.ActionBuy, Reason: "Optimizer target allocation", Matched: true},
			}, nil
		},
	}
	srv := newTestServer(nil, svc)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := doRequest(t, srv, method, "/api/rebalance", "")
		require.Equal(t, http.StatusOK, rec.Code, method)

		var got []models.RebalanceRecommendation
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		require.Len(t, got, 2)
		assert.Equal(t, models.ActionSell, got[0].Action)
		assert.Equal(t, "BBB", got[1].Symbol)
	}
}

func TestHandleRebalance_EmptyIsArray(t *testing.T) {
	rec := doRequest(t, newTestServer(nil, nil), http.MethodGet, "/api/rebalance", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestHandleRebalance_UpstreamFailureIs502(t *testing.T) {
	svc := &mockRebalanceService{
		recommend: func(ctx context.Context, userID string) ([]models.RebalanceRecommendation, error) {
			return nil, fmt.Errorf("%w: connection refused", common.ErrUpstreamUnavailable)
		},
	}
	rec := doRequest(t, newTestServer(nil, svc), http.MethodGet, "/api/rebalance", "")

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, CodeUpstream, resp.Code)
	assert.NotContains(t, resp.Error, "connection refused")
}

func TestHandleRebalanceApply(t *testing.T) {
	var got []models.RebalanceAction
	svc := &mockRebalanceService{
		apply: func(ctx context.Context, userID string, actions []models.RebalanceAction) (*models.ApplyResult, error) {
			got = actions
			return &models.ApplyResult{Updated: 1, Skipped: 1, Version: 3}, nil
		},
	}
	body := `{"actions":[{"symbol":"AAA","action":"BUY","amount":500,"avgPrice":100},{"symbol":"ZZZ","action":"SELL","amount":10,"avgPrice":1}]}`
	rec := doRequest(t, newTestServer(nil, svc), http.MethodPost, "/api/rebalance/apply", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":1,"skipped":1,"version":3}`, rec.Body.String())
	require.Len(t, got, 2)
	assert.Equal(t, models.ActionBuy, got[0].Action)
	assert.Equal(t, 500.0, got[0].Amount)
}

func TestHandleRebalanceApply_Errors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		serviceErr error
		wantStatus int
	}{
		{"get not allowed", http.MethodGet, "", nil, http.StatusMethodNotAllowed},
		{"actions object", http.MethodPost, `{"actions":{}}`, nil, http.StatusBadRequest},
		{"actions missing", http.MethodPost, `{}`, nil, http.StatusBadRequest},
		{"invalid action", http.MethodPost, `{"actions":[{"symbol":"A","action":"HOLD"}]}`, fmt.Errorf("%w: actions[0]: unsupported action", common.ErrValidation), http.StatusBadRequest},
		{"conflict", http.MethodPost, `{"actions":[]}`, fmt.Errorf("save: %w", common.ErrConflict), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockRebalanceService{
				apply: func(ctx context.Context, userID string, actions []models.RebalanceAction) (*models.ApplyResult, error) {
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &models.ApplyResult{}, nil
				},
			}
			rec := doRequest(t, newTestServer(nil, svc), tt.method, "/api/rebalance/apply", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

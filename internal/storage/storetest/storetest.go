// Package storetest holds the behaviour every PortfolioStore backend must share.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/optifolio/internal/common"
	"github.com/bobmcallan/optifolio/internal/interfaces"
	"github.com/bobmcallan/optifolio/internal/models"
)

// Run exercises a PortfolioStore. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) interfaces.PortfolioStore) {
	t.Run("GetMissing", func(t *testing.T) {
		store := newStore(t)
		_, err := store.GetPortfolio(context.Background(), "nobody")
		assert.True(t, errors.Is(err, common.ErrNotFound), "got %v", err)
	})

	t.Run("ReplaceCreatesThenReplaces", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		p, err := store.ReplacePositions(ctx, "u1", models.PortfolioMeta{PortfolioName: "Main", Description: "d"}, []models.Position{
			{Symbol: "AAPL", Name: "Apple", Quantity: 10, AvgPrice: 100},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, p.Version)
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, "u1", p.UserID)

		p2, err := store.ReplacePositions(ctx, "u1", models.PortfolioMeta{PortfolioName: "Main"}, []models.Position{
			{Symbol: "MSFT", Name: "Microsoft", Quantity: 5, AvgPrice: 200},
			{Symbol: "TSLA", Name: "Tesla", Quantity: 1, AvgPrice: 250},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, p2.Version)
		assert.Equal(t, p.ID, p2.ID)

		got, err := store.GetPortfolio(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, got.Positions, 2)
		assert.Equal(t, "MSFT", got.Positions[0].Symbol)
		assert.Equal(t, 2, got.Version)
		assert.Equal(t, p.CreatedAt.Unix(), got.CreatedAt.Unix())
	})

	t.Run("UsersAreIsolated", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.ReplacePositions(ctx, "alice", models.PortfolioMeta{}, []models.Position{{Symbol: "A", Quantity: 1, AvgPrice: 1}})
		require.NoError(t, err)
		_, err = store.GetPortfolio(ctx, "bob")
		assert.True(t, errors.Is(err, common.ErrNotFound))
	})

	t.Run("SavePositionsChecksVersion", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		p, err := store.ReplacePositions(ctx, "u1", models.PortfolioMeta{}, []models.Position{{Symbol: "AAPL", Quantity: 10, AvgPrice: 100}})
		require.NoError(t, err)

		updated := []models.Position{{Symbol: "AAPL", Quantity: 12, AvgPrice: 100}}
		saved, err := store.SavePositions(ctx, "u1", updated, p.Version)
		require.NoError(t, err)
		assert.Equal(t, p.Version+1, saved.Version)

		_, err = store.SavePositions(ctx, "u1", updated, p.Version)
		assert.True(t, errors.Is(err, common.ErrConflict), "stale version: got %v", err)

		got, err := store.GetPortfolio(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 12.0, got.Positions[0].Quantity)
	})

	t.Run("SavePositionsMissing", func(t *testing.T) {
		store := newStore(t)
		_, err := store.SavePositions(context.Background(), "nobody", nil, 1)
		assert.Error(t, err)
	})

	t.Run("PerformanceHistoryRoundTrip", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.ReplacePositions(ctx, "u1", models.PortfolioMeta{}, []models.Position{{Symbol: "A", Quantity: 1, AvgPrice: 1}})
		require.NoError(t, err)

		history := map[string][]float64{"1M": {100.5, 101.25, 99.75}}
		p, err := store.SavePerformanceHistory(ctx, "u1", history)
		require.NoError(t, err)
		assert.Equal(t, 2, p.Version)

		got, err := store.GetPortfolio(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, history, got.PerformanceHistory)
		require.Len(t, got.Positions, 1)

		// replacing holdings keeps stored history
		_, err = store.ReplacePositions(ctx, "u1", models.PortfolioMeta{}, []models.Position{{Symbol: "B", Quantity: 1, AvgPrice: 1}})
		require.NoError(t, err)
		got, err = store.GetPortfolio(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, history, got.PerformanceHistory)
	})

	t.Run("ConcurrentConditionalWritesOneWins", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		p, err := store.ReplacePositions(ctx, "u1", models.PortfolioMeta{}, []models.Position{{Symbol: "A", Quantity: 1, AvgPrice: 1}})
		require.NoError(t, err)

		const writers = 5
		var wg sync.WaitGroup
		results := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := store.SavePositions(ctx, "u1", []models.Position{{Symbol: fmt.Sprintf("W%d", i), Quantity: 1, AvgPrice: 1}}, p.Version)
				results <- err
			}(i)
		}
		wg.Wait()
		close(results)

		wins := 0
		for err := range results {
			if err == nil {
				wins++
				continue
			}
			assert.True(t, errors.Is(err, common.ErrConflict), "unexpected error: %v", err)
		}
		assert.Equal(t, 1, wins)

		got, err := store.GetPortfolio(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, p.Version+1, got.Version)
	})
}

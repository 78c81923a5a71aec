package rebalance

import (
	"context"
	"sync"

	"github.com/bobmcallan/optifolio/internal/common"
	"github.com/bobmcallan/optifolio/internal/interfaces"
	"github.com/bobmcallan/optifolio/internal/models"
)

// memStore is an in-memory PortfolioStore with a version check.
type memStore struct {
	mu        sync.Mutex
	docs      map[string]*models.Portfolio
	saveCalls int
	// conflict forces SavePositions to lose the version check.
	conflict bool
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]*models.Portfolio)}
}

func (m *memStore) put(userID string, positions ...models.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[userID] = &models.Portfolio{UserID: userID, Positions: positions, Version: 1}
}

func (m *memStore) GetPortfolio(_ context.Context, userID string) (*models.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.docs[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	cp.Positions = append([]models.Position(nil), p.Positions...)
	return &cp, nil
}

func (m *memStore) ReplacePositions(_ context.Context, userID string, meta models.PortfolioMeta, positions []models.Position) (*models.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Portfolio{UserID: userID, PortfolioName: meta.PortfolioName, Positions: positions, Version: 1}
	if old, ok := m.docs[userID]; ok {
		p.Version = old.Version + 1
	}
	m.docs[userID] = p
	cp := *p
	return &cp, nil
}

func (m *memStore) SavePositions(_ context.Context, userID string, positions []models.Position, expectedVersion int) (*models.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	p, ok := m.docs[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	if m.conflict || p.Version != expectedVersion {
		return nil, common.ErrConflict
	}
	p.Positions = positions
	p.Version++
	cp := *p
	return &cp, nil
}

func (m *memStore) SavePerformanceHistory(_ context.Context, userID string, history map[string][]float64) (*models.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.docs[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	p.PerformanceHistory = history
	p.Version++
	cp := *p
	return &cp, nil
}

type memStorage struct{ store *memStore }

func (m *memStorage) PortfolioStore() interfaces.PortfolioStore { return m.store }
func (m *memStorage) Backend() string                            { return "memory" }
func (m *memStorage) Close() error                               { return nil }

// stubOptimizer returns fixed weights or an error and records the assets it saw.
type stubOptimizer struct {
	weights models.TargetWeights
	err     error
	assets  []string
}

func (s *stubOptimizer) TargetWeights(_ context.Context, assets []string) (models.TargetWeights, error) {
	s.assets = assets
	if s.err != nil {
		return nil, s.err
	}
	return s.weights, nil
}

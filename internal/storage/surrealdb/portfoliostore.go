package surrealdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/optifolio/internal/common"
	"github.com/bobmcallan/optifolio/internal/interfaces"
	"github.com/bobmcallan/optifolio/internal/models"
)

const portfolioTable = "portfolio"

// anyVersion marks a last-write-wins update that may create the document.
const anyVersion = -1

const maxWriteAttempts = 3

// PortfolioStore keeps one record per user, keyed by user id, holding the
// portfolio document as JSON.
type PortfolioStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewPortfolioStore(db *surrealdb.DB, logger *common.Logger) *PortfolioStore {
	return &PortfolioStore{
		db:     db,
		logger: logger,
	}
}

func portfolioRID(userID string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID(portfolioTable, userID)
}

func (s *PortfolioStore) GetPortfolio(ctx context.Context, userID string) (*models.Portfolio, error) {
	record, err := surrealdb.Select[models.PortfolioRecord](ctx, s.db, portfolioRID(userID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("portfolio for user %s: %w", userID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to select portfolio: %w", err)
	}
	if record == nil || record.Value == "" {
		return nil, fmt.Errorf("portfolio for user %s: %w", userID, common.ErrNotFound)
	}
	return record.Portfolio()
}

func (s *PortfolioStore) ReplacePositions(ctx context.Context, userID string, meta models.PortfolioMeta, positions []models.Position) (*models.Portfolio, error) {
	return s.update(ctx, userID, anyVersion, func(p *models.Portfolio) {
		p.PortfolioName = meta.PortfolioName
		p.Description = meta.Description
		p.Positions = positions
	})
}

func (s *PortfolioStore) SavePositions(ctx context.Context, userID string, positions []models.Position, expectedVersion int) (*models.Portfolio, error) {
	return s.update(ctx, userID, expectedVersion, func(p *models.Portfolio) {
		p.Positions = positions
	})
}

func (s *PortfolioStore) SavePerformanceHistory(ctx context.Context, userID string, history map[string][]float64) (*models.Portfolio, error) {
	return s.update(ctx, userID, anyVersion, func(p *models.Portfolio) {
		p.PerformanceHistory = history
	})
}

func (s *PortfolioStore) update(ctx context.Context, userID string, expectedVersion int, fn func(p *models.Portfolio)) (*models.Portfolio, error) {
	var lastErr error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		p, err := s.tryUpdate(ctx, userID, expectedVersion, fn)
		if err == nil {
			return p, nil
		}
		if expectedVersion != anyVersion || !errors.Is(err, common.ErrConflict) {
			return nil, err
		}
		lastErr = err
		s.logger.Debug().Str("user_id", userID).Int("attempt", attempt).Msg("Portfolio write raced, retrying")
	}
	return nil, fmt.Errorf("failed to save portfolio after retries: %w", lastErr)
}

func (s *PortfolioStore) tryUpdate(ctx context.Context, userID string, expectedVersion int, fn func(p *models.Portfolio)) (*models.Portfolio, error) {
	now := time.Now().UTC()

	p, err := s.GetPortfolio(ctx, userID)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrNotFound) && expectedVersion == anyVersion:
		p = models.NewPortfolioDocument(userID, now)
	default:
		return nil, err
	}
	if expectedVersion != anyVersion && p.Version != expectedVersion {
		return nil, fmt.Errorf("portfolio version %d, expected %d: %w", p.Version, expectedVersion, common.ErrConflict)
	}

	prev := p.Version
	fn(p)
	p.Version = prev + 1
	p.UpdatedAt = now

	rec, err := p.Record()
	if err != nil {
		return nil, err
	}

	var sql string
	vars := map[string]any{
		"rid":      portfolioRID(userID),
		"record":   rec,
		"expected": prev,
	}
	if prev == 0 {
		sql = "CREATE $rid CONTENT $record"
	} else {
		sql = "UPDATE $rid CONTENT $record WHERE version = $expected"
	}

	results, err := surrealdb.Query[[]models.PortfolioRecord](ctx, s.db, sql, vars)
	if err != nil {
		if isConflictError(err) {
			return nil, fmt.Errorf("portfolio for user %s changed concurrently: %w", userID, common.ErrConflict)
		}
		return nil, fmt.Errorf("failed to write portfolio: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("portfolio for user %s changed concurrently: %w", userID, common.ErrConflict)
	}

	return p, nil
}

func isNotFoundError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "not found")
}

// isConflictError matches a CREATE on an existing record and SurrealDB's
// retryable transaction conflicts.
func isConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "conflict")
}

// Compile-time check
var _ interfaces.PortfolioStore = (*PortfolioStore)(nil)

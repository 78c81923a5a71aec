package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/optifolio/internal/common"
	"github.com/bobmcallan/optifolio/internal/interfaces"
	"github.com/bobmcallan/optifolio/internal/models"
)

// anyVersion marks a last-write-wins update that may create the document.
const anyVersion = -1

// maxWriteAttempts bounds retries of last-write-wins updates that raced.
const maxWriteAttempts = 3

// PortfolioStore keeps one JSON document per user in the portfolios table.
type PortfolioStore struct {
	db     *sql.DB
	logger *common.Logger
}

func NewPortfolioStore(db *sql.DB, logger *common.Logger) *PortfolioStore {
	return &PortfolioStore{
		db:     db,
		logger: logger,
	}
}

func (s *PortfolioStore) GetPortfolio(ctx context.Context, userID string) (*models.Portfolio, error) {
	var rec models.PortfolioRecord
	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, version, doc, updated_at FROM portfolios WHERE user_id = ?", userID,
	).Scan(&rec.UserID, &rec.Version, &rec.Value, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("portfolio for user %s: %w", userID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select portfolio: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		rec.DateTime = t
	}
	return rec.Portfolio()
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

// update reads the document, applies fn and writes it back only if the stored
// version is unchanged. Conditional updates fail with ErrConflict; anyVersion
// updates retry.
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
	stamp := now.Format(time.RFC3339Nano)

	var res sql.Result
	if prev == 0 {
		res, err = s.db.ExecContext(ctx,
			"INSERT INTO portfolios (user_id, version, doc, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT(user_id) DO NOTHING",
			userID, rec.Version, rec.Value, stamp)
	} else {
		res, err = s.db.ExecContext(ctx,
			"UPDATE portfolios SET version = ?, doc = ?, updated_at = ? WHERE user_id = ? AND version = ?",
			rec.Version, rec.Value, stamp, userID, prev)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write portfolio: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to write portfolio: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("portfolio for user %s changed concurrently: %w", userID, common.ErrConflict)
	}

	return p, nil
}

// Compile-time check
var _ interfaces.PortfolioStore = (*PortfolioStore)(nil)

package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PortfolioRecord is the storage envelope for a Portfolio document. The
// document itself is kept as JSON in Value; UserID and Version are lifted
// out so backends can index and conditionally update on them.
type PortfolioRecord struct {
	UserID   string    `json:"user_id"`
	Version  int       `json:"version"`
	Value    string    `json:"value"`
	DateTime time.Time `json:"datetime"`
}

// NewPortfolioDocument returns an empty, never-written (version 0) document.
func NewPortfolioDocument(userID string, now time.Time) *Portfolio {
	return &Portfolio{
		ID:        uuid.NewString(),
		UserID:    userID,
		Positions: []Position{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Record encodes the document into its storage envelope.
func (p *Portfolio) Record() (*PortfolioRecord, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal portfolio: %w", err)
	}
	return &PortfolioRecord{
		UserID:   p.UserID,
		Version:  p.Version,
		Value:    string(data),
		DateTime: p.UpdatedAt,
	}, nil
}

// Portfolio decodes the envelope. The envelope's version is authoritative.
func (r *PortfolioRecord) Portfolio() (*Portfolio, error) {
	var p Portfolio
	if err := json.Unmarshal([]byte(r.Value), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal portfolio: %w", err)
	}
	p.Version = r.Version
	if p.UserID == "" {
		p.UserID = r.UserID
	}
	if p.Positions == nil {
		p.Positions = []Position{}
	}
	return &p, nil
}

package interfaces

import (
	"context"

	"github.com/bobmcallan/optifolio/internal/models"
)

// OptimizerClient calls the external allocation-optimization service.
type OptimizerClient interface {
	// TargetWeights returns target weights (percent) for the given symbols.
	TargetWeights(ctx context.Context, assets []string) (models.TargetWeights, error)
}

package ai

import (
	"context"
	"errors"

	"github.com/amishk599/jobscout/internal/model"
)

// ErrEstimatorDisabled is returned by NopSalaryEstimator.
var ErrEstimatorDisabled = errors.New("salary estimation disabled")

// NopSalaryEstimator is used when ai.enabled is false. Every estimate fails,
// so callers fall back to their unresolved-salary policy.
type NopSalaryEstimator struct{}

// NewNopSalaryEstimator returns a NopSalaryEstimator.
func NewNopSalaryEstimator() *NopSalaryEstimator {
	return &NopSalaryEstimator{}
}

// Estimate always returns ErrEstimatorDisabled.
func (n *NopSalaryEstimator) Estimate(_ context.Context, _, _ string, _ float64) (model.SalaryEstimate, error) {
	return model.SalaryEstimate{}, ErrEstimatorDisabled
}

package policyRepo

import (
	"context"

	"servana/models"
)

// PolicyRepository resolves cancellation policies by service category.
type PolicyRepository interface {
	// GetByCategory returns nil, nil when no policy is configured for
	// the category; callers decide whether that is an error.
	GetByCategory(ctx context.Context, category string) (*models.CancellationPolicy, error)
	Upsert(ctx context.Context, policy *models.CancellationPolicy) error
}

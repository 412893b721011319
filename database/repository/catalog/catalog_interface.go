package catalogRepo

import (
	"context"
	"errors"

	"servana/models"
)

// ErrNotFound is returned when no service exists for the given id.
var ErrNotFound = errors.New("service not found")

// CatalogRepository reads a provider's service catalogue.
type CatalogRepository interface {
	GetService(ctx context.Context, serviceID string) (*models.Service, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Service, error)
}

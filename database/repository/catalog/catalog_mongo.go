package catalogRepo

import (
	"context"
	"fmt"
	"time"

	"servana/config"
	"servana/database"
	"servana/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoCatalogRepo implements CatalogRepository using MongoDB.
type MongoCatalogRepo struct {
	serviceColl *mongo.Collection
}

// NewMongoCatalogRepo constructs a new instance of MongoCatalogRepo.
func NewMongoCatalogRepo() CatalogRepository {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	return &MongoCatalogRepo{
		serviceColl: db.Collection("services"),
	}
}

// GetService retrieves a service document by ID.
func (repo *MongoCatalogRepo) GetService(ctx context.Context, serviceID string) (*models.Service, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var service models.Service
	err := repo.serviceColl.FindOne(ctxWithTimeout, bson.M{"id": serviceID}).Decode(&service)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching service %s: %w", serviceID, err)
	}
	return &service, nil
}

// ListByProvider returns all active services of a provider.
func (repo *MongoCatalogRepo) ListByProvider(ctx context.Context, providerID string) ([]models.Service, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"provider_id": providerID, "active": true}
	cursor, err := repo.serviceColl.Find(ctxWithTimeout, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing services for provider %s: %w", providerID, err)
	}
	defer cursor.Close(ctxWithTimeout)

	var services []models.Service
	for cursor.Next(ctxWithTimeout) {
		var s models.Service
		if err := cursor.Decode(&s); err != nil {
			return nil, fmt.Errorf("error decoding service: %w", err)
		}
		services = append(services, s)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return services, nil
}

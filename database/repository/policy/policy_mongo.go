package policyRepo

import (
	"context"
	"fmt"
	"time"

	"servana/config"
	"servana/database"
	"servana/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPolicyRepo implements PolicyRepository using MongoDB.
type MongoPolicyRepo struct {
	policyColl *mongo.Collection
}

// NewMongoPolicyRepo constructs a new instance of MongoPolicyRepo.
func NewMongoPolicyRepo() PolicyRepository {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	return &MongoPolicyRepo{
		policyColl: db.Collection("cancellation_policies"),
	}
}

// GetByCategory retrieves the policy for a service category.
func (repo *MongoPolicyRepo) GetByCategory(ctx context.Context, category string) (*models.CancellationPolicy, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var policy models.CancellationPolicy
	err := repo.policyColl.FindOne(ctxWithTimeout, bson.M{"category": category}).Decode(&policy)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching cancellation policy for category %s: %w", category, err)
	}
	return &policy, nil
}

// Upsert writes the policy for its category.
func (repo *MongoPolicyRepo) Upsert(ctx context.Context, policy *models.CancellationPolicy) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"category": policy.Category}
	update := bson.M{"$set": policy}
	opts := options.Update().SetUpsert(true)
	if _, err := repo.policyColl.UpdateOne(ctxWithTimeout, filter, update, opts); err != nil {
		return fmt.Errorf("error upserting cancellation policy for category %s: %w", policy.Category, err)
	}
	return nil
}

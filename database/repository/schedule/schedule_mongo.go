package scheduleRepo

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

// MongoScheduleRepo implements ScheduleRepository using MongoDB.
type MongoScheduleRepo struct {
	scheduleColl *mongo.Collection
}

// NewMongoScheduleRepo constructs a new instance of MongoScheduleRepo.
func NewMongoScheduleRepo() ScheduleRepository {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	return &MongoScheduleRepo{
		scheduleColl: db.Collection("schedules"),
	}
}

// GetByProviderID retrieves a provider's schedule document. A missing
// schedule is not an error; callers treat it as "no availability".
func (repo *MongoScheduleRepo) GetByProviderID(ctx context.Context, providerID string) (*models.Schedule, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var schedule models.Schedule
	filter := bson.M{"provider_id": providerID}
	if err := repo.scheduleColl.FindOne(ctxWithTimeout, filter).Decode(&schedule); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching schedule for provider %s: %w", providerID, err)
	}
	return &schedule, nil
}

// Upsert writes the full schedule document for a provider.
func (repo *MongoScheduleRepo) Upsert(ctx context.Context, schedule *models.Schedule) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	schedule.UpdatedAt = time.Now()
	filter := bson.M{"provider_id": schedule.ProviderID}
	update := bson.M{"$set": schedule}
	opts := options.Update().SetUpsert(true)
	if _, err := repo.scheduleColl.UpdateOne(ctxWithTimeout, filter, update, opts); err != nil {
		return fmt.Errorf("error upserting schedule for provider %s: %w", schedule.ProviderID, err)
	}
	return nil
}

// SetOverride adds or replaces the date override for its date.
func (repo *MongoScheduleRepo) SetOverride(ctx context.Context, providerID string, override models.DateOverride) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"provider_id": providerID}
	update := bson.M{
		"$set": bson.M{
			"overrides." + override.Date: override,
			"updated_at":                 time.Now(),
		},
	}
	res, err := repo.scheduleColl.UpdateOne(ctxWithTimeout, filter, update)
	if err != nil {
		return fmt.Errorf("error setting override for provider %s on %s: %w", providerID, override.Date, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no schedule found for provider %s", providerID)
	}
	return nil
}

// RemoveOverride deletes the override for a date, if present.
func (repo *MongoScheduleRepo) RemoveOverride(ctx context.Context, providerID, date string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"provider_id": providerID}
	update := bson.M{
		"$unset": bson.M{"overrides." + date: ""},
		"$set":   bson.M{"updated_at": time.Now()},
	}
	res, err := repo.scheduleColl.UpdateOne(ctxWithTimeout, filter, update)
	if err != nil {
		return fmt.Errorf("error removing override for provider %s on %s: %w", providerID, date, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no schedule found for provider %s", providerID)
	}
	return nil
}

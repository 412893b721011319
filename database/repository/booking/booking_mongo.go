package bookingRepo

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

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	bookingColl *mongo.Collection
}

// NewMongoBookingRepo constructs a new instance of MongoBookingRepo.
func NewMongoBookingRepo() BookingRepository {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	return &MongoBookingRepo{
		bookingColl: db.Collection("bookings"),
	}
}

// Create inserts a new booking document.
func (repo *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.bookingColl.InsertOne(ctxWithTimeout, booking); err != nil {
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its ID.
func (repo *MongoBookingRepo) GetByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := repo.bookingColl.FindOne(ctxWithTimeout, bson.M{"id": bookingID}).Decode(&booking)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching booking %s: %w", bookingID, err)
	}
	return &booking, nil
}

// ListActiveByProviderDate returns pending and confirmed bookings for a
// provider on a given date.
func (repo *MongoBookingRepo) ListActiveByProviderDate(ctx context.Context, providerID, date string) ([]models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"provider_id": providerID,
		"date":        date,
		"status":      bson.M{"$in": []string{models.BookingPending, models.BookingConfirmed}},
	}
	cursor, err := repo.bookingColl.Find(ctxWithTimeout, filter)
	if err != nil {
		return nil, fmt.Errorf("error finding active bookings: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var bookings []models.Booking
	for cursor.Next(ctxWithTimeout) {
		var b models.Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("error decoding booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return bookings, nil
}

// ListOverduePending returns pending bookings whose confirmation
// deadline has passed.
func (repo *MongoBookingRepo) ListOverduePending(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":                models.BookingPending,
		"confirmation_deadline": bson.M{"$lt": cutoff},
	}
	cursor, err := repo.bookingColl.Find(ctxWithTimeout, filter)
	if err != nil {
		return nil, fmt.Errorf("error finding overdue bookings: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var bookings []models.Booking
	for cursor.Next(ctxWithTimeout) {
		var b models.Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("error decoding booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return bookings, nil
}

// UpdateStatusIf performs a conditional status transition. The filter
// carries the expected current status so two racing callers cannot both
// apply a terminal transition.
func (repo *MongoBookingRepo) UpdateStatusIf(ctx context.Context, bookingID, fromStatus, toStatus string, patch map[string]interface{}) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{
		"status":     toStatus,
		"updated_at": time.Now(),
	}
	for k, v := range patch {
		set[k] = v
	}
	filter := bson.M{"id": bookingID, "status": fromStatus}
	res, err := repo.bookingColl.UpdateOne(ctxWithTimeout, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("error updating booking %s: %w", bookingID, err)
	}
	if res.MatchedCount == 0 {
		return ErrStatusPrecondition
	}
	return nil
}

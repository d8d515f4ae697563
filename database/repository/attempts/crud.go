package attemptsRepo

import (
	"context"
	"time"

	"jeffjackson/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Record inserts one attempt.
func (r *mongoAttemptRepo) Record(ctx context.Context, attempt models.PaymentAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now()
	}
	_, err := r.coll.InsertOne(ctx, attempt)
	return err
}

// GetBySession returns a session's attempts, oldest first.
func (r *mongoAttemptRepo) GetBySession(ctx context.Context, sessionID string) ([]models.PaymentAttempt, error) {
	return r.find(ctx, bson.M{"sessionId": sessionID})
}

// GetByUniqueID returns the attempts that produced or paid a booking.
func (r *mongoAttemptRepo) GetByUniqueID(ctx context.Context, uniqueID string) ([]models.PaymentAttempt, error) {
	return r.find(ctx, bson.M{"uniqueId": uniqueID})
}

func (r *mongoAttemptRepo) find(ctx context.Context, filter bson.M) ([]models.PaymentAttempt, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var attempts []models.PaymentAttempt
	if err := cursor.All(ctx, &attempts); err != nil {
		return nil, err
	}
	return attempts, nil
}

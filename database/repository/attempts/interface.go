package attemptsRepo

import (
	"context"

	"jeffjackson/database"
	"jeffjackson/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// PaymentAttemptRepository journals payment attempts.
type PaymentAttemptRepository interface {
	Record(ctx context.Context, attempt models.PaymentAttempt) error
	GetBySession(ctx context.Context, sessionID string) ([]models.PaymentAttempt, error)
	GetByUniqueID(ctx context.Context, uniqueID string) ([]models.PaymentAttempt, error)
}

type mongoAttemptRepo struct {
	coll *mongo.Collection
}

// NewMongoAttemptRepo returns a repository over the global client.
func NewMongoAttemptRepo(dbName string) PaymentAttemptRepository {
	return NewMongoAttemptRepoWith(database.MongoClient.Database(dbName))
}

// NewMongoAttemptRepoWith returns a repository over db.
func NewMongoAttemptRepoWith(db *mongo.Database) PaymentAttemptRepository {
	return &mongoAttemptRepo{
		coll: db.Collection("payment_attempts"),
	}
}

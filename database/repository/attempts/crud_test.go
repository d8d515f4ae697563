package attemptsRepo

import (
	"context"
	"testing"
	"time"

	"jeffjackson/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestRecordAndFind(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("record", func(mt *mtest.T) {
		repo := NewMongoAttemptRepoWith(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Record(context.Background(), models.PaymentAttempt{
			SessionID: "s1",
			Outcome:   models.OutcomeCreated,
			UniqueID:  "BK-1",
		})
		require.NoError(t, err)
	})

	mt.Run("record failure", func(mt *mtest.T) {
		repo := NewMongoAttemptRepoWith(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := repo.Record(context.Background(), models.PaymentAttempt{ID: "a1"})
		assert.Error(t, err)
	})

	mt.Run("get by session", func(mt *mtest.T) {
		repo := NewMongoAttemptRepoWith(mt.DB)
		ns := mt.DB.Name() + ".payment_attempts"
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "id", Value: "a1"},
			{Key: "sessionId", Value: "s1"},
			{Key: "outcome", Value: "rejected"},
			{Key: "createdAt", Value: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)},
		})
		end := mtest.CreateCursorResponse(0, ns, mtest.NextBatch, bson.D{
			{Key: "id", Value: "a2"},
			{Key: "sessionId", Value: "s1"},
			{Key: "outcome", Value: "created"},
			{Key: "uniqueId", Value: "BK-1"},
		})
		mt.AddMockResponses(first, end)

		attempts, err := repo.GetBySession(context.Background(), "s1")
		require.NoError(t, err)
		require.Len(t, attempts, 2)
		assert.Equal(t, models.OutcomeRejected, attempts[0].Outcome)
		assert.Equal(t, "BK-1", attempts[1].UniqueID)
	})
}

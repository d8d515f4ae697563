package database

import (
	"context"
	"time"

	"jeffjackson/config"
	"jeffjackson/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoClient is the global MongoDB client instance.
var MongoClient *mongo.Client

// InitDB connects to MongoDB. The journal is optional, so a failure is
// returned rather than fatal.
func InitDB() error {
	logger := utils.GetLogger()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(config.AppConfig.DatabaseURL)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		logger.Error("failed to connect to MongoDB", zap.Error(err))
		return err
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.Error("failed to ping MongoDB", zap.Error(err))
		_ = client.Disconnect(context.Background())
		return err
	}
	MongoClient = client
	logger.Info("Connected to MongoDB successfully", zap.String("database", config.AppConfig.DatabaseName))
	return nil
}

// CloseDB disconnects the global client, if any.
func CloseDB(ctx context.Context) {
	if MongoClient == nil {
		return
	}
	if err := MongoClient.Disconnect(ctx); err != nil {
		utils.GetLogger().Warn("failed to disconnect MongoDB", zap.Error(err))
	}
}

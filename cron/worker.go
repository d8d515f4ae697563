package cron

import (
	"context"
	"fmt"
	"time"

	"jeffjackson/config"
	"jeffjackson/services/notification"
	"jeffjackson/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RedisOpt is the asynq connection for the agreement queue.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitAgreementWorker runs the agreement delivery worker in the background
// and returns the server so main can shut it down.
func InitAgreementWorker(notifSvc notification.NotificationService, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeAgreementDeliver, handleAgreementTask(notifSvc, logger))

	go monitorRedisConnection(logger)

	go func() {
		logger.Info("Starting agreement worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("Agreement worker failed to start",
					zap.Int("attempt", attempts),
					zap.Int("maxAttempts", maxAttempts),
					zap.Error(err))

				if attempts == maxAttempts {
					logger.Fatal("Agreement worker gave up after max retry attempts")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
	return srv
}

func handleAgreementTask(notifSvc notification.NotificationService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseAgreementTask(task)
		if err != nil {
			logger.Error("Invalid agreement payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if p.UniqueID == "" || p.Email == "" {
			logger.Warn("Agreement payload missing recipient", zap.String("uniqueId", p.UniqueID))
			return nil
		}

		logger.Info("Delivering agreement", zap.String("uniqueId", p.UniqueID), zap.String("eventDate", p.EventDate))
		if err := notifSvc.SendAgreement(ctx, p); err != nil {
			logger.Error("Failed to deliver agreement", zap.String("uniqueId", p.UniqueID), zap.Error(err))
			return err
		}
		return nil
	}
}

// monitorRedisConnection pings the queue Redis periodically to surface outages.
func monitorRedisConnection(logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Agreement queue Redis connection lost", zap.Error(err))
		}
		time.Sleep(30 * time.Second)
	}
}

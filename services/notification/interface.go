package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"jeffjackson/models"
	"jeffjackson/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// NotificationService delivers the booking agreement to the client through
// the external notification service.
type NotificationService interface {
	SendAgreement(ctx context.Context, payload models.AgreementPayload) error
}

// DefaultNotificationService posts agreements to the notification endpoint.
type DefaultNotificationService struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewDefaultNotificationService(endpoint string, logger *zap.Logger) (*DefaultNotificationService, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("notification service initialization error: endpoint is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultNotificationService{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}, nil
}

// SendAgreement delivers one agreement. Any non-2xx answer is an error so
// the queue retries it.
func (s *DefaultNotificationService) SendAgreement(ctx context.Context, p models.AgreementPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("SendAgreement: %s: %w", p.UniqueID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("SendAgreement: %s: notification service answered %d", p.UniqueID, resp.StatusCode)
	}
	s.logger.Info("Agreement delivered", zap.String("uniqueId", p.UniqueID), zap.String("email", p.Email))
	return nil
}

// Enqueuer is the part of asynq.Client the queue uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AgreementQueue hands agreement delivery to the asynq worker.
type AgreementQueue struct {
	client Enqueuer
	logger *zap.Logger
}

func NewAgreementQueue(client Enqueuer, logger *zap.Logger) *AgreementQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgreementQueue{client: client, logger: logger}
}

// EnqueueAgreement queues delivery. A record that is already queued is not an error.
func (q *AgreementQueue) EnqueueAgreement(ctx context.Context, p models.AgreementPayload) error {
	task, opts, err := tasks.NewAgreementTask(p)
	if err != nil {
		return err
	}
	info, err := q.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		q.logger.Info("Agreement already queued", zap.String("uniqueId", p.UniqueID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue agreement: %w", err)
	}
	q.logger.Info("Agreement queued", zap.String("uniqueId", p.UniqueID), zap.String("taskID", info.ID))
	return nil
}

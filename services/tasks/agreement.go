package tasks

import (
	"encoding/json"

	"jeffjackson/models"

	"github.com/hibiken/asynq"
)

const TypeAgreementDeliver = "agreement:deliver"

// NewAgreementTask builds the delivery task for a created booking. The task
// id is the booking's unique id so a record is only ever queued once.
func NewAgreementTask(payload models.AgreementPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeAgreementDeliver, b)
	opts := []asynq.Option{
		asynq.TaskID("agreement:" + payload.UniqueID),
		asynq.MaxRetry(5),
		asynq.Queue("default"),
	}

	return task, opts, nil
}

// ParseAgreementTask decodes a delivery task payload.
func ParseAgreementTask(task *asynq.Task) (models.AgreementPayload, error) {
	var p models.AgreementPayload
	err := json.Unmarshal(task.Payload(), &p)
	return p, err
}

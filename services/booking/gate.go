package booking

import (
	"context"

	"jeffjackson/models"
	"jeffjackson/services/backend"

	"go.uber.org/zap"
)

// Gate codes identify which availability check stopped a pay attempt.
const (
	CodeSlotBlocked     = "slotBlocked"
	CodeDuplicate       = "duplicateBooking"
	CodeGateUnavailable = "availabilityUnavailable"
)

// AvailabilityBackend is the part of the backend the gate depends on.
type AvailabilityBackend interface {
	CheckSlotBlock(ctx context.Context, date, timeLabel string) error
	CheckDuplicate(ctx context.Context, date, timeLabel, email string) error
}

// Gate arbitrates slot availability before any payment is attempted.
type Gate struct {
	backend AvailabilityBackend
	logger  *zap.Logger
}

func NewGate(b AvailabilityBackend, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{backend: b, logger: logger}
}

// Check runs the slot-block check and then, only if it passed, the
// duplicate-booking check. Any failure closes the gate.
func (g *Gate) Check(ctx context.Context, d models.BookingDraft) (models.AvailabilityVerdict, error) {
	date := d.DateLabel()

	if err := g.backend.CheckSlotBlock(ctx, date, d.EventTime); err != nil {
		return g.closed(CodeSlotBlocked, d, err)
	}
	if err := g.backend.CheckDuplicate(ctx, date, d.EventTime, d.Client.Email); err != nil {
		return g.closed(CodeDuplicate, d, err)
	}
	return models.AvailabilityVerdict{Available: true}, nil
}

func (g *Gate) closed(code string, d models.BookingDraft, err error) (models.AvailabilityVerdict, error) {
	if msg, ok := backend.IsRejection(err); ok {
		be := NewRejectionError(code, msg, err).(*BookingError)
		g.logger.Info("Availability gate rejected slot",
			zap.String("check", code),
			zap.String("date", d.DateLabel()),
			zap.String("time", d.EventTime),
			zap.String("reason", be.Message))
		return models.AvailabilityVerdict{Available: false, Reason: be.Message}, be
	}
	g.logger.Warn("Availability gate could not reach backend",
		zap.String("check", code),
		zap.Error(err))
	te := NewTransportError(CodeGateUnavailable, err).(*BookingError)
	return models.AvailabilityVerdict{Available: false, Reason: te.Message}, te
}

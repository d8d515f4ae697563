package booking

import (
	"context"
	"time"

	"jeffjackson/models"

	"go.uber.org/zap"
)

// BookingSessionService drives one visitor's booking wizard across requests.
type BookingSessionService interface {
	InitiateSession(ctx context.Context) (models.BookingResponse, error)
	GetSession(ctx context.Context, sessionID string) (models.BookingResponse, error)
	PickDate(ctx context.Context, sessionID, date string) (models.BookingResponse, error)
	PickTime(ctx context.Context, sessionID, label string) (models.BookingResponse, error)
	SubmitDetails(ctx context.Context, sessionID string, form models.DetailsForm) (models.BookingResponse, error)
	Back(ctx context.Context, sessionID string) (models.BookingResponse, error)
	DismissBanner(ctx context.Context, sessionID string) (models.BookingResponse, error)
	ConfirmPay(ctx context.Context, sessionID, transactionID string) (models.BookingResponse, error)
	OpenGatewayCheckout(ctx context.Context, sessionID string, kind models.PaymentType) (models.BookingResponse, error)
	GatewayCallback(ctx context.Context, sessionID string, cb GatewayCallback) (models.BookingResponse, error)
	CancelSession(ctx context.Context, sessionID string) error
	PopConfirmation(ctx context.Context, sessionID string) (models.BookingRecord, bool, error)
	BookableTimes(date string) ([]string, error)
}

// SessionStore persists wizards between requests.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (models.WizardSnapshot, error)
	Save(ctx context.Context, snap models.WizardSnapshot) error
	SaveUnlocked(ctx context.Context, snap models.WizardSnapshot) error
	Delete(ctx context.Context, sessionID string) error
	AcquireBusy(ctx context.Context, sessionID, owner string) (bool, error)
	ReleaseBusy(ctx context.Context, sessionID, owner string) error
	BusyHeld(ctx context.Context, sessionID string) (bool, error)
	PutNavigation(ctx context.Context, sessionID string, rec models.BookingRecord) error
	PopNavigation(ctx context.Context, sessionID string) (models.BookingRecord, bool, error)
}

// DefaultBookingSessionService implements BookingSessionService.
type DefaultBookingSessionService struct {
	Store      SessionStore
	Payments   *PaymentFlow
	Location   *time.Location
	PayTimeout time.Duration
	Logger     *zap.Logger
	Now        func() time.Time
}

package booking

import (
	"context"
	"errors"
	"time"

	"jeffjackson/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// ConfirmationRoute is where a client goes once a record exists.
	ConfirmationRoute = "/booking/confirmation"
	abandonedMessage  = "Your last payment attempt did not finish. Please try again."
)

// NewBookingSessionService wires the default implementation.
func NewBookingSessionService(store SessionStore, payments *PaymentFlow, loc *time.Location, payTimeout time.Duration, logger *zap.Logger) *DefaultBookingSessionService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if payTimeout <= 0 {
		payTimeout = time.Minute
	}
	return &DefaultBookingSessionService{
		Store:      store,
		Payments:   payments,
		Location:   loc,
		PayTimeout: payTimeout,
		Logger:     logger,
		Now:        time.Now,
	}
}

func (s *DefaultBookingSessionService) now() time.Time {
	return s.Now().In(s.Location)
}

// InitiateSession starts a fresh wizard on the date step.
func (s *DefaultBookingSessionService) InitiateSession(ctx context.Context) (models.BookingResponse, error) {
	sessionID := uuid.New().String()
	w := NewWizard()
	created := s.now()
	if err := s.save(ctx, sessionID, w, created); err != nil {
		return models.BookingResponse{}, err
	}
	s.Logger.Info("Booking session initiated", zap.String("sessionID", sessionID))
	return s.respond(sessionID, w), nil
}

func (s *DefaultBookingSessionService) GetSession(ctx context.Context, sessionID string) (models.BookingResponse, error) {
	w, _, err := s.load(ctx, sessionID)
	if err != nil {
		return models.BookingResponse{}, err
	}
	return s.respond(sessionID, w), nil
}

// PickDate parses a YYYY-MM-DD day in the business time zone.
func (s *DefaultBookingSessionService) PickDate(ctx context.Context, sessionID, date string) (models.BookingResponse, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.Location)
	if err != nil {
		return s.failBefore(ctx, sessionID, NewValidationError("Please choose a valid date.", map[string]string{"date": "must be YYYY-MM-DD"}, err))
	}
	now := s.now()
	return s.mutate(ctx, sessionID, func(w *Wizard) error {
		return w.PickDate(day, now)
	})
}

func (s *DefaultBookingSessionService) PickTime(ctx context.Context, sessionID, label string) (models.BookingResponse, error) {
	now := s.now()
	return s.mutate(ctx, sessionID, func(w *Wizard) error {
		return w.PickTime(label, now)
	})
}

func (s *DefaultBookingSessionService) SubmitDetails(ctx context.Context, sessionID string, form models.DetailsForm) (models.BookingResponse, error) {
	return s.mutate(ctx, sessionID, func(w *Wizard) error {
		return w.SubmitDetails(form)
	})
}

func (s *DefaultBookingSessionService) Back(ctx context.Context, sessionID string) (models.BookingResponse, error) {
	return s.mutate(ctx, sessionID, func(w *Wizard) error {
		return w.Back()
	})
}

func (s *DefaultBookingSessionService) DismissBanner(ctx context.Context, sessionID string) (models.BookingResponse, error) {
	return s.mutate(ctx, sessionID, func(w *Wizard) error {
		w.DismissBanner()
		return nil
	})
}

// ConfirmPay runs the manual payment path. A second call while one is in
// flight returns ErrBusy and submits nothing.
func (s *DefaultBookingSessionService) ConfirmPay(ctx context.Context, sessionID, transactionID string) (models.BookingResponse, error) {
	proof := models.ManualProof(transactionID)
	return runPay(ctx, s, sessionID, models.ProofManual,
		func(w *Wizard) (PayTicket, error) {
			return s.Payments.PrepareManual(w, sessionID, proof)
		},
		func(ctx context.Context, t PayTicket) (models.BookingRecord, error) {
			return s.Payments.SubmitManual(ctx, sessionID, t, proof)
		},
		s.Payments.Settle,
	)
}

// OpenGatewayCheckout gates the slot and opens a hosted checkout for it.
func (s *DefaultBookingSessionService) OpenGatewayCheckout(ctx context.Context, sessionID string, kind models.PaymentType) (models.BookingResponse, error) {
	return runPay(ctx, s, sessionID, models.ProofGateway,
		func(w *Wizard) (PayTicket, error) {
			return s.Payments.PrepareCheckout(w, sessionID, kind)
		},
		func(ctx context.Context, t PayTicket) (models.GatewayOrder, error) {
			return s.Payments.SubmitCheckout(ctx, sessionID, t, kind)
		},
		func(w *Wizard, t PayTicket, order models.GatewayOrder, err error) error {
			if err != nil {
				return w.Fail(t, err)
			}
			return w.AwaitGateway(t, order)
		},
	)
}

// GatewayCallback settles a hosted checkout: success is verified with the
// backend, dismiss only records the cancellation.
func (s *DefaultBookingSessionService) GatewayCallback(ctx context.Context, sessionID string, cb GatewayCallback) (models.BookingResponse, error) {
	switch cb.Event {
	case CallbackDismiss:
		return s.mutate(ctx, sessionID, func(w *Wizard) error {
			return s.Payments.Dismiss(ctx, w, sessionID)
		})
	case CallbackSuccess:
	default:
		return s.failBefore(ctx, sessionID, NewValidationError("Unknown checkout event.", map[string]string{"event": "must be success or dismiss"}, nil))
	}

	var proof models.PaymentProof
	kind := cb.PaymentType
	return runPay(ctx, s, sessionID, models.ProofGateway,
		func(w *Wizard) (PayTicket, error) {
			t, p, err := s.Payments.PrepareCallback(w, sessionID, cb)
			proof = p
			if kind == "" && w.PendingOrder() != nil {
				kind = w.PendingOrder().PaymentType
			}
			return t, err
		},
		func(ctx context.Context, t PayTicket) (models.BookingRecord, error) {
			return s.Payments.SubmitCallback(ctx, sessionID, t, proof, kind)
		},
		s.Payments.Settle,
	)
}

// CancelSession discards the wizard. It is refused while a payment is in flight.
func (s *DefaultBookingSessionService) CancelSession(ctx context.Context, sessionID string) error {
	held, err := s.Store.BusyHeld(ctx, sessionID)
	if err != nil {
		return err
	}
	if held {
		return ErrBusy
	}
	if err := s.Store.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.Logger.Info("Booking session cancelled", zap.String("sessionID", sessionID))
	return nil
}

// PopConfirmation hands out the created record once.
func (s *DefaultBookingSessionService) PopConfirmation(ctx context.Context, sessionID string) (models.BookingRecord, bool, error) {
	return s.Store.PopNavigation(ctx, sessionID)
}

// BookableTimes lists the slots still offered on a YYYY-MM-DD day.
func (s *DefaultBookingSessionService) BookableTimes(date string) ([]string, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.Location)
	if err != nil {
		return nil, NewValidationError("Please choose a valid date.", map[string]string{"date": "must be YYYY-MM-DD"}, err)
	}
	now := s.now()
	if isPastDay(day, now) {
		return []string{}, nil
	}
	return BookableTimes(day, now), nil
}

// --- plumbing ---

// load restores a wizard. A busy flag whose lock has expired belongs to an
// attempt that can no longer settle, so it is abandoned.
func (s *DefaultBookingSessionService) load(ctx context.Context, sessionID string) (*Wizard, time.Time, error) {
	snap, err := s.Store.Load(ctx, sessionID)
	if err != nil {
		return nil, time.Time{}, err
	}
	w, err := Restore(snap)
	if err != nil {
		s.Logger.Error("Booking session failed invariant check", zap.String("sessionID", sessionID), zap.Error(err))
		return nil, time.Time{}, err
	}
	if w.Busy() {
		held, err := s.Store.BusyHeld(ctx, sessionID)
		if err != nil {
			return nil, time.Time{}, err
		}
		if !held {
			s.Logger.Warn("Abandoning expired payment attempt",
				zap.String("sessionID", sessionID),
				zap.Uint64("generation", w.Generation()))
			w.Abandon(abandonedMessage)
			if err := s.save(ctx, sessionID, w, snap.CreatedAt); err != nil {
				return nil, time.Time{}, err
			}
		}
	}
	return w, snap.CreatedAt, nil
}

func (s *DefaultBookingSessionService) save(ctx context.Context, sessionID string, w *Wizard, created time.Time) error {
	snap := w.Snapshot(sessionID)
	snap.CreatedAt = created
	snap.UpdatedAt = s.now()
	return s.Store.Save(ctx, snap)
}

// mutate applies fn and persists the result even when fn fails, so form
// values entered before a validation error are kept. Nothing is applied
// while a pay attempt holds the busy lock.
func (s *DefaultBookingSessionService) mutate(ctx context.Context, sessionID string, fn func(w *Wizard) error) (models.BookingResponse, error) {
	w, created, err := s.load(ctx, sessionID)
	if err != nil {
		return models.BookingResponse{}, err
	}
	held, err := s.Store.BusyHeld(ctx, sessionID)
	if err != nil {
		return models.BookingResponse{}, err
	}
	if held {
		return s.respond(sessionID, w), ErrBusy
	}
	ferr := fn(w)
	if errors.Is(ferr, ErrBusy) {
		return s.respond(sessionID, w), ferr
	}
	snap := w.Snapshot(sessionID)
	snap.CreatedAt = created
	snap.UpdatedAt = s.now()
	if err := s.Store.SaveUnlocked(ctx, snap); err != nil {
		if errors.Is(err, ErrBusy) {
			s.Logger.Info("Mutation dropped, payment started", zap.String("sessionID", sessionID))
			return s.failBefore(ctx, sessionID, ErrBusy)
		}
		return models.BookingResponse{}, err
	}
	return s.respond(sessionID, w), ferr
}

// failBefore returns the current state alongside an error raised before the wizard was touched.
func (s *DefaultBookingSessionService) failBefore(ctx context.Context, sessionID string, cause error) (models.BookingResponse, error) {
	resp, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return models.BookingResponse{}, err
	}
	return resp, cause
}

// runPay is the single in-flight pay skeleton: take the busy lock, raise the
// wizard's busy flag and persist it, run the network leg, then re-read the
// wizard and settle only if the ticket still matches its generation.
func runPay[T any](
	ctx context.Context,
	s *DefaultBookingSessionService,
	sessionID string,
	kind models.ProofKind,
	prepare func(w *Wizard) (PayTicket, error),
	leg func(ctx context.Context, t PayTicket) (T, error),
	settle func(w *Wizard, t PayTicket, result T, err error) error,
) (models.BookingResponse, error) {
	owner := uuid.New().String()
	ok, err := s.Store.AcquireBusy(ctx, sessionID, owner)
	if err != nil {
		return models.BookingResponse{}, err
	}
	if !ok {
		s.Logger.Info("Pay ignored, attempt already in flight", zap.String("sessionID", sessionID))
		return s.failBefore(ctx, sessionID, ErrBusy)
	}
	// The leg must settle even if the caller goes away.
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.PayTimeout)
	defer cancel()
	defer func() {
		if err := s.Store.ReleaseBusy(bg, sessionID, owner); err != nil {
			s.Logger.Warn("Failed to release busy lock", zap.String("sessionID", sessionID), zap.Error(err))
		}
	}()

	w, created, err := s.load(ctx, sessionID)
	if err != nil {
		return models.BookingResponse{}, err
	}
	t, perr := prepare(w)
	if perr != nil {
		if !errors.Is(perr, ErrBusy) {
			if err := s.save(ctx, sessionID, w, created); err != nil {
				return models.BookingResponse{}, err
			}
		}
		return s.respond(sessionID, w), perr
	}
	if err := s.save(bg, sessionID, w, created); err != nil {
		return models.BookingResponse{}, err
	}

	result, legErr := leg(bg, t)

	current, created, err := s.load(bg, sessionID)
	if err != nil {
		return models.BookingResponse{}, err
	}
	if serr := settle(current, t, result, legErr); serr != nil {
		if errors.Is(serr, ErrStaleResponse) {
			s.Logger.Warn("Discarding stale payment response",
				zap.String("sessionID", sessionID),
				zap.Uint64("ticket", t.Generation),
				zap.Uint64("current", current.Generation()))
			s.Payments.JournalStale(bg, sessionID, t, kind)
		}
		return s.respond(sessionID, current), serr
	}
	if err := s.save(bg, sessionID, current, created); err != nil {
		return models.BookingResponse{}, err
	}
	if c, ok := current.State().(ConfirmedState); ok {
		if err := s.Store.PutNavigation(bg, sessionID, c.Record()); err != nil {
			s.Logger.Error("Failed to store confirmation state", zap.String("sessionID", sessionID), zap.Error(err))
		}
	}
	return s.respond(sessionID, current), legErr
}

func (s *DefaultBookingSessionService) respond(sessionID string, w *Wizard) models.BookingResponse {
	resp := models.BookingResponse{
		SessionID:    sessionID,
		Step:         w.Step(),
		Draft:        w.Draft(),
		OfferedTimes: w.Offered(),
		Busy:         w.Busy(),
		Banner:       w.Banner(),
		Order:        w.PendingOrder(),
	}
	if c, ok := w.State().(ConfirmedState); ok {
		rec := c.Record()
		resp.Record = &rec
		resp.Redirect = ConfirmationRoute
	}
	return resp
}

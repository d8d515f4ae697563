package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"jeffjackson/models"
	"jeffjackson/services/backend"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- Collaborators ---

// BookingBackend is the part of the backend the payment flows depend on.
type BookingBackend interface {
	AvailabilityBackend
	CreateBooking(ctx context.Context, req backend.CreateBookingRequest, idempotencyKey string) (models.BookingRecord, error)
	CreateGatewayOrder(ctx context.Context, req backend.OrderRequest) (backend.OrderResponse, error)
	VerifyGatewayPayment(ctx context.Context, req backend.VerifyRequest) (models.BookingRecord, error)
}

// CheckoutOpener opens a hosted checkout for a backend order and returns the
// order with its checkout URL and session reference filled in.
type CheckoutOpener interface {
	Open(ctx context.Context, order models.GatewayOrder, description string) (models.GatewayOrder, error)
}

// AttemptJournal records pay attempts for operators.
type AttemptJournal interface {
	Record(ctx context.Context, attempt models.PaymentAttempt) error
}

// AgreementQueue schedules delivery of the booking agreement.
type AgreementQueue interface {
	EnqueueAgreement(ctx context.Context, payload models.AgreementPayload) error
}

// Payment rejection codes.
const (
	CodeBookingRejected    = "bookingRejected"
	CodeBookingUnavailable = "bookingUnavailable"
	CodeGatewayRejected    = "gatewayRejected"
	CodeGatewayUnavailable = "gatewayUnavailable"
)

// GatewayCallback is what the hosted checkout reports back.
type GatewayCallback struct {
	Event       string             `json:"event"` // "success" or "dismiss"
	OrderID     string             `json:"orderId"`
	PaymentID   string             `json:"paymentId"`
	Signature   string             `json:"signature"`
	PaymentType models.PaymentType `json:"paymentType"`
}

const (
	CallbackSuccess = "success"
	CallbackDismiss = "dismiss"
)

// MinorUnits converts a decimal currency amount into the gateway's minor unit.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// --- PaymentFlow ---

// PaymentFlow reconciles payment proofs into backend booking records. The
// network leg of each attempt is separate from preparing and settling the
// wizard so callers that persist the wizard can do so around it.
type PaymentFlow struct {
	backend  BookingBackend
	gate     *Gate
	checkout CheckoutOpener
	journal  AttemptJournal
	queue    AgreementQueue
	currency string
	logger   *zap.Logger
	now      func() time.Time
}

// NewPaymentFlow wires a flow. checkout, journal and queue may be nil.
func NewPaymentFlow(b BookingBackend, checkout CheckoutOpener, journal AttemptJournal, queue AgreementQueue, currency string, logger *zap.Logger) *PaymentFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	if currency == "" {
		currency = "usd"
	}
	return &PaymentFlow{
		backend:  b,
		gate:     NewGate(b, logger),
		checkout: checkout,
		journal:  journal,
		queue:    queue,
		currency: strings.ToLower(currency),
		logger:   logger,
		now:      time.Now,
	}
}

// PrepareManual validates a manual proof and raises the busy flag.
// Nothing touches the network when the proof is malformed.
func (f *PaymentFlow) PrepareManual(w *Wizard, sessionID string, proof models.PaymentProof) (PayTicket, error) {
	if err := proof.Validate(); err != nil {
		return PayTicket{}, NewValidationError(
			fmt.Sprintf("The transaction ID must be exactly %d characters.", models.TransactionIDLength),
			map[string]string{"transactionId": err.Error()}, err)
	}
	if proof.Kind != models.ProofManual {
		return PayTicket{}, NewContractError("manual confirmation needs a manual proof", models.ErrInvalidProofFormat)
	}
	return w.BeginPay(sessionID, proof.TransactionID)
}

// SubmitManual runs the availability gate and then the single create-booking call.
func (f *PaymentFlow) SubmitManual(ctx context.Context, sessionID string, t PayTicket, proof models.PaymentProof) (models.BookingRecord, error) {
	attempt := f.attempt(sessionID, t, models.ProofManual, "")

	if _, err := f.gate.Check(ctx, t.Draft); err != nil {
		f.journalFailure(ctx, attempt, err)
		return models.BookingRecord{}, err
	}

	rec, err := f.backend.CreateBooking(ctx, backend.NewCreateBookingRequest(t.Draft, proof), t.IdempotencyKey)
	if err != nil {
		err = classifyPayment(CodeBookingRejected, CodeBookingUnavailable, err)
		f.journalFailure(ctx, attempt, err)
		return models.BookingRecord{}, err
	}

	f.logger.Info("Booking created",
		zap.String("sessionID", sessionID),
		zap.String("uniqueId", rec.UniqueID),
		zap.Float64("amount", rec.Amount))
	attempt.Outcome = models.OutcomeCreated
	attempt.UniqueID = rec.UniqueID
	f.record(ctx, attempt)
	f.enqueueAgreement(ctx, rec)
	return rec, nil
}

// Settle applies the result of a network leg to the wizard. A stale ticket
// is reported with ErrStaleResponse and leaves the wizard untouched.
func (f *PaymentFlow) Settle(w *Wizard, t PayTicket, rec models.BookingRecord, err error) error {
	if err != nil {
		return w.Fail(t, err)
	}
	return w.Succeed(t, rec)
}

// ConfirmManual is the whole manual path against an in-memory wizard.
func (f *PaymentFlow) ConfirmManual(ctx context.Context, w *Wizard, sessionID string, proof models.PaymentProof) (models.BookingRecord, error) {
	t, err := f.PrepareManual(w, sessionID, proof)
	if err != nil {
		return models.BookingRecord{}, err
	}
	rec, err := f.SubmitManual(ctx, sessionID, t, proof)
	if serr := f.Settle(w, t, rec, err); serr != nil {
		return models.BookingRecord{}, serr
	}
	return rec, err
}

// --- Gateway path ---

// PrepareCheckout raises the busy flag for opening a hosted checkout.
func (f *PaymentFlow) PrepareCheckout(w *Wizard, sessionID string, kind models.PaymentType) (PayTicket, error) {
	if !models.ValidPaymentType(kind) {
		return PayTicket{}, NewValidationError("Unknown payment type.", map[string]string{"paymentType": "must be deposit or balance"}, nil)
	}
	if f.checkout == nil {
		return PayTicket{}, NewTransportError(CodeGatewayUnavailable, errors.New("hosted checkout is not configured"))
	}
	return w.BeginPay(sessionID, "checkout:"+string(kind))
}

// SubmitCheckout gates the slot, creates the backend order and opens the
// hosted checkout prefilled with the payer.
func (f *PaymentFlow) SubmitCheckout(ctx context.Context, sessionID string, t PayTicket, kind models.PaymentType) (models.GatewayOrder, error) {
	attempt := f.attempt(sessionID, t, models.ProofGateway, kind)

	if _, err := f.gate.Check(ctx, t.Draft); err != nil {
		f.journalFailure(ctx, attempt, err)
		return models.GatewayOrder{}, err
	}

	d := t.Draft
	payer := models.Payer{Name: d.Client.Name, Email: d.Client.Email, Phone: d.Client.Phone}
	order, err := f.openOrder(ctx, backend.OrderRequest{
		Amount:      float64(d.Price),
		PaymentType: kind,
		Name:        payer.Name,
		Email:       payer.Email,
		Phone:       payer.Phone,
		EventType:   string(d.EventType),
		EventDate:   d.DateLabel(),
		EventTime:   d.EventTime,
	}, payer, fmt.Sprintf("%s DJ booking %s %s", d.EventType, d.DateLabel(), d.EventTime))
	if err != nil {
		f.journalFailure(ctx, attempt, err)
		return models.GatewayOrder{}, err
	}

	attempt.Outcome = models.OutcomeCheckoutOpened
	attempt.Amount = order.Amount
	f.record(ctx, attempt)
	return order, nil
}

// PrepareCallback checks a success callback against the pending order and
// raises the busy flag for its verification.
func (f *PaymentFlow) PrepareCallback(w *Wizard, sessionID string, cb GatewayCallback) (PayTicket, models.PaymentProof, error) {
	pending := w.PendingOrder()
	if pending == nil {
		return PayTicket{}, models.PaymentProof{}, NewContractError("no hosted checkout is open", ErrNoPendingOrder)
	}
	proof := models.GatewayProof(cb.OrderID, cb.PaymentID, cb.Signature)
	if err := proof.Validate(); err != nil {
		return PayTicket{}, models.PaymentProof{}, NewValidationError("The payment confirmation is incomplete.", nil, err)
	}
	if cb.OrderID != pending.OrderID {
		return PayTicket{}, models.PaymentProof{}, NewContractError("callback does not match the open order", ErrNoPendingOrder)
	}
	t, err := w.BeginPay(sessionID, "gateway:"+cb.OrderID+":"+cb.PaymentID)
	return t, proof, err
}

// SubmitCallback verifies the gateway identifiers with the backend.
func (f *PaymentFlow) SubmitCallback(ctx context.Context, sessionID string, t PayTicket, proof models.PaymentProof, kind models.PaymentType) (models.BookingRecord, error) {
	if !models.ValidPaymentType(kind) {
		kind = models.PaymentDeposit
	}
	attempt := f.attempt(sessionID, t, models.ProofGateway, kind)

	rec, err := f.verify(ctx, proof, kind)
	if err != nil {
		f.journalFailure(ctx, attempt, err)
		return models.BookingRecord{}, err
	}
	attempt.Outcome = models.OutcomeCreated
	attempt.UniqueID = rec.UniqueID
	attempt.Amount = rec.Amount
	f.record(ctx, attempt)
	f.enqueueAgreement(ctx, rec)
	return rec, nil
}

// Dismiss handles the payer closing the hosted checkout. Nothing is submitted.
func (f *PaymentFlow) Dismiss(ctx context.Context, w *Wizard, sessionID string) error {
	pending := w.PendingOrder()
	if err := w.CancelGateway(GenericCancelledMessage); err != nil {
		return err
	}
	attempt := f.attempt(sessionID, PayTicket{Generation: w.Generation(), Draft: w.Draft()}, models.ProofGateway, pending.PaymentType)
	attempt.Outcome = models.OutcomeCancelled
	attempt.Message = GenericCancelledMessage
	f.record(ctx, attempt)
	return nil
}

// --- Balance payments ---

// PayBalance opens a hosted checkout for the balance of an existing booking.
// Only booking references are payable; enquiries are refused.
func (f *PaymentFlow) PayBalance(ctx context.Context, reference string, amount float64, payer models.Payer) (models.GatewayOrder, error) {
	reference = strings.TrimSpace(reference)
	if models.KindOf(reference) != models.ReferenceBooking {
		return models.GatewayOrder{}, NewValidationError("Only booking references can be paid.",
			map[string]string{"reference": ErrNotPayableReference.Error()}, ErrNotPayableReference)
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return models.GatewayOrder{}, NewValidationError("Please enter a valid amount.", map[string]string{"amount": "must be greater than zero"}, nil)
	}
	if err := models.Validate.Var(payer.Email, "required,email"); err != nil {
		return models.GatewayOrder{}, NewValidationError("Please enter a valid email address.", map[string]string{"email": "must be a valid email address"}, err)
	}
	if f.checkout == nil {
		return models.GatewayOrder{}, NewTransportError(CodeGatewayUnavailable, errors.New("hosted checkout is not configured"))
	}

	attempt := models.PaymentAttempt{
		ID:          uuid.New().String(),
		ProofKind:   models.ProofGateway,
		PaymentType: models.PaymentBalance,
		Email:       payer.Email,
		Amount:      amount,
		UniqueID:    reference,
		CreatedAt:   f.now(),
	}
	order, err := f.openOrder(ctx, backend.OrderRequest{
		Amount:      amount,
		PaymentType: models.PaymentBalance,
		Reference:   reference,
		Name:        payer.Name,
		Email:       payer.Email,
		Phone:       payer.Phone,
	}, payer, "Balance for booking "+reference)
	if err != nil {
		f.journalFailure(ctx, attempt, err)
		return models.GatewayOrder{}, err
	}
	order.Reference = reference
	attempt.Outcome = models.OutcomeCheckoutOpened
	f.record(ctx, attempt)
	return order, nil
}

// ConfirmBalance verifies a balance payment callback and returns the updated record.
func (f *PaymentFlow) ConfirmBalance(ctx context.Context, cb GatewayCallback) (models.BookingRecord, error) {
	proof := models.GatewayProof(cb.OrderID, cb.PaymentID, cb.Signature)
	if err := proof.Validate(); err != nil {
		return models.BookingRecord{}, NewValidationError("The payment confirmation is incomplete.", nil, err)
	}
	attempt := models.PaymentAttempt{
		ID:             uuid.New().String(),
		IdempotencyKey: IdempotencyKey("balance", cb.OrderID+":"+cb.PaymentID),
		ProofKind:      models.ProofGateway,
		PaymentType:    models.PaymentBalance,
		CreatedAt:      f.now(),
	}
	rec, err := f.verify(ctx, proof, models.PaymentBalance)
	if err != nil {
		f.journalFailure(ctx, attempt, err)
		return models.BookingRecord{}, err
	}
	attempt.Outcome = models.OutcomeCreated
	attempt.UniqueID = rec.UniqueID
	attempt.Amount = rec.Amount
	f.record(ctx, attempt)
	return rec, nil
}

// --- helpers ---

func (f *PaymentFlow) openOrder(ctx context.Context, req backend.OrderRequest, payer models.Payer, description string) (models.GatewayOrder, error) {
	resp, err := f.backend.CreateGatewayOrder(ctx, req)
	if err != nil {
		return models.GatewayOrder{}, classifyPayment(CodeGatewayRejected, CodeGatewayUnavailable, err)
	}
	order := models.GatewayOrder{
		OrderID:     resp.GatewayOrderID,
		Amount:      resp.Amount,
		MinorUnits:  MinorUnits(resp.Amount),
		Currency:    f.currency,
		PaymentType: req.PaymentType,
		Payer:       payer,
	}
	opened, err := f.checkout.Open(ctx, order, description)
	if err != nil {
		f.logger.Error("Failed to open hosted checkout", zap.String("orderId", order.OrderID), zap.Error(err))
		return models.GatewayOrder{}, NewTransportError(CodeGatewayUnavailable, err)
	}
	return opened, nil
}

func (f *PaymentFlow) verify(ctx context.Context, proof models.PaymentProof, kind models.PaymentType) (models.BookingRecord, error) {
	rec, err := f.backend.VerifyGatewayPayment(ctx, backend.VerifyRequest{
		OrderID:     proof.OrderID,
		PaymentID:   proof.PaymentID,
		Signature:   proof.Signature,
		PaymentType: kind,
	})
	if err != nil {
		return models.BookingRecord{}, classifyPayment(CodeGatewayRejected, CodeGatewayUnavailable, err)
	}
	return rec, nil
}

func classifyPayment(rejectCode, transportCode string, err error) error {
	if msg, ok := backend.IsRejection(err); ok {
		if msg == "" {
			msg = GenericPaymentRejectedMessage
		}
		return NewRejectionError(rejectCode, msg, err)
	}
	return NewTransportError(transportCode, err)
}

func (f *PaymentFlow) attempt(sessionID string, t PayTicket, kind models.ProofKind, pt models.PaymentType) models.PaymentAttempt {
	return models.PaymentAttempt{
		ID:             uuid.New().String(),
		SessionID:      sessionID,
		Generation:     t.Generation,
		IdempotencyKey: t.IdempotencyKey,
		ProofKind:      kind,
		PaymentType:    pt,
		EventDate:      t.Draft.DateLabel(),
		EventTime:      t.Draft.EventTime,
		Email:          t.Draft.Client.Email,
		Amount:         float64(t.Draft.Price),
		CreatedAt:      f.now(),
	}
}

func (f *PaymentFlow) journalFailure(ctx context.Context, a models.PaymentAttempt, err error) {
	a.Outcome = models.OutcomeTransport
	if KindOf(err) == KindRejection {
		a.Outcome = models.OutcomeRejected
	}
	a.Message = err.Error()
	f.record(ctx, a)
}

// JournalStale records a settled attempt whose result was discarded.
func (f *PaymentFlow) JournalStale(ctx context.Context, sessionID string, t PayTicket, kind models.ProofKind) {
	a := f.attempt(sessionID, t, kind, "")
	a.Outcome = models.OutcomeStale
	a.Message = ErrStaleResponse.Error()
	f.record(ctx, a)
}

// record is best effort; the journal never changes an outcome.
func (f *PaymentFlow) record(ctx context.Context, a models.PaymentAttempt) {
	if f.journal == nil {
		return
	}
	if err := f.journal.Record(ctx, a); err != nil {
		f.logger.Warn("Failed to journal payment attempt",
			zap.String("attemptID", a.ID),
			zap.String("outcome", string(a.Outcome)),
			zap.Error(err))
	}
}

func (f *PaymentFlow) enqueueAgreement(ctx context.Context, rec models.BookingRecord) {
	if f.queue == nil {
		return
	}
	payload := models.AgreementPayload{
		UniqueID:   rec.UniqueID,
		ClientName: rec.ClientName,
		Email:      rec.Email,
		EventType:  rec.EventType,
		EventDate:  rec.EventDate,
		EventTime:  rec.EventTime,
		Amount:     rec.Amount,
	}
	if err := f.queue.EnqueueAgreement(ctx, payload); err != nil {
		f.logger.Warn("Failed to enqueue agreement delivery",
			zap.String("uniqueId", rec.UniqueID),
			zap.Error(err))
	}
}

package booking

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"jeffjackson/models"
	"jeffjackson/services/backend"

	"github.com/stretchr/testify/require"
)

var nyc = mustLoc("America/New_York")

func mustLoc(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Wednesday 14 October 2026, 10:00 in the business time zone.
func testNow() time.Time {
	return time.Date(2026, time.October, 14, 10, 0, 0, 0, nyc)
}

// Saturday after testNow.
func nextSaturday() time.Time {
	return time.Date(2026, time.October, 17, 0, 0, 0, 0, nyc)
}

const validTxn = "8AB12345CD6789012"

const createdRecordJSON = `{"uniqueId":"BK-20261017-001","clientName":"Ana Ruiz","email":"ana@example.com","eventType":"Birthday","eventDate":"10-17-2026","eventTime":"10:00 AM","amount":350,"paypalTransactionId":"8AB12345CD6789012","status":"PENDING","createdAt":"2026-10-14T14:00:00Z","extra":{"kept":true}}`

func mustRecord(t *testing.T, raw string) models.BookingRecord {
	t.Helper()
	var rec models.BookingRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	return rec
}

func validForm() models.DetailsForm {
	return models.DetailsForm{
		Client: models.ClientDetails{
			Name:   "Ana Ruiz",
			Email:  "ana@example.com",
			Phone:  "555-0100",
			Street: "1 Main St",
			City:   "Springfield",
			State:  "NY",
		},
		EventType: models.EventBirthday,
	}
}

// checkoutWizard drives a wizard to checkout for Saturday 10:00 AM, Birthday.
func checkoutWizard(t *testing.T) *Wizard {
	t.Helper()
	w := NewWizard()
	require.NoError(t, w.PickDate(nextSaturday(), testNow()))
	require.NoError(t, w.PickTime("10:00 AM", testNow()))
	require.NoError(t, w.SubmitDetails(validForm()))
	require.Equal(t, models.StepCheckout, w.Step())
	return w
}

type fakeBackend struct {
	mu sync.Mutex

	slotErr, dupErr, createErr, orderErr, verifyErr error

	slotCalls, dupCalls, createCalls, orderCalls, verifyCalls int

	created  []backend.CreateBookingRequest
	keys     []string
	orders   []backend.OrderRequest
	verified []backend.VerifyRequest

	record   models.BookingRecord
	orderRes backend.OrderResponse

	// createEntered and createRelease let a test hold a create call open.
	createEntered chan struct{}
	createRelease chan struct{}
}

func (f *fakeBackend) CheckSlotBlock(ctx context.Context, date, timeLabel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slotCalls++
	return f.slotErr
}

func (f *fakeBackend) CheckDuplicate(ctx context.Context, date, timeLabel, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dupCalls++
	return f.dupErr
}

func (f *fakeBackend) CreateBooking(ctx context.Context, req backend.CreateBookingRequest, key string) (models.BookingRecord, error) {
	f.mu.Lock()
	f.createCalls++
	f.created = append(f.created, req)
	f.keys = append(f.keys, key)
	entered, release := f.createEntered, f.createRelease
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
		<-release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return models.BookingRecord{}, f.createErr
	}
	return f.record, nil
}

func (f *fakeBackend) CreateGatewayOrder(ctx context.Context, req backend.OrderRequest) (backend.OrderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderCalls++
	f.orders = append(f.orders, req)
	if f.orderErr != nil {
		return backend.OrderResponse{}, f.orderErr
	}
	return f.orderRes, nil
}

func (f *fakeBackend) VerifyGatewayPayment(ctx context.Context, req backend.VerifyRequest) (models.BookingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	f.verified = append(f.verified, req)
	if f.verifyErr != nil {
		return models.BookingRecord{}, f.verifyErr
	}
	return f.record, nil
}

func (f *fakeBackend) calls() (slot, dup, create int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slotCalls, f.dupCalls, f.createCalls
}

type fakeCheckout struct {
	opened []models.GatewayOrder
	err    error
}

func (f *fakeCheckout) Open(ctx context.Context, order models.GatewayOrder, description string) (models.GatewayOrder, error) {
	if f.err != nil {
		return models.GatewayOrder{}, f.err
	}
	f.opened = append(f.opened, order)
	order.CheckoutURL = "https://checkout.example.com/" + order.OrderID
	order.SessionRef = "cs_" + order.OrderID
	return order, nil
}

type fakeJournal struct {
	mu       sync.Mutex
	attempts []models.PaymentAttempt
}

func (f *fakeJournal) Record(ctx context.Context, a models.PaymentAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, a)
	return nil
}

func (f *fakeJournal) outcomes() []models.AttemptOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.AttemptOutcome, 0, len(f.attempts))
	for _, a := range f.attempts {
		out = append(out, a.Outcome)
	}
	return out
}

type fakeQueue struct {
	mu       sync.Mutex
	payloads []models.AgreementPayload
}

func (f *fakeQueue) EnqueueAgreement(ctx context.Context, p models.AgreementPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return nil
}

func rejection(msg string) error {
	return &backend.RejectionError{Op: "test", Status: 200, Message: msg}
}

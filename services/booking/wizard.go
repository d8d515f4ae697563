package booking

import (
	"errors"
	"fmt"
	"time"

	"jeffjackson/models"

	"github.com/google/uuid"
)

// idempotencyNamespace scopes the deterministic keys sent with create calls.
var idempotencyNamespace = uuid.MustParse("6f1c3f0e-58a4-4c1d-9a59-2f0c1b7a9e11")

// State is one step of the booking wizard. Each step carries only the data
// that is valid for it; the set of implementations is closed.
type State interface {
	Step() models.Step
	Draft() models.BookingDraft
	isState()
}

type SelectDateState struct {
	draft models.BookingDraft
}

type SelectTimeState struct {
	draft   models.BookingDraft
	offered []string
}

type EnterDetailsState struct {
	draft   models.BookingDraft
	offered []string
}

type CheckoutState struct {
	draft   models.BookingDraft
	offered []string
}

type ConfirmedState struct {
	draft  models.BookingDraft
	record models.BookingRecord
}

func (SelectDateState) Step() models.Step { return models.StepSelectDate }
func (SelectTimeState) Step() models.Step { return models.StepSelectTime }
func (EnterDetailsState) Step() models.Step { return models.StepEnterDetails }
func (CheckoutState) Step() models.Step { return models.StepCheckout }
func (ConfirmedState) Step() models.Step { return models.StepConfirmed }

func (s SelectDateState) Draft() models.BookingDraft { return s.draft }
func (s SelectTimeState) Draft() models.BookingDraft { return s.draft }
func (s EnterDetailsState) Draft() models.BookingDraft { return s.draft }
func (s CheckoutState) Draft() models.BookingDraft { return s.draft }
func (s ConfirmedState) Draft() models.BookingDraft { return s.draft }

func (SelectDateState) isState() {}
func (SelectTimeState) isState() {}
func (EnterDetailsState) isState() {}
func (CheckoutState) isState() {}
func (ConfirmedState) isState() {}

// Offered returns the slot labels shown on the time step.
func (s SelectTimeState) Offered() []string { return s.offered }

// Record returns the backend record the booking was confirmed with.
func (s ConfirmedState) Record() models.BookingRecord { return s.record }

// offeredOf returns the slots a state carries, if any.
func offeredOf(s State) []string {
	switch st := s.(type) {
	case SelectTimeState:
		return st.offered
	case EnterDetailsState:
		return st.offered
	case CheckoutState:
		return st.offered
	}
	return nil
}

// PickDate selects the event day and moves to time selection. It is valid
// from the date step and, to change the day, from the time step.
func PickDate(s State, date, now time.Time) (State, error) {
	var draft models.BookingDraft
	switch st := s.(type) {
	case SelectDateState:
		draft = st.draft
	case SelectTimeState:
		draft = st.draft
	default:
		return s, wrongStep("pick a date", s)
	}
	if isPastDay(date, now) {
		return s, NewValidationError("Please choose today or a later date.",
			map[string]string{"date": ErrDateInPast.Error()}, ErrDateInPast)
	}

	draft.SetEventDate(date)
	offered := BookableTimes(draft.EventDate, now)
	if draft.EventTime != "" && !contains(offered, draft.EventTime) {
		draft.EventTime = ""
	}
	return SelectTimeState{draft: draft, offered: offered}, nil
}

// PickTime selects a slot for the chosen day. Offering a slot that is not
// bookable is a caller bug, not a user error.
func PickTime(s State, label string, now time.Time) (State, error) {
	st, ok := s.(SelectTimeState)
	if !ok {
		return s, wrongStep("pick a time", s)
	}
	offered := BookableTimes(st.draft.EventDate, now)
	if !contains(offered, label) {
		return SelectTimeState{draft: st.draft, offered: offered},
			NewContractError(fmt.Sprintf("%q is not offered on %s", label, st.draft.DateLabel()), ErrSlotNotOffered)
	}
	draft := st.draft
	draft.EventTime = label
	return EnterDetailsState{draft: draft, offered: offered}, nil
}

// SubmitDetails validates the details form and moves to checkout. On failure
// the entered values are kept on the details step.
func SubmitDetails(s State, form models.DetailsForm) (State, error) {
	st, ok := s.(EnterDetailsState)
	if !ok {
		return s, wrongStep("submit details", s)
	}
	draft := st.draft
	draft.Client = form.Client

	if err := models.Validate.Struct(form); err != nil {
		return EnterDetailsState{draft: draft, offered: st.offered},
			NewValidationError("Please fill in the required fields.", models.FieldErrors(err), err)
	}
	if err := draft.SetEventType(form.EventType, PriceFor); err != nil {
		return EnterDetailsState{draft: draft, offered: st.offered},
			NewValidationError("Please choose a valid event type.", map[string]string{"eventType": err.Error()}, err)
	}

	if err := checkDraft(models.StepCheckout, draft, st.offered); err != nil {
		return s, err
	}
	return CheckoutState{draft: draft, offered: st.offered}, nil
}

// Back rewinds one step without discarding any entered data.
func Back(s State) (State, error) {
	switch st := s.(type) {
	case CheckoutState:
		return EnterDetailsState{draft: st.draft, offered: st.offered}, nil
	case EnterDetailsState:
		return SelectTimeState{draft: st.draft, offered: st.offered}, nil
	case SelectTimeState:
		return SelectDateState{draft: st.draft}, nil
	case SelectDateState:
		return s, NewContractError("already on the first step", ErrNoPreviousStep)
	default:
		return s, wrongStep("go back", s)
	}
}

func wrongStep(action string, s State) error {
	return NewContractError(fmt.Sprintf("cannot %s on step %s", action, s.Step()), ErrWrongStep)
}

// checkDraft asserts the data a step requires is present.
func checkDraft(step models.Step, d models.BookingDraft, offered []string) error {
	broken := func(what string) error {
		return NewContractError(fmt.Sprintf("%s step reached without %s", step, what), nil)
	}
	switch step {
	case models.StepSelectDate:
		return nil
	case models.StepSelectTime:
		if !d.HasDate() {
			return broken("a date")
		}
		return nil
	}
	if !d.HasDate() {
		return broken("a date")
	}
	if d.EventTime == "" || !contains(offered, d.EventTime) {
		return broken("an offered time")
	}
	if step == models.StepEnterDetails {
		return nil
	}
	if d.Client.Name == "" || d.Client.Email == "" {
		return broken("client details")
	}
	price, err := PriceFor(d.EventType)
	if err != nil || price != d.Price {
		return broken("a priced event type")
	}
	return nil
}

// PayTicket identifies one pay attempt. A settle call whose ticket no longer
// matches the wizard's generation is discarded.
type PayTicket struct {
	Generation     uint64
	Draft          models.BookingDraft
	IdempotencyKey string
}

// Wizard owns the current state plus the single in-flight pay flag.
type Wizard struct {
	state      State
	busy       bool
	generation uint64
	banner     *models.Banner
	pending    *models.GatewayOrder
}

func NewWizard() *Wizard {
	return &Wizard{state: SelectDateState{}}
}

func (w *Wizard) State() State { return w.state }
func (w *Wizard) Step() models.Step { return w.state.Step() }
func (w *Wizard) Draft() models.BookingDraft { return w.state.Draft() }
func (w *Wizard) Busy() bool { return w.busy }
func (w *Wizard) Generation() uint64 { return w.generation }
func (w *Wizard) Banner() *models.Banner { return w.banner }
func (w *Wizard) PendingOrder() *models.GatewayOrder { return w.pending }
func (w *Wizard) Offered() []string { return offeredOf(w.state) }
func (w *Wizard) DismissBanner() { w.banner = nil }
func (w *Wizard) Notice(msg string) { w.banner = &models.Banner{Kind: models.BannerNotice, Message: msg} }

// apply runs a pure transition, keeping the resulting state even on failure
// so retained form values survive a validation error.
func (w *Wizard) apply(next State, err error) error {
	w.state = next
	if err != nil {
		return err
	}
	w.generation++
	w.banner = nil
	return nil
}

func (w *Wizard) PickDate(date, now time.Time) error {
	if w.busy {
		return ErrBusy
	}
	return w.apply(PickDate(w.state, date, now))
}

func (w *Wizard) PickTime(label string, now time.Time) error {
	if w.busy {
		return ErrBusy
	}
	return w.apply(PickTime(w.state, label, now))
}

func (w *Wizard) SubmitDetails(form models.DetailsForm) error {
	if w.busy {
		return ErrBusy
	}
	return w.apply(SubmitDetails(w.state, form))
}

func (w *Wizard) Back() error {
	if w.busy {
		return ErrBusy
	}
	if err := w.apply(Back(w.state)); err != nil {
		return err
	}
	w.pending = nil
	return nil
}

// BeginPay raises the busy flag for a pay attempt on the checkout step.
// proofRef is the caller's stable reference for the attempt (a transaction
// or order id) and feeds the idempotency key.
func (w *Wizard) BeginPay(sessionID, proofRef string) (PayTicket, error) {
	if w.busy {
		return PayTicket{}, ErrBusy
	}
	st, ok := w.state.(CheckoutState)
	if !ok {
		return PayTicket{}, wrongStep("pay", w.state)
	}
	if err := checkDraft(models.StepCheckout, st.draft, st.offered); err != nil {
		return PayTicket{}, err
	}
	w.busy = true
	w.generation++
	w.banner = nil
	return PayTicket{
		Generation:     w.generation,
		Draft:          st.draft,
		IdempotencyKey: IdempotencyKey(sessionID, proofRef),
	}, nil
}

// IdempotencyKey derives a stable key for one (session, proof) pair so a
// retried submission of the same proof is recognisable by the backend.
func IdempotencyKey(sessionID, proofRef string) string {
	return uuid.NewSHA1(idempotencyNamespace, []byte(sessionID+":"+proofRef)).String()
}

func (w *Wizard) owns(t PayTicket) bool {
	return w.busy && t.Generation == w.generation
}

// Fail settles a pay attempt as failed. The wizard stays on checkout with
// the draft untouched and a banner describing the failure.
func (w *Wizard) Fail(t PayTicket, err error) error {
	if !w.owns(t) {
		return ErrStaleResponse
	}
	w.busy = false
	w.banner = bannerFor(err)
	return nil
}

// Succeed settles a pay attempt with the backend's record and leaves the wizard.
func (w *Wizard) Succeed(t PayTicket, record models.BookingRecord) error {
	if !w.owns(t) {
		return ErrStaleResponse
	}
	w.busy = false
	w.banner = nil
	w.pending = nil
	w.state = ConfirmedState{draft: t.Draft, record: record}
	return nil
}

// AwaitGateway settles the checkout-opening attempt by parking the order
// until the gateway calls back.
func (w *Wizard) AwaitGateway(t PayTicket, order models.GatewayOrder) error {
	if !w.owns(t) {
		return ErrStaleResponse
	}
	w.busy = false
	w.banner = nil
	w.pending = &order
	return nil
}

// CancelGateway drops a pending hosted checkout after the payer dismissed it.
func (w *Wizard) CancelGateway(msg string) error {
	if w.busy {
		return ErrBusy
	}
	if w.pending == nil {
		return NewContractError("no hosted checkout is open", ErrNoPendingOrder)
	}
	w.pending = nil
	w.Notice(msg)
	return nil
}

// Abandon releases a busy flag whose attempt can no longer settle. Any late
// response for it becomes stale.
func (w *Wizard) Abandon(msg string) {
	if !w.busy {
		return
	}
	w.busy = false
	w.generation++
	w.banner = &models.Banner{Kind: models.BannerTransport, Message: msg}
}

func bannerFor(err error) *models.Banner {
	var be *BookingError
	if !errors.As(err, &be) {
		return &models.Banner{Kind: models.BannerTransport, Message: GenericFailureMessage}
	}
	switch be.Kind {
	case KindRejection:
		return &models.Banner{Kind: models.BannerRejection, Message: be.Message, ScrollTop: be.Code == CodeSlotBlocked || be.Code == CodeDuplicate}
	case KindValidation:
		return &models.Banner{Kind: models.BannerValidation, Message: be.Message}
	case KindTransport:
		return &models.Banner{Kind: models.BannerTransport, Message: be.Message, ScrollTop: be.Code == CodeGateUnavailable}
	default:
		return &models.Banner{Kind: models.BannerTransport, Message: GenericFailureMessage}
	}
}

// Snapshot captures the wizard for persistence.
func (w *Wizard) Snapshot(sessionID string) models.WizardSnapshot {
	snap := models.WizardSnapshot{
		SessionID:    sessionID,
		Step:         w.state.Step(),
		Draft:        w.state.Draft(),
		OfferedTimes: offeredOf(w.state),
		Busy:         w.busy,
		Generation:   w.generation,
		Banner:       w.banner,
		PendingOrder: w.pending,
	}
	if c, ok := w.state.(ConfirmedState); ok {
		rec := c.record
		snap.Record = &rec
	}
	return snap
}

// Restore rebuilds a wizard from a snapshot. A snapshot that violates its
// step's invariants is rejected rather than repaired.
func Restore(snap models.WizardSnapshot) (*Wizard, error) {
	d, offered := snap.Draft, snap.OfferedTimes
	if err := checkDraft(snap.Step, d, offered); err != nil && snap.Step != models.StepConfirmed {
		return nil, err
	}
	var st State
	switch snap.Step {
	case models.StepSelectDate:
		st = SelectDateState{draft: d}
	case models.StepSelectTime:
		st = SelectTimeState{draft: d, offered: offered}
	case models.StepEnterDetails:
		st = EnterDetailsState{draft: d, offered: offered}
	case models.StepCheckout:
		st = CheckoutState{draft: d, offered: offered}
	case models.StepConfirmed:
		if snap.Record == nil {
			return nil, NewContractError("confirmed step without a record", nil)
		}
		st = ConfirmedState{draft: d, record: *snap.Record}
	default:
		return nil, NewContractError(fmt.Sprintf("unknown step %q", snap.Step), nil)
	}
	if snap.Busy && snap.Step != models.StepCheckout {
		return nil, NewContractError("busy outside checkout", nil)
	}
	return &Wizard{
		state:      st,
		busy:       snap.Busy,
		generation: snap.Generation,
		banner:     snap.Banner,
		pending:    snap.PendingOrder,
	}, nil
}

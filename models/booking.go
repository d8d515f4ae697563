package models

import (
	"encoding/json"
	"strings"
	"time"
)

// BackendDateLayout is the MM-DD-YYYY format every backend date field uses.
const BackendDateLayout = "01-02-2006"

// EventType is the kind of event the DJ is booked for.
type EventType string

const (
	EventWedding      EventType = "Wedding"
	EventBirthday     EventType = "Birthday"
	EventSport        EventType = "Sport"
	EventHolidayParty EventType = "HolidayParty"
	EventPrivate      EventType = "Private"
	EventNightLife    EventType = "NightLife"
	EventCruiseParty  EventType = "CruiseParty"
)

// EventTypes lists every bookable event type in display order.
var EventTypes = []EventType{
	EventWedding,
	EventBirthday,
	EventSport,
	EventHolidayParty,
	EventPrivate,
	EventNightLife,
	EventCruiseParty,
}

// ClientDetails is the contact and venue form filled in on the details step.
type ClientDetails struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Street  string `json:"street" validate:"required"`
	Apt     string `json:"apt"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state"`
	Message string `json:"message"`
}

// DetailsForm is what the details step submits.
type DetailsForm struct {
	Client    ClientDetails `json:"client"`
	EventType EventType     `json:"eventType" validate:"required"`
}

// BookingDraft is the in-progress booking owned by a wizard session.
type BookingDraft struct {
	EventDate time.Time     `json:"eventDate"`           // Calendar day, time-of-day stripped
	EventTime string        `json:"eventTime,omitempty"` // One of the offered slot labels, e.g. "6:00 PM"
	EventType EventType     `json:"eventType,omitempty"`
	Client    ClientDetails `json:"client"`
	Price     int           `json:"price"` // Derived from EventType, never set directly
}

// HasDate reports whether a day has been picked.
func (d BookingDraft) HasDate() bool {
	return !d.EventDate.IsZero()
}

// SetEventDate stores the calendar day of t and clears EventTime when the day changes.
func (d *BookingDraft) SetEventDate(t time.Time) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	if !d.EventDate.Equal(day) {
		d.EventTime = ""
	}
	d.EventDate = day
}

// SetEventType changes the event type and recomputes Price through priceFor.
// The draft is left untouched when priceFor fails.
func (d *BookingDraft) SetEventType(t EventType, priceFor func(EventType) (int, error)) error {
	price, err := priceFor(t)
	if err != nil {
		return err
	}
	d.EventType = t
	d.Price = price
	return nil
}

// DateLabel formats EventDate the way the backend expects it (MM-DD-YYYY).
func (d BookingDraft) DateLabel() string {
	if !d.HasDate() {
		return ""
	}
	return d.EventDate.Format(BackendDateLayout)
}

// BookingStatus is the lifecycle state of a persisted booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusRejected  BookingStatus = "REJECTED"
)

// BookingRecord is the backend-authoritative booking returned on creation.
// The raw response bytes are retained and re-emitted verbatim.
type BookingRecord struct {
	UniqueID            string        `json:"uniqueId"`
	ClientName          string        `json:"clientName"`
	Email               string        `json:"email"`
	Phone               string        `json:"phone"`
	Street              string        `json:"street"`
	Apt                 string        `json:"apt"`
	City                string        `json:"city"`
	State               string        `json:"state"`
	EventType           string        `json:"eventType"`
	EventDate           string        `json:"eventDate"`
	EventTime           string        `json:"eventTime"`
	Amount              float64       `json:"amount"`
	PaypalTransactionID string        `json:"paypalTransactionId,omitempty"`
	GatewayOrderID      string        `json:"gatewayOrderId,omitempty"`
	GatewayPaymentID    string        `json:"gatewayPaymentId,omitempty"`
	Status              BookingStatus `json:"status"`
	CreatedAt           string        `json:"createdAt"`

	raw json.RawMessage
}

type bookingRecordFields BookingRecord

func (r *BookingRecord) UnmarshalJSON(data []byte) error {
	var fields bookingRecordFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*r = BookingRecord(fields)
	r.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (r BookingRecord) MarshalJSON() ([]byte, error) {
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	return json.Marshal(bookingRecordFields(r))
}

// Raw returns the record exactly as the backend sent it.
func (r BookingRecord) Raw() json.RawMessage {
	return r.raw
}

// ReferenceKind classifies an identifier by its two-character prefix.
type ReferenceKind string

const (
	ReferenceBooking ReferenceKind = "booking"
	ReferenceEnquiry ReferenceKind = "enquiry"
	ReferenceUnknown ReferenceKind = "unknown"
)

// KindOf dispatches on the BK / EQ prefix convention.
func KindOf(id string) ReferenceKind {
	id = strings.TrimSpace(id)
	if len(id) < 2 {
		return ReferenceUnknown
	}
	switch strings.ToUpper(id[:2]) {
	case "BK":
		return ReferenceBooking
	case "EQ":
		return ReferenceEnquiry
	default:
		return ReferenceUnknown
	}
}

// Label is the human title for a reference kind.
func (k ReferenceKind) Label() string {
	switch k {
	case ReferenceBooking:
		return "Booking"
	case ReferenceEnquiry:
		return "Enquiry"
	default:
		return "Reference"
	}
}

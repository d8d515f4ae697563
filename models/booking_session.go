package models

import "time"

// Step is a position in the booking wizard.
type Step string

const (
	StepSelectDate   Step = "select_date"
	StepSelectTime   Step = "select_time"
	StepEnterDetails Step = "enter_details"
	StepCheckout     Step = "checkout"
	StepConfirmed    Step = "confirmed"
)

// BannerKind mirrors the error taxonomy for what the client should show.
type BannerKind string

const (
	BannerValidation BannerKind = "validation"
	BannerRejection  BannerKind = "rejection"
	BannerTransport  BannerKind = "transport"
	BannerNotice     BannerKind = "notice"
)

// Banner is a dismissible message surfaced above the current step.
type Banner struct {
	Kind      BannerKind `json:"kind"`
	Message   string     `json:"message"`
	ScrollTop bool       `json:"scrollTop,omitempty"`
}

// AvailabilityVerdict is the transient result of the availability gate.
type AvailabilityVerdict struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// WizardSnapshot is the persisted form of a booking wizard session.
type WizardSnapshot struct {
	SessionID    string         `json:"sessionId"`
	Step         Step           `json:"step"`
	Draft        BookingDraft   `json:"draft"`
	OfferedTimes []string       `json:"offeredTimes,omitempty"` // Slots offered for Draft.EventDate
	Busy         bool           `json:"busy"`
	Generation   uint64         `json:"generation"`
	Banner       *Banner        `json:"banner,omitempty"`
	Record       *BookingRecord `json:"record,omitempty"`       // Set once Step == confirmed
	PendingOrder *GatewayOrder  `json:"pendingOrder,omitempty"` // Open hosted checkout, if any
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// BookingResponse is what the session endpoints return to the client.
type BookingResponse struct {
	SessionID    string         `json:"sessionId,omitempty"`
	Token        string         `json:"token,omitempty"`
	Step         Step           `json:"step"`
	Draft        BookingDraft   `json:"draft"`
	OfferedTimes []string       `json:"offeredTimes,omitempty"`
	Busy         bool           `json:"busy"`
	Banner       *Banner        `json:"banner,omitempty"`
	Redirect     string         `json:"redirect,omitempty"`
	Record       *BookingRecord `json:"record,omitempty"`
	Order        *GatewayOrder  `json:"order,omitempty"`
}

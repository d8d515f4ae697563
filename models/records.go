// File: models/records.go
package models

import "time"

// AttemptOutcome is how a payment attempt settled.
type AttemptOutcome string

const (
	OutcomeCreated        AttemptOutcome = "created"
	OutcomeCheckoutOpened AttemptOutcome = "checkout_opened"
	OutcomeRejected       AttemptOutcome = "rejected"
	OutcomeTransport      AttemptOutcome = "transport_error"
	OutcomeCancelled      AttemptOutcome = "cancelled"
	OutcomeStale          AttemptOutcome = "stale"
)

// PaymentAttempt journals one pay attempt for operator diagnosis.
type PaymentAttempt struct {
	ID             string         `bson:"id" json:"id"`
	SessionID      string         `bson:"sessionId" json:"sessionId"`
	Generation     uint64         `bson:"generation" json:"generation"`
	IdempotencyKey string         `bson:"idempotencyKey" json:"idempotencyKey"`
	ProofKind      ProofKind      `bson:"proofKind" json:"proofKind"`
	PaymentType    PaymentType    `bson:"paymentType,omitempty" json:"paymentType,omitempty"`
	EventDate      string         `bson:"eventDate" json:"eventDate"` // MM-DD-YYYY
	EventTime      string         `bson:"eventTime" json:"eventTime"`
	Email          string         `bson:"email" json:"email"`
	Amount         float64        `bson:"amount" json:"amount"`
	Outcome        AttemptOutcome `bson:"outcome" json:"outcome"`
	Message        string         `bson:"message,omitempty" json:"message,omitempty"`
	UniqueID       string         `bson:"uniqueId,omitempty" json:"uniqueId,omitempty"` // Set when a record was created
	CreatedAt      time.Time      `bson:"createdAt" json:"createdAt"`
}

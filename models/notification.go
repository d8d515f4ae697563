package models

// AgreementPayload is queued for the agreement/notification delivery service
// once a booking record has been created.
type AgreementPayload struct {
	UniqueID   string  `json:"uniqueId"`
	ClientName string  `json:"clientName"`
	Email      string  `json:"email"`
	EventType  string  `json:"eventType"`
	EventDate  string  `json:"eventDate"`
	EventTime  string  `json:"eventTime"`
	Amount     float64 `json:"amount"`
}

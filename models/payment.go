package models

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TransactionIDLength is the exact length, in characters, of a manual payment reference.
const TransactionIDLength = 17

var ErrInvalidProofFormat = errors.New("invalid payment proof format")

// ProofKind tells which payment path produced a proof.
type ProofKind string

const (
	ProofManual  ProofKind = "manual"
	ProofGateway ProofKind = "gateway"
)

// PaymentType discriminates a deposit from a balance payment on the gateway path.
type PaymentType string

const (
	PaymentDeposit PaymentType = "deposit"
	PaymentBalance PaymentType = "balance"
)

// PaymentProof is the evidence of payment submitted alongside a booking.
// Exactly one kind is populated per submission.
type PaymentProof struct {
	Kind          ProofKind `json:"kind"`
	TransactionID string    `json:"transactionId,omitempty"` // manual
	OrderID       string    `json:"orderId,omitempty"`       // gateway
	PaymentID     string    `json:"paymentId,omitempty"`     // gateway
	Signature     string    `json:"signature,omitempty"`     // gateway
}

// ManualProof builds a manual proof from a user-entered transaction id,
// trimming the whitespace that comes along with a pasted value.
func ManualProof(transactionID string) PaymentProof {
	return PaymentProof{Kind: ProofManual, TransactionID: strings.TrimSpace(transactionID)}
}

// GatewayProof builds a proof from the three gateway-issued identifiers.
func GatewayProof(orderID, paymentID, signature string) PaymentProof {
	return PaymentProof{Kind: ProofGateway, OrderID: orderID, PaymentID: paymentID, Signature: signature}
}

// Validate rejects malformed proofs before anything is sent over the network.
func (p PaymentProof) Validate() error {
	switch p.Kind {
	case ProofManual:
		if utf8.RuneCountInString(p.TransactionID) != TransactionIDLength ||
			strings.IndexFunc(p.TransactionID, unicode.IsSpace) >= 0 {
			return ErrInvalidProofFormat
		}
		if p.OrderID != "" || p.PaymentID != "" || p.Signature != "" {
			return ErrInvalidProofFormat
		}
	case ProofGateway:
		if strings.TrimSpace(p.OrderID) == "" || strings.TrimSpace(p.PaymentID) == "" || strings.TrimSpace(p.Signature) == "" {
			return ErrInvalidProofFormat
		}
		if p.TransactionID != "" {
			return ErrInvalidProofFormat
		}
	default:
		return ErrInvalidProofFormat
	}
	return nil
}

// ValidPaymentType reports whether t is deposit or balance.
func ValidPaymentType(t PaymentType) bool {
	return t == PaymentDeposit || t == PaymentBalance
}

// Payer is the identity prefilled on the hosted checkout.
type Payer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// GatewayOrder is the backend-issued order a hosted checkout is opened for.
type GatewayOrder struct {
	OrderID     string      `json:"gatewayOrderId"`
	Amount      float64     `json:"amount"`
	MinorUnits  int64       `json:"minorUnits"`
	Currency    string      `json:"currency"`
	PaymentType PaymentType `json:"paymentType"`
	CheckoutURL string      `json:"checkoutUrl,omitempty"`
	SessionRef  string      `json:"sessionRef,omitempty"` // hosted checkout session id
	Payer       Payer       `json:"payer"`
	Reference   string      `json:"reference,omitempty"` // existing BK reference for balance payments
}

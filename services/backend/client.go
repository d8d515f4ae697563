// Package backend is the REST client for the booking backend that owns slot
// availability, booking persistence and gateway verification.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jeffjackson/models"

	"go.uber.org/zap"
)

const (
	slotBlockPath   = "/api/public/blockSchedule/check-availability"
	duplicatePath   = "/check-availability"
	gatewayOrder    = "/order"
	gatewayCallback = "/callback"

	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 1 << 20
)

// Config holds the three base URLs the backend is reached on. They are kept
// separate because slot-block checks and booking calls may be served by
// different hosts.
type Config struct {
	BaseURL         string // slot-block host
	BookingEndpoint string // full URL of the booking collection
	GatewayBaseURL  string // gateway order/callback host
	Timeout         time.Duration
}

// Client calls the booking backend. Every call is bounded by the configured timeout.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.BookingEndpoint = strings.TrimRight(cfg.BookingEndpoint, "/")
	cfg.GatewayBaseURL = strings.TrimRight(cfg.GatewayBaseURL, "/")
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RejectionError is a business-rule refusal reported by the backend.
type RejectionError struct {
	Op      string
	Status  int
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("backend: %s rejected (%d): %s", e.Op, e.Status, e.Message)
}

// TransportError covers network failures, timeouts, non-2xx responses
// without a structured body and undecodable bodies.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend: %s failed with status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("backend: %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsRejection reports whether err is a backend business rejection and returns its message.
func IsRejection(err error) (string, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.Message, true
	}
	return "", false
}

// statusEnvelope is the {status, message} shape every check endpoint answers
// with. Only "ok" passes a check.
type statusEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (e statusEnvelope) failed() bool {
	s := strings.ToLower(e.Status)
	return s == "error" || s == "failure" || s == "failed"
}

type slotBlockRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type duplicateRequest struct {
	EventDate string `json:"eventDate"`
	EventTime string `json:"eventTime"`
	Email     string `json:"email"`
}

// CreateBookingRequest is the full booking payload sent with a manual proof.
type CreateBookingRequest struct {
	ClientName          string               `json:"clientName"`
	Email               string               `json:"email"`
	Phone               string               `json:"phone"`
	Street              string               `json:"street"`
	Apt                 string               `json:"apt"`
	City                string               `json:"city"`
	State               string               `json:"state"`
	Message             string               `json:"message"`
	EventType           string               `json:"eventType"`
	EventDate           string               `json:"eventDate"`
	EventTime           string               `json:"eventTime"`
	Amount              float64              `json:"amount"`
	PaypalTransactionID string               `json:"paypalTransactionId"`
	Status              models.BookingStatus `json:"status"`
}

// NewCreateBookingRequest builds the create payload from a draft and a manual proof.
func NewCreateBookingRequest(d models.BookingDraft, proof models.PaymentProof) CreateBookingRequest {
	return CreateBookingRequest{
		ClientName:          d.Client.Name,
		Email:               d.Client.Email,
		Phone:               d.Client.Phone,
		Street:              d.Client.Street,
		Apt:                 d.Client.Apt,
		City:                d.Client.City,
		State:               d.Client.State,
		Message:             d.Client.Message,
		EventType:           string(d.EventType),
		EventDate:           d.DateLabel(),
		EventTime:           d.EventTime,
		Amount:              float64(d.Price),
		PaypalTransactionID: proof.TransactionID,
		Status:              models.StatusPending,
	}
}

// OrderRequest asks the backend to open a gateway order.
type OrderRequest struct {
	Amount      float64            `json:"amount"`
	PaymentType models.PaymentType `json:"paymentType"`
	Reference   string             `json:"bookingReference,omitempty"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Phone       string             `json:"phone,omitempty"`
	EventType   string             `json:"eventType,omitempty"`
	EventDate   string             `json:"eventDate,omitempty"`
	EventTime   string             `json:"eventTime,omitempty"`
}

// OrderResponse is the backend's answer to an order request.
type OrderResponse struct {
	Amount         float64 `json:"amount"`
	GatewayOrderID string  `json:"gatewayOrderId"`
}

// VerifyRequest carries the gateway-issued identifiers back to the backend.
type VerifyRequest struct {
	OrderID     string             `json:"orderId"`
	PaymentID   string             `json:"paymentId"`
	Signature   string             `json:"signature"`
	PaymentType models.PaymentType `json:"paymentType"`
}

// CheckSlotBlock asks whether (date, time) is blocked by the operator.
// date is MM-DD-YYYY and time is the slot label verbatim.
func (c *Client) CheckSlotBlock(ctx context.Context, date, timeLabel string) error {
	return c.check(ctx, "slot-block check", c.cfg.BaseURL+slotBlockPath, slotBlockRequest{Date: date, Time: timeLabel})
}

// CheckDuplicate asks whether the client already holds a booking for the slot.
func (c *Client) CheckDuplicate(ctx context.Context, date, timeLabel, email string) error {
	return c.check(ctx, "duplicate check", c.cfg.BookingEndpoint+duplicatePath, duplicateRequest{EventDate: date, EventTime: timeLabel, Email: email})
}

// CreateBooking submits the booking and returns the record exactly as the backend sent it.
func (c *Client) CreateBooking(ctx context.Context, req CreateBookingRequest, idempotencyKey string) (models.BookingRecord, error) {
	const op = "create booking"
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	status, body, err := c.do(ctx, op, http.MethodPost, c.cfg.BookingEndpoint, req, headers)
	if err != nil {
		return models.BookingRecord{}, err
	}
	if err := classify(op, status, body); err != nil {
		return models.BookingRecord{}, err
	}
	return decodeRecord(op, status, body)
}

// CreateGatewayOrder opens an order on the gateway host.
func (c *Client) CreateGatewayOrder(ctx context.Context, req OrderRequest) (OrderResponse, error) {
	const op = "create gateway order"
	status, body, err := c.do(ctx, op, http.MethodPost, c.cfg.GatewayBaseURL+gatewayOrder, req, nil)
	if err != nil {
		return OrderResponse{}, err
	}
	if err := classify(op, status, body); err != nil {
		return OrderResponse{}, err
	}
	var out OrderResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return OrderResponse{}, &TransportError{Op: op, Status: status, Err: fmt.Errorf("decode order: %w", err)}
	}
	if out.GatewayOrderID == "" {
		return OrderResponse{}, &TransportError{Op: op, Status: status, Err: errors.New("response missing gatewayOrderId")}
	}
	return out, nil
}

// VerifyGatewayPayment submits the gateway callback identifiers for server-side
// verification. The booking record in the response is returned verbatim; it
// may be the whole body or nested under "booking".
func (c *Client) VerifyGatewayPayment(ctx context.Context, req VerifyRequest) (models.BookingRecord, error) {
	const op = "verify gateway payment"
	status, body, err := c.do(ctx, op, http.MethodPost, c.cfg.GatewayBaseURL+gatewayCallback, req, nil)
	if err != nil {
		return models.BookingRecord{}, err
	}
	if err := classify(op, status, body); err != nil {
		return models.BookingRecord{}, err
	}
	var wrapped struct {
		Booking json.RawMessage `json:"booking"`
	}
	if json.Unmarshal(body, &wrapped) == nil && len(wrapped.Booking) > 0 && string(wrapped.Booking) != "null" {
		body = wrapped.Booking
	}
	return decodeRecord(op, status, body)
}

// Ping issues a GET against url and returns the HTTP status code.
func (c *Client) Ping(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	return resp.StatusCode, nil
}

func (c *Client) check(ctx context.Context, op, url string, payload interface{}) error {
	status, body, err := c.do(ctx, op, http.MethodPost, url, payload, nil)
	if err != nil {
		return err
	}
	if err := classify(op, status, body); err != nil {
		return err
	}
	var env statusEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &TransportError{Op: op, Status: status, Err: fmt.Errorf("decode status: %w", err)}
	}
	switch {
	case env.Status == "":
		return &TransportError{Op: op, Status: status, Err: errors.New("missing status")}
	case !strings.EqualFold(env.Status, "ok"):
		return &RejectionError{Op: op, Status: status, Message: env.Message}
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, url string, payload interface{}, headers map[string]string) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("backend: encode %s: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Backend call failed", zap.String("op", op), zap.String("url", url), zap.Error(err))
		return 0, nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	c.logger.Debug("Backend call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))
	return resp.StatusCode, body, nil
}

// classify turns a response into a RejectionError when the body says
// status "error", and into a TransportError for any other non-2xx.
func classify(op string, status int, body []byte) error {
	var env statusEnvelope
	structured := json.Unmarshal(body, &env) == nil && env.Status != ""
	if structured && env.failed() {
		return &RejectionError{Op: op, Status: status, Message: env.Message}
	}
	if status < 200 || status >= 300 {
		if structured && env.Message != "" {
			return &RejectionError{Op: op, Status: status, Message: env.Message}
		}
		return &TransportError{Op: op, Status: status, Err: fmt.Errorf("unexpected status %s", http.StatusText(status))}
	}
	return nil
}

func decodeRecord(op string, status int, body []byte) (models.BookingRecord, error) {
	var rec models.BookingRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return models.BookingRecord{}, &TransportError{Op: op, Status: status, Err: fmt.Errorf("decode record: %w", err)}
	}
	if rec.UniqueID == "" {
		return models.BookingRecord{}, &TransportError{Op: op, Status: status, Err: errors.New("record missing uniqueId")}
	}
	return rec, nil
}

package handlers

import (
	"context"
	"net/http"

	"jeffjackson/models"
	"jeffjackson/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BalancePayments is the part of the payment flow serving balance payments
// on existing bookings.
type BalancePayments interface {
	PayBalance(ctx context.Context, reference string, amount float64, payer models.Payer) (models.GatewayOrder, error)
	ConfirmBalance(ctx context.Context, cb booking.GatewayCallback) (models.BookingRecord, error)
}

// PaymentHandler serves payments that are not tied to a wizard session.
type PaymentHandler struct {
	Payments BalancePayments
	Logger   *zap.Logger
}

func NewPaymentHandler(p BalancePayments, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{Payments: p, Logger: logger}
}

type balanceRequest struct {
	Reference string  `json:"reference" binding:"required"`
	Amount    float64 `json:"amount"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
}

// PayBalance handles POST /api/payments/balance.
func (h *PaymentHandler) PayBalance(c *gin.Context) {
	var req balanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request", "details": err.Error()})
		return
	}
	order, err := h.Payments.PayBalance(c.Request.Context(), req.Reference, req.Amount,
		models.Payer{Name: req.Name, Email: req.Email, Phone: req.Phone})
	if err != nil {
		h.fail(c, "payBalance", err)
		return
	}
	h.Logger.Info("Balance checkout opened", zap.String("reference", order.Reference), zap.String("orderId", order.OrderID))
	c.JSON(http.StatusCreated, order)
}

// ConfirmBalance handles POST /api/payments/balance/callback.
func (h *PaymentHandler) ConfirmBalance(c *gin.Context) {
	var cb booking.GatewayCallback
	if err := c.ShouldBindJSON(&cb); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request", "details": err.Error()})
		return
	}
	rec, err := h.Payments.ConfirmBalance(c.Request.Context(), cb)
	if err != nil {
		h.fail(c, "confirmBalance", err)
		return
	}
	if raw := rec.Raw(); len(raw) > 0 {
		c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *PaymentHandler) fail(c *gin.Context, op string, err error) {
	status, body := errorBody(models.BookingResponse{}, err)
	requestLogger(c, h.Logger).Warn("Balance payment failed", zap.String("op", op), zap.Int("status", status), zap.Error(err))
	c.JSON(status, body)
}

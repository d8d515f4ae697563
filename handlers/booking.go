package handlers

import (
	"errors"
	"net/http"
	"time"

	"jeffjackson/middleware"
	"jeffjackson/models"
	"jeffjackson/services/booking"
	"jeffjackson/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking wizard over HTTP. Every session route
// runs behind middleware.SessionAuthMiddleware, which resolves the session id.
type BookingHandler struct {
	Service      booking.BookingSessionService
	Logger       *zap.Logger
	TokenTTL     time.Duration
	SecureCookie bool
}

// NewBookingHandler creates a BookingHandler. Session tokens live as long as
// the session itself.
func NewBookingHandler(svc booking.BookingSessionService, tokenTTL time.Duration, secureCookie bool, logger *zap.Logger) *BookingHandler {
	if logger == nil {
		logger = utils.GetLogger()
	}
	if tokenTTL <= 0 {
		tokenTTL = 30 * time.Minute
	}
	return &BookingHandler{Service: svc, Logger: logger, TokenTTL: tokenTTL, SecureCookie: secureCookie}
}

type dateRequest struct {
	Date string `json:"date" binding:"required"`
}

type timeRequest struct {
	Time string `json:"time" binding:"required"`
}

type payRequest struct {
	TransactionID string `json:"transactionId"`
}

type gatewayOrderRequest struct {
	PaymentType models.PaymentType `json:"paymentType"`
}

func sessionID(c *gin.Context) string {
	return c.GetString(middleware.SessionIDKey)
}

// InitiateSession handles POST /api/booking/session.
func (h *BookingHandler) InitiateSession(c *gin.Context) {
	resp, err := h.Service.InitiateSession(c.Request.Context())
	if err != nil {
		h.fail(c, "initiate", resp, err)
		return
	}
	token, err := utils.GenerateSessionToken(resp.SessionID, h.TokenTTL)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, utils.CodeInternal, "Failed to start booking session", err)
		return
	}
	resp.Token = token
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(h.TokenTTL.Seconds()), "/", "", h.SecureCookie, true)
	c.JSON(http.StatusCreated, resp)
}

// GetSession handles GET /api/booking/session.
func (h *BookingHandler) GetSession(c *gin.Context) {
	resp, err := h.Service.GetSession(c.Request.Context(), sessionID(c))
	h.reply(c, "get", resp, err)
}

// PickDate handles POST /api/booking/session/date.
func (h *BookingHandler) PickDate(c *gin.Context) {
	var req dateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	resp, err := h.Service.PickDate(c.Request.Context(), sessionID(c), req.Date)
	h.reply(c, "pickDate", resp, err)
}

// PickTime handles POST /api/booking/session/time.
func (h *BookingHandler) PickTime(c *gin.Context) {
	var req timeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	resp, err := h.Service.PickTime(c.Request.Context(), sessionID(c), req.Time)
	h.reply(c, "pickTime", resp, err)
}

// SubmitDetails handles POST /api/booking/session/details. Field validation
// happens in the wizard so the entered values are kept on failure.
func (h *BookingHandler) SubmitDetails(c *gin.Context) {
	var form models.DetailsForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.badRequest(c, err)
		return
	}
	resp, err := h.Service.SubmitDetails(c.Request.Context(), sessionID(c), form)
	h.reply(c, "submitDetails", resp, err)
}

// Back handles POST /api/booking/session/back.
func (h *BookingHandler) Back(c *gin.Context) {
	resp, err := h.Service.Back(c.Request.Context(), sessionID(c))
	h.reply(c, "back", resp, err)
}

// DismissBanner handles POST /api/booking/session/dismiss.
func (h *BookingHandler) DismissBanner(c *gin.Context) {
	resp, err := h.Service.DismissBanner(c.Request.Context(), sessionID(c))
	h.reply(c, "dismiss", resp, err)
}

// ConfirmPay handles POST /api/booking/session/pay with a manual transaction id.
func (h *BookingHandler) ConfirmPay(c *gin.Context) {
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	resp, err := h.Service.ConfirmPay(c.Request.Context(), sessionID(c), req.TransactionID)
	h.payReply(c, "pay", resp, err)
}

// OpenGatewayOrder handles POST /api/booking/session/gateway/order.
func (h *BookingHandler) OpenGatewayOrder(c *gin.Context) {
	var req gatewayOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if req.PaymentType == "" {
		req.PaymentType = models.PaymentDeposit
	}
	resp, err := h.Service.OpenGatewayCheckout(c.Request.Context(), sessionID(c), req.PaymentType)
	h.payReply(c, "gatewayOrder", resp, err)
}

// GatewayCallback handles POST /api/booking/session/gateway/callback.
func (h *BookingHandler) GatewayCallback(c *gin.Context) {
	var cb booking.GatewayCallback
	if err := c.ShouldBindJSON(&cb); err != nil {
		h.badRequest(c, err)
		return
	}
	resp, err := h.Service.GatewayCallback(c.Request.Context(), sessionID(c), cb)
	h.payReply(c, "gatewayCallback", resp, err)
}

// CancelSession handles DELETE /api/booking/session.
func (h *BookingHandler) CancelSession(c *gin.Context) {
	sid := sessionID(c)
	if err := h.Service.CancelSession(c.Request.Context(), sid); err != nil {
		h.fail(c, "cancel", models.BookingResponse{}, err)
		return
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.SecureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Booking session cancelled"})
}

// BookableTimes handles GET /api/booking/times?date=YYYY-MM-DD.
func (h *BookingHandler) BookableTimes(c *gin.Context) {
	date := c.Query("date")
	times, err := h.Service.BookableTimes(date)
	if err != nil {
		h.fail(c, "times", models.BookingResponse{}, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "times": times})
}

type priceEntry struct {
	EventType models.EventType `json:"eventType"`
	Price     int              `json:"price"`
}

// Prices handles GET /api/booking/prices.
func (h *BookingHandler) Prices(c *gin.Context) {
	out := make([]priceEntry, 0, len(models.EventTypes))
	for _, et := range models.EventTypes {
		price, err := booking.PriceFor(et)
		if err != nil {
			continue
		}
		out = append(out, priceEntry{EventType: et, Price: price})
	}
	c.JSON(http.StatusOK, gin.H{"prices": out})
}

// --- responses ---

func (h *BookingHandler) reply(c *gin.Context, op string, resp models.BookingResponse, err error) {
	if err != nil {
		h.fail(c, op, resp, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// payReply answers a second pay while one is in flight with 202 so the
// client keeps waiting on the first.
func (h *BookingHandler) payReply(c *gin.Context, op string, resp models.BookingResponse, err error) {
	if errors.Is(err, booking.ErrBusy) {
		c.JSON(http.StatusAccepted, gin.H{"status": "in_progress", "message": booking.ErrBusy.Error(), "state": resp})
		return
	}
	h.reply(c, op, resp, err)
}

func (h *BookingHandler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, utils.ErrorResponse{Message: "Invalid request", Details: err.Error()})
}

// fail maps the booking error taxonomy onto HTTP statuses.
func (h *BookingHandler) fail(c *gin.Context, op string, resp models.BookingResponse, err error) {
	status, body := errorBody(resp, err)
	fields := []zap.Field{zap.String("op", op), zap.String("sessionID", sessionID(c)), zap.Int("status", status), zap.Error(err)}
	logger := requestLogger(c, h.Logger)
	if status >= http.StatusInternalServerError {
		logger.Error("Booking request failed", fields...)
	} else {
		logger.Info("Booking request refused", fields...)
	}
	c.JSON(status, body)
}

func errorBody(resp models.BookingResponse, err error) (int, utils.ErrorResponse) {
	body := utils.ErrorResponse{Message: err.Error()}
	if resp.SessionID != "" {
		body.State = resp
	}

	switch {
	case errors.Is(err, booking.ErrSessionNotFound):
		body.Code = "sessionNotFound"
		return http.StatusNotFound, body
	case errors.Is(err, booking.ErrBusy):
		body.Code = "busy"
		return http.StatusConflict, body
	case errors.Is(err, booking.ErrStaleResponse):
		body.Code = "stale"
		return http.StatusConflict, body
	}

	var be *booking.BookingError
	if !errors.As(err, &be) {
		body.Message = "Internal Server Error"
		body.Details = err.Error()
		return http.StatusInternalServerError, body
	}
	body.Message = be.Message
	body.Code = be.Code
	body.Fields = be.Fields
	switch be.Kind {
	case booking.KindValidation:
		return http.StatusUnprocessableEntity, body
	case booking.KindRejection:
		return http.StatusConflict, body
	case booking.KindTransport:
		return http.StatusBadGateway, body
	default:
		return http.StatusUnprocessableEntity, body
	}
}

package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Booking wizard endpoints
	InitiateSession  gin.HandlerFunc
	GetSession       gin.HandlerFunc
	PickDate         gin.HandlerFunc
	PickTime         gin.HandlerFunc
	SubmitDetails    gin.HandlerFunc
	Back             gin.HandlerFunc
	DismissBanner    gin.HandlerFunc
	ConfirmPay       gin.HandlerFunc
	OpenGatewayOrder gin.HandlerFunc
	GatewayCallback  gin.HandlerFunc
	CancelSession    gin.HandlerFunc

	// Public booking policy endpoints
	BookableTimes gin.HandlerFunc
	Prices        gin.HandlerFunc

	// Balance payment endpoints
	PayBalance     gin.HandlerFunc
	ConfirmBalance gin.HandlerFunc

	// Confirmation view
	ShowConfirmation gin.HandlerFunc

	// Status endpoints
	Status gin.HandlerFunc
	Health gin.HandlerFunc
}

// NewHandlerBundle assembles the bundle from the individual handlers.
func NewHandlerBundle(bh *BookingHandler, ph *PaymentHandler, ch *ConfirmationHandler, sh *StatusHandler) *HandlerBundle {
	return &HandlerBundle{
		InitiateSession:  bh.InitiateSession,
		GetSession:       bh.GetSession,
		PickDate:         bh.PickDate,
		PickTime:         bh.PickTime,
		SubmitDetails:    bh.SubmitDetails,
		Back:             bh.Back,
		DismissBanner:    bh.DismissBanner,
		ConfirmPay:       bh.ConfirmPay,
		OpenGatewayOrder: bh.OpenGatewayOrder,
		GatewayCallback:  bh.GatewayCallback,
		CancelSession:    bh.CancelSession,

		BookableTimes: bh.BookableTimes,
		Prices:        bh.Prices,

		PayBalance:     ph.PayBalance,
		ConfirmBalance: ph.ConfirmBalance,

		ShowConfirmation: ch.Show,

		Status: sh.Status,
		Health: sh.Health,
	}
}

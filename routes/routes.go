package routes

import (
	"strings"
	"time"

	"jeffjackson/config"
	"jeffjackson/handlers"
	"jeffjackson/middleware"
	"jeffjackson/services/booking"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes sets up the booking wizard endpoints. Starting a
// session and reading the policy are public; everything else needs the
// session token.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/booking")
	{
		api.POST("/session", hb.InitiateSession)
		api.GET("/times", hb.BookableTimes)
		api.GET("/prices", hb.Prices)

		session := api.Group("/session")
		session.Use(middleware.SessionAuthMiddleware())
		session.GET("", hb.GetSession)
		session.DELETE("", hb.CancelSession)
		session.POST("/date", hb.PickDate)
		session.POST("/time", hb.PickTime)
		session.POST("/details", hb.SubmitDetails)
		session.POST("/back", hb.Back)
		session.POST("/dismiss", hb.DismissBanner)
		session.POST("/pay", hb.ConfirmPay)
		session.POST("/gateway/order", hb.OpenGatewayOrder)
		session.POST("/gateway/callback", hb.GatewayCallback)
	}
}

// RegisterPaymentRoutes registers balance payments on existing bookings.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/payments")
	{
		api.POST("/balance", hb.PayBalance)
		api.POST("/balance/callback", hb.ConfirmBalance)
	}
}

// RegisterConfirmationRoute registers the one-shot confirmation view.
func RegisterConfirmationRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET(booking.ConfirmationRoute, middleware.OptionalSession(), hb.ShowConfirmation)
}

// RegisterHealthRoute registers the liveness and backend status endpoints.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
	r.GET("/api/status", hb.Status)
}

// allowedOrigins splits ALLOWED_ORIGINS.
func allowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(config.AppConfig.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// unlistedOriginPolicy decides origins when ALLOWED_ORIGINS is empty. The
// session cookie travels with credentialed requests, so only development
// accepts every origin.
func unlistedOriginPolicy() func(string) bool {
	if config.IsDevelopment() {
		return func(string) bool { return true }
	}
	return func(string) bool { return false }
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origins := allowedOrigins(); len(origins) > 0 {
		corsCfg.AllowOrigins = origins
	} else {
		corsCfg.AllowOriginFunc = unlistedOriginPolicy()
	}
	r.Use(cors.New(corsCfg))

	RegisterBookingRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterConfirmationRoute(r, hb)
	RegisterHealthRoute(r, hb)
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jeffjackson/config"
	"jeffjackson/cron"
	"jeffjackson/database"
	"jeffjackson/database/repository"
	"jeffjackson/handlers"
	"jeffjackson/middleware"
	"jeffjackson/routes"
	"jeffjackson/services/backend"
	"jeffjackson/services/booking"
	"jeffjackson/services/gateway"
	"jeffjackson/services/notification"
	"jeffjackson/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rdb := utils.GetSessionCacheClient()

	// The attempt journal is optional; bookings work without it.
	var journal booking.AttemptJournal
	if cfg.DatabaseURL != "" {
		if err := database.InitDB(); err != nil {
			logger.Warn("main: payment attempt journal disabled", zap.Error(err))
		} else {
			journal = repository.NewMongoAttemptRepo(cfg.DatabaseName)
		}
	}

	backendClient := backend.NewClient(backend.Config{
		BaseURL:         cfg.BackendBaseURL,
		BookingEndpoint: cfg.BookingEndpoint,
		GatewayBaseURL:  cfg.GatewayBaseURL,
		Timeout:         cfg.BackendTimeout,
	}, logger)

	var checkout booking.CheckoutOpener
	if cfg.StripeKey != "" {
		checkout = gateway.NewStripeCheckout(gateway.Config{
			SecretKey:  cfg.StripeKey,
			APIURL:     cfg.StripeAPIURL,
			SuccessURL: cfg.CheckoutSuccessURL,
			CancelURL:  cfg.CheckoutCancelURL,
		}, logger)
	} else {
		logger.Warn("main: STRIPE_KEY not set, hosted checkout disabled")
	}

	// Agreement delivery runs through the asynq queue.
	queueClient := asynq.NewClient(cron.RedisOpt())
	agreements := notification.NewAgreementQueue(queueClient, logger)

	var worker *asynq.Server
	if notifSvc, err := notification.NewDefaultNotificationService(cfg.NotificationURL, logger); err != nil {
		logger.Warn("main: agreement worker not started", zap.Error(err))
	} else {
		worker = cron.InitAgreementWorker(notifSvc, logger)
	}

	payments := booking.NewPaymentFlow(backendClient, checkout, journal, agreements, cfg.GatewayCurrency, logger)
	store := booking.NewRedisSessionStore(rdb, cfg.SessionTTL, cfg.PayLockTTL)
	bookingService := booking.NewBookingSessionService(store, payments, config.Location(), cfg.PayLockTTL, logger)

	monitor := utils.NewHealthMonitor(cfg.HealthCheckURL, cfg.HealthCheckInterval, backendClient, logger)
	if cfg.HealthCheckURL != "" {
		monitor.Start(context.Background())
	}

	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewBookingHandler(bookingService, cfg.SessionTTL, config.IsProduction(), logger),
		handlers.NewPaymentHandler(payments, logger),
		handlers.NewConfirmationHandler(bookingService, logger),
		handlers.NewStatusHandler(monitor),
	)

	router := gin.New()
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiterStore(cfg.MaxRequestsPerMin), logger))
	routes.RegisterRoutes(router, handlerBundle)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}

	monitor.Stop()
	if worker != nil {
		worker.Shutdown()
	}
	if err := queueClient.Close(); err != nil {
		logger.Warn("main: failed to close queue client", zap.Error(err))
	}
	if journal != nil {
		database.CloseDB(ctx)
	}
	if err := rdb.Close(); err != nil {
		logger.Warn("main: failed to close redis", zap.Error(err))
	}
	_ = logger.Sync()

	logger.Sugar().Info("main: server stopped gracefully")
}

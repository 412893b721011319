package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servana/config"
	"servana/cron"
	"servana/database"
	bookingRepo "servana/database/repository/booking"
	catalogRepo "servana/database/repository/catalog"
	policyRepo "servana/database/repository/policy"
	scheduleRepo "servana/database/repository/schedule"
	"servana/handlers"
	"servana/middleware"
	"servana/routes"
	"servana/services/notification"
	"servana/services/payment"
	"servana/services/scheduling"
	"servana/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.FirebaseInit()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	schedules := scheduleRepo.NewMongoScheduleRepo()
	bookings := bookingRepo.NewMongoBookingRepo()
	catalog := catalogRepo.NewMongoCatalogRepo()
	policies := policyRepo.NewMongoPolicyRepo()

	cacheClient := utils.GetCacheClient()
	utils.StartHealthMonitor(cacheClient, database.MongoClient)

	// services.
	engine := &scheduling.DefaultSchedulingEngine{
		Schedules:          schedules,
		Bookings:           bookings,
		Catalog:            catalog,
		Policies:           policies,
		Gateway:            payment.NewStripeGateway(),
		Notifier:           notification.NewFCMNotifier(),
		Clock:              scheduling.SystemClock,
		Cache:              cacheClient,
		ConfirmationWindow: time.Duration(config.AppConfig.ConfirmationWindowHours) * time.Hour,
		SlotCacheTTL:       time.Duration(config.AppConfig.SlotCacheTTLSeconds) * time.Second,
	}
	scheduleService := &scheduling.DefaultScheduleService{
		Repo:  schedules,
		Cache: cacheClient,
	}

	// Assemble the handler bundle and register routes.
	handlerBundle := &routes.HandlerBundle{
		Slots:    handlers.NewSlotHandler(engine, logger),
		Bookings: handlers.NewBookingHandler(engine, logger),
		Schedule: handlers.NewScheduleHandler(scheduleService, logger),
		Policies: handlers.NewPolicyHandler(engine, logger),
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Background sweep for pending bookings past their deadline.
	cron.InitExpiryWorker(engine)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

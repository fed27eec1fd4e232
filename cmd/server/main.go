package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldhouse/coach-app/internal/api"
	"fieldhouse/coach-app/internal/config"
	"fieldhouse/coach-app/internal/repository/mongo"
	"fieldhouse/coach-app/internal/service"
	"fieldhouse/coach-app/internal/storage"

	"github.com/gin-gonic/gin"
)

// @title Coach Booking API
// @version 1.0
// @description API for the coach-athlete booking marketplace: schedules, bookings, reschedules, reviews and subscriptions.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting Coach Booking Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureScheduleIndexes(ctx, appDB.Collection("coach_availabilities"), appDB.Collection("time_slots"))
		mongo.EnsureBookingIndexes(ctx, appDB.Collection("bookings"))
		mongo.EnsureReviewIndexes(ctx, appDB.Collection("reviews"))
		mongo.EnsureFavoriteIndexes(ctx, appDB.Collection("favorites"))
		mongo.EnsureNotificationIndexes(ctx, appDB.Collection("notifications"))
		mongo.EnsureSubscriptionIndexes(ctx, appDB.Collection("subscriptions"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	scheduleRepo := mongo.NewMongoScheduleRepository(appDB)
	bookingRepo := mongo.NewMongoBookingRepository(appDB)
	reviewRepo := mongo.NewMongoReviewRepository(appDB)
	favoriteRepo := mongo.NewMongoFavoriteRepository(appDB)
	notificationRepo := mongo.NewMongoNotificationRepository(appDB)
	subscriptionRepo := mongo.NewMongoSubscriptionRepository(appDB)
	uow := mongo.NewMongoUnitOfWork(dbClient)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	notificationService := service.NewNotificationService(notificationRepo)
	scheduleService := service.NewScheduleService(scheduleRepo, uow)
	bookingService := service.NewBookingService(bookingRepo, scheduleRepo, uow, notificationService)
	coachService := service.NewCoachService(userRepo, bookingRepo, reviewRepo, favoriteRepo, fileStorage)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, cfg.Stripe)
	adminService := service.NewAdminService(userRepo, bookingRepo, subscriptionRepo)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(
		router,
		cfg.JWT.Secret,
		authService,
		scheduleService,
		bookingService,
		coachService,
		notificationService,
		subscriptionService,
		adminService,
	)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}

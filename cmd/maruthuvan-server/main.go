package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/ZERASHAHADIYA/Maruthuvan/internal/auth"
	"github.com/ZERASHAHADIYA/Maruthuvan/internal/consult"
	"github.com/ZERASHAHADIYA/Maruthuvan/internal/health"
	"github.com/ZERASHAHADIYA/Maruthuvan/internal/labs"
	"github.com/ZERASHAHADIYA/Maruthuvan/internal/profile"
	"github.com/ZERASHAHADIYA/Maruthuvan/internal/realtime"
	"github.com/ZERASHAHADIYA/Maruthuvan/internal/sos"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/config"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/database"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/interfaces"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/logger"
	"github.com/ZERASHAHADIYA/Maruthuvan/pkg/monitoring"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logg := logger.New(cfg.LogLevel)

	// Connect to PostgreSQL and ensure the schema exists
	db, err := database.NewConnection(&cfg.Database, logg)
	if err != nil {
		logg.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.CreateSchema(ctx); err != nil {
		cancel()
		logg.Fatalf("Failed to create schema: %v", err)
	}
	cancel()

	// Redis backs the OTP store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	defer redisClient.Close()

	// Repositories
	userRepo := auth.NewPostgresUserRepository(db)
	consultRepo := consult.NewPostgresRepository(db, logg)
	sosRepo := sos.NewPostgresRepository(db, logg)
	symptomRepo := health.NewPostgresRepository(db, logg)
	labsRepo := labs.NewPostgresRepository(db, logg)
	profileRepo := profile.NewPostgresRepository(db, logg)

	// Auth plumbing
	tokens := auth.NewTokenManager(&cfg.JWT)
	otpStore := auth.NewRedisOTPStore(redisClient,
		cfg.OTP.MaxAttempts, time.Duration(cfg.OTP.ResendSeconds)*time.Second)

	var otpSender interfaces.OTPSender
	var dialer interfaces.EmergencyDialer
	if cfg.OTP.Provider == "twilio" {
		otpSender = auth.NewTwilioSender(&cfg.OTP, logg)
		dialer = sos.NewTwilioDialer(cfg.OTP.TwilioAccountSID, cfg.OTP.TwilioAuthToken,
			cfg.OTP.TwilioFromNumber, consultRepo, logg)
	} else {
		otpSender = auth.NewMockSender(logg)
		dialer = sos.NewMockDialer(consultRepo, logg)
	}

	// Realtime hub doubles as the event publisher for all services
	hub := realtime.NewHub(logg)

	// Services
	authSvc := auth.NewService(userRepo, otpStore, otpSender, tokens, &cfg.OTP, logg)
	consultSvc := consult.NewService(consultRepo, hub, &cfg.Meeting, logg)
	dispatcher := sos.NewDispatcher(sosRepo, dialer, hub, &cfg.Emergency, logg)
	sosSvc := sos.NewService(sosRepo, dispatcher, hub, logg)
	healthSvc := health.NewService(symptomRepo, health.NewMockGenerator(logg), &cfg.AI, logg)
	labsSvc := labs.NewService(labsRepo, logg)
	profileSvc := profile.NewService(profileRepo, logg)

	// Router: a public subtree for auth and websocket handshake, a protected
	// subtree behind the JWT middleware
	router := mux.NewRouter()
	router.Use(monitoring.HTTPMiddleware(logg))

	router.HandleFunc("/health", monitoring.HealthHandler("maruthuvan", map[string]monitoring.Probe{
		"database": db.Health,
		"redis": func() error {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer pingCancel()
			return redisClient.Ping(pingCtx).Err()
		},
	})).Methods("GET")
	router.Handle("/metrics", monitoring.MetricsHandler()).Methods("GET")

	public := router.PathPrefix("/api").Subrouter()
	protected := router.PathPrefix("/api").Subrouter()
	middleware := auth.NewMiddleware(tokens, userRepo, logg)
	protected.Use(middleware.Require)

	auth.NewHandlers(authSvc, logg).RegisterRoutes(public, protected)
	consult.NewHandlers(consultSvc, logg).RegisterRoutes(protected)
	sos.NewHandlers(sosSvc, logg).RegisterRoutes(protected)
	health.NewHandlers(healthSvc, logg).RegisterRoutes(protected)
	labs.NewHandlers(labsSvc, logg).RegisterRoutes(protected)
	profile.NewHandlers(profileSvc, logg).RegisterRoutes(protected)
	realtime.NewHandler(hub, tokens, userRepo, consultSvc, sosSvc, logg).RegisterRoutes(router)

	// Background sweepers: overdue scheduled consultations become no-shows,
	// long-forgotten active SOS records get resolved
	scheduler := gocron.NewScheduler(time.UTC)
	interval := cfg.Sweeper.IntervalMinutes
	if interval <= 0 {
		interval = 5
	}
	scheduler.Every(interval).Minutes().Do(func() {
		consultSvc.SweepNoShows(time.Duration(cfg.Sweeper.NoShowGraceMinutes) * time.Minute)
		sosSvc.SweepStale(time.Duration(cfg.Sweeper.SOSMaxActiveHours) * time.Hour)
	})
	scheduler.StartAsync()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logg.Infof("Starting Maruthuvan server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("Shutting down Maruthuvan server...")
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Errorf("Error during shutdown: %v", err)
	}
	logg.Info("Maruthuvan server stopped")
}

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attune/internal/config"
	"attune/internal/database"
	"attune/internal/handlers"
	"attune/internal/repository"
	"attune/internal/security"
	"attune/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	checkinRepo := repository.NewCheckinRepository(db)

	// Initialize services
	emailService, err := service.NewEmailService(cfg.SESRegion, cfg.SESFromEmail, cfg.SESFromName)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	otpService := service.NewOTPService(
		userRepo,
		challengeRepo,
		emailService,
		jwtSecret(cfg),
		cfg.OTPTTL,
		cfg.TokenTTL,
		cfg.OTPResendInterval,
		cfg.AppBaseURL,
	)
	checkinService := service.NewCheckinService(checkinRepo)

	if cfg.AllowPublicAccess {
		log.Println("Warning: public access is enabled; unauthenticated callers may read and write ownerless records")
	}

	// Initialize handlers
	middleware := handlers.NewMiddleware(otpService, cfg.AllowPublicAccess, security.NewRateLimiter(60, time.Minute))
	otpHandler := handlers.NewOTPHandler(otpService, cfg.DefaultRedirectURL)
	checkinHandler := handlers.NewCheckinHandler(checkinService, middleware)
	healthHandler := handlers.NewHealthHandler(db)

	// Setup routes. Method gating happens inside the handlers so that the
	// 405 responses carry the same JSON error body as everything else.
	mux := http.NewServeMux()
	mux.HandleFunc("/otp/start", middleware.RateLimit(otpHandler.Start))
	mux.HandleFunc("/otp/verify", middleware.RateLimit(otpHandler.Verify))
	mux.HandleFunc("/otp/callback", otpHandler.Callback)
	mux.HandleFunc("/checkins", checkinHandler.Checkins)
	mux.HandleFunc("/checkins/batch", checkinHandler.CreateBatch)
	mux.HandleFunc("/ping", healthHandler.Ping)
	mux.HandleFunc("/health", healthHandler.Health)

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background challenge cleanup
	go cleanupExpiredChallenges(otpService)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// jwtSecret returns the configured signing key, or a random one-off key when
// none is set. With a random key every restart invalidates outstanding
// sessions, so production deployments should set JWT_SECRET.
func jwtSecret(cfg *config.Config) []byte {
	if cfg.JWTSecret != "" {
		return []byte(cfg.JWTSecret)
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("Failed to generate signing key: %v", err)
	}
	log.Printf("Warning: JWT_SECRET not set, using a random key (%s...); sessions will not survive restarts",
		hex.EncodeToString(key[:4]))
	return key
}

// cleanupExpiredChallenges periodically removes expired OTP challenges
func cleanupExpiredChallenges(otpService *service.OTPService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := otpService.CleanupExpiredChallenges(); err != nil {
			log.Printf("Error cleaning up expired challenges: %v", err)
		} else {
			log.Println("Expired OTP challenges cleaned up")
		}
	}
}

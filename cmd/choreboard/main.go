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

	"github.com/calder/choreboard/internal/database"
	"github.com/calder/choreboard/internal/logging"
	"github.com/calder/choreboard/internal/notify"
	"github.com/calder/choreboard/internal/photo"
	"github.com/calder/choreboard/internal/server"
)

func main() {
	port := os.Getenv("CHOREBOARD_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("CHOREBOARD_DB_PATH")
	if dbPath == "" {
		dbPath = "choreboard.db"
	}

	logger := logging.Setup(os.Getenv("CHOREBOARD_LOG_LEVEL"))

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	cfg := server.Config{
		SecureCookies: os.Getenv("CHOREBOARD_SECURE_COOKIES") == "true",
		Photo: photo.Config{
			Endpoint:      os.Getenv("CHOREBOARD_S3_ENDPOINT"),
			Bucket:        os.Getenv("CHOREBOARD_S3_BUCKET"),
			Region:        os.Getenv("CHOREBOARD_S3_REGION"),
			AccessKey:     os.Getenv("CHOREBOARD_S3_ACCESS_KEY"),
			SecretKey:     os.Getenv("CHOREBOARD_S3_SECRET_KEY"),
			PublicBaseURL: os.Getenv("CHOREBOARD_S3_PUBLIC_URL"),
		},
		Push: notify.Config{
			VAPIDPublicKey:  os.Getenv("CHOREBOARD_VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("CHOREBOARD_VAPID_PRIVATE_KEY"),
		},
	}

	srv := server.New(db, cfg, logger)

	// Periodic cleanup of expired sessions and stale rate-limit entries.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("session cleanup", "error", err)
			} else if n > 0 {
				logger.Info("session cleanup", "deleted", n)
			}
			srv.RateLimiter().Cleanup()
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Choreboard running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AbrarShakhi/wall-e/internal/alarm"
	"github.com/AbrarShakhi/wall-e/internal/api"
	"github.com/AbrarShakhi/wall-e/internal/browser"
	"github.com/AbrarShakhi/wall-e/internal/config"
	"github.com/AbrarShakhi/wall-e/internal/mailer"
	"github.com/AbrarShakhi/wall-e/internal/notify"
	"github.com/AbrarShakhi/wall-e/internal/portal"
	"github.com/AbrarShakhi/wall-e/internal/profile"
	"github.com/AbrarShakhi/wall-e/internal/proxy"
	"github.com/AbrarShakhi/wall-e/internal/ratelimit"
	"github.com/AbrarShakhi/wall-e/internal/search"
	"github.com/AbrarShakhi/wall-e/internal/template"
	"github.com/AbrarShakhi/wall-e/internal/updater"
	"github.com/AbrarShakhi/wall-e/pkg/models"
)

const version = "2.0"

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	log.Println("Starting Wall-E seat finder...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize browser pool
	pool, err := browser.NewPool()
	if err != nil {
		log.Fatalf("Failed to create browser pool: %v", err)
	}
	defer pool.Close()
	log.Println("✓ Browser pool initialized")

	// Ensure Chrome image is available
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Println("⏳ Ensuring Chrome image is available...")
	if err := pool.EnsureImage(ctx); err != nil {
		log.Fatalf("Failed to ensure Chrome image: %v", err)
	}
	log.Println("✓ Chrome image ready")

	// Initialize stores
	profiles, err := profile.NewStore(cfg.ProfilesPath(), cfg.StudentEmailDomain)
	if err != nil {
		log.Fatalf("Failed to open profile store: %v", err)
	}
	alarms, err := alarm.NewStore(cfg.AlarmsPath())
	if err != nil {
		log.Fatalf("Failed to open alarm store: %v", err)
	}
	templates, err := template.NewStore(cfg.TemplatesPath())
	if err != nil {
		log.Fatalf("Failed to open template store: %v", err)
	}
	log.Println("✓ Stores initialized")

	// Initialize portal runner and notification center
	runner := portal.NewRunner(pool)
	center := notify.NewCenter()

	// Initialize Gmail mailer
	gmailer := mailer.NewGmail(cfg.CredentialsPath, cfg.TokenPath, templates)

	// Initialize scheduler and coordinator. The scheduler's fire
	// callback reaches the coordinator through a closure because each
	// holds a reference to the other: the coordinator cancels timers,
	// the scheduler triggers searches.
	var coordinator *search.Coordinator
	scheduler := alarm.NewScheduler(alarms, func(a models.Alarm) {
		coordinator.OnAlarm(a, cfg.AutoEmailOnAlarm)
	})
	coordinator = search.NewCoordinator(runner, profiles, alarms, scheduler, gmailer, center, search.Options{
		ClearPolicy: cfg.AlarmClearPolicy,
	})

	scheduler.Start()
	defer scheduler.Stop()
	log.Println("✓ Alarm scheduler started")

	// Initialize WebSocket debug proxy
	proxyServer := proxy.NewServer(runner)
	log.Println("✓ WebSocket proxy initialized")

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(cfg.RequestsPerMinute, cfg.RateBurst)
	log.Printf("✓ Rate limiter initialized (%d req/min per client)", cfg.RequestsPerMinute)

	// Setup HTTP handlers
	handler := api.NewHandler(coordinator, profiles, templates, alarms, scheduler, center, updater.NewChecker(version))
	router := handler.SetupRoutes(proxyServer, rateLimiter)
	log.Println("✓ HTTP routes configured")

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%s", cfg.Port)
		log.Printf("📍 API endpoints available at http://localhost:%s/v1", cfg.Port)
		log.Println("⏰ Alarms: schedule seat searches at wall-clock times")
		log.Println("🔍 Debug: live WebSocket proxy into the search browser")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("\n⏳ Shutting down server gracefully...")

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped cleanly")
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitcoach/intake-bot/internal/api"
	"github.com/fitcoach/intake-bot/internal/config"
	"github.com/fitcoach/intake-bot/internal/flow"
	"github.com/fitcoach/intake-bot/internal/notify"
	"github.com/fitcoach/intake-bot/internal/repository/postgres"
	"github.com/fitcoach/intake-bot/internal/service"
	"github.com/fitcoach/intake-bot/internal/telegram"
	"github.com/fitcoach/intake-bot/internal/websocket"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Initialize repositories
	repos := postgres.NewRepositories(db)

	// Initialize services
	services := service.NewServices(repos, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize WebSocket hub for the operator live feed
	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Initialize the Telegram transport
	bot, err := telegram.NewBot(cfg, repos.User, repos.Attribution, services.Link)
	if err != nil {
		log.Fatalf("failed to initialize bot: %v", err)
	}

	// Operator notifications go out through the bot and mirror to the feed
	dispatcher := notify.NewDispatcher(repos.Submission, bot, cfg.OperatorChatIDs)
	dispatcher.SetFeed(hub)

	// Intake flow engine hands completed submissions to the dispatcher
	engine := flow.NewEngine(repos.Submission, services.Promo, dispatcher)
	bot.SetEngine(engine)

	// Catch-up sweep for submissions that never reached the operators
	go dispatcher.RunDaily(ctx, cfg.DigestHour, cfg.DigestMinute)

	go bot.Run(ctx)

	// Initialize router for the admin API
	router := api.NewRouter(services, repos, hub)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Admin API starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Stopped")
}

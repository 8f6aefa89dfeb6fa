package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/mroshb/receipt_bot/internal/config"
	"github.com/mroshb/receipt_bot/internal/database"
	"github.com/mroshb/receipt_bot/internal/handlers"
	"github.com/mroshb/receipt_bot/internal/middleware"
	"github.com/mroshb/receipt_bot/internal/repositories"
	"github.com/mroshb/receipt_bot/internal/server"
	"github.com/mroshb/receipt_bot/internal/services"
	"github.com/mroshb/receipt_bot/pkg/logger"
	"github.com/mroshb/receipt_bot/telegram"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.LogLevel, cfg.AppEnv == "development")
	defer logger.Sync()

	logger.Info("Starting receipt bot...", "policy", cfg.PricingPolicy, "locale", cfg.DisplayLocale, "page", cfg.ReceiptPage.Name)

	// Validate production security settings
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to open database", err)
	}

	// Run GORM auto-migration
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	repo := repositories.NewInvoiceRepository(db, []byte(cfg.AESKey))
	invoices := services.NewInvoiceService(repo, cfg.PricingPolicy).WithSuperAdmin(cfg.SuperAdminTgID)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerUser, cfg.RateLimitPerUser, time.Minute)
	defer limiter.Stop()

	srv := server.New(":"+cfg.AppPort, cfg.PublicBaseURL, cfg.JWTSecret, invoices, cfg.ReceiptOptions(), mux.MiddlewareFunc(limiter.Middleware))
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("Receipt server stopped", "error", err)
		}
	}()

	// Initialize and start Telegram bot
	handlerMgr := handlers.NewHandlerManager(cfg, invoices, srv, limiter)
	bot, err := telegram.InitBot(cfg, handlerMgr)
	if err != nil {
		logger.Fatal("Failed to initialize bot", err)
	}

	logger.Info("Bot started successfully", "env", cfg.AppEnv, "links", srv.Enabled())

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")
	bot.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Receipt server shutdown failed", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("Bot stopped")
}

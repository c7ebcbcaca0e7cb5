package main

import (
	"context"
	"fmt"
	"log"

	"github.com/YourPsychicArchitect/diligence-tracker/internal/common/database"
	commonHandlers "github.com/YourPsychicArchitect/diligence-tracker/internal/common/handlers"
	"github.com/YourPsychicArchitect/diligence-tracker/internal/common/health"
	"github.com/YourPsychicArchitect/diligence-tracker/internal/common/middleware"
	"github.com/YourPsychicArchitect/diligence-tracker/internal/sheets"
	"github.com/YourPsychicArchitect/diligence-tracker/internal/tracker/handlers"
	"github.com/YourPsychicArchitect/diligence-tracker/internal/tracker/models"
	"github.com/YourPsychicArchitect/diligence-tracker/internal/tracker/services"
	"github.com/YourPsychicArchitect/diligence-tracker/pkg/config"
	"github.com/YourPsychicArchitect/diligence-tracker/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database (SQLite for development, PostgreSQL for production)
	if err := database.InitWithType(cfg.Database.Type, cfg.Database.DSN); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	if err := database.DB.AutoMigrate(
		&models.Task{},
		&models.Entry{},
		&models.UserPreference{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Optional Google Sheets mirror for the raw-data link
	if cfg.Sheets.Enabled {
		mirror, err := sheets.New(context.Background(), cfg.Sheets.CredentialsFile, cfg.Sheets.AdminEmail)
		if err != nil {
			logger.Warn("sheets mirror unavailable, continuing without it", zap.Error(err))
		} else {
			services.SetMirror(mirror)
			logger.Info("sheets mirror enabled")
		}
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin engine
	router := gin.New()

	// Apply middleware
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.MetricsMiddleware())

	// Health check endpoints
	healthChecker := health.NewHealthChecker(database.GetDB(), version)
	healthHandler := commonHandlers.NewHealthHandler(healthChecker)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/readiness", healthHandler.Readiness)
	router.GET("/health/liveness", healthHandler.Liveness)
	router.GET("/health/detailed", healthHandler.Detailed)

	// Prometheus scrape endpoint
	router.GET("/metrics", middleware.MetricsHandler())

	// API routes
	api := router.Group("/api")
	{
		api.POST("/login", handlers.Login)

		api.GET("/tasks", handlers.GetTasks)
		api.POST("/update_task", handlers.UpdateTask)

		api.POST("/entry", handlers.AddEntry)
		api.GET("/entries", handlers.GetEntries)

		api.GET("/hourly_activity", handlers.GetHourlyActivity)
		api.GET("/statistics", handlers.GetStatistics)

		api.GET("/get_timezone", handlers.GetTimezone)
		api.POST("/set_timezone", handlers.SetTimezone)

		api.GET("/spreadsheet_url", handlers.GetSpreadsheetURL)
	}

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting diligence tracker server", zap.String("address", address))

	if err := router.Run(address); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

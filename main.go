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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/lab-digital-api/config"
	"github.com/kendall-kelly/lab-digital-api/controllers"
	"github.com/kendall-kelly/lab-digital-api/middleware"
	"github.com/kendall-kelly/lab-digital-api/models"
	"github.com/kendall-kelly/lab-digital-api/services"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting Lab Digital API server", zap.String("env", cfg.GoEnv), zap.String("env_file", cfg.EnvFile))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	taxonomy, err := loadTaxonomy(cfg)
	if err != nil {
		logger.Fatal("failed to load taxonomy", zap.String("file", cfg.TaxonomyFile), zap.Error(err))
	}

	db, err := config.ConnectDatabase(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	ctx := context.Background()
	store := services.InitJobStore(db, taxonomy, cfg.IdentifierFloor, logger)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to prepare job table", zap.Error(err))
	}
	services.InitIngestService(db, logger)

	var storage services.S3Interface
	if cfg.S3Enabled() {
		storage, err = services.InitS3Service(ctx, cfg)
		if err != nil {
			logger.Warn("report archiving disabled", zap.Error(err))
			storage = nil
		}
	}
	services.InitReportService(store, storage, cfg.ReportArchivePrefix, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
}

func loadTaxonomy(cfg *config.Config) (models.Taxonomy, error) {
	if cfg.TaxonomyFile == "" {
		return models.DefaultTaxonomy(), nil
	}
	return models.LoadTaxonomy(cfg.TaxonomyFile)
}

// newRouter builds the HTTP API. Services must be initialized first.
func newRouter(cfg *config.Config, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) == 0 || (len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	}
	corsConfig.AddExposeHeaders(middleware.RequestIDHeader, "Content-Disposition", "X-Store-Available")
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		controllers.RegisterRoutes(v1, cfg.IngestUploadEnabled)
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Lab Digital API is running",
	})
}

// databaseStatus checks database connectivity and reports the size of the job table
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Database is not configured",
			},
		})
		return
	}

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	jobs, err := services.GetJobStore().Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to count job records",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"dialect": db.Dialector.Name(),
		"jobs":    jobs,
	})
}

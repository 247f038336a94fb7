package main

import (
	"log"

	"pharmadb/agents"
	"pharmadb/ai"
	"pharmadb/cache"
	"pharmadb/config"
	"pharmadb/db"
	_ "pharmadb/docs" // Swagger docs
	"pharmadb/handlers"
	"pharmadb/metrics"
	"pharmadb/pipeline"
	"pharmadb/sanitize"
	"pharmadb/schema"
	"pharmadb/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.LogFormat == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zcfg.Build()
}

func main() {
	cfg := config.GetConfig()

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// History store
	database, err := db.New(cfg.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	// SQL Server service
	sqlService, err := service.NewSQLServerService(cfg.SQLServer, cfg.ResultsDir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize SQL Server service", zap.Error(err))
	}
	defer sqlService.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	schemaCache := schema.NewCache(sqlService, logger)
	completionCache := cache.New()
	aiClient := ai.New(cfg.Ollama, logger, m)

	sanitizeOpts := sanitize.Options{
		FuzzyCutoff: cfg.Sanitize.FuzzyCutoff,
		TopDefault:  cfg.Sanitize.TopDefault,
	}

	pipe := pipeline.New(aiClient, sqlService, schemaCache, completionCache, sanitizeOpts, logger, m)
	orchestrator := agents.New(aiClient, sqlService, schemaCache, pipe, sanitizeOpts, cfg.Agents, logger, m)

	h := handlers.New(cfg, database, sqlService, aiClient, pipe, orchestrator, logger, m)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"*"},
		AllowCredentials: false,
	}))

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Routes
	r.GET("/health", h.HealthHandler)
	r.GET("/api/llm/warmup", h.WarmupHandler)
	r.POST("/api/pattern", h.PatternHandler)
	r.POST("/api/generate", h.GenerateHandler)
	r.POST("/api/agents", h.AgentsHandler)
	r.POST("/api/run-sql", h.RunSQLHandler)
	r.GET("/api/presets", h.ListPresetsHandler)
	r.POST("/api/presets/run", h.RunPresetHandler)
	r.GET("/api/history", h.HistoryHandler)

	// Result file routes
	r.GET("/api/results/files", h.ListResultFilesHandler)
	r.GET("/api/results/file/:filename", h.GetResultFileHandler)

	logger.Info("Server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

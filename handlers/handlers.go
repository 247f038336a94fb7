package handlers

import (
	"go.uber.org/zap"

	"pharmadb/agents"
	"pharmadb/ai"
	"pharmadb/config"
	"pharmadb/db"
	"pharmadb/metrics"
	"pharmadb/models"
	"pharmadb/pipeline"
	"pharmadb/service"
)

// @title           Pharmacy SQL Q&A API
// @version         1.0
// @description     Answers natural-language business questions over the pharmacy database by generating, sanitizing and executing safe T-SQL SELECT statements.

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /

// @schemes   http https

type Handlers struct {
	cfg          config.Config
	db           *db.DB
	sqlService   *service.SQLServerService
	aiClient     *ai.Client
	pipeline     *pipeline.Pipeline
	orchestrator *agents.Orchestrator
	logger       *zap.Logger
	metrics      *metrics.Metrics
}

func New(cfg config.Config, database *db.DB, sqlService *service.SQLServerService, aiClient *ai.Client, pipe *pipeline.Pipeline, orchestrator *agents.Orchestrator, logger *zap.Logger, m *metrics.Metrics) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		cfg:          cfg,
		db:           database,
		sqlService:   sqlService,
		aiClient:     aiClient,
		pipeline:     pipe,
		orchestrator: orchestrator,
		logger:       logger,
		metrics:      m,
	}
}

// recordRun persists one answered question to the history store. Failures are
// logged, never surfaced.
func (h *Handlers) recordRun(route, question string, result *models.QueryResult) {
	if h.db == nil || result == nil {
		return
	}
	run := &models.QueryRun{
		Route:       route,
		Question:    question,
		SQL:         result.SQL,
		RowCount:    len(result.Rows),
		Model:       result.Model,
		TotalTokens: result.TotalTokens,
		DurationMS:  result.TotalMS,
	}
	if err := h.db.StoreQueryRun(run); err != nil {
		h.logger.Warn("failed to store query run", zap.Error(err))
	}
}

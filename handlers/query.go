package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pharmadb/models"
	"pharmadb/pattern"
	"pharmadb/pipeline"
	"pharmadb/sqlsafety"
)

var rxTopN = regexp.MustCompile(`(?i)\bTOP\s+(\d+)\b`)

// extractRequestedTop detects an explicit TOP N in the statement.
func extractRequestedTop(sql string) (int, bool) {
	m := rxTopN.FindStringSubmatch(sql)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// rowLimitFor honors the user's explicit TOP up to the hard cap, otherwise the
// preview limit applies.
func (h *Handlers) rowLimitFor(sql string) int {
	if asked, ok := extractRequestedTop(sql); ok {
		if asked > h.cfg.MaxReturnRows {
			return h.cfg.MaxReturnRows
		}
		return asked
	}
	return h.cfg.PreviewLimit
}

// PatternHandler answers via the deterministic pattern matcher, falling back
// to generation on a miss or a pattern execution error
// @Summary      Answer a question via pattern templates
// @Description  Tries the keyword-template matcher first; on a miss or an execution failure the question goes through the model pipeline instead.
// @Tags         Query
// @Accept       json
// @Produce      json
// @Param        request  body      models.QuestionRequest  true  "Natural-language question"
// @Success      200      {object}  models.QueryResponse    "Query result"
// @Failure      400      {object}  map[string]string       "Invalid request"
// @Failure      500      {object}  map[string]string       "Generation or execution error"
// @Router       /api/pattern [post]
func (h *Handlers) PatternHandler(c *gin.Context) {
	var req models.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	t0 := time.Now()
	sql, ok := pattern.Match(req.Question)
	if !ok {
		h.logger.Info("no pattern matched, falling back to generation",
			zap.String("question", req.Question))
		h.generateFallback(c, req.Question, "pattern→generate")
		return
	}

	safe, err := sqlsafety.EnforceSelectOnly(sql)
	if err != nil {
		h.generateFallback(c, req.Question, "pattern→generate")
		return
	}
	res, err := h.sqlService.ExecuteQuery(c.Request.Context(), safe)
	if err != nil {
		h.logger.Warn("pattern query failed, falling back to generation",
			zap.String("sql", safe), zap.Error(err))
		h.generateFallback(c, req.Question, "pattern→generate")
		return
	}

	result := &models.QueryResult{SQL: safe}
	result.Columns = res.Columns
	result.Rows = pipeline.RowsToMaps(res, h.rowLimitFor(safe))
	result.SummaryAr = pipeline.SummaryAr(len(result.Rows), res.Columns)
	result.TotalMS = time.Since(t0).Milliseconds()

	h.metrics.Request("pattern")
	h.recordRun("pattern", req.Question, result)
	c.JSON(http.StatusOK, models.QueryResponse{Route: "pattern", QueryResult: *result})
}

// generateFallback runs the single-shot pipeline under a non-pattern route
// label.
func (h *Handlers) generateFallback(c *gin.Context, question, route string) {
	result, err := h.pipeline.GenerateAndExecute(c.Request.Context(), question, h.cfg.PreviewLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SQL generation/execution error: " + err.Error()})
		return
	}
	h.metrics.Request(route)
	h.recordRun(route, question, result)
	c.JSON(http.StatusOK, models.QueryResponse{Route: route, QueryResult: *result})
}

// GenerateHandler answers via the single-shot model pipeline
// @Summary      Answer a question via the model pipeline
// @Description  One prompt, one extraction, sanitize, execute, and at most one guided repair round. Degrades to a deterministic products listing when the model is unreachable.
// @Tags         Query
// @Accept       json
// @Produce      json
// @Param        request  body      models.QuestionRequest  true  "Natural-language question"
// @Success      200      {object}  models.QueryResponse    "Query result"
// @Failure      400      {object}  map[string]string       "Invalid request"
// @Failure      500      {object}  map[string]string       "Generation or execution error"
// @Router       /api/generate [post]
func (h *Handlers) GenerateHandler(c *gin.Context) {
	var req models.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	h.generateFallback(c, req.Question, "generate")
}

// AgentsHandler answers via the staged Planner→Writer→Tester pipeline
// @Summary      Answer a question via the multi-step agent pipeline
// @Description  Planner, Writer and Tester model calls under a hard wall-clock deadline; any failure or deadline breach hands the question to the single-shot pipeline and sets via_fallback.
// @Tags         Query
// @Accept       json
// @Produce      json
// @Param        request  body      models.QuestionRequest  true  "Natural-language question"
// @Success      200      {object}  models.QueryResponse    "Query result"
// @Failure      400      {object}  map[string]string       "Invalid request"
// @Failure      500      {object}  map[string]string       "Agents route error"
// @Router       /api/agents [post]
func (h *Handlers) AgentsHandler(c *gin.Context) {
	var req models.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.orchestrator.Run(c.Request.Context(), req.Question, h.cfg.PreviewLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Agents route error: " + err.Error()})
		return
	}

	h.metrics.Request("agents")
	h.recordRun("agents", req.Question, result)
	c.JSON(http.StatusOK, models.QueryResponse{Route: "agents", QueryResult: *result})
}

// RunSQLHandler executes user-supplied SQL through the safety filter
// @Summary      Execute a raw T-SQL SELECT
// @Description  The statement passes through the same safety filter as generated SQL; anything but a single SELECT/CTE is rejected. Results can optionally be saved as JSON or CSV.
// @Tags         Query
// @Accept       json
// @Produce      json
// @Param        request  body      models.SQLRunRequest  true  "SQL to run"
// @Success      200      {object}  models.QueryResponse  "Query result"
// @Failure      400      {object}  map[string]string     "Invalid or unsafe SQL"
// @Failure      500      {object}  map[string]string     "Execution error"
// @Router       /api/run-sql [post]
func (h *Handlers) RunSQLHandler(c *gin.Context) {
	var req models.SQLRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	t0 := time.Now()
	safe, err := sqlsafety.EnforceSelectOnly(req.SQL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsafe or unparseable SQL: " + err.Error()})
		return
	}

	res, err := h.sqlService.ExecuteQuery(c.Request.Context(), safe)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Run-SQL error: " + err.Error()})
		return
	}

	if req.Save {
		h.saveResult(res, safe, req.Format)
	}

	result := &models.QueryResult{SQL: safe}
	result.Columns = res.Columns
	result.Rows = pipeline.RowsToMaps(res, h.rowLimitFor(safe))
	result.SummaryAr = pipeline.SummaryAr(len(result.Rows), res.Columns)
	result.TotalMS = time.Since(t0).Milliseconds()

	h.metrics.Request("manual-sql")
	h.recordRun("manual-sql", "", result)
	c.JSON(http.StatusOK, models.QueryResponse{Route: "manual-sql", QueryResult: *result})
}

func (h *Handlers) saveResult(res *models.SQLResult, sql, format string) {
	storage := h.sqlService.GetResultsStorage()
	var err error
	if format == "csv" {
		_, err = storage.SaveResultAsCSV(res, sql)
	} else {
		_, err = storage.SaveResultAsJSON(res, sql)
	}
	if err != nil {
		h.logger.Warn("failed to save result file", zap.Error(err))
	}
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pharmadb/ai"
)

// HealthHandler checks the health status of the service
// @Summary      Health check
// @Description  Probes the database with SELECT 1 and the model with a one-token completion.
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "Service health status"
// @Router       /health [get]
func (h *Handlers) HealthHandler(c *gin.Context) {
	dbOK := h.sqlService.Ping(c.Request.Context()) == nil

	llmOK := true
	llmErr := ""
	if _, err := h.aiClient.Ping(c.Request.Context()); err != nil {
		llmOK = false
		llmErr = err.Error()
	}

	status := "ok"
	if !dbOK {
		status = "db-failed"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"db":        h.cfg.SQLServer.Database,
		"llm_ok":    llmOK,
		"llm_error": llmErr,
	})
}

// WarmupHandler keeps the model loaded
// @Summary      Warm up the model
// @Description  Issues a one-token completion so the model is loaded and the keep-alive window restarts.
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "Warmup metrics"
// @Failure      500  {object}  map[string]string       "Warmup failed"
// @Router       /api/llm/warmup [get]
func (h *Handlers) WarmupHandler(c *gin.Context) {
	comp, err := h.aiClient.Generate(c.Request.Context(), "ping",
		ai.Options{NumPredict: 1, Timeout: 6 * time.Second})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "LLM warmup failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":          "warmed",
		"model":           comp.Model,
		"prompt_tokens":   comp.PromptTokens,
		"eval_tokens":     comp.EvalTokens,
		"llm_duration_ms": comp.DurationMS,
	})
}

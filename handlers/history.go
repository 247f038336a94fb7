package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// HistoryHandler lists recent query runs
// @Summary      Query run history
// @Description  Returns the most recent answered questions with their final SQL and timing, newest first.
// @Tags         History
// @Produce      json
// @Param        limit  query     int  false  "Maximum entries to return (default 50)"
// @Success      200    {object}  map[string]interface{}  "Recent runs"
// @Failure      500    {object}  map[string]string       "History read error"
// @Router       /api/history [get]
func (h *Handlers) HistoryHandler(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := h.db.RecentQueryRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

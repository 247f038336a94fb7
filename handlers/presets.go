package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pharmadb/models"
	"pharmadb/pipeline"
	"pharmadb/presets"
	"pharmadb/sqlsafety"
)

// ListPresetsHandler lists the curated report queries
// @Summary      List preset reports
// @Description  Returns the curated, pre-verified analytics queries with their Arabic labels.
// @Tags         Presets
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "Preset catalogue"
// @Router       /api/presets [get]
func (h *Handlers) ListPresetsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": presets.All()})
}

// RunPresetHandler executes one preset report
// @Summary      Run a preset report
// @Description  Runs the named curated query through the safety filter and returns the trimmed result.
// @Tags         Presets
// @Produce      json
// @Param        name  query     string  true  "Preset name (Arabic label)"
// @Success      200   {object}  models.PresetRunResponse  "Query result"
// @Failure      404   {object}  map[string]string         "Preset not found"
// @Failure      500   {object}  map[string]string         "Preset run error"
// @Router       /api/presets/run [post]
func (h *Handlers) RunPresetHandler(c *gin.Context) {
	name := c.Query("name")
	preset, ok := presets.Find(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Preset not found."})
		return
	}

	t0 := time.Now()
	safe, err := sqlsafety.EnforceSelectOnly(preset.SQL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Preset run error: " + err.Error()})
		return
	}
	res, err := h.sqlService.ExecuteQuery(c.Request.Context(), safe)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Preset run error: " + err.Error()})
		return
	}

	result := &models.QueryResult{SQL: safe}
	result.Columns = res.Columns
	result.Rows = pipeline.RowsToMaps(res, h.rowLimitFor(safe))
	result.SummaryAr = pipeline.SummaryAr(len(result.Rows), res.Columns)
	result.TotalMS = time.Since(t0).Milliseconds()

	h.metrics.Request("preset")
	h.recordRun("preset", name, result)
	c.JSON(http.StatusOK, models.PresetRunResponse{
		PresetName:    name,
		QueryResponse: models.QueryResponse{Route: "preset", QueryResult: *result},
	})
}

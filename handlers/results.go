package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListResultFilesHandler lists saved result files
// @Summary      List saved result files
// @Description  Returns every saved JSON/CSV result file with size and modification time.
// @Tags         Results
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "Result files"
// @Failure      500  {object}  map[string]string       "Listing error"
// @Router       /api/results/files [get]
func (h *Handlers) ListResultFilesHandler(c *gin.Context) {
	files, err := h.sqlService.GetResultsStorage().ListResultFiles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list result files"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "count": len(files)})
}

// GetResultFileHandler returns one saved result file
// @Summary      Get a saved result file
// @Description  Reads a previously saved JSON or CSV result back as structured rows.
// @Tags         Results
// @Produce      json
// @Param        filename  path      string  true  "Result filename"
// @Success      200       {object}  models.ResultFile  "Saved result"
// @Failure      404       {object}  map[string]string  "File not found"
// @Router       /api/results/file/{filename} [get]
func (h *Handlers) GetResultFileHandler(c *gin.Context) {
	filename := c.Param("filename")
	file, err := h.sqlService.GetResultsStorage().GetResultFile(filename)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Result file not found: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, file)
}

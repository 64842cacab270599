package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ocrdesk/internal/csvexport"
	"ocrdesk/internal/service"
)

// ExportHandler handles CSV export endpoints.
type ExportHandler struct {
	stagingService service.StagingService
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(stagingService service.StagingService) *ExportHandler {
	return &ExportHandler{stagingService: stagingService}
}

// ExportCSV handles GET /api/v1/imports/export
// @Summary Export staging records as CSV
// @Description Streams the filtered staging records as a CSV download
// @Tags imports
// @Produce text/csv
// @Param status query string false "Filter by status"
// @Param supplier_id query string false "Filter by resolved supplier"
// @Param from query string false "Invoice date lower bound (YYYY-MM-DD)"
// @Param to query string false "Invoice date upper bound (YYYY-MM-DD)"
// @Success 200 {string} string "CSV file"
// @Security BearerAuth
// @Router /imports/export [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	filters, err := parseListFilters(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	// Export ignores pagination; cap at a single large page.
	filters.Offset = 0
	filters.Limit = 10000

	records, _, err := h.stagingService.List(c.Request.Context(), filters)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := csvexport.BuildFilename("invoice_imports")
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if _, err := c.Writer.Write(csvexport.BOM); err != nil {
		return
	}
	w := csvexport.NewWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		return
	}
	if err := w.WriteRecords(records); err != nil {
		return
	}
	w.Flush()
}

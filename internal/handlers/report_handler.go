package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigbridge/marketplace-service/internal/services"
	"github.com/gigbridge/marketplace-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	BaseHandler
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService, logger utils.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler:   NewBaseHandler(logger),
		reportService: reportService,
	}
}

// ExportProposals streams an xlsx report of a job's proposals (owner only)
func (h *ReportHandler) ExportProposals(c *gin.Context) {
	jobID := h.parseIDParam(c, "job_id")
	if jobID == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting proposals", "job_id", jobID)

	data, filename, err := h.reportService.ExportProposals(c.Request.Context(), jobID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

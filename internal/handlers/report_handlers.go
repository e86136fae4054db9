package handlers

import (
	"errors"
	"net/http"

	"barbershop_backend/internal/models"
	"barbershop_backend/internal/services"
	"barbershop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves the admin loyalty reports.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// GetLoyaltySummary returns client counts per status and lifetime counters.
func (h *ReportHandler) GetLoyaltySummary(c *gin.Context) {
	summary, err := h.reportService.LoyaltySummary(c.Request.Context())
	if err != nil {
		utils.LogError(err, "GetLoyaltySummary: Error from reportService")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build loyalty summary.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetRewardPopularity counts redemptions per reward for a date range.
func (h *ReportHandler) GetRewardPopularity(c *gin.Context) {
	var params models.ReportRequestParams
	if err := c.ShouldBindQuery(&params); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	items, err := h.reportService.RewardPopularity(c.Request.Context(), params)
	if err != nil {
		utils.LogError(err, "GetRewardPopularity: Error from reportService")
		if errors.Is(err, services.ErrReportParams) {
			utils.RespondValidationFailed(c, err.Error())
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build reward popularity report.", "Internal error"))
		}
		return
	}
	if items == nil {
		items = []models.RewardPopularityItem{}
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "start_date": params.StartDate, "end_date": params.EndDate})
}

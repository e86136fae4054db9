package handlers

import (
	"net/http"

	"barbershop_backend/internal/services"
	"barbershop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type selectRewardRequest struct {
	RewardID int64 `json:"reward_id" binding:"required"`
}

// LoyaltyHandler serves a client's progress view and reward goal.
type LoyaltyHandler struct {
	loyaltyService services.LoyaltyService
}

// NewLoyaltyHandler creates a new LoyaltyHandler.
func NewLoyaltyHandler(ls services.LoyaltyService) *LoyaltyHandler {
	return &LoyaltyHandler{loyaltyService: ls}
}

// GetProgress returns visits, the selected reward and how close the client is to it.
func (h *LoyaltyHandler) GetProgress(c *gin.Context) {
	clientID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.loyaltyService.GetProgress(c.Request.Context(), clientID)
	if err != nil {
		respondLoyaltyError(c, err, "GetProgress", "Failed to compute loyalty progress.")
		return
	}
	c.JSON(http.StatusOK, view)
}

// SelectReward sets the client's reward goal.
func (h *LoyaltyHandler) SelectReward(c *gin.Context) {
	clientID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req selectRewardRequest
	if !bindJSON(c, "SelectReward", &req) {
		return
	}
	view, err := h.loyaltyService.SelectReward(c.Request.Context(), clientID, req.RewardID)
	if err != nil {
		respondLoyaltyError(c, err, "SelectReward", "Failed to select reward.")
		return
	}
	c.JSON(http.StatusOK, view)
}

// ClearReward removes the client's reward goal. Visit counts are kept.
func (h *LoyaltyHandler) ClearReward(c *gin.Context) {
	clientID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.loyaltyService.ClearReward(c.Request.Context(), clientID)
	if err != nil {
		respondLoyaltyError(c, err, "ClearReward", "Failed to clear reward.")
		return
	}
	c.JSON(http.StatusOK, view)
}

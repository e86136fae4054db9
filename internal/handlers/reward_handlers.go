package handlers

import (
	"net/http"

	"barbershop_backend/internal/services"
	"barbershop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RewardHandler serves the reward catalog.
type RewardHandler struct {
	rewardService services.RewardService
}

// NewRewardHandler creates a new RewardHandler.
func NewRewardHandler(rs services.RewardService) *RewardHandler {
	return &RewardHandler{rewardService: rs}
}

// GetActiveRewards lists rewards clients can currently pick as a goal.
func (h *RewardHandler) GetActiveRewards(c *gin.Context) {
	rewards, err := h.rewardService.ActiveRewardsApplicableTo(c.Request.Context(), 0)
	if err != nil {
		respondLoyaltyError(c, err, "GetActiveRewards", "Failed to fetch rewards.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rewards, "total": len(rewards)})
}

// GetRewards lists the catalog. include_inactive=true adds retired rewards.
func (h *RewardHandler) GetRewards(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"
	rewards, err := h.rewardService.ListRewards(c.Request.Context(), includeInactive)
	if err != nil {
		respondLoyaltyError(c, err, "GetRewards", "Failed to fetch rewards.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rewards, "total": len(rewards)})
}

// GetRewardByID returns one reward.
func (h *RewardHandler) GetRewardByID(c *gin.Context) {
	rewardID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}
	reward, err := h.rewardService.GetRewardByID(c.Request.Context(), rewardID)
	if err != nil {
		respondLoyaltyError(c, err, "GetRewardByID", "Failed to fetch reward.")
		return
	}
	c.JSON(http.StatusOK, reward)
}

// CreateReward adds a reward to the catalog.
func (h *RewardHandler) CreateReward(c *gin.Context) {
	var req services.RewardRequest
	if !bindJSON(c, "CreateReward", &req) {
		return
	}
	reward, err := h.rewardService.CreateReward(c.Request.Context(), req)
	if err != nil {
		respondLoyaltyError(c, err, "CreateReward", "Failed to create reward.")
		return
	}
	c.JSON(http.StatusCreated, reward)
}

// UpdateReward replaces a reward definition. Visits keep their redemption snapshot.
func (h *RewardHandler) UpdateReward(c *gin.Context) {
	rewardID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.RewardRequest
	if !bindJSON(c, "UpdateReward", &req) {
		return
	}
	reward, err := h.rewardService.UpdateReward(c.Request.Context(), rewardID, req)
	if err != nil {
		respondLoyaltyError(c, err, "UpdateReward", "Failed to update reward.")
		return
	}
	c.JSON(http.StatusOK, reward)
}

// DeactivateReward retires a reward without deleting it.
func (h *RewardHandler) DeactivateReward(c *gin.Context) {
	rewardID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.rewardService.DeactivateReward(c.Request.Context(), rewardID); err != nil {
		respondLoyaltyError(c, err, "DeactivateReward", "Failed to deactivate reward.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reward deactivated"})
}

// DeleteReward removes an unused reward, or deactivates one that history references.
func (h *RewardHandler) DeleteReward(c *gin.Context) {
	rewardID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}
	deleted, err := h.rewardService.DeleteReward(c.Request.Context(), rewardID)
	if err != nil {
		respondLoyaltyError(c, err, "DeleteReward", "Failed to delete reward.")
		return
	}
	if !deleted {
		c.JSON(http.StatusOK, gin.H{"message": "Reward is referenced by visits or goals and was deactivated instead", "deleted": false})
		return
	}
	c.Status(http.StatusNoContent)
}

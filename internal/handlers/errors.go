package handlers

import (
	"errors"
	"net/http"

	"barbershop_backend/internal/loyalty"
	"barbershop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// loyaltyAPIError maps an engine error kind to its HTTP response. The UI tells "not yet eligible"
// (422 NOT_ELIGIBLE with visits_remaining) apart from "eligible but blocked" (limit, expiry) and from
// failures it may retry (409 CONFLICT, 500).
func loyaltyAPIError(err error, fallback string) *utils.APIError {
	var lerr *loyalty.Error
	details := err.Error()
	if errors.As(err, &lerr) {
		details = lerr.Message
	}

	switch {
	case errors.Is(err, loyalty.ErrValidation):
		return utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed.", details)
	case errors.Is(err, loyalty.ErrNotFound):
		return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Not found.", details)
	case errors.Is(err, loyalty.ErrIneligible):
		apiErr := utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeNotEligible, "Client is not eligible for this reward yet.", details)
		if lerr != nil && lerr.VisitsRemaining > 0 {
			remaining := lerr.VisitsRemaining
			apiErr.VisitsRemaining = &remaining
		}
		return apiErr
	case errors.Is(err, loyalty.ErrRedemptionLimitExceeded):
		return utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeRedemptionLimitExceeded, "Redemption limit reached for this reward.", details)
	case errors.Is(err, loyalty.ErrExpired):
		return utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeRewardExpired, "Reward redemption window has expired.", details)
	case errors.Is(err, loyalty.ErrConflict):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "The client was updated concurrently, please retry.", details)
	default:
		return utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error")
	}
}

// respondLoyaltyError logs and writes the mapped error. Client errors log at warn level.
func respondLoyaltyError(c *gin.Context, err error, op, fallback string) {
	apiErr := loyaltyAPIError(err, fallback)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		utils.LogError(err, op+": unexpected error")
	} else {
		utils.LogWarn(op+": request rejected", map[string]interface{}{"code": apiErr.Code, "details": apiErr.Details})
	}
	utils.RespondWithError(c, apiErr)
}

func bindJSON(c *gin.Context, op string, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.LogError(err, op+": Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return false
	}
	return true
}

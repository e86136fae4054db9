package handlers

import (
	"net/http"
	"time"

	"barbershop_backend/internal/models"
	"barbershop_backend/internal/services"
	"barbershop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// VisitHandler exposes the visit ledger.
type VisitHandler struct {
	visitService services.VisitService
}

// NewVisitHandler creates a new VisitHandler.
func NewVisitHandler(vs services.VisitService) *VisitHandler {
	return &VisitHandler{visitService: vs}
}

// RecordVisit records a completed visit, optionally redeeming a reward in the same transaction.
func (h *VisitHandler) RecordVisit(c *gin.Context) {
	var req services.RecordVisitRequest
	if !bindJSON(c, "RecordVisit", &req) {
		return
	}

	visit, err := h.visitService.RecordVisit(c.Request.Context(), req)
	if err != nil {
		respondLoyaltyError(c, err, "RecordVisit", "Failed to record visit.")
		return
	}
	utils.LogInfo("Visit recorded", map[string]interface{}{
		"visit_id":  visit.ID,
		"client_id": visit.ClientID,
		"redeemed":  visit.RewardRedeemed != nil,
	})
	c.JSON(http.StatusCreated, visit)
}

// GetVisitByID returns a single visit with its service lines.
func (h *VisitHandler) GetVisitByID(c *gin.Context) {
	visitID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}
	visit, err := h.visitService.GetVisitByID(c.Request.Context(), visitID)
	if err != nil {
		respondLoyaltyError(c, err, "GetVisitByID", "Failed to fetch visit.")
		return
	}
	c.JSON(http.StatusOK, visit)
}

// GetClientVisits lists a client's visits after the optional since timestamp, oldest first.
func (h *VisitHandler) GetClientVisits(c *gin.Context) {
	clientID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}
	since, err := utils.ParseTimeQuery(c, "since")
	if err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	if since.IsZero() {
		since = time.Unix(0, 0).UTC()
	}

	seq, err := h.visitService.VisitsSince(c.Request.Context(), clientID, since)
	if err != nil {
		respondLoyaltyError(c, err, "GetClientVisits", "Failed to fetch visits.")
		return
	}
	visits := make([]models.Visit, 0)
	for v, err := range seq {
		if err != nil {
			respondLoyaltyError(c, err, "GetClientVisits", "Failed to fetch visits.")
			return
		}
		visits = append(visits, v)
	}
	c.JSON(http.StatusOK, gin.H{"data": visits, "total": len(visits)})
}

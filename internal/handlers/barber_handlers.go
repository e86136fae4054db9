package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"barbershop_backend/internal/models"
	"barbershop_backend/internal/services"
	"barbershop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// BarberHandler holds the barber service.
type BarberHandler struct {
	barberService services.BarberService
}

// NewBarberHandler creates a new BarberHandler.
func NewBarberHandler(bs services.BarberService) *BarberHandler {
	return &BarberHandler{barberService: bs}
}

func respondBarberError(c *gin.Context, err error, op, fallback string) {
	utils.LogError(err, op+": Error from barberService")
	if errors.Is(err, services.ErrBarberNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Barber not found.", err.Error()))
	} else if errors.Is(err, services.ErrUserForBarberNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "User specified for barber not found.", err.Error()))
	} else if errors.Is(err, services.ErrBarberUserConflict) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "User ID is already linked to another barber.", err.Error()))
	} else if errors.Is(err, services.ErrHireDateFormat) || errors.Is(err, services.ErrBarberValidation) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
	} else {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error"))
	}
}

// CreateBarber handles the creation of a new barber.
func (h *BarberHandler) CreateBarber(c *gin.Context) {
	var req services.CreateBarberRequest
	if !bindJSON(c, "CreateBarber", &req) {
		return
	}

	barber, err := h.barberService.CreateBarber(c.Request.Context(), req)
	if err != nil {
		respondBarberError(c, err, "CreateBarber", "Failed to create barber.")
		return
	}
	c.JSON(http.StatusCreated, barber)
}

// GetBarbers handles fetching barbers with pagination and search.
func (h *BarberHandler) GetBarbers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	var search *string
	if term := c.Query("search"); term != "" {
		search = &term
	}

	barbers, totalCount, err := h.barberService.GetBarbers(c.Request.Context(), page, pageSize, search)
	if err != nil {
		respondBarberError(c, err, "GetBarbers", "Failed to fetch barbers.")
		return
	}
	if barbers == nil {
		barbers = []models.Barber{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      barbers,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetBarberByID handles fetching a single barber.
func (h *BarberHandler) GetBarberByID(c *gin.Context) {
	barberID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}
	barber, err := h.barberService.GetBarberByID(c.Request.Context(), barberID)
	if err != nil {
		respondBarberError(c, err, "GetBarberByID", "Failed to fetch barber.")
		return
	}
	c.JSON(http.StatusOK, barber)
}

// GetMyBarberProfile returns the barber linked to the authenticated user.
func (h *BarberHandler) GetMyBarberProfile(c *gin.Context) {
	userID := c.GetInt64("userID")
	if userID == 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return
	}
	barber, err := h.barberService.GetBarberByUserID(c.Request.Context(), userID)
	if err != nil {
		respondBarberError(c, err, "GetMyBarberProfile", "Failed to fetch barber profile.")
		return
	}
	c.JSON(http.StatusOK, barber)
}

// UpdateBarber handles updating a barber, including deactivation.
func (h *BarberHandler) UpdateBarber(c *gin.Context) {
	barberID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateBarberRequest
	if !bindJSON(c, "UpdateBarber", &req) {
		return
	}
	barber, err := h.barberService.UpdateBarber(c.Request.Context(), barberID, req)
	if err != nil {
		respondBarberError(c, err, "UpdateBarber", "Failed to update barber.")
		return
	}
	c.JSON(http.StatusOK, barber)
}

package handlers

import (
	"errors"
	"net/http"

	"barbershop_backend/internal/services"
	"barbershop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// MenuHandler serves the shop's service menu.
type MenuHandler struct {
	menuService services.MenuService
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(ms services.MenuService) *MenuHandler {
	return &MenuHandler{menuService: ms}
}

func respondMenuError(c *gin.Context, err error, op, fallback string) {
	utils.LogError(err, op+": Error from menuService")
	if errors.Is(err, services.ErrMenuServiceNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Service not found.", err.Error()))
	} else if errors.Is(err, services.ErrMenuServiceExists) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Service name already exists.", err.Error()))
	} else if errors.Is(err, services.ErrMenuValidation) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
	} else {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error"))
	}
}

// CreateService adds a service to the menu.
func (h *MenuHandler) CreateService(c *gin.Context) {
	var req services.CreateMenuServiceRequest
	if !bindJSON(c, "CreateService", &req) {
		return
	}
	svc, err := h.menuService.CreateService(c.Request.Context(), req)
	if err != nil {
		respondMenuError(c, err, "CreateService", "Failed to create service.")
		return
	}
	c.JSON(http.StatusCreated, svc)
}

// GetServices lists the menu. include_inactive=true adds retired services.
func (h *MenuHandler) GetServices(c *gin.Context) {
	activeOnly := c.Query("include_inactive") != "true"
	list, err := h.menuService.GetServices(c.Request.Context(), activeOnly)
	if err != nil {
		respondMenuError(c, err, "GetServices", "Failed to fetch services.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": len(list)})
}

// GetServiceByID returns one menu entry.
func (h *MenuHandler) GetServiceByID(c *gin.Context) {
	id, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}
	svc, err := h.menuService.GetServiceByID(c.Request.Context(), id)
	if err != nil {
		respondMenuError(c, err, "GetServiceByID", "Failed to fetch service.")
		return
	}
	c.JSON(http.StatusOK, svc)
}

// UpdateService changes a menu entry.
func (h *MenuHandler) UpdateService(c *gin.Context) {
	id, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateMenuServiceRequest
	if !bindJSON(c, "UpdateService", &req) {
		return
	}
	svc, err := h.menuService.UpdateService(c.Request.Context(), id, req)
	if err != nil {
		respondMenuError(c, err, "UpdateService", "Failed to update service.")
		return
	}
	c.JSON(http.StatusOK, svc)
}

// DeactivateService retires a menu entry. Past visits keep referencing it.
func (h *MenuHandler) DeactivateService(c *gin.Context) {
	id, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}
	svc, err := h.menuService.SetServiceActive(c.Request.Context(), id, false)
	if err != nil {
		respondMenuError(c, err, "DeactivateService", "Failed to deactivate service.")
		return
	}
	c.JSON(http.StatusOK, svc)
}

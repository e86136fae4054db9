package handlers

import (
	"errors"
	"net/http"

	"barbershop_backend/internal/services"
	"barbershop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ClientHandler holds the client service.
type ClientHandler struct {
	clientService services.ClientService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(cs services.ClientService) *ClientHandler {
	return &ClientHandler{clientService: cs}
}

func respondClientError(c *gin.Context, err error, op, fallback string) {
	utils.LogError(err, op+": Error from clientService")
	if errors.Is(err, services.ErrClientNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Client not found.", err.Error()))
	} else if errors.Is(err, services.ErrPhoneNumberExists) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Phone number already exists.", err.Error()))
	} else if errors.Is(err, services.ErrClientValidation) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
	} else {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error"))
	}
}

// CreateClient handles the creation of a new client.
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req services.CreateClientRequest
	if !bindJSON(c, "CreateClient", &req) {
		return
	}

	client, err := h.clientService.CreateClient(c.Request.Context(), req)
	if err != nil {
		respondClientError(c, err, "CreateClient", "Failed to create client.")
		return
	}
	c.JSON(http.StatusCreated, client)
}

// GetClients handles fetching clients with pagination, search and a loyalty status filter.
func (h *ClientHandler) GetClients(c *gin.Context) {
	var req services.ListClientsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	clients, totalCount, err := h.clientService.GetClients(c.Request.Context(), req)
	if err != nil {
		respondClientError(c, err, "GetClients", "Failed to fetch clients.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      clients,
		"total":     totalCount,
		"page":      req.Page,
		"page_size": req.PageSize,
	})
}

// GetClientByID handles fetching a single client by ID.
func (h *ClientHandler) GetClientByID(c *gin.Context) {
	clientID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}

	client, err := h.clientService.GetClientByID(c.Request.Context(), clientID)
	if err != nil {
		respondClientError(c, err, "GetClientByID", "Failed to fetch client.")
		return
	}
	c.JSON(http.StatusOK, client)
}

// UpdateClient handles updating a client's profile.
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	clientID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateClientRequest
	if !bindJSON(c, "UpdateClient", &req) {
		return
	}

	client, err := h.clientService.UpdateClient(c.Request.Context(), clientID, req)
	if err != nil {
		respondClientError(c, err, "UpdateClient", "Failed to update client.")
		return
	}
	c.JSON(http.StatusOK, client)
}

// DeactivateClient soft-deactivates a client account.
func (h *ClientHandler) DeactivateClient(c *gin.Context) {
	h.setActive(c, false)
}

// ReactivateClient reopens a deactivated client account.
func (h *ClientHandler) ReactivateClient(c *gin.Context) {
	h.setActive(c, true)
}

func (h *ClientHandler) setActive(c *gin.Context, active bool) {
	clientID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		return
	}
	client, err := h.clientService.SetClientActive(c.Request.Context(), clientID, active)
	if err != nil {
		respondClientError(c, err, "SetClientActive", "Failed to change client account state.")
		return
	}
	c.JSON(http.StatusOK, client)
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"drainflow/internal/domain"
	"drainflow/internal/repository"
	"drainflow/internal/service"
)

// OperatorHandler handles HTTP requests for operators.
type OperatorHandler struct {
	operatorService *service.OperatorService
	operatorRepo    repository.OperatorRepository
}

// NewOperatorHandler creates a new OperatorHandler.
func NewOperatorHandler(operatorService *service.OperatorService, operatorRepo repository.OperatorRepository) *OperatorHandler {
	return &OperatorHandler{
		operatorService: operatorService,
		operatorRepo:    operatorRepo,
	}
}

// RegisterOperatorRequest is the HTTP request body for operator registration.
type RegisterOperatorRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	VehicleClass string `json:"vehicle_class"` // JETTER_VAN, SUCTION_TRUCK
}

// OperatorResponse is the HTTP response for operator data.
type OperatorResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Status       string `json:"status"`
	VehicleClass string `json:"vehicle_class"`
}

func toOperatorResponse(operator *domain.Operator) OperatorResponse {
	return OperatorResponse{
		ID:           operator.ID,
		Name:         operator.Name,
		Phone:        operator.Phone,
		Status:       string(operator.Status),
		VehicleClass: string(operator.VehicleClass),
	}
}

// Register handles POST /v1/operators/register
func (h *OperatorHandler) Register(c *gin.Context) {
	var req RegisterOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Name == "" || req.Phone == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name and phone are required"})
		return
	}

	vehicleClass := domain.VehicleClass(req.VehicleClass)
	if vehicleClass != domain.VehicleClassJetterVan && vehicleClass != domain.VehicleClassSuctionTruck {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid vehicle class"})
		return
	}

	// Check if operator already exists
	existing, err := h.operatorRepo.GetByPhone(c.Request.Context(), req.Phone)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{
			"message":  "Operator already registered",
			"operator": toOperatorResponse(existing),
		})
		return
	}

	operator, err := h.operatorService.Register(c.Request.Context(), service.RegisterOperatorRequest{
		Name:         req.Name,
		Phone:        req.Phone,
		VehicleClass: vehicleClass,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toOperatorResponse(operator))
}

// GetOperator handles GET /v1/operators/:id
func (h *OperatorHandler) GetOperator(c *gin.Context) {
	operator, err := h.operatorService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toOperatorResponse(operator))
}

// UpdateLocationRequest is the HTTP request body for a location update.
type UpdateLocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UpdateLocation handles POST /v1/operators/:id/location
func (h *OperatorHandler) UpdateLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.operatorService.UpdateLocation(c.Request.Context(), service.UpdateLocationRequest{
		OperatorID: c.Param("id"),
		Location:   domain.Coordinate{Lat: req.Lat, Lng: req.Lng},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": string(domain.OperatorStatusOnline)})
}

// SetOffline handles POST /v1/operators/:id/offline
func (h *OperatorHandler) SetOffline(c *gin.Context) {
	if err := h.operatorService.SetOffline(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"status": string(domain.OperatorStatusOffline)})
}

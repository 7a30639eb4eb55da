package handler

import (
	"github.com/dealerdesk/backend/internal/application/inventory"
	"github.com/dealerdesk/backend/internal/interfaces/http/dto"
	"github.com/dealerdesk/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// VehicleHandler handles vehicle endpoints
type VehicleHandler struct {
	BaseHandler
	vehicleService *inventory.VehicleService
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(vehicleService *inventory.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

// Receive handles POST /api/v1/vehicles
func (h *VehicleHandler) Receive(c *gin.Context) {
	var req inventory.ReceiveVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	vehicle, err := h.vehicleService.Receive(
		c.Request.Context(), middleware.GetDealershipUUID(c), req, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, vehicle)
}

// Get handles GET /api/v1/vehicles/:id
func (h *VehicleHandler) Get(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	vehicle, err := h.vehicleService.Get(c.Request.Context(), middleware.GetDealershipUUID(c), uri.UUID())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, vehicle)
}

// List handles GET /api/v1/vehicles
func (h *VehicleHandler) List(c *gin.Context) {
	var req inventory.ListVehiclesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	vehicles, err := h.vehicleService.List(c.Request.Context(), middleware.GetDealershipUUID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, vehicles)
}

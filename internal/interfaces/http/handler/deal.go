package handler

import (
	"github.com/dealerdesk/backend/internal/application/desking"
	"github.com/dealerdesk/backend/internal/interfaces/http/dto"
	"github.com/dealerdesk/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// DealHandler handles deal endpoints
type DealHandler struct {
	BaseHandler
	dealService *desking.DealService
}

// NewDealHandler creates a new deal handler
func NewDealHandler(dealService *desking.DealService) *DealHandler {
	return &DealHandler{dealService: dealService}
}

// Create handles POST /api/v1/deals
func (h *DealHandler) Create(c *gin.Context) {
	var req desking.CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	deal, err := h.dealService.Create(c.Request.Context(), middleware.GetDealershipUUID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, deal)
}

// Get handles GET /api/v1/deals/:id
func (h *DealHandler) Get(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	deal, err := h.dealService.Get(c.Request.Context(), middleware.GetDealershipUUID(c), uri.UUID())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, deal)
}

// List handles GET /api/v1/deals
func (h *DealHandler) List(c *gin.Context) {
	var req desking.ListDealsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	page, err := h.dealService.List(c.Request.Context(), middleware.GetDealershipUUID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListScenarios handles GET /api/v1/deals/:id/scenarios
func (h *DealHandler) ListScenarios(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	scenarios, err := h.dealService.ListScenarios(c.Request.Context(), middleware.GetDealershipUUID(c), uri.UUID())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, scenarios)
}

// AttachCustomer handles POST /api/v1/deals/:id/customer
func (h *DealHandler) AttachCustomer(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	var req desking.AttachCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	deal, err := h.dealService.AttachCustomer(
		c.Request.Context(), middleware.GetDealershipUUID(c), uri.UUID(), req, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, deal)
}

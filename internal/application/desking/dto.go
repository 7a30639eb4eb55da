package desking

import (
	"time"

	"github.com/dealerdesk/backend/internal/domain/desking"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateDealRequest represents a request to create a deal. CustomerID and
// CustomerData are mutually exclusive; both may be absent for a blank desk.
type CreateDealRequest struct {
	SalespersonID uuid.UUID            `json:"salesperson_id" binding:"required"`
	VehicleID     *uuid.UUID           `json:"vehicle_id"`
	CustomerID    *uuid.UUID           `json:"customer_id"`
	CustomerData  *CustomerDataRequest `json:"customer_data"`
}

// CustomerDataRequest carries inline customer details for creation inside the
// deal transaction
type CustomerDataRequest struct {
	FirstName string `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string `json:"last_name" binding:"required,min=1,max=100"`
	Email     string `json:"email" binding:"omitempty,email,max=200"`
	Phone     string `json:"phone" binding:"omitempty,max=50"`
}

// AttachCustomerRequest represents a request to attach a customer to a deal
type AttachCustomerRequest struct {
	CustomerID uuid.UUID `json:"customer_id" binding:"required"`
}

// ListDealsRequest carries filter and pagination parameters
type ListDealsRequest struct {
	Status        string `form:"status" binding:"omitempty,oneof=draft open"`
	SalespersonID string `form:"salesperson_id" binding:"omitempty,uuid"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string `form:"order_by"`
	OrderDir      string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// DealResponse is the API shape of a deal
type DealResponse struct {
	ID               uuid.UUID  `json:"id"`
	DealershipID     uuid.UUID  `json:"dealership_id"`
	SalespersonID    uuid.UUID  `json:"salesperson_id"`
	CustomerID       *uuid.UUID `json:"customer_id,omitempty"`
	VehicleID        *uuid.UUID `json:"vehicle_id,omitempty"`
	DealNumber       *string    `json:"deal_number,omitempty"`
	ActiveScenarioID *uuid.UUID `json:"active_scenario_id,omitempty"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ScenarioResponse is the API shape of a deal scenario
type ScenarioResponse struct {
	ID           uuid.UUID       `json:"id"`
	DealID       uuid.UUID       `json:"deal_id"`
	Name         string          `json:"name"`
	IsDefault    bool            `json:"is_default"`
	VehiclePrice decimal.Decimal `json:"vehicle_price"`
	TaxTotal     decimal.Decimal `json:"tax_total"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ToDealResponse converts a domain deal to its API shape
func ToDealResponse(d *desking.Deal) *DealResponse {
	return &DealResponse{
		ID:               d.ID,
		DealershipID:     d.DealershipID,
		SalespersonID:    d.SalespersonID,
		CustomerID:       d.CustomerID,
		VehicleID:        d.VehicleID,
		DealNumber:       d.DealNumber,
		ActiveScenarioID: d.ActiveScenarioID,
		Status:           string(d.Status),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// ToScenarioResponse converts a domain scenario to its API shape
func ToScenarioResponse(s *desking.DealScenario) *ScenarioResponse {
	return &ScenarioResponse{
		ID:           s.ID,
		DealID:       s.DealID,
		Name:         s.Name,
		IsDefault:    s.IsDefault,
		VehiclePrice: s.VehiclePrice,
		TaxTotal:     s.TaxTotal,
		TotalPrice:   s.TotalPrice,
		CreatedAt:    s.CreatedAt,
	}
}

package inventory

import (
	"time"

	"github.com/dealerdesk/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiveVehicleRequest represents a request to receive a vehicle into stock
type ReceiveVehicleRequest struct {
	VIN   string          `json:"vin" binding:"required,len=17"`
	Make  string          `json:"make" binding:"required,max=100"`
	Model string          `json:"model" binding:"required,max=100"`
	Year  int             `json:"year" binding:"required,min=1900,max=2100"`
	Price decimal.Decimal `json:"price" binding:"required"`
}

// ListVehiclesRequest carries filter and pagination parameters
type ListVehiclesRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=available pending sold in_transit"`
	Search   string `form:"search" binding:"omitempty,max=200"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// VehicleResponse is the API shape of a vehicle
type VehicleResponse struct {
	ID           uuid.UUID       `json:"id"`
	DealershipID uuid.UUID       `json:"dealership_id"`
	VIN          string          `json:"vin"`
	StockNumber  *string         `json:"stock_number,omitempty"`
	Make         string          `json:"make"`
	Model        string          `json:"model"`
	Year         int             `json:"year"`
	Price        decimal.Decimal `json:"price"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ToVehicleResponse converts a domain vehicle to its API shape
func ToVehicleResponse(v *inventory.Vehicle) *VehicleResponse {
	return &VehicleResponse{
		ID:           v.ID,
		DealershipID: v.DealershipID,
		VIN:          v.VIN,
		StockNumber:  v.StockNumber,
		Make:         v.Make,
		Model:        v.Model,
		Year:         v.Year,
		Price:        v.Price,
		Status:       string(v.Status),
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

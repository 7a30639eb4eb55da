// Package inventory implements vehicle stock operations: receiving vehicles
// with atomically assigned stock numbers and reading the dealership's stock.
package inventory

import (
	"context"

	"github.com/dealerdesk/backend/internal/domain/dealership"
	"github.com/dealerdesk/backend/internal/domain/inventory"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"github.com/dealerdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TxScope runs a function inside a database transaction with the inventory
// repositories bound to it
type TxScope interface {
	Serializable(ctx context.Context, fn func(repos TxRepositories) error) error
}

// TxRepositories exposes the repositories bound to the open transaction
type TxRepositories interface {
	Vehicles() inventory.VehicleRepository
	Sequences() dealership.SequenceRepository
	Audit() shared.AuditRepository
}

// VehicleService handles vehicle stock operations
type VehicleService struct {
	vehicleRepo inventory.VehicleRepository
	txScope     TxScope
}

// NewVehicleService creates a new VehicleService
func NewVehicleService(vehicleRepo inventory.VehicleRepository, txScope TxScope) *VehicleService {
	return &VehicleService{
		vehicleRepo: vehicleRepo,
		txScope:     txScope,
	}
}

// Receive creates a vehicle with a freshly claimed stock number. The counter
// claim and the vehicle row commit or abort together, so stock numbers stay
// gap-free per dealership.
func (s *VehicleService) Receive(ctx context.Context, dealershipID uuid.UUID, req ReceiveVehicleRequest, actorID *uuid.UUID) (*VehicleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "vehicle", "receive",
		telemetry.WithAttribute(telemetry.SpanAttrDealershipID, dealershipID),
	)
	defer span.End()

	var created *inventory.Vehicle

	err := s.txScope.Serializable(ctx, func(repos TxRepositories) error {
		vehicle, err := inventory.NewVehicle(dealershipID, req.VIN, req.Make, req.Model, req.Year, req.Price)
		if err != nil {
			return err
		}

		value, err := repos.Sequences().NextValue(ctx, dealershipID, dealership.CounterStockNumber)
		if err != nil {
			return err
		}
		if err := vehicle.AssignStockNumber(dealership.FormatStockNumber(value)); err != nil {
			return err
		}

		if err := repos.Vehicles().Save(ctx, vehicle); err != nil {
			return err
		}

		entry := shared.NewAuditLogEntry(dealershipID, actorID,
			shared.AuditActionCreate, shared.AuditEntityVehicle, vehicle.ID,
			map[string]string{
				"vin":          vehicle.VIN,
				"stock_number": *vehicle.StockNumber,
			})
		if err := repos.Audit().Append(ctx, entry); err != nil {
			return err
		}

		created = vehicle
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrVehicleID, created.ID,
		telemetry.SpanAttrStockNumber, *created.StockNumber,
	)
	logger.L(ctx).Info("Vehicle received",
		zap.String("vehicle_id", created.ID.String()),
		zap.String("stock_number", *created.StockNumber),
	)
	return ToVehicleResponse(created), nil
}

// Get loads a single vehicle, distinguishing a missing vehicle from one owned
// by another dealership
func (s *VehicleService) Get(ctx context.Context, dealershipID, vehicleID uuid.UUID) (*VehicleResponse, error) {
	vehicle, err := s.vehicleRepo.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if !vehicle.BelongsTo(dealershipID) {
		return nil, shared.ErrTenantViolation
	}
	return ToVehicleResponse(vehicle), nil
}

// List returns the dealership's vehicles matching the filter
func (s *VehicleService) List(ctx context.Context, dealershipID uuid.UUID, req ListVehiclesRequest) ([]VehicleResponse, error) {
	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	filter.OrderBy = req.OrderBy
	filter.OrderDir = req.OrderDir
	filter.Search = req.Search
	if req.Status != "" {
		filter.Filters["status"] = req.Status
	}

	vehicles, err := s.vehicleRepo.FindAllForDealership(ctx, dealershipID, filter)
	if err != nil {
		return nil, err
	}

	out := make([]VehicleResponse, 0, len(vehicles))
	for i := range vehicles {
		out = append(out, *ToVehicleResponse(&vehicles[i]))
	}
	return out, nil
}

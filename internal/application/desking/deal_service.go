// Package desking implements the deal lifecycle operations: creating deals
// atomically with their vehicle, customer, number, and default scenario, and
// attaching customers to existing deals.
package desking

import (
	"context"
	"time"

	"github.com/dealerdesk/backend/internal/domain/dealership"
	"github.com/dealerdesk/backend/internal/domain/desking"
	"github.com/dealerdesk/backend/internal/domain/partner"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"github.com/dealerdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// taxSavepoint marks the state before tax calculation so a failing calculator
// can be unwound without losing the rest of the deal.
const taxSavepoint = "before_tax"

// DealService handles deal-related business operations. Every mutation runs
// in a serializable transaction through the TxScope, so concurrent deals over
// the same vehicle or counter serialize instead of corrupting state.
type DealService struct {
	dealRepo desking.DealRepository
	txScope  TxScope
	taxCalc  desking.TaxCalculator
}

// NewDealService creates a new DealService. A nil taxCalc falls back to the
// zero-tax calculator.
func NewDealService(dealRepo desking.DealRepository, txScope TxScope, taxCalc desking.TaxCalculator) *DealService {
	if taxCalc == nil {
		taxCalc = desking.ZeroTaxCalculator{}
	}
	return &DealService{
		dealRepo: dealRepo,
		txScope:  txScope,
		taxCalc:  taxCalc,
	}
}

// Create creates a deal in a single transaction: salesperson check, optional
// vehicle hold, optional customer (existing or inline), deal number when a
// customer attaches, and the default scenario. Nothing persists if any step
// fails.
func (s *DealService) Create(ctx context.Context, dealershipID uuid.UUID, req CreateDealRequest) (*DealResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "deal", "create",
		telemetry.WithAttribute(telemetry.SpanAttrDealershipID, dealershipID),
		telemetry.WithAttribute(telemetry.SpanAttrSalespersonID, req.SalespersonID),
	)
	defer span.End()

	if req.CustomerID != nil && req.CustomerData != nil {
		return nil, shared.NewFieldError("customer_id", "customer_id and customer_data are mutually exclusive")
	}

	var created *desking.Deal

	err := s.txScope.Serializable(ctx, func(repos TxRepositories) error {
		// The tenant itself must exist before any tenant-scoped check can
		// mean anything.
		if _, err := repos.Dealerships().FindByID(ctx, dealershipID); err != nil {
			return err
		}

		salesperson, err := repos.Users().FindByID(ctx, req.SalespersonID)
		if err != nil {
			return err
		}
		if !salesperson.BelongsTo(dealershipID) {
			return shared.ErrTenantViolation
		}

		deal, err := desking.NewDeal(dealershipID, req.SalespersonID)
		if err != nil {
			return err
		}

		vehiclePrice := decimal.Zero
		if req.VehicleID != nil {
			price, err := s.holdVehicle(ctx, repos, deal, *req.VehicleID)
			if err != nil {
				return err
			}
			vehiclePrice = price
		}

		customerID, err := s.resolveCustomer(ctx, repos, dealershipID, req)
		if err != nil {
			return err
		}
		if customerID != nil {
			if err := deal.AttachCustomer(*customerID); err != nil {
				return err
			}
			if err := s.assignDealNumber(ctx, repos, deal); err != nil {
				return err
			}
		}

		if err := repos.Deals().Save(ctx, deal); err != nil {
			return err
		}

		if err := s.createDefaultScenario(ctx, repos, deal, vehiclePrice); err != nil {
			return err
		}
		if err := repos.Deals().Save(ctx, deal); err != nil {
			return err
		}

		entry := shared.NewAuditLogEntry(dealershipID, &req.SalespersonID,
			shared.AuditActionCreate, shared.AuditEntityDeal, deal.ID, auditMetadata(deal))
		if err := repos.Audit().Append(ctx, entry); err != nil {
			return err
		}

		created = deal
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrDealID, created.ID)
	logger.L(ctx).Info("Deal created",
		zap.String("deal_id", created.ID.String()),
		zap.String("status", string(created.Status)),
	)
	return ToDealResponse(created), nil
}

// AttachCustomer links a customer to an existing deal and assigns the deal
// number if the deal does not have one yet. Re-attaching the already linked
// customer is a no-op.
func (s *DealService) AttachCustomer(ctx context.Context, dealershipID, dealID uuid.UUID, req AttachCustomerRequest, actorID *uuid.UUID) (*DealResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "deal", "attach_customer",
		telemetry.WithAttribute(telemetry.SpanAttrDealershipID, dealershipID),
		telemetry.WithAttribute(telemetry.SpanAttrDealID, dealID),
		telemetry.WithAttribute(telemetry.SpanAttrCustomerID, req.CustomerID),
	)
	defer span.End()

	var updated *desking.Deal

	err := s.txScope.Serializable(ctx, func(repos TxRepositories) error {
		deal, err := repos.Deals().LockByID(ctx, dealID)
		if err != nil {
			return err
		}
		if !deal.BelongsTo(dealershipID) {
			return shared.ErrTenantViolation
		}

		if deal.HasCustomer(req.CustomerID) {
			updated = deal
			return nil
		}
		if deal.CustomerID != nil {
			return shared.NewDomainError("INVALID_STATE", "Deal already has a different customer")
		}

		customer, err := repos.Customers().FindByID(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		if !customer.BelongsTo(dealershipID) {
			return shared.ErrTenantViolation
		}

		if err := deal.AttachCustomer(customer.ID); err != nil {
			return err
		}
		if deal.DealNumber == nil {
			if err := s.assignDealNumber(ctx, repos, deal); err != nil {
				return err
			}
		}

		if err := repos.Deals().Save(ctx, deal); err != nil {
			return err
		}

		entry := shared.NewAuditLogEntry(dealershipID, actorID,
			shared.AuditActionUpdate, shared.AuditEntityDeal, deal.ID, auditMetadata(deal))
		if err := repos.Audit().Append(ctx, entry); err != nil {
			return err
		}

		updated = deal
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if updated.DealNumber != nil {
		telemetry.SetAttributes(span, telemetry.SpanAttrDealNumber, *updated.DealNumber)
	}
	return ToDealResponse(updated), nil
}

// Get loads a single deal, distinguishing a missing deal from one owned by
// another dealership.
func (s *DealService) Get(ctx context.Context, dealershipID, dealID uuid.UUID) (*DealResponse, error) {
	deal, err := s.dealRepo.FindByID(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if !deal.BelongsTo(dealershipID) {
		return nil, shared.ErrTenantViolation
	}
	return ToDealResponse(deal), nil
}

// List returns the dealership's deals matching the filter
func (s *DealService) List(ctx context.Context, dealershipID uuid.UUID, req ListDealsRequest) (*shared.Paginated[DealResponse], error) {
	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	filter.OrderBy = req.OrderBy
	filter.OrderDir = req.OrderDir
	if req.Status != "" {
		filter.Filters["status"] = req.Status
	}
	if req.SalespersonID != "" {
		filter.Filters["salesperson_id"] = req.SalespersonID
	}

	deals, err := s.dealRepo.FindAllForDealership(ctx, dealershipID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.dealRepo.CountForDealership(ctx, dealershipID, filter)
	if err != nil {
		return nil, err
	}

	items := make([]DealResponse, 0, len(deals))
	for i := range deals {
		items = append(items, *ToDealResponse(&deals[i]))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListScenarios returns all scenarios of a deal in creation order
func (s *DealService) ListScenarios(ctx context.Context, dealershipID, dealID uuid.UUID) ([]ScenarioResponse, error) {
	deal, err := s.dealRepo.FindByID(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if !deal.BelongsTo(dealershipID) {
		return nil, shared.ErrTenantViolation
	}

	scenarios, err := s.dealRepo.FindScenarios(ctx, dealID)
	if err != nil {
		return nil, err
	}

	out := make([]ScenarioResponse, 0, len(scenarios))
	for i := range scenarios {
		out = append(out, *ToScenarioResponse(&scenarios[i]))
	}
	return out, nil
}

// holdVehicle row-locks the vehicle, verifies ownership and availability, and
// moves it to pending for the rest of the transaction.
func (s *DealService) holdVehicle(ctx context.Context, repos TxRepositories, deal *desking.Deal, vehicleID uuid.UUID) (decimal.Decimal, error) {
	vehicle, err := repos.Vehicles().LockByID(ctx, vehicleID)
	if err != nil {
		return decimal.Zero, err
	}
	if !vehicle.BelongsTo(deal.DealershipID) {
		return decimal.Zero, shared.ErrTenantViolation
	}
	if err := vehicle.MarkPending(); err != nil {
		return decimal.Zero, err
	}
	if err := repos.Vehicles().Save(ctx, vehicle); err != nil {
		return decimal.Zero, err
	}
	if err := deal.AttachVehicle(vehicle.ID); err != nil {
		return decimal.Zero, err
	}
	return vehicle.Price, nil
}

// resolveCustomer returns the customer to attach: an existing one after a
// tenant check, a new one created from inline data, or nil for a blank desk.
func (s *DealService) resolveCustomer(ctx context.Context, repos TxRepositories, dealershipID uuid.UUID, req CreateDealRequest) (*uuid.UUID, error) {
	switch {
	case req.CustomerID != nil:
		customer, err := repos.Customers().FindByID(ctx, *req.CustomerID)
		if err != nil {
			return nil, err
		}
		if !customer.BelongsTo(dealershipID) {
			return nil, shared.ErrTenantViolation
		}
		return &customer.ID, nil

	case req.CustomerData != nil:
		customer, err := partner.NewCustomer(dealershipID,
			req.CustomerData.FirstName, req.CustomerData.LastName,
			req.CustomerData.Email, req.CustomerData.Phone)
		if err != nil {
			return nil, err
		}
		if err := repos.Customers().Save(ctx, customer); err != nil {
			return nil, err
		}
		return &customer.ID, nil
	}
	return nil, nil
}

// assignDealNumber claims the next counter value and stamps it on the deal.
// The claim shares the deal's transaction, so an abort returns the value.
func (s *DealService) assignDealNumber(ctx context.Context, repos TxRepositories, deal *desking.Deal) error {
	value, err := repos.Sequences().NextValue(ctx, deal.DealershipID, dealership.CounterDealNumber)
	if err != nil {
		return err
	}
	return deal.AssignNumber(dealership.FormatDealNumber(time.Now(), value))
}

// createDefaultScenario prices the deal's default scenario. The tax
// calculator runs behind a savepoint: if it fails, the savepoint is unwound
// and the scenario persists with zero tax instead of failing the deal.
func (s *DealService) createDefaultScenario(ctx context.Context, repos TxRepositories, deal *desking.Deal, vehiclePrice decimal.Decimal) error {
	if err := repos.Savepoint(taxSavepoint); err != nil {
		return err
	}

	taxTotal, err := s.taxCalc.Calculate(ctx, desking.TaxContext{
		DealershipID: deal.DealershipID,
		VehiclePrice: vehiclePrice,
	})
	if err != nil {
		if rbErr := repos.RollbackToSavepoint(taxSavepoint); rbErr != nil {
			return rbErr
		}
		logger.L(ctx).Warn("Tax calculation failed, falling back to zero tax",
			zap.String("deal_id", deal.ID.String()),
			zap.Error(err),
		)
		taxTotal = decimal.Zero
	}

	scenario, err := desking.NewDefaultScenario(deal, vehiclePrice, taxTotal)
	if err != nil {
		return err
	}
	if err := repos.Deals().SaveScenario(ctx, scenario); err != nil {
		return err
	}

	deal.SetActiveScenario(scenario.ID)
	return nil
}

func auditMetadata(deal *desking.Deal) map[string]string {
	m := map[string]string{
		"status": string(deal.Status),
	}
	if deal.DealNumber != nil {
		m["deal_number"] = *deal.DealNumber
	}
	if deal.CustomerID != nil {
		m["customer_id"] = deal.CustomerID.String()
	}
	if deal.VehicleID != nil {
		m["vehicle_id"] = deal.VehicleID.String()
	}
	return m
}

// Package partner implements customer management for a dealership.
package partner

import (
	"context"

	"github.com/dealerdesk/backend/internal/domain/partner"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// CustomerService handles customer operations
type CustomerService struct {
	customerRepo partner.CustomerRepository
	txScope      TxScope
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo partner.CustomerRepository, txScope TxScope) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		txScope:      txScope,
	}
}

// Create creates a standalone customer record. The customer row and its
// audit entry commit together; a failed audit write rolls the customer back.
func (s *CustomerService) Create(ctx context.Context, dealershipID uuid.UUID, req CreateCustomerRequest, actorID *uuid.UUID) (*CustomerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer", "create",
		telemetry.WithAttribute(telemetry.SpanAttrDealershipID, dealershipID),
	)
	defer span.End()

	customer, err := partner.NewCustomer(dealershipID, req.FirstName, req.LastName, req.Email, req.Phone)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	err = s.txScope.ReadCommitted(ctx, func(repos TxRepositories) error {
		if err := repos.Customers().Save(ctx, customer); err != nil {
			return err
		}

		entry := shared.NewAuditLogEntry(dealershipID, actorID,
			shared.AuditActionCreate, shared.AuditEntityCustomer, customer.ID,
			map[string]string{"name": customer.FullName()})
		return repos.Audit().Append(ctx, entry)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerID, customer.ID)
	return ToCustomerResponse(customer), nil
}

// Get loads a single customer, distinguishing a missing customer from one
// owned by another dealership
func (s *CustomerService) Get(ctx context.Context, dealershipID, customerID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !customer.BelongsTo(dealershipID) {
		return nil, shared.ErrTenantViolation
	}
	return ToCustomerResponse(customer), nil
}

// List returns the dealership's customers matching the filter
func (s *CustomerService) List(ctx context.Context, dealershipID uuid.UUID, req ListCustomersRequest) ([]CustomerResponse, error) {
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

	customers, err := s.customerRepo.FindAllForDealership(ctx, dealershipID, filter)
	if err != nil {
		return nil, err
	}

	out := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		out = append(out, *ToCustomerResponse(&customers[i]))
	}
	return out, nil
}

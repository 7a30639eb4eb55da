package desking_test

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	appdesking "github.com/dealerdesk/backend/internal/application/desking"
	"github.com/dealerdesk/backend/internal/domain/dealership"
	"github.com/dealerdesk/backend/internal/domain/desking"
	"github.com/dealerdesk/backend/internal/domain/identity"
	"github.com/dealerdesk/backend/internal/domain/inventory"
	"github.com/dealerdesk/backend/internal/domain/partner"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- in-memory fakes -------------------------------------------------------

type fakeDealRepo struct {
	deals     map[uuid.UUID]*desking.Deal
	scenarios []desking.DealScenario
}

func newFakeDealRepo() *fakeDealRepo {
	return &fakeDealRepo{deals: make(map[uuid.UUID]*desking.Deal)}
}

func (r *fakeDealRepo) FindByID(ctx context.Context, id uuid.UUID) (*desking.Deal, error) {
	deal, ok := r.deals[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return deal, nil
}

func (r *fakeDealRepo) FindByIDForDealership(ctx context.Context, dealershipID, id uuid.UUID) (*desking.Deal, error) {
	deal, ok := r.deals[id]
	if !ok || deal.DealershipID != dealershipID {
		return nil, shared.ErrNotFound
	}
	return deal, nil
}

func (r *fakeDealRepo) FindAllForDealership(ctx context.Context, dealershipID uuid.UUID, filter shared.Filter) ([]desking.Deal, error) {
	var out []desking.Deal
	for _, d := range r.deals {
		if d.DealershipID != dealershipID {
			continue
		}
		if status, ok := filter.Filters["status"]; ok && string(d.Status) != status {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (r *fakeDealRepo) CountForDealership(ctx context.Context, dealershipID uuid.UUID, filter shared.Filter) (int64, error) {
	deals, err := r.FindAllForDealership(ctx, dealershipID, filter)
	return int64(len(deals)), err
}

func (r *fakeDealRepo) LockByID(ctx context.Context, id uuid.UUID) (*desking.Deal, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeDealRepo) Save(ctx context.Context, deal *desking.Deal) error {
	r.deals[deal.ID] = deal
	return nil
}

func (r *fakeDealRepo) SaveScenario(ctx context.Context, scenario *desking.DealScenario) error {
	r.scenarios = append(r.scenarios, *scenario)
	return nil
}

func (r *fakeDealRepo) FindScenarios(ctx context.Context, dealID uuid.UUID) ([]desking.DealScenario, error) {
	var out []desking.DealScenario
	for _, s := range r.scenarios {
		if s.DealID == dealID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeDealershipRepo struct {
	dealerships map[uuid.UUID]*dealership.Dealership
}

func newFakeDealershipRepo() *fakeDealershipRepo {
	return &fakeDealershipRepo{dealerships: make(map[uuid.UUID]*dealership.Dealership)}
}

func (r *fakeDealershipRepo) FindByID(ctx context.Context, id uuid.UUID) (*dealership.Dealership, error) {
	d, ok := r.dealerships[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return d, nil
}

func (r *fakeDealershipRepo) Save(ctx context.Context, d *dealership.Dealership) error {
	r.dealerships[d.ID] = d
	return nil
}

type fakeVehicleRepo struct {
	vehicles map[uuid.UUID]*inventory.Vehicle
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{vehicles: make(map[uuid.UUID]*inventory.Vehicle)}
}

func (r *fakeVehicleRepo) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Vehicle, error) {
	v, ok := r.vehicles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return v, nil
}

func (r *fakeVehicleRepo) FindByIDForDealership(ctx context.Context, dealershipID, id uuid.UUID) (*inventory.Vehicle, error) {
	v, ok := r.vehicles[id]
	if !ok || v.DealershipID != dealershipID {
		return nil, shared.ErrNotFound
	}
	return v, nil
}

func (r *fakeVehicleRepo) FindAllForDealership(ctx context.Context, dealershipID uuid.UUID, filter shared.Filter) ([]inventory.Vehicle, error) {
	var out []inventory.Vehicle
	for _, v := range r.vehicles {
		if v.DealershipID == dealershipID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *fakeVehicleRepo) LockByID(ctx context.Context, id uuid.UUID) (*inventory.Vehicle, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeVehicleRepo) Save(ctx context.Context, vehicle *inventory.Vehicle) error {
	r.vehicles[vehicle.ID] = vehicle
	return nil
}

type fakeCustomerRepo struct {
	customers map[uuid.UUID]*partner.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[uuid.UUID]*partner.Customer)}
}

func (r *fakeCustomerRepo) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (r *fakeCustomerRepo) FindByIDForDealership(ctx context.Context, dealershipID, id uuid.UUID) (*partner.Customer, error) {
	c, ok := r.customers[id]
	if !ok || c.DealershipID != dealershipID {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (r *fakeCustomerRepo) FindAllForDealership(ctx context.Context, dealershipID uuid.UUID, filter shared.Filter) ([]partner.Customer, error) {
	var out []partner.Customer
	for _, c := range r.customers {
		if c.DealershipID == dealershipID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCustomerRepo) Save(ctx context.Context, customer *partner.Customer) error {
	r.customers[customer.ID] = customer
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*identity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*identity.User)}
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByIDForDealership(ctx context.Context, dealershipID, id uuid.UUID) (*identity.User, error) {
	u, ok := r.users[id]
	if !ok || u.DealershipID != dealershipID {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) ExistsByUsername(ctx context.Context, dealershipID uuid.UUID, username string) (bool, error) {
	for _, u := range r.users {
		if u.DealershipID == dealershipID && u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, dealershipID uuid.UUID, email string) (bool, error) {
	for _, u := range r.users {
		if u.DealershipID == dealershipID && u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Save(ctx context.Context, user *identity.User) error {
	r.users[user.ID] = user
	return nil
}

type fakeSequenceRepo struct {
	counters map[string]int64
	calls    int
}

func newFakeSequenceRepo() *fakeSequenceRepo {
	return &fakeSequenceRepo{counters: make(map[string]int64)}
}

func (r *fakeSequenceRepo) NextValue(ctx context.Context, dealershipID uuid.UUID, counter dealership.CounterType) (int64, error) {
	key := fmt.Sprintf("%s/%s", dealershipID, counter)
	r.counters[key]++
	r.calls++
	return r.counters[key], nil
}

type fakeAuditRepo struct {
	entries []shared.AuditLogEntry
}

func (r *fakeAuditRepo) Append(ctx context.Context, entry *shared.AuditLogEntry) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) FindForEntity(ctx context.Context, dealershipID uuid.UUID, entityType string, entityID uuid.UUID) ([]shared.AuditLogEntry, error) {
	var out []shared.AuditLogEntry
	for _, e := range r.entries {
		if e.DealershipID == dealershipID && e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeRepos struct {
	dealerships *fakeDealershipRepo
	deals       *fakeDealRepo
	vehicles    *fakeVehicleRepo
	customers   *fakeCustomerRepo
	users       *fakeUserRepo
	sequences   *fakeSequenceRepo
	audit       *fakeAuditRepo

	savepoints []string
	rollbacks  []string
}

func newFakeRepos() *fakeRepos {
	return &fakeRepos{
		dealerships: newFakeDealershipRepo(),
		deals:       newFakeDealRepo(),
		vehicles:    newFakeVehicleRepo(),
		customers:   newFakeCustomerRepo(),
		users:       newFakeUserRepo(),
		sequences:   newFakeSequenceRepo(),
		audit:       &fakeAuditRepo{},
	}
}

func (r *fakeRepos) Dealerships() dealership.Repository       { return r.dealerships }
func (r *fakeRepos) Deals() desking.DealRepository            { return r.deals }
func (r *fakeRepos) Vehicles() inventory.VehicleRepository    { return r.vehicles }
func (r *fakeRepos) Customers() partner.CustomerRepository    { return r.customers }
func (r *fakeRepos) Users() identity.UserRepository           { return r.users }
func (r *fakeRepos) Sequences() dealership.SequenceRepository { return r.sequences }
func (r *fakeRepos) Audit() shared.AuditRepository            { return r.audit }

func (r *fakeRepos) Savepoint(name string) error {
	r.savepoints = append(r.savepoints, name)
	return nil
}

func (r *fakeRepos) RollbackToSavepoint(name string) error {
	r.rollbacks = append(r.rollbacks, name)
	return nil
}

type fakeTxScope struct {
	repos *fakeRepos
}

func (s *fakeTxScope) Serializable(ctx context.Context, fn func(appdesking.TxRepositories) error) error {
	return fn(s.repos)
}

func (s *fakeTxScope) ReadCommitted(ctx context.Context, fn func(appdesking.TxRepositories) error) error {
	return fn(s.repos)
}

type staticTaxCalc struct {
	amount decimal.Decimal
}

func (c staticTaxCalc) Calculate(ctx context.Context, tc desking.TaxContext) (decimal.Decimal, error) {
	return c.amount, nil
}

type failingTaxCalc struct{}

func (failingTaxCalc) Calculate(ctx context.Context, tc desking.TaxContext) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("tax provider unreachable")
}

// --- fixtures --------------------------------------------------------------

type fixture struct {
	repos        *fakeRepos
	service      *appdesking.DealService
	dealershipID uuid.UUID
	salesperson  *identity.User
}

func newFixture(t *testing.T, taxCalc desking.TaxCalculator) *fixture {
	t.Helper()
	repos := newFakeRepos()

	store, err := dealership.NewDealership("Sunrise Motors", "SUN")
	require.NoError(t, err)
	repos.dealerships.dealerships[store.ID] = store
	dealershipID := store.ID

	salesperson := &identity.User{
		TenantEntity: shared.NewTenantEntity(dealershipID),
		Username:     "jsmith",
		Email:        "jsmith@example.com",
		PasswordHash: "x",
		Role:         identity.RoleSalesperson,
		Active:       true,
	}
	repos.users.users[salesperson.ID] = salesperson

	service := appdesking.NewDealService(repos.deals, &fakeTxScope{repos: repos}, taxCalc)
	return &fixture{
		repos:        repos,
		service:      service,
		dealershipID: dealershipID,
		salesperson:  salesperson,
	}
}

func (f *fixture) addDealership(t *testing.T) *dealership.Dealership {
	t.Helper()
	store, err := dealership.NewDealership("Crosstown Auto", "CTA")
	require.NoError(t, err)
	f.repos.dealerships.dealerships[store.ID] = store
	return store
}

func (f *fixture) addVehicle(t *testing.T, price int64) *inventory.Vehicle {
	t.Helper()
	v, err := inventory.NewVehicle(f.dealershipID, "1HGCM82633A004352", "Honda", "Accord", 2024, decimal.NewFromInt(price))
	require.NoError(t, err)
	f.repos.vehicles.vehicles[v.ID] = v
	return v
}

func (f *fixture) addCustomer(t *testing.T, dealershipID uuid.UUID) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer(dealershipID, "Jane", "Doe", "jane@example.com", "")
	require.NoError(t, err)
	f.repos.customers.customers[c.ID] = c
	return c
}

var dealNumberPattern = regexp.MustCompile(`^\d{4}-\d{4}-\d{4}$`)

// --- tests -----------------------------------------------------------------

func TestDealService_Create_RejectsCustomerIDAndData(t *testing.T) {
	f := newFixture(t, nil)
	customerID := uuid.New()

	_, err := f.service.Create(context.Background(), f.dealershipID, appdesking.CreateDealRequest{
		SalespersonID: f.salesperson.ID,
		CustomerID:    &customerID,
		CustomerData:  &appdesking.CustomerDataRequest{FirstName: "Jane", LastName: "Doe"},
	})

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "customer_id")
	assert.Empty(t, f.repos.deals.deals)
}

func TestDealService_Create_BlankDesk(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := f.service.Create(context.Background(), f.dealershipID, appdesking.CreateDealRequest{
		SalespersonID: f.salesperson.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "draft", resp.Status)
	assert.Nil(t, resp.CustomerID)
	assert.Nil(t, resp.VehicleID)
	assert.Nil(t, resp.DealNumber)
	require.NotNil(t, resp.ActiveScenarioID)

	// a draft consumes no deal number
	assert.Zero(t, f.repos.sequences.calls)

	scenarios, err := f.repos.deals.FindScenarios(context.Background(), resp.ID)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.True(t, scenarios[0].IsDefault)
	assert.True(t, scenarios[0].VehiclePrice.IsZero())
	assert.True(t, scenarios[0].TaxTotal.IsZero())

	audit, err := f.repos.audit.FindForEntity(context.Background(), f.dealershipID, shared.AuditEntityDeal, resp.ID)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, shared.AuditActionCreate, audit[0].Action)
}

func TestDealService_Create_WithVehicle(t *testing.T) {
	f := newFixture(t, nil)
	vehicle := f.addVehicle(t, 28500)

	resp, err := f.service.Create(context.Background(), f.dealershipID, appdesking.CreateDealRequest{
		SalespersonID: f.salesperson.ID,
		VehicleID:     &vehicle.ID,
	})
	require.NoError(t, err)

	require.NotNil(t, resp.VehicleID)
	assert.Equal(t, vehicle.ID, *resp.VehicleID)
	assert.Equal(t, inventory.VehicleStatusPending, vehicle.Status)

	scenarios, err := f.repos.deals.FindScenarios(context.Background(), resp.ID)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.True(t, scenarios[0].VehiclePrice.Equal(decimal.NewFromInt(28500)))
	assert.True(t, scenarios[0].TotalPrice.Equal(decimal.NewFromInt(28500)))
}

func TestDealService_Create_WithExistingCustomer(t *testing.T) {
	f := newFixture(t, nil)
	customer := f.addCustomer(t, f.dealershipID)

	resp, err := f.service.Create(context.Background(), f.dealershipID, appdesking.CreateDealRequest{
		SalespersonID: f.salesperson.ID,
		CustomerID:    &customer.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "open", resp.Status)
	require.NotNil(t, resp.CustomerID)
	assert.Equal(t, customer.ID, *resp.CustomerID)
	require.NotNil(t, resp.DealNumber)
	assert.Regexp(t, dealNumberPattern, *resp.DealNumber)
	assert.Equal(t, 1, f.repos.sequences.calls)
}

func TestDealService_Create_WithInlineCustomer(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := f.service.Create(context.Background(), f.dealershipID, appdesking.CreateDealRequest{
		SalespersonID: f.salesperson.ID,
		CustomerData: &appdesking.CustomerDataRequest{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane@example.com",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "open", resp.Status)
	require.NotNil(t, resp.CustomerID)
	require.NotNil(t, resp.DealNumber)

	created, err := f.repos.customers.FindByID(context.Background(), *resp.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, f.dealershipID, created.DealershipID)
	assert.Equal(t, "Jane Doe", created.FullName())
}

func TestDealService_Create_UnknownSalesperson(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.service.Create(context.Background(), f.dealershipID, appdesking.CreateDealRequest{
		SalespersonID: uuid.New(),
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDealService_Create_UnknownDealership(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.service.Create(context.Background(), uuid.New(), appdesking.CreateDealRequest{
		SalespersonID: f.salesperson.ID,
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, f.repos.deals.deals)
}

func TestDealService_Create_SalespersonFromOtherDealership(t *testing.T) {
	f := newFixture(t, nil)
	other := f.addDealership(t)

	_, err := f.service.Create(context.Background(), other.ID, appdesking.CreateDealRequest{
		SalespersonID: f.salesperson.ID,
	})
	assert.ErrorIs(t, err, shared.ErrTenantViolation)
}

func TestDealService_Create_VehicleNotAvailable(t *testing.T) {
	f := newFixture(t, nil)
	vehicle := f.addVehicle(t, 28500)
	vehicle.Status = inventory.VehicleStatusSold

	_, err := f.service.Create(context.Background(), f.dealershipID, appdesking.CreateDealRequest{
		SalespersonID: f.salesperson.ID,
		VehicleID:     &vehicle.ID,
	})
	assert.ErrorIs(t, err, shared.ErrVehicleNotAvailable)
}

func TestDealService_Create_SecondDealOverSameVehicleRejected(t *testing.T) {
	f := newFixture(t, nil)
	vehicle := f.addVehicle(t, 28500)

	first, err := f.service.Create(context.Background(), f.dealershipID, appdesking.CreateDealRequest{
		SalespersonID: f.salesperson.ID,
		VehicleID:     &vehicle.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, inventory.VehicleStatusPending, vehicle.Status)

	// The vehicle is pending under the first deal's claim; a second deal
	// must fail, not silently share the unit.
	_, err = f.service.Create(context.Background(), f.dealershipID, appdesking.CreateDealRequest{
		SalespersonID: f.salesperson.ID,
		VehicleID:     &vehicle.ID,
	})
	assert.ErrorIs(t, err, shared.ErrVehicleNotAvailable)

	require.Len(t, f.repos.deals.deals, 1)
	assert.Contains(t, f.repos.deals.deals, first.ID)
}

func TestDealService_Create_VehicleFromOtherDealership(t *testing.T) {
	f := newFixture(t, nil)
	other, err := inventory.NewVehicle(uuid.New(), "2HGCM82633A004353", "Honda", "Civic", 2024, decimal.NewFromInt(21000))
	require.NoError(t, err)
	f.repos.vehicles.vehicles[other.ID] = other

	_, err = f.service.Create(context.Background(), f.dealershipID, appdesking.CreateDealRequest{
		SalespersonID: f.salesperson.ID,
		VehicleID:     &other.ID,
	})
	assert.ErrorIs(t, err, shared.ErrTenantViolation)
	assert.Equal(t, inventory.VehicleStatusAvailable, other.Status)
}

func TestDealService_Create_CustomerFromOtherDealership(t *testing.T) {
	f := newFixture(t, nil)
	foreign := f.addCustomer(t, uuid.New())

	_, err := f.service.Create(context.Background(), f.dealershipID, appdesking.CreateDealRequest{
		SalespersonID: f.salesperson.ID,
		CustomerID:    &foreign.ID,
	})
	assert.ErrorIs(t, err, shared.ErrTenantViolation)
}

func TestDealService_Create_TaxApplied(t *testing.T) {
	f := newFixture(t, staticTaxCalc{amount: decimal.NewFromInt(1995)})
	vehicle := f.addVehicle(t, 28500)

	resp, err := f.service.Create(context.Background(), f.dealershipID, appdesking.CreateDealRequest{
		SalespersonID: f.salesperson.ID,
		VehicleID:     &vehicle.ID,
	})
	require.NoError(t, err)

	scenarios, err := f.repos.deals.FindScenarios(context.Background(), resp.ID)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.True(t, scenarios[0].TaxTotal.Equal(decimal.NewFromInt(1995)))
	assert.True(t, scenarios[0].TotalPrice.Equal(decimal.NewFromInt(30495)))
	assert.Empty(t, f.repos.rollbacks)
}

func TestDealService_Create_TaxFailureFallsBackToZero(t *testing.T) {
	f := newFixture(t, failingTaxCalc{})
	vehicle := f.addVehicle(t, 28500)

	resp, err := f.service.Create(context.Background(), f.dealershipID, appdesking.CreateDealRequest{
		SalespersonID: f.salesperson.ID,
		VehicleID:     &vehicle.ID,
	})
	require.NoError(t, err)

	// the tax failure unwinds to the savepoint, not the whole deal
	assert.Equal(t, []string{"before_tax"}, f.repos.savepoints)
	assert.Equal(t, []string{"before_tax"}, f.repos.rollbacks)

	scenarios, err := f.repos.deals.FindScenarios(context.Background(), resp.ID)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.True(t, scenarios[0].TaxTotal.IsZero())
	assert.True(t, scenarios[0].TotalPrice.Equal(decimal.NewFromInt(28500)))
}

func TestDealService_AttachCustomer_AssignsNumber(t *testing.T) {
	f := newFixture(t, nil)
	customer := f.addCustomer(t, f.dealershipID)

	deal, err := desking.NewDeal(f.dealershipID, f.salesperson.ID)
	require.NoError(t, err)
	f.repos.deals.deals[deal.ID] = deal

	resp, err := f.service.AttachCustomer(context.Background(), f.dealershipID, deal.ID,
		appdesking.AttachCustomerRequest{CustomerID: customer.ID}, &f.salesperson.ID)
	require.NoError(t, err)

	assert.Equal(t, "open", resp.Status)
	require.NotNil(t, resp.DealNumber)
	assert.Regexp(t, dealNumberPattern, *resp.DealNumber)

	audit, err := f.repos.audit.FindForEntity(context.Background(), f.dealershipID, shared.AuditEntityDeal, deal.ID)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, shared.AuditActionUpdate, audit[0].Action)
}

func TestDealService_AttachCustomer_SameCustomerIsNoOp(t *testing.T) {
	f := newFixture(t, nil)
	customer := f.addCustomer(t, f.dealershipID)

	deal, err := desking.NewDeal(f.dealershipID, f.salesperson.ID)
	require.NoError(t, err)
	require.NoError(t, deal.AttachCustomer(customer.ID))
	require.NoError(t, deal.AssignNumber("2026-0830-0001"))
	f.repos.deals.deals[deal.ID] = deal

	resp, err := f.service.AttachCustomer(context.Background(), f.dealershipID, deal.ID,
		appdesking.AttachCustomerRequest{CustomerID: customer.ID}, nil)
	require.NoError(t, err)

	assert.Equal(t, "2026-0830-0001", *resp.DealNumber)
	assert.Zero(t, f.repos.sequences.calls)
	assert.Empty(t, f.repos.audit.entries)
}

func TestDealService_AttachCustomer_DifferentCustomerRejected(t *testing.T) {
	f := newFixture(t, nil)
	first := f.addCustomer(t, f.dealershipID)
	second := f.addCustomer(t, f.dealershipID)

	deal, err := desking.NewDeal(f.dealershipID, f.salesperson.ID)
	require.NoError(t, err)
	require.NoError(t, deal.AttachCustomer(first.ID))
	f.repos.deals.deals[deal.ID] = deal

	_, err = f.service.AttachCustomer(context.Background(), f.dealershipID, deal.ID,
		appdesking.AttachCustomerRequest{CustomerID: second.ID}, nil)

	var dErr *shared.DomainError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, "INVALID_STATE", dErr.Code)
}

func TestDealService_AttachCustomer_CrossTenant(t *testing.T) {
	f := newFixture(t, nil)
	foreign := f.addCustomer(t, uuid.New())

	deal, err := desking.NewDeal(f.dealershipID, f.salesperson.ID)
	require.NoError(t, err)
	f.repos.deals.deals[deal.ID] = deal

	_, err = f.service.AttachCustomer(context.Background(), f.dealershipID, deal.ID,
		appdesking.AttachCustomerRequest{CustomerID: foreign.ID}, nil)
	assert.ErrorIs(t, err, shared.ErrTenantViolation)
}

func TestDealService_Get(t *testing.T) {
	f := newFixture(t, nil)

	deal, err := desking.NewDeal(f.dealershipID, f.salesperson.ID)
	require.NoError(t, err)
	f.repos.deals.deals[deal.ID] = deal

	resp, err := f.service.Get(context.Background(), f.dealershipID, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, deal.ID, resp.ID)

	_, err = f.service.Get(context.Background(), uuid.New(), deal.ID)
	assert.ErrorIs(t, err, shared.ErrTenantViolation)

	_, err = f.service.Get(context.Background(), f.dealershipID, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDealService_List(t *testing.T) {
	f := newFixture(t, nil)

	for i := 0; i < 3; i++ {
		deal, err := desking.NewDeal(f.dealershipID, f.salesperson.ID)
		require.NoError(t, err)
		f.repos.deals.deals[deal.ID] = deal
	}
	foreign, err := desking.NewDeal(uuid.New(), uuid.New())
	require.NoError(t, err)
	f.repos.deals.deals[foreign.ID] = foreign

	page, err := f.service.List(context.Background(), f.dealershipID, appdesking.ListDealsRequest{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 1, page.Page)
}

func TestDealService_ListScenarios(t *testing.T) {
	f := newFixture(t, nil)

	deal, err := desking.NewDeal(f.dealershipID, f.salesperson.ID)
	require.NoError(t, err)
	f.repos.deals.deals[deal.ID] = deal

	scenario, err := desking.NewDefaultScenario(deal, decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, f.repos.deals.SaveScenario(context.Background(), scenario))

	out, err := f.service.ListScenarios(context.Background(), f.dealershipID, deal.ID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "default", out[0].Name)
	assert.True(t, out[0].IsDefault)
}

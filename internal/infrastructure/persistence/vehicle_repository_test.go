package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dealerdesk/backend/internal/domain/inventory"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockVehicleRepo(t *testing.T) (*GormVehicleRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() { mockDB.Close() })
	return NewGormVehicleRepository(gormDB), mock
}

func vehicleRows(id, dealershipID uuid.UUID, status inventory.VehicleStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "dealership_id",
		"vin", "stock_number", "make", "model", "year", "price", "status",
	}).AddRow(
		id, time.Now(), time.Now(), dealershipID,
		"1HGCM82633A004352", nil, "Honda", "Accord", 2024, "28500", string(status),
	)
}

func TestGormVehicleRepository_FindByID(t *testing.T) {
	t.Run("finds vehicle across dealerships", func(t *testing.T) {
		repo, mock := newMockVehicleRepo(t)
		id := uuid.New()
		dealershipID := uuid.New()

		mock.ExpectQuery(`SELECT .* FROM "vehicles" WHERE id = \$1`).
			WithArgs(id, 1).
			WillReturnRows(vehicleRows(id, dealershipID, inventory.VehicleStatusAvailable))

		v, err := repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, v.ID)
		assert.Equal(t, dealershipID, v.DealershipID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when missing", func(t *testing.T) {
		repo, mock := newMockVehicleRepo(t)

		mock.ExpectQuery(`SELECT .* FROM "vehicles"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormVehicleRepository_FindByIDForDealership(t *testing.T) {
	t.Run("scopes lookup to the dealership", func(t *testing.T) {
		repo, mock := newMockVehicleRepo(t)
		id := uuid.New()
		dealershipID := uuid.New()

		mock.ExpectQuery(`SELECT .* FROM "vehicles" WHERE dealership_id = \$1 AND id = \$2`).
			WithArgs(dealershipID, id, 1).
			WillReturnRows(vehicleRows(id, dealershipID, inventory.VehicleStatusAvailable))

		v, err := repo.FindByIDForDealership(context.Background(), dealershipID, id)
		require.NoError(t, err)
		assert.Equal(t, dealershipID, v.DealershipID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("does not see another dealership's vehicle", func(t *testing.T) {
		repo, mock := newMockVehicleRepo(t)

		mock.ExpectQuery(`SELECT .* FROM "vehicles" WHERE dealership_id = \$1 AND id = \$2`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByIDForDealership(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormVehicleRepository_LockByID(t *testing.T) {
	t.Run("locks the row for update", func(t *testing.T) {
		repo, mock := newMockVehicleRepo(t)
		id := uuid.New()

		mock.ExpectQuery(`SELECT .* FROM "vehicles" WHERE id = \$1 .* FOR UPDATE`).
			WithArgs(id, 1).
			WillReturnRows(vehicleRows(id, uuid.New(), inventory.VehicleStatusAvailable))

		v, err := repo.LockByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, v.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormVehicleRepository_FindAllForDealership(t *testing.T) {
	t.Run("applies status filter and pagination", func(t *testing.T) {
		repo, mock := newMockVehicleRepo(t)
		dealershipID := uuid.New()

		mock.ExpectQuery(`SELECT .* FROM "vehicles" WHERE dealership_id = \$1 AND status = \$2 ORDER BY created_at DESC LIMIT \$3`).
			WillReturnRows(vehicleRows(uuid.New(), dealershipID, inventory.VehicleStatusAvailable))

		filter := shared.DefaultFilter()
		filter.Filters["status"] = "available"

		vehicles, err := repo.FindAllForDealership(context.Background(), dealershipID, filter)
		require.NoError(t, err)
		assert.Len(t, vehicles, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

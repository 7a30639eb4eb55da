package tenant

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnableAutoDealershipFilter(t *testing.T) {
	db, _, mockDB := setupMockDB(t)
	defer mockDB.Close()

	// Should not panic
	EnableAutoDealershipFilter(db, true)
}

func TestDisableAutoDealershipFilter(t *testing.T) {
	db, _, mockDB := setupMockDB(t)
	defer mockDB.Close()

	EnableAutoDealershipFilter(db, true)

	// Should not panic when removing callbacks
	DisableAutoDealershipFilter(db)
}

func TestAutoDealershipFilter_AppliesScope(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()

	EnableAutoDealershipFilter(db, true)
	defer DisableAutoDealershipFilter(db)

	dealershipID := uuid.New()
	ctx := contextWithDealership(dealershipID.String())

	mock.ExpectQuery(`SELECT \* FROM "test_models" WHERE "test_models"\."dealership_id" = \$1`).
		WithArgs(dealershipID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "dealership_id", "name"}))

	var results []testModel
	err := db.WithContext(ctx).Find(&results).Error
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoDealershipFilter_RequiredEnforcement(t *testing.T) {
	t.Run("errors when dealership required but missing in context", func(t *testing.T) {
		db, _, mockDB := setupMockDB(t)
		defer mockDB.Close()

		EnableAutoDealershipFilter(db, true)
		defer DisableAutoDealershipFilter(db)

		var results []testModel
		err := db.WithContext(context.Background()).Find(&results).Error
		assert.ErrorIs(t, err, ErrDealershipRequired)
	})

	t.Run("allows missing dealership when not required", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		EnableAutoDealershipFilter(db, false)
		defer DisableAutoDealershipFilter(db)

		mock.ExpectQuery(`SELECT \* FROM "test_models"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "dealership_id", "name"}))

		var results []testModel
		err := db.WithContext(context.Background()).Find(&results).Error
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("errors on invalid dealership ID even when not required", func(t *testing.T) {
		db, _, mockDB := setupMockDB(t)
		defer mockDB.Close()

		EnableAutoDealershipFilter(db, false)
		defer DisableAutoDealershipFilter(db)

		var results []testModel
		err := db.WithContext(contextWithDealership("garbage")).Find(&results).Error
		assert.ErrorIs(t, err, ErrInvalidDealershipID)
	})
}

func TestAutoDealershipFilter_SkipsExistingCondition(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()

	EnableAutoDealershipFilter(db, true)
	defer DisableAutoDealershipFilter(db)

	dealershipID := uuid.New()
	ctx := contextWithDealership(dealershipID.String())

	// Only one dealership condition should survive when the query already
	// filters on the column.
	mock.ExpectQuery(`SELECT \* FROM "test_models" WHERE dealership_id = \$1`).
		WithArgs(dealershipID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "dealership_id", "name"}))

	var results []testModel
	err := db.WithContext(ctx).Where("dealership_id = ?", dealershipID).Find(&results).Error
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoDealershipFilter_SkipsUnscoped(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()

	EnableAutoDealershipFilter(db, true)
	defer DisableAutoDealershipFilter(db)

	mock.ExpectQuery(`SELECT \* FROM "test_models"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "dealership_id", "name"}))

	// Unscoped sessions see all dealerships; used to distinguish missing
	// rows from cross-tenant references.
	var results []testModel
	err := db.WithContext(context.Background()).Unscoped().Find(&results).Error
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

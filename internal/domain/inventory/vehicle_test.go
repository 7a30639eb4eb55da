package inventory

import (
	"testing"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVehicleStatus_IsValid(t *testing.T) {
	assert.True(t, VehicleStatusAvailable.IsValid())
	assert.True(t, VehicleStatusPending.IsValid())
	assert.True(t, VehicleStatusSold.IsValid())
	assert.True(t, VehicleStatusInTransit.IsValid())
	assert.False(t, VehicleStatus("wrecked").IsValid())
}

func TestVehicleStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name   string
		from   VehicleStatus
		to     VehicleStatus
		expect bool
	}{
		{"available to pending", VehicleStatusAvailable, VehicleStatusPending, true},
		{"available to sold", VehicleStatusAvailable, VehicleStatusSold, true},
		{"pending to sold", VehicleStatusPending, VehicleStatusSold, true},
		{"pending back to available", VehicleStatusPending, VehicleStatusAvailable, true},
		{"in_transit to available", VehicleStatusInTransit, VehicleStatusAvailable, true},
		{"sold is terminal", VehicleStatusSold, VehicleStatusAvailable, false},
		{"sold cannot re-pend", VehicleStatusSold, VehicleStatusPending, false},
		{"in_transit cannot jump to sold", VehicleStatusInTransit, VehicleStatusSold, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestVehicleStatus_IsAttachable(t *testing.T) {
	assert.True(t, VehicleStatusAvailable.IsAttachable())
	// pending means another deal already holds the vehicle
	assert.False(t, VehicleStatusPending.IsAttachable())
	assert.False(t, VehicleStatusSold.IsAttachable())
	assert.False(t, VehicleStatusInTransit.IsAttachable())
}

func TestNewVehicle(t *testing.T) {
	t.Run("creates available vehicle", func(t *testing.T) {
		v, err := NewVehicle(uuid.New(), "1HGCM82633A004352", "Honda", "Accord", 2024, decimal.NewFromInt(28500))
		require.NoError(t, err)

		assert.Equal(t, VehicleStatusAvailable, v.Status)
		assert.Nil(t, v.StockNumber)
		assert.NotEqual(t, uuid.Nil, v.ID)
	})

	t.Run("rejects empty VIN", func(t *testing.T) {
		_, err := NewVehicle(uuid.New(), "", "Honda", "Accord", 2024, decimal.NewFromInt(28500))
		require.Error(t, err)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewVehicle(uuid.New(), "1HGCM82633A004352", "Honda", "Accord", 2024, decimal.NewFromInt(-1))
		require.Error(t, err)
	})

	t.Run("rejects nil dealership", func(t *testing.T) {
		_, err := NewVehicle(uuid.Nil, "1HGCM82633A004352", "Honda", "Accord", 2024, decimal.Zero)
		require.Error(t, err)
	})
}

func TestVehicle_MarkPending(t *testing.T) {
	t.Run("available becomes pending", func(t *testing.T) {
		v, err := NewVehicle(uuid.New(), "VIN1", "Ford", "F-150", 2023, decimal.NewFromInt(45000))
		require.NoError(t, err)

		require.NoError(t, v.MarkPending())
		assert.Equal(t, VehicleStatusPending, v.Status)
	})

	t.Run("pending vehicle is rejected", func(t *testing.T) {
		v, err := NewVehicle(uuid.New(), "VIN2", "Ford", "F-150", 2023, decimal.NewFromInt(45000))
		require.NoError(t, err)

		require.NoError(t, v.MarkPending())
		// a second deal holding the row lock must not claim it again
		err = v.MarkPending()
		assert.ErrorIs(t, err, shared.ErrVehicleNotAvailable)
		assert.Equal(t, VehicleStatusPending, v.Status)
	})

	t.Run("sold vehicle is rejected", func(t *testing.T) {
		v, err := NewVehicle(uuid.New(), "VIN3", "Ford", "F-150", 2023, decimal.NewFromInt(45000))
		require.NoError(t, err)
		v.Status = VehicleStatusSold

		err = v.MarkPending()
		assert.ErrorIs(t, err, shared.ErrVehicleNotAvailable)
		assert.Equal(t, VehicleStatusSold, v.Status)
	})
}

func TestVehicle_AssignStockNumber(t *testing.T) {
	v, err := NewVehicle(uuid.New(), "VIN4", "Toyota", "Camry", 2025, decimal.NewFromInt(31000))
	require.NoError(t, err)

	require.NoError(t, v.AssignStockNumber("STK-000042"))
	require.NotNil(t, v.StockNumber)
	assert.Equal(t, "STK-000042", *v.StockNumber)

	err = v.AssignStockNumber("STK-000043")
	require.Error(t, err)
	assert.Equal(t, "STK-000042", *v.StockNumber)
}

package desking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeal(t *testing.T) {
	t.Run("creates draft deal without number", func(t *testing.T) {
		deal, err := NewDeal(uuid.New(), uuid.New())
		require.NoError(t, err)

		assert.Equal(t, DealStatusDraft, deal.Status)
		assert.Nil(t, deal.DealNumber)
		assert.Nil(t, deal.CustomerID)
		assert.Nil(t, deal.ActiveScenarioID)
	})

	t.Run("rejects nil dealership", func(t *testing.T) {
		_, err := NewDeal(uuid.Nil, uuid.New())
		require.Error(t, err)
	})

	t.Run("rejects nil salesperson", func(t *testing.T) {
		_, err := NewDeal(uuid.New(), uuid.Nil)
		require.Error(t, err)
	})
}

func TestDeal_AttachCustomer(t *testing.T) {
	deal, err := NewDeal(uuid.New(), uuid.New())
	require.NoError(t, err)

	customerID := uuid.New()
	require.NoError(t, deal.AttachCustomer(customerID))

	assert.Equal(t, DealStatusOpen, deal.Status)
	require.NotNil(t, deal.CustomerID)
	assert.Equal(t, customerID, *deal.CustomerID)
	assert.True(t, deal.HasCustomer(customerID))
	assert.False(t, deal.HasCustomer(uuid.New()))
}

func TestDeal_AssignNumber(t *testing.T) {
	t.Run("assigns once", func(t *testing.T) {
		deal, err := NewDeal(uuid.New(), uuid.New())
		require.NoError(t, err)

		require.NoError(t, deal.AssignNumber("2026-0830-0001"))
		require.NotNil(t, deal.DealNumber)
		assert.Equal(t, "2026-0830-0001", *deal.DealNumber)
	})

	t.Run("number is immutable once set", func(t *testing.T) {
		deal, err := NewDeal(uuid.New(), uuid.New())
		require.NoError(t, err)

		require.NoError(t, deal.AssignNumber("2026-0830-0001"))
		err = deal.AssignNumber("2026-0830-0002")
		require.Error(t, err)
		assert.Equal(t, "2026-0830-0001", *deal.DealNumber)
	})

	t.Run("rejects empty number", func(t *testing.T) {
		deal, err := NewDeal(uuid.New(), uuid.New())
		require.NoError(t, err)
		require.Error(t, deal.AssignNumber(""))
	})
}

func TestNewDefaultScenario(t *testing.T) {
	deal, err := NewDeal(uuid.New(), uuid.New())
	require.NoError(t, err)

	price := decimal.NewFromInt(28500)
	tax := decimal.NewFromFloat(1852.50)

	scenario, err := NewDefaultScenario(deal, price, tax)
	require.NoError(t, err)

	assert.Equal(t, deal.ID, scenario.DealID)
	assert.Equal(t, deal.DealershipID, scenario.DealershipID)
	assert.True(t, scenario.IsDefault)
	assert.Equal(t, "default", scenario.Name)
	assert.True(t, scenario.TotalPrice.Equal(price.Add(tax)))
}

func TestNewDefaultScenario_RejectsNegativeAmounts(t *testing.T) {
	deal, err := NewDeal(uuid.New(), uuid.New())
	require.NoError(t, err)

	_, err = NewDefaultScenario(deal, decimal.NewFromInt(-1), decimal.Zero)
	require.Error(t, err)

	_, err = NewDefaultScenario(deal, decimal.Zero, decimal.NewFromInt(-1))
	require.Error(t, err)
}

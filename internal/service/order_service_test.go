package service

import (
	"testing"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderTotalCents(t *testing.T) {
	items := []models.OrderItem{
		{Quantity: 2, UnitPriceCents: 1000},
		{Quantity: 1, UnitPriceCents: 500},
		{Quantity: 1, UnitPriceCents: 0, Source: models.LineSourceRedeemed},
	}

	assert.Equal(t, int64(2500), OrderTotalCents(items))
	assert.Zero(t, OrderTotalCents(nil))
}

func TestNextFulfillmentStatus(t *testing.T) {
	chain := []string{
		models.OrderStatusPaid,
		models.OrderStatusPreparing,
		models.OrderStatusReady,
		models.OrderStatusCompleted,
	}

	for i := 0; i < len(chain)-1; i++ {
		next, err := NextFulfillmentStatus(chain[i])
		require.NoError(t, err)
		assert.Equal(t, chain[i+1], next)
	}

	// zero-total orders enter the chain at CONFIRMED
	next, err := NextFulfillmentStatus(models.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPreparing, next)

	for _, status := range []string{
		models.OrderStatusDraft,
		models.OrderStatusPendingPayment,
		models.OrderStatusCompleted,
		models.OrderStatusCancelled,
	} {
		_, err := NextFulfillmentStatus(status)
		assert.ErrorIs(t, err, ErrInvalid, "status %s", status)
	}
}

func TestIsTerminalOrderStatus(t *testing.T) {
	assert.True(t, IsTerminalOrderStatus(models.OrderStatusCompleted))
	assert.True(t, IsTerminalOrderStatus(models.OrderStatusCancelled))

	assert.False(t, IsTerminalOrderStatus(models.OrderStatusDraft))
	assert.False(t, IsTerminalOrderStatus(models.OrderStatusPendingPayment))
	assert.False(t, IsTerminalOrderStatus(models.OrderStatusPaid))
	assert.False(t, IsTerminalOrderStatus(models.OrderStatusPreparing))
	assert.False(t, IsTerminalOrderStatus(models.OrderStatusReady))
}

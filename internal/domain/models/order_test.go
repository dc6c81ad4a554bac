package models_test

import (
	"testing"

	"github.com/linemk/order-service/internal/domain/models"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    models.OrderStatus
		to      models.OrderStatus
		allowed bool
	}{
		{"pending to confirmed", models.OrderStatusPending, models.OrderStatusConfirmed, true},
		{"pending to shipped", models.OrderStatusPending, models.OrderStatusShipped, true},
		{"pending to delivered", models.OrderStatusPending, models.OrderStatusDelivered, true},
		{"pending to cancelled", models.OrderStatusPending, models.OrderStatusCancelled, true},
		{"confirmed to shipped", models.OrderStatusConfirmed, models.OrderStatusShipped, true},
		{"confirmed to pending", models.OrderStatusConfirmed, models.OrderStatusPending, false},
		{"shipped to delivered", models.OrderStatusShipped, models.OrderStatusDelivered, true},
		{"shipped to confirmed", models.OrderStatusShipped, models.OrderStatusConfirmed, false},
		{"delivered is terminal", models.OrderStatusDelivered, models.OrderStatusCancelled, false},
		{"cancelled is terminal", models.OrderStatusCancelled, models.OrderStatusPending, false},
		{"cancelled to cancelled", models.OrderStatusCancelled, models.OrderStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_Valid(t *testing.T) {
	assert.True(t, models.OrderStatusPending.Valid())
	assert.True(t, models.OrderStatusCancelled.Valid())
	assert.False(t, models.OrderStatus("PAID").Valid())
	assert.False(t, models.OrderStatus("").Valid())
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.True(t, models.OrderStatusDelivered.Terminal())
	assert.True(t, models.OrderStatusCancelled.Terminal())
	assert.False(t, models.OrderStatusPending.Terminal())
	assert.False(t, models.OrderStatus("PAID").Terminal())
}

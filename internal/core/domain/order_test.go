package domain_test

import (
	"testing"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from domain.OrderStatus
		to   domain.OrderStatus
		want bool
	}{
		{"open to in progress", domain.StatusOpen, domain.StatusInProgress, true},
		{"open to completed is skipped step", domain.StatusOpen, domain.StatusCompleted, false},
		{"in progress to completed", domain.StatusInProgress, domain.StatusCompleted, true},
		{"awaiting part back to in progress", domain.StatusAwaitingPart, domain.StatusInProgress, true},
		{"awaiting approval to awaiting part", domain.StatusAwaitingApproval, domain.StatusAwaitingPart, false},
		{"completed is terminal", domain.StatusCompleted, domain.StatusCanceled, false},
		{"completed self loop", domain.StatusCompleted, domain.StatusCompleted, true},
		{"canceled reopens", domain.StatusCanceled, domain.StatusOpen, true},
		{"canceled cannot jump to in progress", domain.StatusCanceled, domain.StatusInProgress, false},
		{"unknown target", domain.StatusOpen, domain.OrderStatus("DONE"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_DescribeAllowedTransitions(t *testing.T) {
	assert.Equal(t, "none (final status)", domain.StatusCompleted.DescribeAllowedTransitions())
	assert.Equal(t, "OPEN", domain.StatusCanceled.DescribeAllowedTransitions())
	assert.Equal(t, "IN_PROGRESS, CANCELED", domain.StatusAwaitingPart.DescribeAllowedTransitions())
}

func TestOrder_RecomputeValue(t *testing.T) {
	t.Run("lines override caller value", func(t *testing.T) {
		o := domain.Order{
			Value: decimal.NewFromInt(999),
			Services: []domain.OrderServiceLine{
				{Quantity: 2, UnitPrice: decimal.NewFromInt(50), LineTotal: domain.LineTotal(2, decimal.NewFromInt(50))},
			},
			Parts: []domain.OrderPartLine{
				{Quantity: 3, UnitPrice: decimal.RequireFromString("10.50"), LineTotal: domain.LineTotal(3, decimal.RequireFromString("10.50"))},
			},
		}
		o.RecomputeValue()
		assert.True(t, decimal.RequireFromString("131.50").Equal(o.Value), "got %s", o.Value)
	})

	t.Run("no lines keeps caller value", func(t *testing.T) {
		o := domain.Order{Value: decimal.NewFromInt(80)}
		o.RecomputeValue()
		assert.True(t, decimal.NewFromInt(80).Equal(o.Value))
	})
}

func TestPlate(t *testing.T) {
	assert.Equal(t, "ABC1234", domain.NormalizePlate(" abc-1234 "))
	assert.True(t, domain.ValidPlate("abc-1234"))
	assert.True(t, domain.ValidPlate("BRA2E19"))
	assert.False(t, domain.ValidPlate("AB12345"))
	assert.False(t, domain.ValidPlate(""))
}

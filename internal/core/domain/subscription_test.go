package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestSubscription_GraceExpired(t *testing.T) {
	next := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	sub := domain.Subscription{NextBillingDate: next, GraceDays: 5, Status: domain.SubscriptionPastDue}

	tests := []struct {
		name    string
		today   time.Time
		overdue bool
		expired bool
	}{
		{"billing day", next, false, false},
		{"day after billing", next.AddDate(0, 0, 1), true, false},
		{"last grace day", next.AddDate(0, 0, 5), true, false},
		{"first day past grace", next.AddDate(0, 0, 6), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overdue, sub.IsOverdue(tt.today))
			assert.Equal(t, tt.expired, sub.GraceExpired(tt.today))
		})
	}
}

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), domain.AddMonths(time.Date(2025, 1, 31, 15, 4, 0, 0, time.UTC), 1))
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), domain.AddMonths(time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC), 1))
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), domain.AddMonths(time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC), 1))
}

func TestInventoryItem_AlertLevel(t *testing.T) {
	level, ok := domain.InventoryItem{Quantity: 0, MinimumQuantity: 2}.AlertLevel()
	assert.True(t, ok)
	assert.Equal(t, domain.AlertCritical, level)

	level, ok = domain.InventoryItem{Quantity: 2, MinimumQuantity: 2}.AlertLevel()
	assert.True(t, ok)
	assert.Equal(t, domain.AlertLow, level)

	_, ok = domain.InventoryItem{Quantity: 3, MinimumQuantity: 2}.AlertLevel()
	assert.False(t, ok)
}

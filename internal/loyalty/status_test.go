package loyalty

import (
	"testing"
	"time"

	"barbershop_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestStatusPolicyDerive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recent := now.AddDate(0, 0, -5)
	stale := now.AddDate(0, 0, -91)
	policy := NewStatusPolicy(90)

	tests := []struct {
		name      string
		client    models.Client
		canRedeem bool
		expected  models.LoyaltyStatus
	}{
		{"no visits yet", models.Client{}, false, models.LoyaltyStatusNew},
		{"recent visit", models.Client{TotalLifetimeVisits: 1, LastVisitAt: &recent}, false, models.LoyaltyStatusActive},
		{"goal met", models.Client{TotalLifetimeVisits: 10, LastVisitAt: &recent}, true, models.LoyaltyStatusMilestoneReached},
		{"long absence", models.Client{TotalLifetimeVisits: 3, LastVisitAt: &stale}, false, models.LoyaltyStatusInactive},
		{"long absence beats milestone", models.Client{TotalLifetimeVisits: 10, LastVisitAt: &stale}, true, models.LoyaltyStatusInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, policy.Derive(&tt.client, tt.canRedeem, now))
		})
	}
}

func TestNewStatusPolicyDefaultsWindow(t *testing.T) {
	assert.Equal(t, DefaultInactivityWindow, NewStatusPolicy(0).InactivityWindow)
	assert.Equal(t, 30*24*time.Hour, NewStatusPolicy(30).InactivityWindow)
}

func TestValidTransition(t *testing.T) {
	assert.True(t, ValidTransition(models.LoyaltyStatusNew, models.LoyaltyStatusActive))
	assert.True(t, ValidTransition(models.LoyaltyStatusActive, models.LoyaltyStatusMilestoneReached))
	assert.True(t, ValidTransition(models.LoyaltyStatusMilestoneReached, models.LoyaltyStatusActive))
	assert.True(t, ValidTransition(models.LoyaltyStatusInactive, models.LoyaltyStatusActive))
	assert.True(t, ValidTransition(models.LoyaltyStatusActive, models.LoyaltyStatusActive))
	assert.False(t, ValidTransition(models.LoyaltyStatusActive, models.LoyaltyStatusNew))
	assert.False(t, ValidTransition(models.LoyaltyStatusInactive, models.LoyaltyStatusNew))
}

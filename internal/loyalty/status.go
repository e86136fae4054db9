package loyalty

import (
	"time"

	"barbershop_backend/internal/models"
)

// DefaultInactivityWindow applies when no window is configured.
const DefaultInactivityWindow = 90 * 24 * time.Hour

// StatusPolicy derives the coarse loyalty status. The status is never trusted from storage;
// it is recomputed on every read and written back only as a cache.
type StatusPolicy struct {
	InactivityWindow time.Duration
}

// NewStatusPolicy returns a policy with the given inactivity window in days.
func NewStatusPolicy(inactivityDays int) StatusPolicy {
	if inactivityDays <= 0 {
		return StatusPolicy{InactivityWindow: DefaultInactivityWindow}
	}
	return StatusPolicy{InactivityWindow: time.Duration(inactivityDays) * 24 * time.Hour}
}

// Derive never fails.
func (p StatusPolicy) Derive(client *models.Client, canRedeem bool, now time.Time) models.LoyaltyStatus {
	if client.TotalLifetimeVisits == 0 || client.LastVisitAt == nil {
		return models.LoyaltyStatusNew
	}
	window := p.InactivityWindow
	if window <= 0 {
		window = DefaultInactivityWindow
	}
	if now.Sub(*client.LastVisitAt) > window {
		return models.LoyaltyStatusInactive
	}
	if canRedeem {
		return models.LoyaltyStatusMilestoneReached
	}
	return models.LoyaltyStatusActive
}

var allowedTransitions = map[models.LoyaltyStatus][]models.LoyaltyStatus{
	models.LoyaltyStatusNew:              {models.LoyaltyStatusActive, models.LoyaltyStatusMilestoneReached, models.LoyaltyStatusInactive},
	models.LoyaltyStatusActive:           {models.LoyaltyStatusMilestoneReached, models.LoyaltyStatusInactive},
	models.LoyaltyStatusMilestoneReached: {models.LoyaltyStatusActive, models.LoyaltyStatusInactive},
	models.LoyaltyStatusInactive:         {models.LoyaltyStatusActive, models.LoyaltyStatusMilestoneReached},
}

// ValidTransition reports whether moving from one status to another is part of the state machine.
// Staying in the same status is always valid. new -> milestone_reached covers a first visit that
// already meets a one-visit goal.
func ValidTransition(from, to models.LoyaltyStatus) bool {
	if from == to || from == "" {
		return true
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

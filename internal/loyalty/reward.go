package loyalty

import (
	"strings"

	"barbershop_backend/internal/models"
)

// ValidateRewardDefinition enforces the reward invariants: discounts always carry a percentage in
// [1,100], free rewards never do, the visit requirement is positive and at least one service applies.
func ValidateRewardDefinition(r *models.Reward) error {
	if strings.TrimSpace(r.Name) == "" {
		return ValidationError("reward name cannot be empty")
	}
	if r.VisitsRequired <= 0 {
		return ValidationError("visits required must be a positive integer, got %d", r.VisitsRequired)
	}
	switch r.RewardType {
	case models.RewardTypeFree:
		if r.DiscountPercentage != nil {
			return ValidationError("free rewards cannot carry a discount percentage")
		}
	case models.RewardTypeDiscount:
		if r.DiscountPercentage == nil {
			return ValidationError("discount rewards require a discount percentage")
		}
		if *r.DiscountPercentage < 1 || *r.DiscountPercentage > 100 {
			return ValidationError("discount percentage must be between 1 and 100, got %d", *r.DiscountPercentage)
		}
	default:
		return ValidationError("unknown reward type %q", r.RewardType)
	}
	if len(r.ApplicableServices) == 0 {
		return ValidationError("reward must apply to at least one service")
	}
	seen := make(map[int64]struct{}, len(r.ApplicableServices))
	for _, id := range r.ApplicableServices {
		if id <= 0 {
			return ValidationError("invalid service reference %d", id)
		}
		if _, dup := seen[id]; dup {
			return ValidationError("service %d listed twice", id)
		}
		seen[id] = struct{}{}
	}
	if r.MaxRedemptions != nil && *r.MaxRedemptions <= 0 {
		return ValidationError("max redemptions must be positive when set")
	}
	if r.ValidForDays != nil && *r.ValidForDays <= 0 {
		return ValidationError("valid for days must be positive when set")
	}
	return nil
}

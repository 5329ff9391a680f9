package loyalty

import (
	"time"

	userModel "tour-booking/models/user"
)

// AdjustPointsRequest is the admin-side manual ledger adjustment.
type AdjustPointsRequest struct {
	UserID uint   `json:"user_id"`
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// RedeemPreviewRequest asks how much of a booking amount points can cover.
type RedeemPreviewRequest struct {
	BookingAmount float64 `json:"booking_amount"`
	PointsToUse   int     `json:"points_to_use"`
}

// RedeemPreviewResponse reports the redemption ceiling and resulting discount.
type RedeemPreviewResponse struct {
	MaxRedeemablePoints int     `json:"max_redeemable_points"`
	DiscountAmount      float64 `json:"discount_amount"`
}

// LoyaltyStatus is the caller-facing loyalty state snapshot.
type LoyaltyStatus struct {
	PointsBalance    int                   `json:"points_balance"`
	Tier             userModel.LoyaltyTier `json:"tier"`
	TierDiscount     float64               `json:"tier_discount"`
	LastTierUpdateAt *time.Time            `json:"last_tier_update_at,omitempty"`
}

package trustscore

import (
	"github.com/mirandavel/tradepost-backend/pkg/types"
)

// Tip is one actionable suggestion shown to the account owner alongside
// their own score breakdown.
type Tip struct {
	Factor  types.FactorName `json:"factor"`
	Message string           `json:"message"`
	// PotentialPoints is how much the factor could still contribute.
	PotentialPoints int `json:"potentialPoints"`
}

// Tips derives improvement suggestions from a breakdown. Only positive
// factors with headroom and penalty factors currently costing points
// produce a tip.
func Tips(breakdown types.Breakdown) []Tip {
	var tips []Tip

	if f := breakdown[types.FactorIdentityVerified]; f.Points == 0 {
		tips = append(tips, Tip{
			Factor:          types.FactorIdentityVerified,
			Message:         "Complete identity verification to earn trust points.",
			PotentialPoints: identityVerifiedPoints,
		})
	}
	if f := breakdown[types.FactorCompleteProfile]; f.Points == 0 {
		tips = append(tips, Tip{
			Factor:          types.FactorCompleteProfile,
			Message:         "Fill in your display name, bio, and avatar to complete your profile.",
			PotentialPoints: completeProfilePoints,
		})
	}
	if f := breakdown[types.FactorReviewQuality]; f.Points < reviewQualityMax && !f.SchemaGap {
		tips = append(tips, Tip{
			Factor:          types.FactorReviewQuality,
			Message:         "Complete more transactions; verified reviews raise your score.",
			PotentialPoints: reviewQualityMax - f.Points,
		})
	}
	if f := breakdown[types.FactorActiveListings]; f.Points == 0 && !f.SchemaGap {
		tips = append(tips, Tip{
			Factor:          types.FactorActiveListings,
			Message:         "Keep at least 10 approved listings active.",
			PotentialPoints: activeListingsPoints,
		})
	}
	if f := breakdown[types.FactorWarnings]; f.Points < 0 {
		tips = append(tips, Tip{
			Factor:          types.FactorWarnings,
			Message:         "Active warnings are reducing your score; they lift when they expire.",
			PotentialPoints: -f.Points,
		})
	}
	if f := breakdown[types.FactorRejectedListings]; f.Points < 0 {
		tips = append(tips, Tip{
			Factor:          types.FactorRejectedListings,
			Message:         "Rejected listings count against you; review the listing guidelines before posting.",
			PotentialPoints: -f.Points,
		})
	}

	return tips
}

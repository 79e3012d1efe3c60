package classifier

import "github.com/worksheet-gen/backend/internal/models"

// Classify buckets a 0-100 score into a proficiency tier against two
// validated thresholds. A score exactly equal to a threshold belongs to
// the higher tier.
func Classify(score float64, thresholds models.ThresholdConfig) models.Tier {
	if score < thresholds.Low {
		return models.TierLow
	}
	if score < thresholds.High {
		return models.TierMedium
	}
	return models.TierHigh
}

// MapTier returns the target curriculum grade configured for a tier.
// Unknown tiers fall back to the medium grade.
func MapTier(tier models.Tier, mapping models.CurriculumMapping) int {
	switch tier {
	case models.TierLow:
		return mapping.LowGrade
	case models.TierHigh:
		return mapping.HighGrade
	default:
		return mapping.MediumGrade
	}
}

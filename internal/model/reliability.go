package model

import (
	"math"
	"time"
)

// ReliabilityReason explains a score history entry
type ReliabilityReason string

const (
	ReliabilityReasonPaidOnTime    ReliabilityReason = "PAID_ON_TIME"
	ReliabilityReasonPaidLate      ReliabilityReason = "PAID_LATE"
	ReliabilityReasonOverdueUnpaid ReliabilityReason = "OVERDUE_UNPAID"
	ReliabilityReasonRecalculated  ReliabilityReason = "RECALCULATED"
	ReliabilityReasonNoHistory     ReliabilityReason = "NO_HISTORY"
)

// ReliabilityEvent is one entry in a user's score history. Every score
// change carries the reason that produced it.
type ReliabilityEvent struct {
	ID         string            `json:"id"`
	UserID     string            `json:"user_id"`
	Score      int               `json:"score"`
	Reason     ReliabilityReason `json:"reason"`
	RecordedAt time.Time         `json:"recorded_at"`
}

// ReliabilityReport is the read model for a user's current score and
// the inputs it was computed from.
type ReliabilityReport struct {
	UserID      string    `json:"user_id"`
	Score       int       `json:"score"`
	OnTime      int       `json:"on_time"`
	Late        int       `json:"late"`
	Overdue     int       `json:"overdue"`
	OnTimeRatio float64   `json:"on_time_ratio"`
	TenureDays  int       `json:"tenure_days"`
	ComputedAt  time.Time `json:"computed_at"`
}

// Scoring weights. On-time behavior dominates; payment volume and
// tenure saturate so long-standing heavy participants cannot coast on
// age alone.
const (
	reliabilityOnTimeWeight = 70
	reliabilityVolumeWeight = 20
	reliabilityTenureWeight = 10

	reliabilityVolumeSaturation = 24  // paid contributions
	reliabilityTenureSaturation = 730 // days
)

// ComputeReliabilityScore derives a 0-100 score from contribution
// outcomes. onTime and late count paid contributions by whether they
// settled by their due date; overdue counts unpaid contributions past
// due. Cancelled and not-yet-due contributions are neutral and must
// not be passed in. The second return is false when there is no
// countable history, in which case the caller keeps the neutral
// default.
func ComputeReliabilityScore(onTime, late, overdue, tenureDays int) (int, bool) {
	counted := onTime + late + overdue
	if counted <= 0 {
		return DefaultReliabilityScore, false
	}

	onTimeRatio := float64(onTime) / float64(counted)
	paid := float64(onTime + late)
	volume := math.Min(paid, reliabilityVolumeSaturation) / reliabilityVolumeSaturation
	tenure := math.Min(float64(tenureDays), reliabilityTenureSaturation) / reliabilityTenureSaturation

	score := math.Round(
		reliabilityOnTimeWeight*onTimeRatio +
			reliabilityVolumeWeight*volume +
			reliabilityTenureWeight*tenure,
	)
	return ClampReliabilityScore(int(score)), true
}

// ClampReliabilityScore bounds a score to [0, 100]
func ClampReliabilityScore(score int) int {
	if score < MinReliabilityScore {
		return MinReliabilityScore
	}
	if score > MaxReliabilityScore {
		return MaxReliabilityScore
	}
	return score
}

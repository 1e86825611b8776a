package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeeSettings is one append-only fee policy record. Percentages are stored as
// whole-number percent (0..100); the current policy is the latest record.
type FeeSettings struct {
	ID                 primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	PlatformFeePct     float64             `json:"platformFeePct" bson:"platformFeePct"`
	CommissionPct      float64             `json:"commissionPct" bson:"commissionPct"`
	TrustAndSupportFee float64             `json:"trustAndSupportFee" bson:"trustAndSupportFee"`
	CreatedBy          *primitive.ObjectID `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt          time.Time           `json:"createdAt" bson:"createdAt"`
}

// DefaultFeeSettings is the policy applied when no record exists yet.
func DefaultFeeSettings() FeeSettings {
	return FeeSettings{
		PlatformFeePct:     5,
		CommissionPct:      15,
		TrustAndSupportFee: 2,
	}
}

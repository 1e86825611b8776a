package models

import "time"

// FeeTotals sums fee snapshots over a set of completed tasks.
type FeeTotals struct {
	Tasks          int64   `json:"tasks" bson:"tasks"`
	Budget         float64 `json:"budget" bson:"budget"`
	PlatformFees   float64 `json:"platformFees" bson:"platformFees"`
	Commissions    float64 `json:"commissions" bson:"commissions"`
	TrustFees      float64 `json:"trustFees" bson:"trustFees"`
	TaskerPayouts  float64 `json:"taskerPayouts" bson:"taskerPayouts"`
	CustomerTotals float64 `json:"customerTotals" bson:"customerTotals"`
}

// PlatformReport is the admin dashboard summary.
type PlatformReport struct {
	GeneratedAt   time.Time            `json:"generatedAt"`
	From          *time.Time           `json:"from,omitempty"`
	To            *time.Time           `json:"to,omitempty"`
	TasksByStatus map[TaskStatus]int64 `json:"tasksByStatus"`
	Fees          FeeTotals            `json:"fees"`
}

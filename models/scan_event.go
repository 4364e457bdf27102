package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScanEvent is the append-only ledger of accepted scans. Rows are never
// updated or deleted. The unique index on (card_instance_id, idempotency_key)
// is what makes accrual exactly-once: a retried request either finds its
// prior row or trips the constraint.
//
// NewStage and AvailableRewards snapshot the outcome at commit time so a
// replayed request can return the exact same response without recomputing.
type ScanEvent struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	CardInstanceID uint             `json:"card_instance_id" gorm:"not null;uniqueIndex:idx_scan_events_instance_key;index:idx_scan_events_instance_day,priority:1"`
	IdempotencyKey string           `json:"idempotency_key" gorm:"not null;uniqueIndex:idx_scan_events_instance_key"`
	Amount         *decimal.Decimal `json:"amount" gorm:"type:numeric(12,2)"`
	ProductID      *uint            `json:"product_id"`
	HappenedAt     time.Time        `json:"happened_at" gorm:"index:idx_scan_events_instance_day,priority:2"`

	StampsGranted    uint `json:"stamps_granted"`
	RewardTriggered  bool `json:"reward_triggered"`
	NewStage         uint `json:"new_stage"`
	AvailableRewards uint `json:"available_rewards"`

	CreatedAt time.Time `json:"created_at"`
}

// RewardRedemption records one reward being handed out at the counter.
type RewardRedemption struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CardInstanceID uint      `json:"card_instance_id" gorm:"index;not null"`
	RedeemedAt     time.Time `json:"redeemed_at"`
	RedeemedBy     string    `json:"redeemed_by"`
	CreatedAt      time.Time `json:"created_at"`
}

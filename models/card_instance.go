package models

import (
	"time"

	"gorm.io/gorm"
)

// CardStatus constants
const (
	CardStatusActive    = "active"
	CardStatusPaused    = "paused"
	CardStatusExpired   = "expired"
	CardStatusExhausted = "exhausted"
)

// CardInstance is one customer's issued card tracking live progress toward
// the next reward. CurrentStage always stays in [0, StageCount); crossing
// StageCount rolls the counter over and unlocks a reward.
//
// All mutation goes through the engine package inside a transaction guarded
// by LockVersion, so two terminals scanning the same card cannot both apply.
type CardInstance struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Code         string         `gorm:"uniqueIndex;not null" json:"code"`
	DefinitionID uint           `json:"definition_id" gorm:"index;not null"`
	Definition   CardDefinition `json:"definition,omitempty" gorm:"foreignKey:DefinitionID"`
	CustomerID   uint           `json:"customer_id" gorm:"index;not null"`

	Status           string `json:"status" gorm:"default:'active'"`
	CurrentStage     uint   `json:"current_stage"`
	LifetimeStamps   uint   `json:"lifetime_stamps"`
	AvailableRewards uint   `json:"available_rewards"`
	RedeemedRewards  uint   `json:"redeemed_rewards"`

	IssuedAt      time.Time  `json:"issued_at"`
	ExpiresAt     *time.Time `json:"expires_at"` // fixed at issuance, nil for unlimited
	LastScannedAt *time.Time `json:"last_scanned_at"`

	LockVersion uint `json:"-" gorm:"default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

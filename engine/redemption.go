package engine

import (
	"errors"

	"gorm.io/gorm"

	"github.com/stampflow/stampflow/models"
)

// RedeemReward hands out one available reward: decrements the counter,
// bumps the redeemed total and appends a redemption row, all atomically.
func RedeemReward(db *gorm.DB, cardInstanceID uint, redeemedBy string) (*models.RewardRedemption, error) {
	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		redemption, err := redeemOnce(db, cardInstanceID, redeemedBy)
		if err == nil {
			return redemption, nil
		}
		if !errors.Is(err, ErrStoreConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func redeemOnce(db *gorm.DB, cardInstanceID uint, redeemedBy string) (*models.RewardRedemption, error) {
	now := timeNow()

	var redemption *models.RewardRedemption
	err := db.Transaction(func(tx *gorm.DB) error {
		var inst models.CardInstance
		if err := tx.First(&inst, cardInstanceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var def models.CardDefinition
		if err := tx.First(&def, inst.DefinitionID).Error; err != nil {
			return err
		}

		switch inst.Status {
		case models.CardStatusPaused, models.CardStatusExhausted:
			return ErrCardPaused
		case models.CardStatusExpired:
			return ErrCardExpired
		}
		if !IsUsable(def, inst, now) {
			return ErrCardExpired
		}

		if inst.AvailableRewards == 0 {
			return ErrNoRewardAvailable
		}

		res := tx.Model(&models.CardInstance{}).
			Where("id = ? AND lock_version = ?", inst.ID, inst.LockVersion).
			Updates(map[string]interface{}{
				"available_rewards": inst.AvailableRewards - 1,
				"redeemed_rewards":  inst.RedeemedRewards + 1,
				"lock_version":      inst.LockVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStoreConflict
		}

		row := models.RewardRedemption{
			CardInstanceID: inst.ID,
			RedeemedAt:     now,
			RedeemedBy:     redeemedBy,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		redemption = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return redemption, nil
}

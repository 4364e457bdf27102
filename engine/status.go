package engine

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/stampflow/stampflow/models"
)

// PauseCard suspends accrual and redemption on an active card.
func PauseCard(db *gorm.DB, cardInstanceID uint) error {
	return setStatus(db, cardInstanceID, models.CardStatusActive, models.CardStatusPaused)
}

// ResumeCard reactivates a paused card.
func ResumeCard(db *gorm.DB, cardInstanceID uint) error {
	return setStatus(db, cardInstanceID, models.CardStatusPaused, models.CardStatusActive)
}

// DisableCard permanently retires a card. This is the only path to the
// exhausted state; the engine itself never sets it.
func DisableCard(db *gorm.DB, cardInstanceID uint) error {
	var inst models.CardInstance
	if err := db.First(&inst, cardInstanceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return db.Model(&models.CardInstance{}).Where("id = ?", inst.ID).
		Update("status", models.CardStatusExhausted).Error
}

func setStatus(db *gorm.DB, cardInstanceID uint, from, to string) error {
	var inst models.CardInstance
	if err := db.First(&inst, cardInstanceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if inst.Status == models.CardStatusExhausted {
		return fmt.Errorf("card %d is disabled", inst.ID)
	}
	res := db.Model(&models.CardInstance{}).
		Where("id = ? AND status = ?", inst.ID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("card %d is not %s", inst.ID, from)
	}
	return nil
}

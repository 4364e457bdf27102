package engine

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stampflow/stampflow/models"
)

// IssueCard creates a new card instance from an active definition. The
// issuance-limit check and the insert happen in one transaction: the counter
// claim is a conditional update, so N racing calls can never issue more than
// the limit allows.
func IssueCard(db *gorm.DB, definitionID, customerID uint) (*models.CardInstance, error) {
	now := timeNow()

	var inst *models.CardInstance
	err := db.Transaction(func(tx *gorm.DB) error {
		var def models.CardDefinition
		if err := tx.First(&def, definitionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !def.Active {
			// Retired versions never issue new cards.
			return ErrNotFound
		}

		var customer models.Customer
		if err := tx.First(&customer, customerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		// Claim an issuance slot. The row update serializes concurrent
		// claims and re-evaluates the predicate after the winner commits.
		res := tx.Model(&models.CardDefinition{}).
			Where("id = ? AND (issuance_limit = 0 OR issued_count < issuance_limit)", def.ID).
			Update("issued_count", gorm.Expr("issued_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrIssuanceLimitReached
		}

		// Initial stamps roll over the same way accrual does, so a grant of
		// a full cycle or more unlocks rewards right at issuance.
		stage, rewards, _ := rollOver(def, 0, 0, def.InitialStamps)

		card := models.CardInstance{
			Code:             uuid.New().String(),
			DefinitionID:     def.ID,
			CustomerID:       customer.ID,
			Status:           models.CardStatusActive,
			CurrentStage:     stage,
			LifetimeStamps:   def.InitialStamps,
			AvailableRewards: rewards,
			IssuedAt:         now,
			ExpiresAt:        expiresAt(def, now),
		}
		if err := tx.Create(&card).Error; err != nil {
			return err
		}

		inst = &card
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

package controllers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stampflow/stampflow/config"
	"github.com/stampflow/stampflow/engine"
	"github.com/stampflow/stampflow/models"
	"github.com/stampflow/stampflow/utils"
)

// PauseCard suspends a card so scans and redemptions are rejected.
func PauseCard(c *gin.Context) {
	changeCardStatus(c, engine.PauseCard, "Card paused")
}

// ResumeCard reactivates a paused card.
func ResumeCard(c *gin.Context) {
	changeCardStatus(c, engine.ResumeCard, "Card resumed")
}

// DisableCard permanently retires a card.
func DisableCard(c *gin.Context) {
	changeCardStatus(c, engine.DisableCard, "Card disabled")
}

func changeCardStatus(c *gin.Context, op func(db *gorm.DB, id uint) error, message string) {
	utils.LogInfo("Card status change requested: %s", message)

	merchant := c.MustGet("merchant").(models.Merchant)

	cardInstanceID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.LogError("Invalid card instance ID: %v", err)
		utils.BadRequest(c, "Invalid card instance ID", nil)
		return
	}

	// The card must belong to one of this merchant's definitions.
	var inst models.CardInstance
	if err := config.DB.
		Joins("JOIN card_definitions ON card_definitions.id = card_instances.definition_id").
		Where("card_instances.id = ? AND card_definitions.merchant_id = ?", cardInstanceID, merchant.ID).
		First(&inst).Error; err != nil {
		utils.LogError("Card instance %d not found for merchant %d", cardInstanceID, merchant.ID)
		utils.NotFound(c, "Card not found")
		return
	}

	if err := op(config.DB, inst.ID); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			utils.NotFound(c, "Card not found")
			return
		}
		utils.LogError("Status change failed for card instance %d: %v", inst.ID, err)
		utils.BadRequest(c, err.Error(), nil)
		return
	}
	utils.LogInfo("%s: instance %d", message, inst.ID)

	utils.Success(c, message, gin.H{"id": inst.ID})
}

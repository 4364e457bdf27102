package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stampflow/stampflow/config"
	"github.com/stampflow/stampflow/models"
	"github.com/stampflow/stampflow/utils"
)

// UpdateDefinition edits a card definition. Rules are immutable per version:
// the current row is deactivated and a new row with Version+1 takes its
// place, so already-issued cards keep the rules they were issued under.
// Newly issued cards use the new version.
func UpdateDefinition(c *gin.Context) {
	utils.LogInfo("UpdateDefinition called")

	merchant := c.MustGet("merchant").(models.Merchant)

	definitionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.LogError("Invalid definition ID: %v", err)
		utils.BadRequest(c, "Invalid definition ID", nil)
		return
	}

	var req DefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid definition request format: %v", err)
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	var current models.CardDefinition
	if err := config.DB.Where("id = ? AND merchant_id = ? AND active = ?", definitionID, merchant.ID, true).
		First(&current).Error; err != nil {
		utils.LogError("Active definition %d not found for merchant %d", definitionID, merchant.ID)
		utils.NotFound(c, "Card definition not found")
		return
	}

	next, errMsg := definitionFromRequest(merchant.ID, req)
	if errMsg != "" {
		utils.LogError("Definition validation failed for merchant %d: %s", merchant.ID, errMsg)
		utils.ValidationError(c, errMsg, nil)
		return
	}
	next.Version = current.Version + 1

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.CardDefinition{}).Where("id = ?", current.ID).
			Update("active", false).Error; err != nil {
			return err
		}
		return tx.Create(next).Error
	})
	if err != nil {
		utils.LogError("Failed to version definition %d: %v", current.ID, err)
		utils.InternalServerError(c, "Failed to update card definition", err.Error())
		return
	}
	utils.LogInfo("Definition %d superseded by %d (version %d) for merchant %d",
		current.ID, next.ID, next.Version, merchant.ID)

	utils.Success(c, "Card definition updated", next)
}

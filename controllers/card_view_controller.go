package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/stampflow/stampflow/config"
	"github.com/stampflow/stampflow/models"
	"github.com/stampflow/stampflow/utils"
)

// GetCard returns the public view of a card instance, consumed by the card
// landing page and the scanner preview.
func GetCard(c *gin.Context) {
	code := c.Param("code")
	utils.LogInfo("GetCard called for code %s", code)

	var inst models.CardInstance
	if err := config.DB.Preload("Definition").Where("code = ?", code).First(&inst).Error; err != nil {
		utils.LogError("Card not found: %s", code)
		utils.NotFound(c, "Card not found")
		return
	}

	utils.Success(c, "Card retrieved", gin.H{
		"code":              inst.Code,
		"status":            inst.Status,
		"card_name":         inst.Definition.Name,
		"card_kind":         inst.Definition.CardKind,
		"stamps_count":      inst.CurrentStage,
		"stamps_target":     inst.Definition.StageCount,
		"lifetime_stamps":   inst.LifetimeStamps,
		"available_rewards": inst.AvailableRewards,
		"redeemed_rewards":  inst.RedeemedRewards,
		"issued_at":         inst.IssuedAt,
		"expires_at":        inst.ExpiresAt,
		"last_scanned_at":   inst.LastScannedAt,
	})
}

// GetCardQR mints the signed QR token for a card. The card page renders
// this as the QR image the customer shows at the counter.
func GetCardQR(c *gin.Context) {
	code := c.Param("code")
	utils.LogInfo("GetCardQR called for code %s", code)

	var inst models.CardInstance
	if err := config.DB.Where("code = ?", code).First(&inst).Error; err != nil {
		utils.LogError("Card not found: %s", code)
		utils.NotFound(c, "Card not found")
		return
	}

	token, err := utils.MintQRToken(inst.Code)
	if err != nil {
		utils.LogError("Failed to mint QR token for card %s: %v", code, err)
		utils.InternalServerError(c, "Failed to generate QR token", err.Error())
		return
	}

	utils.Success(c, "QR token generated", gin.H{
		"qr_token": token,
	})
}

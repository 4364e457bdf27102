package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/stampflow/stampflow/config"
	"github.com/stampflow/stampflow/models"
	"github.com/stampflow/stampflow/utils"
)

// ListScans returns the merchant's scan ledger, newest first. Optional
// ?card_instance_id= narrows it to one card.
func ListScans(c *gin.Context) {
	utils.LogInfo("ListScans called")

	merchant := c.MustGet("merchant").(models.Merchant)
	pagination := utils.NewPagination(c)

	query := config.DB.Model(&models.ScanEvent{}).
		Joins("JOIN card_instances ON card_instances.id = scan_events.card_instance_id").
		Joins("JOIN card_definitions ON card_definitions.id = card_instances.definition_id").
		Where("card_definitions.merchant_id = ?", merchant.ID)

	if cardInstanceID := c.Query("card_instance_id"); cardInstanceID != "" {
		query = query.Where("scan_events.card_instance_id = ?", cardInstanceID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.LogError("Failed to count scans for merchant %d: %v", merchant.ID, err)
		utils.InternalServerError(c, "Failed to count scans", err.Error())
		return
	}

	var scans []models.ScanEvent
	if err := query.Order("scan_events.happened_at DESC").
		Limit(pagination.Limit).Offset(pagination.Offset).
		Find(&scans).Error; err != nil {
		utils.LogError("Failed to list scans for merchant %d: %v", merchant.ID, err)
		utils.InternalServerError(c, "Failed to list scans", err.Error())
		return
	}
	utils.LogInfo("Retrieved %d scans for merchant %d", len(scans), merchant.ID)

	utils.SuccessWithPagination(c, "Scans retrieved", gin.H{
		"scans": scans,
	}, total, pagination.Page, pagination.Limit)
}

package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/stampflow/stampflow/config"
	"github.com/stampflow/stampflow/models"
	"github.com/stampflow/stampflow/utils"
)

// ListCards returns the merchant's issued card instances, newest first.
// Optional filters: ?definition_id=, ?customer_id=, ?status=.
func ListCards(c *gin.Context) {
	utils.LogInfo("ListCards called")

	merchant := c.MustGet("merchant").(models.Merchant)
	pagination := utils.NewPagination(c)

	query := config.DB.Model(&models.CardInstance{}).
		Joins("JOIN card_definitions ON card_definitions.id = card_instances.definition_id").
		Where("card_definitions.merchant_id = ?", merchant.ID)

	if definitionID := c.Query("definition_id"); definitionID != "" {
		query = query.Where("card_instances.definition_id = ?", definitionID)
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		query = query.Where("card_instances.customer_id = ?", customerID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("card_instances.status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.LogError("Failed to count cards for merchant %d: %v", merchant.ID, err)
		utils.InternalServerError(c, "Failed to count cards", err.Error())
		return
	}

	var cards []models.CardInstance
	if err := query.Preload("Definition").
		Order("card_instances.created_at DESC").
		Limit(pagination.Limit).Offset(pagination.Offset).
		Find(&cards).Error; err != nil {
		utils.LogError("Failed to list cards for merchant %d: %v", merchant.ID, err)
		utils.InternalServerError(c, "Failed to list cards", err.Error())
		return
	}
	utils.LogInfo("Retrieved %d cards for merchant %d", len(cards), merchant.ID)

	utils.SuccessWithPagination(c, "Cards retrieved", gin.H{
		"cards": cards,
	}, total, pagination.Page, pagination.Limit)
}

package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/stampflow/stampflow/config"
	"github.com/stampflow/stampflow/models"
	"github.com/stampflow/stampflow/utils"
)

// ListDefinitions returns the merchant's card definitions, newest first.
// Pass ?all=true to include retired versions.
func ListDefinitions(c *gin.Context) {
	utils.LogInfo("ListDefinitions called")

	merchant := c.MustGet("merchant").(models.Merchant)
	pagination := utils.NewPagination(c)

	query := config.DB.Model(&models.CardDefinition{}).Where("merchant_id = ?", merchant.ID)
	if c.DefaultQuery("all", "false") != "true" {
		query = query.Where("active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.LogError("Failed to count definitions for merchant %d: %v", merchant.ID, err)
		utils.InternalServerError(c, "Failed to count card definitions", err.Error())
		return
	}

	var definitions []models.CardDefinition
	if err := query.Order("created_at DESC").Limit(pagination.Limit).Offset(pagination.Offset).
		Find(&definitions).Error; err != nil {
		utils.LogError("Failed to list definitions for merchant %d: %v", merchant.ID, err)
		utils.InternalServerError(c, "Failed to list card definitions", err.Error())
		return
	}
	utils.LogInfo("Retrieved %d definitions for merchant %d", len(definitions), merchant.ID)

	utils.SuccessWithPagination(c, "Card definitions retrieved", gin.H{
		"definitions": definitions,
	}, total, pagination.Page, pagination.Limit)
}

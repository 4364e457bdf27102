package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/stampflow/stampflow/config"
	"github.com/stampflow/stampflow/engine"
	"github.com/stampflow/stampflow/models"
	"github.com/stampflow/stampflow/utils"
)

// IssueCardRequest represents the request body for issuing a card
type IssueCardRequest struct {
	DefinitionID uint `json:"definition_id" binding:"required"`
	CustomerID   uint `json:"customer_id" binding:"required"`
}

// IssueCard issues a new card instance to a customer from one of the
// merchant's active definitions.
func IssueCard(c *gin.Context) {
	utils.LogInfo("IssueCard called")

	merchant := c.MustGet("merchant").(models.Merchant)

	var req IssueCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid issue request format: %v", err)
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}
	utils.LogInfo("Issuing card from definition %d to customer %d for merchant %d",
		req.DefinitionID, req.CustomerID, merchant.ID)

	// Ownership checks before touching the engine: both the definition and
	// the customer must belong to the calling merchant.
	var def models.CardDefinition
	if err := config.DB.Where("id = ? AND merchant_id = ?", req.DefinitionID, merchant.ID).First(&def).Error; err != nil {
		utils.LogError("Definition %d not found for merchant %d", req.DefinitionID, merchant.ID)
		utils.NotFound(c, "Card definition not found")
		return
	}
	var customer models.Customer
	if err := config.DB.Where("id = ? AND merchant_id = ?", req.CustomerID, merchant.ID).First(&customer).Error; err != nil {
		utils.LogError("Customer %d not found for merchant %d", req.CustomerID, merchant.ID)
		utils.NotFound(c, "Customer not found")
		return
	}

	inst, err := engine.IssueCard(config.DB, def.ID, customer.ID)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrIssuanceLimitReached):
			utils.LogError("Issuance limit reached for definition %d", def.ID)
			utils.Conflict(c, "Issuance limit reached for this card", nil)
		case errors.Is(err, engine.ErrNotFound):
			utils.NotFound(c, "Card definition not found")
		default:
			utils.LogError("Failed to issue card from definition %d: %v", def.ID, err)
			utils.InternalServerError(c, "Failed to issue card", err.Error())
		}
		return
	}
	utils.LogInfo("Issued card %s (instance %d) to customer %d", inst.Code, inst.ID, customer.ID)

	utils.Created(c, "Card issued", gin.H{
		"id":                inst.ID,
		"code":              inst.Code,
		"definition_id":     inst.DefinitionID,
		"customer_id":       inst.CustomerID,
		"status":            inst.Status,
		"stamps_count":      inst.CurrentStage,
		"stamps_target":     def.StageCount,
		"available_rewards": inst.AvailableRewards,
		"issued_at":         inst.IssuedAt,
		"expires_at":        inst.ExpiresAt,
	})
}

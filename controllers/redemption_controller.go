package controllers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stampflow/stampflow/config"
	"github.com/stampflow/stampflow/engine"
	"github.com/stampflow/stampflow/utils"
)

// RedeemRewardRequest represents the request body for redeeming a reward
type RedeemRewardRequest struct {
	RedeemedBy string `json:"redeemed_by"`
}

// RedeemReward hands out one of a card's available rewards.
func RedeemReward(c *gin.Context) {
	utils.LogInfo("RedeemReward called")

	cardInstanceID, err := strconv.ParseUint(c.Param("cardInstanceId"), 10, 64)
	if err != nil {
		utils.LogError("Invalid card instance ID: %v", err)
		utils.BadRequest(c, "Invalid card instance ID", nil)
		return
	}

	var req RedeemRewardRequest
	_ = c.ShouldBindJSON(&req) // body is optional
	if req.RedeemedBy == "" {
		req.RedeemedBy = "counter"
	}
	utils.LogInfo("Redeeming reward on card instance %d by %s", cardInstanceID, req.RedeemedBy)

	redemption, err := engine.RedeemReward(config.DB, uint(cardInstanceID), req.RedeemedBy)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNotFound):
			utils.NotFound(c, "Card not found")
		case errors.Is(err, engine.ErrNoRewardAvailable):
			utils.LogError("No reward available on card instance %d", cardInstanceID)
			utils.Conflict(c, "No reward available", nil)
		case errors.Is(err, engine.ErrCardExpired):
			utils.Conflict(c, "Card has expired", nil)
		case errors.Is(err, engine.ErrCardPaused):
			utils.Conflict(c, "Card is paused", nil)
		case errors.Is(err, engine.ErrStoreConflict):
			utils.ServiceUnavailable(c, "Card is busy, please retry")
		default:
			utils.LogError("Redemption failed on card instance %d: %v", cardInstanceID, err)
			utils.InternalServerError(c, "Failed to redeem reward", err.Error())
		}
		return
	}
	utils.LogInfo("Reward redeemed on card instance %d (redemption %d)", cardInstanceID, redemption.ID)

	utils.Success(c, "Reward redeemed", gin.H{
		"id":               redemption.ID,
		"card_instance_id": redemption.CardInstanceID,
		"redeemed_at":      redemption.RedeemedAt,
		"redeemed_by":      redemption.RedeemedBy,
	})
}

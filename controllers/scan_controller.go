package controllers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/stampflow/stampflow/config"
	"github.com/stampflow/stampflow/dispatcher"
	"github.com/stampflow/stampflow/engine"
	"github.com/stampflow/stampflow/utils"
)

// ScanRequest represents the request body for processing a scan
type ScanRequest struct {
	CardCode       string           `json:"card_code"`
	QRToken        string           `json:"qr_token"`
	IdempotencyKey string           `json:"idempotency_key"`
	Amount         *decimal.Decimal `json:"amount"`
	ProductID      *uint            `json:"product_id"`
}

// ProcessScan accepts a scan from a staff terminal, runs it through the
// accrual engine and returns the outcome. A granted count of zero with no
// error is a valid outcome (below minimum amount, daily cap reached); the
// scanner shows it differently from a hard rejection.
func ProcessScan(c *gin.Context) {
	utils.LogInfo("ProcessScan called")

	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid scan request format: %v", err)
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	cardCode := req.CardCode
	idempotencyKey := req.IdempotencyKey

	// A QR token supersedes a bare card code: it is signed, and its nonce
	// gives retried reads of the same physical code a stable idempotency key.
	if req.QRToken != "" {
		payload, err := utils.ParseQRToken(req.QRToken)
		if err != nil {
			utils.LogError("Invalid QR token: %v", err)
			utils.BadRequest(c, "Invalid QR token", err.Error())
			return
		}
		cardCode = payload.CardCode
		if idempotencyKey == "" {
			idempotencyKey = utils.DeriveScanKey(payload.Nonce, time.Now())
		}
	}

	if cardCode == "" {
		utils.LogError("Scan request missing card code")
		utils.BadRequest(c, "card_code or qr_token is required", nil)
		return
	}
	if idempotencyKey == "" {
		utils.LogError("Scan request missing idempotency key for card %s", cardCode)
		utils.BadRequest(c, "idempotency_key is required", nil)
		return
	}
	utils.LogInfo("Processing scan for card %s with key %s", cardCode, idempotencyKey)

	outcome, err := engine.ProcessScan(config.DB, engine.ScanRequest{
		CardCode:       cardCode,
		IdempotencyKey: idempotencyKey,
		Amount:         req.Amount,
		ProductID:      req.ProductID,
	})
	if err != nil {
		respondScanError(c, cardCode, err)
		return
	}

	if outcome.Duplicate {
		utils.LogInfo("Replayed duplicate scan for card %s", cardCode)
	} else {
		utils.LogInfo("Scan accepted for card %s: %d stamps, reward=%v", cardCode, outcome.StampsGranted, outcome.RewardTriggered)
		dispatcher.Enqueue(dispatcher.AccrualEvent{
			CardInstanceID:   outcome.CardInstanceID,
			CustomerID:       outcome.CustomerID,
			MerchantID:       outcome.MerchantID,
			DefinitionName:   outcome.DefinitionName,
			StampsGranted:    outcome.StampsGranted,
			RewardTriggered:  outcome.RewardTriggered,
			CurrentStage:     outcome.CurrentStage,
			AvailableRewards: outcome.AvailableRewards,
		})
	}

	utils.Success(c, "Scan processed", gin.H{
		"stamps_granted":    outcome.StampsGranted,
		"reward_triggered":  outcome.RewardTriggered,
		"current_stage":     outcome.CurrentStage,
		"stage_count":       outcome.StageCount,
		"available_rewards": outcome.AvailableRewards,
		"duplicate":         outcome.Duplicate,
	})
}

func respondScanError(c *gin.Context, cardCode string, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		utils.LogError("Card not found: %s", cardCode)
		utils.NotFound(c, "Card not found")
	case errors.Is(err, engine.ErrCardExpired):
		utils.LogError("Scan rejected, card expired: %s", cardCode)
		utils.Conflict(c, "Card has expired", nil)
	case errors.Is(err, engine.ErrCardPaused):
		utils.LogError("Scan rejected, card paused: %s", cardCode)
		utils.Conflict(c, "Card is paused", nil)
	case errors.Is(err, engine.ErrProductSelectionRequired):
		utils.LogError("Scan rejected, product selection required: %s", cardCode)
		utils.ValidationError(c, "Product selection is required for this card", nil)
	case errors.Is(err, engine.ErrStoreConflict):
		utils.LogError("Scan for card %s lost all conflict retries", cardCode)
		utils.ServiceUnavailable(c, "Card is busy, please retry")
	default:
		utils.LogError("Scan failed for card %s: %v", cardCode, err)
		utils.InternalServerError(c, "Failed to process scan", err.Error())
	}
}

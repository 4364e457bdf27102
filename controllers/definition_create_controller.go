package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/stampflow/stampflow/config"
	"github.com/stampflow/stampflow/models"
	"github.com/stampflow/stampflow/utils"
)

// DefinitionRequest represents the request body for creating or editing a
// card definition
type DefinitionRequest struct {
	Name                    string           `json:"name" binding:"required"`
	CardKind                string           `json:"card_kind"`
	StageCount              uint             `json:"stage_count"`
	IssuanceLimit           uint             `json:"issuance_limit"`
	InitialStamps           uint             `json:"initial_stamps"`
	StampsPerScan           uint             `json:"stamps_per_scan"`
	MaxStampsPerTransaction uint             `json:"max_stamps_per_transaction"`
	MaxStampsPerDay         uint             `json:"max_stamps_per_day"`
	MinAmountForStamps      *decimal.Decimal `json:"min_amount_for_stamps"`
	RequireProductSelection bool             `json:"require_product_selection"`
	ExpiryPolicy            string           `json:"expiry_policy"`
	ExpiryDate              *time.Time       `json:"expiry_date"`
	ExpiryDays              uint             `json:"expiry_days"`
}

// CreateDefinition creates a new card definition for the merchant.
func CreateDefinition(c *gin.Context) {
	utils.LogInfo("CreateDefinition called")

	merchant := c.MustGet("merchant").(models.Merchant)

	var req DefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid definition request format: %v", err)
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	def, errMsg := definitionFromRequest(merchant.ID, req)
	if errMsg != "" {
		utils.LogError("Definition validation failed for merchant %d: %s", merchant.ID, errMsg)
		utils.ValidationError(c, errMsg, nil)
		return
	}

	if err := config.DB.Create(def).Error; err != nil {
		utils.LogError("Failed to create definition for merchant %d: %v", merchant.ID, err)
		utils.InternalServerError(c, "Failed to create card definition", err.Error())
		return
	}
	utils.LogInfo("Created definition %d (version %d) for merchant %d", def.ID, def.Version, merchant.ID)

	utils.Created(c, "Card definition created", def)
}

// definitionFromRequest validates a definition payload and builds the model.
// Returns a non-empty message on validation failure.
func definitionFromRequest(merchantID uint, req DefinitionRequest) (*models.CardDefinition, string) {
	kind := req.CardKind
	if kind == "" {
		kind = models.CardKindStamps
	}
	if kind != models.CardKindStamps && kind != models.CardKindCashBack {
		return nil, "card_kind must be 'stamps' or 'cashback'"
	}
	if kind == models.CardKindStamps && req.StageCount == 0 {
		return nil, "stage_count must be positive for stamp cards"
	}

	policy := req.ExpiryPolicy
	if policy == "" {
		policy = models.ExpiryUnlimited
	}
	switch policy {
	case models.ExpiryUnlimited:
	case models.ExpiryFixedDate:
		if req.ExpiryDate == nil {
			return nil, "expiry_date is required for fixed_date expiry"
		}
	case models.ExpiryDaysAfterIssue:
		if req.ExpiryDays == 0 {
			return nil, "expiry_days must be positive for days_after_issue expiry"
		}
	default:
		return nil, "expiry_policy must be 'unlimited', 'fixed_date' or 'days_after_issue'"
	}

	stampsPerScan := req.StampsPerScan
	if stampsPerScan == 0 {
		stampsPerScan = 1
	}
	minAmount := decimal.Zero
	if req.MinAmountForStamps != nil {
		if req.MinAmountForStamps.IsNegative() {
			return nil, "min_amount_for_stamps must not be negative"
		}
		minAmount = *req.MinAmountForStamps
	}

	return &models.CardDefinition{
		MerchantID:              merchantID,
		Name:                    req.Name,
		Version:                 1,
		Active:                  true,
		CardKind:                kind,
		StageCount:              req.StageCount,
		IssuanceLimit:           req.IssuanceLimit,
		InitialStamps:           req.InitialStamps,
		StampsPerScan:           stampsPerScan,
		MaxStampsPerTransaction: req.MaxStampsPerTransaction,
		MaxStampsPerDay:         req.MaxStampsPerDay,
		MinAmountForStamps:      minAmount,
		RequireProductSelection: req.RequireProductSelection,
		ExpiryPolicy:            policy,
		ExpiryDate:              req.ExpiryDate,
		ExpiryDays:              req.ExpiryDays,
	}, ""
}

package engine

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stampflow/stampflow/models"
)

// timeNow is swapped out in tests to control the clock.
var timeNow = time.Now

// maxConflictRetries bounds the internal retry loop when a concurrent writer
// wins the optimistic lock check on a card instance.
const maxConflictRetries = 3

// ScanRequest is one physical scan of a customer's card QR code.
type ScanRequest struct {
	CardCode       string
	IdempotencyKey string
	Amount         *decimal.Decimal
	ProductID      *uint
}

// ScanOutcome is the result of a processed scan. Duplicate is set when the
// idempotency key had already been recorded and the prior outcome was
// replayed without mutating anything.
type ScanOutcome struct {
	StampsGranted    uint
	RewardTriggered  bool
	CurrentStage     uint
	StageCount       uint
	AvailableRewards uint
	Duplicate        bool

	CardInstanceID uint
	CustomerID     uint
	MerchantID     uint
	DefinitionName string
}

// ProcessScan decides whether a scan earns stamps, how many, and whether it
// unlocks a reward, then commits the card mutation and the ledger append as
// one transaction. Safe to call concurrently for the same card: the losing
// writer retries against fresh state, and a retried request with the same
// idempotency key replays the recorded outcome.
func ProcessScan(db *gorm.DB, req ScanRequest) (ScanOutcome, error) {
	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		out, err := processScanOnce(db, req)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrStoreConflict) {
			return ScanOutcome{}, err
		}
		lastErr = err
	}
	return ScanOutcome{}, lastErr
}

func processScanOnce(db *gorm.DB, req ScanRequest) (ScanOutcome, error) {
	now := timeNow()

	var inst models.CardInstance
	if err := db.Where("code = ?", req.CardCode).First(&inst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ScanOutcome{}, ErrNotFound
		}
		return ScanOutcome{}, err
	}

	var def models.CardDefinition
	if err := db.First(&def, inst.DefinitionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ScanOutcome{}, ErrNotFound
		}
		return ScanOutcome{}, err
	}

	switch inst.Status {
	case models.CardStatusPaused, models.CardStatusExhausted:
		return ScanOutcome{}, ErrCardPaused
	case models.CardStatusExpired:
		return ScanOutcome{}, ErrCardExpired
	}

	if !IsUsable(def, inst, now) {
		// Lazy status transition; the scan itself is rejected either way.
		db.Model(&models.CardInstance{}).Where("id = ?", inst.ID).
			Update("status", models.CardStatusExpired)
		return ScanOutcome{}, ErrCardExpired
	}

	var out ScanOutcome
	err := db.Transaction(func(tx *gorm.DB) error {
		// Idempotency replay: a key we have already accepted returns the
		// recorded outcome unchanged, so retries after network failures are
		// harmless.
		var prior models.ScanEvent
		err := tx.Where("card_instance_id = ? AND idempotency_key = ?", inst.ID, req.IdempotencyKey).
			First(&prior).Error
		if err == nil {
			out = outcomeFromEvent(prior, def, inst)
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		stamps, err := stampsToGrant(tx, def, inst, req, now)
		if err != nil {
			return err
		}

		stage, rewards, triggered := rollOver(def, inst.CurrentStage, inst.AvailableRewards, stamps)

		res := tx.Model(&models.CardInstance{}).
			Where("id = ? AND lock_version = ?", inst.ID, inst.LockVersion).
			Updates(map[string]interface{}{
				"current_stage":     stage,
				"lifetime_stamps":   inst.LifetimeStamps + stamps,
				"available_rewards": rewards,
				"last_scanned_at":   now,
				"lock_version":      inst.LockVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStoreConflict
		}

		event := models.ScanEvent{
			CardInstanceID:   inst.ID,
			IdempotencyKey:   req.IdempotencyKey,
			Amount:           req.Amount,
			ProductID:        req.ProductID,
			HappenedAt:       now,
			StampsGranted:    stamps,
			RewardTriggered:  triggered,
			NewStage:         stage,
			AvailableRewards: rewards,
		}
		if err := tx.Create(&event).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Concurrent request with the same key committed first;
				// retry so the replay path picks up its outcome.
				return ErrStoreConflict
			}
			return err
		}

		out = ScanOutcome{
			StampsGranted:    stamps,
			RewardTriggered:  triggered,
			CurrentStage:     stage,
			StageCount:       def.StageCount,
			AvailableRewards: rewards,
			CardInstanceID:   inst.ID,
			CustomerID:       inst.CustomerID,
			MerchantID:       def.MerchantID,
			DefinitionName:   def.Name,
		}
		return nil
	})
	if err != nil {
		return ScanOutcome{}, err
	}
	return out, nil
}

// stampsToGrant applies the definition's rule checks in order: product
// selection, minimum amount, per-transaction clamp, then the daily clamp.
// Zero is a legitimate result; the scan is still recorded.
func stampsToGrant(tx *gorm.DB, def models.CardDefinition, inst models.CardInstance, req ScanRequest, now time.Time) (uint, error) {
	if def.RequireProductSelection && req.ProductID == nil {
		return 0, ErrProductSelectionRequired
	}

	stamps := def.StampsPerScan
	if stamps == 0 {
		stamps = 1
	}

	if req.Amount != nil && def.MinAmountForStamps.IsPositive() &&
		req.Amount.LessThan(def.MinAmountForStamps) {
		stamps = 0
	}

	if def.MaxStampsPerTransaction > 0 && stamps > def.MaxStampsPerTransaction {
		stamps = def.MaxStampsPerTransaction
	}

	if def.MaxStampsPerDay > 0 && stamps > 0 {
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		dayEnd := dayStart.AddDate(0, 0, 1)

		var grantedToday int64
		err := tx.Model(&models.ScanEvent{}).
			Where("card_instance_id = ? AND happened_at >= ? AND happened_at < ?",
				inst.ID, dayStart, dayEnd).
			Select("COALESCE(SUM(stamps_granted), 0)").
			Scan(&grantedToday).Error
		if err != nil {
			return 0, err
		}

		remaining := uint(0)
		if grantedToday < int64(def.MaxStampsPerDay) {
			remaining = def.MaxStampsPerDay - uint(grantedToday)
		}
		if stamps > remaining {
			stamps = remaining
		}
	}

	return stamps, nil
}

// rollOver adds stamps to the current stage and converts each completed
// cycle into an available reward. Cashback-kind definitions have StageCount
// zero and never cycle.
func rollOver(def models.CardDefinition, stage, rewards, stamps uint) (uint, uint, bool) {
	if def.StageCount == 0 {
		return stage, rewards, false
	}
	stage += stamps
	triggered := false
	for stage >= def.StageCount {
		stage -= def.StageCount
		rewards++
		triggered = true
	}
	return stage, rewards, triggered
}

func outcomeFromEvent(event models.ScanEvent, def models.CardDefinition, inst models.CardInstance) ScanOutcome {
	return ScanOutcome{
		StampsGranted:    event.StampsGranted,
		RewardTriggered:  event.RewardTriggered,
		CurrentStage:     event.NewStage,
		StageCount:       def.StageCount,
		AvailableRewards: event.AvailableRewards,
		Duplicate:        true,
		CardInstanceID:   inst.ID,
		CustomerID:       inst.CustomerID,
		MerchantID:       def.MerchantID,
		DefinitionName:   def.Name,
	}
}

package engine

import (
	"time"

	"github.com/stampflow/stampflow/models"
)

// IsUsable reports whether a card instance is currently usable under its
// definition's expiry policy. Pure function, no side effects; the engine
// calls it before every accrual and every redemption.
func IsUsable(def models.CardDefinition, inst models.CardInstance, now time.Time) bool {
	switch def.ExpiryPolicy {
	case models.ExpiryFixedDate:
		if def.ExpiryDate == nil {
			return true
		}
		return !now.After(*def.ExpiryDate)
	case models.ExpiryDaysAfterIssue:
		return !now.After(inst.IssuedAt.AddDate(0, 0, int(def.ExpiryDays)))
	default:
		// Unlimited cards stay usable until the merchant pauses them.
		return true
	}
}

// expiresAt derives the instance expiry timestamp from the definition's
// policy. Fixed at issuance time and immutable thereafter; nil means the
// card never expires.
func expiresAt(def models.CardDefinition, issuedAt time.Time) *time.Time {
	switch def.ExpiryPolicy {
	case models.ExpiryFixedDate:
		if def.ExpiryDate == nil {
			return nil
		}
		t := *def.ExpiryDate
		return &t
	case models.ExpiryDaysAfterIssue:
		t := issuedAt.AddDate(0, 0, int(def.ExpiryDays))
		return &t
	default:
		return nil
	}
}

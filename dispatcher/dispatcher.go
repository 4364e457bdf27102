package dispatcher

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/stampflow/stampflow/config"
	"github.com/stampflow/stampflow/models"
	"github.com/stampflow/stampflow/utils"
)

// The dispatcher fans accrual outcomes out to the external push-notification
// and wallet-pass services after the transaction has committed. It is
// strictly fire-and-forget: enqueueing never blocks the scan path and a
// delivery failure never touches the accrual.

// AccrualEvent is what the scan controller hands off after a commit.
type AccrualEvent struct {
	CardInstanceID   uint   `json:"card_instance_id"`
	CustomerID       uint   `json:"customer_id"`
	MerchantID       uint   `json:"merchant_id"`
	DefinitionName   string `json:"definition_name"`
	StampsGranted    uint   `json:"stamps_granted"`
	RewardTriggered  bool   `json:"reward_triggered"`
	CurrentStage     uint   `json:"current_stage"`
	AvailableRewards uint   `json:"available_rewards"`
}

const queueSize = 256

var events chan AccrualEvent

// Start launches the dispatcher worker. Call once at boot, after InitDB.
func Start(cfg *config.Config) {
	events = make(chan AccrualEvent, queueSize)

	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	go worker(cfg, client)
}

// Enqueue hands an event to the worker. Drops the event with a warning when
// the queue is full rather than back-pressuring the scan path.
func Enqueue(event AccrualEvent) {
	if events == nil {
		return
	}
	select {
	case events <- event:
	default:
		utils.LogError("Dispatcher queue full, dropping event for card instance %d", event.CardInstanceID)
	}
}

func worker(cfg *config.Config, client *resty.Client) {
	for event := range events {
		if cfg.WalletWebhookURL != "" {
			postWalletWebhook(cfg.WalletWebhookURL, client, event)
		}
		if event.RewardTriggered {
			notifyCustomer(event)
		}
	}
}

func postWalletWebhook(url string, client *resty.Client, event AccrualEvent) {
	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(event).
		Post(url)
	if err != nil {
		utils.LogError("Wallet webhook failed for card instance %d: %v", event.CardInstanceID, err)
		return
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		utils.LogError("Wallet webhook returned status %d for card instance %d", resp.StatusCode(), event.CardInstanceID)
		return
	}
	utils.LogDebug("Wallet webhook delivered for card instance %d", event.CardInstanceID)
}

func notifyCustomer(event AccrualEvent) {
	var customer models.Customer
	if err := config.DB.First(&customer, event.CustomerID).Error; err != nil {
		utils.LogError("Dispatcher could not load customer %d: %v", event.CustomerID, err)
		return
	}
	if customer.Email == "" {
		return
	}
	if err := utils.SendRewardEmail(customer.Email, event.DefinitionName, event.AvailableRewards); err != nil {
		utils.LogError("Reward email to customer %d failed: %v", event.CustomerID, err)
	}
}

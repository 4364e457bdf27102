package engine

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stampflow/stampflow/config"
	"github.com/stampflow/stampflow/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection keeps the in-memory database alive and serializes
	// writers the way a row lock would.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))
	return db
}

func setNow(t *testing.T, at time.Time) {
	t.Helper()
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = time.Now })
}

func seedMerchant(t *testing.T, db *gorm.DB) models.Merchant {
	t.Helper()
	merchant := models.Merchant{Name: "Corner Coffee", Email: "owner@cornercoffee.test", IsActive: true}
	require.NoError(t, db.Create(&merchant).Error)
	return merchant
}

func seedCustomer(t *testing.T, db *gorm.DB, merchantID uint) models.Customer {
	t.Helper()
	customer := models.Customer{MerchantID: merchantID, Name: "Alex", Email: "alex@example.test"}
	require.NoError(t, db.Create(&customer).Error)
	return customer
}

// seedDefinition fills in the boring fields so tests only state what they
// care about.
func seedDefinition(t *testing.T, db *gorm.DB, def models.CardDefinition) models.CardDefinition {
	t.Helper()
	if def.Name == "" {
		def.Name = "Coffee Card"
	}
	if def.CardKind == "" {
		def.CardKind = models.CardKindStamps
	}
	if def.StageCount == 0 && def.CardKind == models.CardKindStamps {
		def.StageCount = 10
	}
	if def.StampsPerScan == 0 {
		def.StampsPerScan = 1
	}
	if def.ExpiryPolicy == "" {
		def.ExpiryPolicy = models.ExpiryUnlimited
	}
	if def.Version == 0 {
		def.Version = 1
	}
	def.Active = true
	require.NoError(t, db.Create(&def).Error)
	return def
}

func seedCard(t *testing.T, db *gorm.DB) (*gorm.DB, models.CardDefinition, *models.CardInstance) {
	t.Helper()
	merchant := seedMerchant(t, db)
	def := seedDefinition(t, db, models.CardDefinition{MerchantID: merchant.ID, StageCount: 5})
	customer := seedCustomer(t, db, merchant.ID)
	inst, err := IssueCard(db, def.ID, customer.ID)
	require.NoError(t, err)
	return db, def, inst
}

func dec(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return &d
}

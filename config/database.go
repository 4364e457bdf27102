package config

import (
	"fmt"

	"github.com/stampflow/stampflow/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB initializes the database connection
func InitDB() {
	config, err := LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		config.DBHost, config.DBPort, config.DBUser, config.DBPassword, config.DBName)

	// TranslateError so unique-key violations come back as
	// gorm.ErrDuplicatedKey; the scan ledger relies on this for idempotency.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	DB = db

	if err := Migrate(DB); err != nil {
		panic(fmt.Sprintf("Failed to migrate database: %v", err))
	}
}

// Migrate runs the schema migration. Split out from InitDB so tests can run
// it against their own database handle.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Merchant{},
		&models.Customer{},
		&models.Product{},
		&models.CardDefinition{},
		&models.CardInstance{},
		&models.ScanEvent{},
		&models.RewardRedemption{},
	)
}

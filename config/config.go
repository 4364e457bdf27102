package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	Port string
	Env  string

	// QRTokenSecret signs the card QR payload tokens.
	QRTokenSecret string

	// WalletWebhookURL is the endpoint of the external wallet-pass/push
	// service the dispatcher posts accrual events to. Empty disables it.
	WalletWebhookURL string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// LoadConfig loads configuration from environment variables. A missing .env
// file is not an error so the service can run from real env vars alone.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		DBHost:           os.Getenv("DB_HOST"),
		DBPort:           os.Getenv("DB_PORT"),
		DBUser:           os.Getenv("DB_USER"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		DBName:           os.Getenv("DB_NAME"),
		Port:             os.Getenv("PORT"),
		Env:              os.Getenv("ENV"),
		QRTokenSecret:    os.Getenv("QR_TOKEN_SECRET"),
		WalletWebhookURL: os.Getenv("WALLET_WEBHOOK_URL"),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         os.Getenv("SMTP_PORT"),
		SMTPUsername:     os.Getenv("SMTP_USERNAME"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:         os.Getenv("SMTP_FROM"),
	}

	if config.Port == "" {
		config.Port = "8080"
	}

	return config, nil
}

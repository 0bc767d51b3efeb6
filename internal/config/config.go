package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all process configuration, loaded from the environment.
type Config struct {
	AppName     string `envconfig:"APP_NAME" default:"RetailPe Backend"`
	AppVersion  string `envconfig:"APP_VERSION" default:"1.0.0"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	Port        string `envconfig:"PORT" default:"8080"`

	// Storage
	UseMemoryStore bool   `envconfig:"USE_MEMORY_STORE" default:"false"`
	DBUser         string `envconfig:"DB_USER" default:"postgres"`
	DBPass         string `envconfig:"DB_PASS"`
	DBName         string `envconfig:"DB_NAME" default:"retailpe"`
	DBHost         string `envconfig:"DB_HOST" default:"localhost"`
	DBPort         int    `envconfig:"DB_PORT" default:"5432"`
	// Set on Cloud Run; switches the DSN to the Cloud SQL unix socket.
	InstanceConnectionName string `envconfig:"INSTANCE_CONNECTION_NAME"`

	// Security
	SecretKey        string `envconfig:"SECRET_KEY" default:"change-this-in-production"`
	SessionExpireHrs int    `envconfig:"SESSION_EXPIRE_HOURS" default:"24"`

	// WhatsApp Cloud API
	WhatsAppProvider         string `envconfig:"WHATSAPP_PROVIDER" default:"cloud"` // "cloud" or "twilio"
	WhatsAppAccessToken      string `envconfig:"WHATSAPP_ACCESS_TOKEN"`
	WhatsAppPhoneIDInventory string `envconfig:"WHATSAPP_PHONE_NUMBER_ID_INVENTORY"`
	WhatsAppPhoneIDInvoice   string `envconfig:"WHATSAPP_PHONE_NUMBER_ID_INVOICE"`
	WhatsAppVerifyToken      string `envconfig:"WHATSAPP_WEBHOOK_VERIFY_TOKEN"`
	WhatsAppAPIVersion       string `envconfig:"WHATSAPP_API_VERSION" default:"v18.0"`
	WhatsAppAPIBaseURL       string `envconfig:"WHATSAPP_API_BASE_URL" default:"https://graph.facebook.com"`

	// Twilio (alternative provider)
	TwilioAccountSID   string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppFrom string `envconfig:"TWILIO_WHATSAPP_FROM"` // Format: "whatsapp:+14155238886"
}

// Load reads .env files (local development only) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("environments/.env.development"); err != nil {
			log.Println("⚠️  No .env file found - checking environment variables")
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

// DSN builds the postgres connection string. On Cloud Run the database is
// reached through the Cloud SQL unix socket, locally over TCP.
func (c *Config) DSN() string {
	if c.InstanceConnectionName != "" {
		return fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=disable",
			c.InstanceConnectionName, c.DBUser, c.DBPass, c.DBName)
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort)
}

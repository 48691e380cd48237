package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	MongoDB     MongoDBConfig
	JWT         JWTConfig
	Admin       AdminConfig
	MercadoPago MercadoPagoConfig
	Sales       SalesConfig
	LogLevel    string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int // seconds
}

// AdminConfig holds the admin console credentials
type AdminConfig struct {
	PasswordHash string // bcrypt hash of the admin password
}

// MercadoPagoConfig holds payment gateway configuration
type MercadoPagoConfig struct {
	BaseURL         string
	AccessToken     string
	WebhookSecret   string // empty disables signature verification
	NotificationURL string
	MaxAmount       string // charge-creation safety cap, decimal string
}

// SalesConfig holds reservation lifecycle configuration
type SalesConfig struct {
	PendingTTLMinutes int // pending sale without a charge
	WaitingTTLMinutes int // waiting_payment sale (PIX QR lifetime)
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, environment variables take over
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// PendingTTL returns the pending-sale expiry as a duration
func (c *SalesConfig) PendingTTL() time.Duration {
	return time.Duration(c.PendingTTLMinutes) * time.Minute
}

// WaitingTTL returns the waiting_payment expiry as a duration
func (c *SalesConfig) WaitingTTL() time.Duration {
	return time.Duration(c.WaitingTTLMinutes) * time.Minute
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "raffle-backend")
	viper.SetDefault("JWT.ExpiresIn", 30*60) // 30 minutes, matching the admin console session
	viper.SetDefault("MercadoPago.BaseURL", "https://api.mercadopago.com")
	viper.SetDefault("MercadoPago.MaxAmount", "10000")
	viper.SetDefault("Sales.PendingTTLMinutes", 30)
	viper.SetDefault("Sales.WaitingTTLMinutes", 24*60)
	viper.SetDefault("LogLevel", "info")
}

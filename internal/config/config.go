/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the payment-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort               string `mapstructure:"SERVER_PORT"`
	DatabaseURL              string `mapstructure:"DATABASE_URL"`
	RedisURL                 string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix     string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL              string `mapstructure:"RABBITMQ_URL"`
	AuthJWKSURL              string `mapstructure:"AUTH_JWKS_URL"`
	AdminUserIDs             string `mapstructure:"ADMIN_USER_IDS"`
	WalletRateLimitPerMinute int    `mapstructure:"WALLET_RATE_LIMIT_PER_MINUTE"`
	DefaultPageLimit         int    `mapstructure:"DEFAULT_PAGE_LIMIT"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "consultlink:rate_limit")
	viper.SetDefault("WALLET_RATE_LIMIT_PER_MINUTE", 30)
	viper.SetDefault("DEFAULT_PAGE_LIMIT", 50)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "PAYMENT_REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("AUTH_JWKS_URL")
	_ = viper.BindEnv("ADMIN_USER_IDS")
	_ = viper.BindEnv("WALLET_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("DEFAULT_PAGE_LIMIT")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "consultlink:rate_limit"
	}
	if config.WalletRateLimitPerMinute <= 0 {
		config.WalletRateLimitPerMinute = 30
	}
	if config.DefaultPageLimit <= 0 {
		config.DefaultPageLimit = 50
	}

	return
}

// ParseAdminUserIDs splits the comma-separated ADMIN_USER_IDS value into
// UUIDs, skipping malformed entries with a warning.
func ParseAdminUserIDs(raw string) []uuid.UUID {
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			log.Printf("level=warn component=config msg=\"skipping malformed admin user id\" value=%q", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

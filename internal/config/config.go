package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mroshb/receipt_bot/internal/pricing"
	"github.com/mroshb/receipt_bot/internal/receipt"
	"github.com/mroshb/receipt_bot/pkg/numerals"
)

type Config struct {
	// Telegram
	BotToken string

	// Database
	DBPath string

	// Security
	JWTSecret          string
	AESKey             string
	SuperAdminTgID     int64
	AllowedTelegramIDs []int64

	// Application
	AppEnv        string
	AppPort       string
	PublicBaseURL string
	LogLevel      string
	UploadMaxSize int64

	// Rate Limiting
	RateLimitPerUser int

	// Invoices
	PricingPolicy   pricing.Kind
	DisplayLocale   numerals.Locale
	ReceiptPage     receipt.PageSize
	ReceiptFontPath string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		BotToken: getEnv("BOT_TOKEN", ""),
		DBPath:   getEnv("DB_PATH", "data/invoices.db"),

		JWTSecret: getEnv("JWT_SECRET_KEY", ""),
		AESKey:    getEnv("AES_ENCRYPTION_KEY", ""),

		AppEnv:        getEnv("APP_ENV", "development"),
		AppPort:       getEnv("APP_PORT", "8080"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		UploadMaxSize: getEnvInt64("UPLOAD_MAX_SIZE", 5242880),

		RateLimitPerUser: getEnvInt("RATE_LIMIT_PER_USER", 60),

		ReceiptFontPath: getEnv("RECEIPT_FONT_PATH", ""),
	}

	// Parse super admin telegram ID
	superAdminStr := getEnv("SUPER_ADMIN_TELEGRAM_ID", "")
	if superAdminStr != "" {
		id, err := strconv.ParseInt(superAdminStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SUPER_ADMIN_TELEGRAM_ID: %w", err)
		}
		cfg.SuperAdminTgID = id
	}

	allowed, err := parseIDList(getEnv("ALLOWED_TELEGRAM_IDS", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid ALLOWED_TELEGRAM_IDS: %w", err)
	}
	cfg.AllowedTelegramIDs = allowed

	if cfg.PricingPolicy, err = pricing.ParseKind(getEnv("PRICING_POLICY", string(pricing.DefaultKind))); err != nil {
		return nil, fmt.Errorf("invalid PRICING_POLICY: %w", err)
	}
	if cfg.DisplayLocale, err = numerals.ParseLocale(getEnv("DISPLAY_LOCALE", string(numerals.Arabic))); err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_LOCALE: %w", err)
	}
	if cfg.ReceiptPage, err = receipt.ParsePageSize(getEnv("RECEIPT_PAGE", receipt.PageA5.Name)); err != nil {
		return nil, fmt.Errorf("invalid RECEIPT_PAGE: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters")
	}
	if c.AESKey == "" {
		return fmt.Errorf("AES_ENCRYPTION_KEY is required")
	}
	if len(c.AESKey) != 32 {
		return fmt.Errorf("AES_ENCRYPTION_KEY must be exactly 32 bytes")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.JWTSecret == "your_jwt_secret_minimum_32_chars_here_change_this" {
		return fmt.Errorf("JWT_SECRET_KEY must be changed from default in production")
	}
	if c.AESKey == "your_aes_key_must_be_32_bytes!!!" {
		return fmt.Errorf("AES_ENCRYPTION_KEY must be changed from default in production")
	}
	if c.SuperAdminTgID == 0 {
		return fmt.Errorf("SUPER_ADMIN_TELEGRAM_ID must be set in production")
	}
	if len(c.AllowedTelegramIDs) == 0 {
		return fmt.Errorf("ALLOWED_TELEGRAM_IDS must be set in production")
	}
	if c.PublicBaseURL != "" && !strings.HasPrefix(c.PublicBaseURL, "https://") {
		return fmt.Errorf("PUBLIC_BASE_URL must use https in production")
	}

	return nil
}

// IsOperator reports whether a Telegram user may use the bot. With no
// allow-list configured every user is an operator.
func (c *Config) IsOperator(tgID int64) bool {
	if tgID != 0 && tgID == c.SuperAdminTgID {
		return true
	}
	if len(c.AllowedTelegramIDs) == 0 {
		return true
	}
	for _, id := range c.AllowedTelegramIDs {
		if id == tgID {
			return true
		}
	}
	return false
}

// ReceiptOptions returns the rendering options for printed receipts.
func (c *Config) ReceiptOptions() receipt.Options {
	return receipt.Options{
		Locale:   c.DisplayLocale,
		Page:     c.ReceiptPage,
		FontPath: c.ReceiptFontPath,
	}
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// utils/config.go
package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port           string
	DatabaseURL    string
	ServiceToken   string
	AllowedOrigins []string
	RedisURL       string

	BonusCoinsAllMissions int64
	VerificationTimeout   time.Duration
	FitnessAPIBaseURL     string
	EnforceHardLock       bool
	SeedDailyMissions     bool

	R2 R2Config
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

// Enabled is true once every credential needed for uploads is present.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

// LoadConfig reads the service configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:              getenv("PORT", "5300"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		ServiceToken:      os.Getenv("MISSION_SERVICE_TOKEN"),
		RedisURL:          os.Getenv("REDIS_URL"),
		FitnessAPIBaseURL: getenv("FITNESS_API_BASE_URL", "https://www.googleapis.com"),
		R2: R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			CDNBaseURL:      os.Getenv("CDN_BASE_URL"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if cfg.ServiceToken == "" {
		return nil, fmt.Errorf("MISSION_SERVICE_TOKEN environment variable not set")
	}

	for _, origin := range strings.Split(getenv("ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	var err error
	if cfg.BonusCoinsAllMissions, err = strconv.ParseInt(getenv("BONUS_COINS_ALL_MISSIONS", "50"), 10, 64); err != nil || cfg.BonusCoinsAllMissions < 0 {
		return nil, fmt.Errorf("invalid BONUS_COINS_ALL_MISSIONS: %q", os.Getenv("BONUS_COINS_ALL_MISSIONS"))
	}
	if cfg.VerificationTimeout, err = time.ParseDuration(getenv("VERIFICATION_TIMEOUT", "10s")); err != nil || cfg.VerificationTimeout <= 0 {
		return nil, fmt.Errorf("invalid VERIFICATION_TIMEOUT: %q", os.Getenv("VERIFICATION_TIMEOUT"))
	}
	if cfg.EnforceHardLock, err = strconv.ParseBool(getenv("ENFORCE_HARD_LOCK", "false")); err != nil {
		return nil, fmt.Errorf("invalid ENFORCE_HARD_LOCK: %w", err)
	}
	if cfg.SeedDailyMissions, err = strconv.ParseBool(getenv("SEED_DAILY_MISSIONS", "true")); err != nil {
		return nil, fmt.Errorf("invalid SEED_DAILY_MISSIONS: %w", err)
	}

	if cfg.R2.CDNBaseURL == "" && cfg.R2.AccountID != "" {
		cfg.R2.CDNBaseURL = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2.AccountID)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

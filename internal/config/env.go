package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names read by prerender.
const (
	EnvSourceURL    = "PRERENDER_SOURCE_URL"
	EnvSourceKey    = "PRERENDER_SOURCE_KEY"
	EnvSourceDriver = "PRERENDER_SOURCE_DRIVER"
	EnvSiteOrigin   = "PRERENDER_SITE_ORIGIN"
	EnvRedisURL     = "PRERENDER_REDIS_URL"
	EnvNATSURL      = "PRERENDER_NATS_URL"
	EnvFile         = "ENV_FILE"
)

// loadEnvFiles loads .env files in priority order:
//  1. ENV_FILE (if set, only this file)
//  2. .env.local
//  3. .env
//
// godotenv never overrides variables already present in the process environment,
// so loading .env.local first gives it precedence over .env.
func loadEnvFiles() error {
	if envFile := os.Getenv(EnvFile); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setFromEnv(&cfg.Source.URL, EnvSourceURL)
	setFromEnv(&cfg.Source.Key, EnvSourceKey)
	if v := strings.TrimSpace(os.Getenv(EnvSourceDriver)); v != "" {
		cfg.Source.Driver = SourceDriver(strings.ToLower(v))
	}
	setFromEnv(&cfg.Site.Origin, EnvSiteOrigin)
	setFromEnv(&cfg.Lock.RedisURL, EnvRedisURL)
	setFromEnv(&cfg.Notify.NATSURL, EnvNATSURL)
}

func setFromEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

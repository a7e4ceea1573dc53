package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"keepsake/internal/rates"
)

type Config struct {
	Port          string
	DBDSN         string
	LogFile       string
	RedisAddr     string
	RedisPassword string
	RatesURL      string
	RatesTTL      time.Duration
	AdminEmail    string
	AdminPassword string
	CookieSecure  bool
}

func Load() Config {
	// .env is optional; real env vars win.
	_ = godotenv.Load()

	cfg := Config{
		Port:          env("PORT", "8081"),
		DBDSN:         env("DB_DSN", "keepsake.db"),
		LogFile:       env("LOG_FILE", "./keepsake.log"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RatesURL:      env("RATES_URL", rates.DefaultURL),
		RatesTTL:      rates.DefaultTTL,
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
	if v := os.Getenv("RATES_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RatesTTL = d
		} else {
			log.Printf("[config] ignoring RATES_TTL=%q", v)
		}
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		cfg.CookieSecure, _ = strconv.ParseBool(v)
	}

	redis := cfg.RedisAddr
	if redis == "" {
		redis = "(memory)"
	}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s REDIS=%s RATES_URL=%s RATES_TTL=%s COOKIE_SECURE=%t",
		cfg.Port, cfg.DBDSN, cfg.LogFile, redis, cfg.RatesURL, cfg.RatesTTL, cfg.CookieSecure)
	return cfg
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

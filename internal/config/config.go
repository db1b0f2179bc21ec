// Package config は環境変数からのアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Inventory（外部書籍在庫サービス）
	BookServiceURL string
	BookTimeout    time.Duration

	// Reconcile（在庫調整の照合ワーカー）
	ReconcileInterval      time.Duration
	ReconcileMaxConcurrent int
	ReconcileMaxAttempts   int
	ReconcileBatchSize     int

	// Journal
	JournalRetentionDays int

	// Rate Limit（req/min単位）
	RateLimitGeneral int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.BookServiceURL = os.Getenv("BOOK_SERVICE_URL")
	if cfg.BookServiceURL == "" {
		missing = append(missing, "BOOK_SERVICE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.BookTimeout = getEnvDuration("BOOK_TIMEOUT", 5*time.Second)
	cfg.ReconcileInterval = getEnvDuration("RECONCILE_INTERVAL", time.Minute)
	cfg.ReconcileMaxConcurrent = getEnvInt("RECONCILE_MAX_CONCURRENT", 5)
	cfg.ReconcileMaxAttempts = getEnvInt("RECONCILE_MAX_ATTEMPTS", 10)
	cfg.ReconcileBatchSize = getEnvInt("RECONCILE_BATCH_SIZE", 100)
	cfg.JournalRetentionDays = getEnvInt("JOURNAL_RETENTION_DAYS", 30)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8083")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/lendman/internal/config"
	"github.com/hitoshi/lendman/internal/database"
	"github.com/hitoshi/lendman/internal/handler"
	"github.com/hitoshi/lendman/internal/inventory"
	"github.com/hitoshi/lendman/internal/loan"
	"github.com/hitoshi/lendman/internal/logger"
	"github.com/hitoshi/lendman/internal/metrics"
	"github.com/hitoshi/lendman/internal/middleware"
	"github.com/hitoshi/lendman/internal/repository"
	"github.com/hitoshi/lendman/internal/soap"
	"github.com/hitoshi/lendman/internal/worker/journal"
	"github.com/hitoshi/lendman/internal/worker/reconcile"

	"golang.org/x/time/rate"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8083"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("book_service_url", cfg.BookServiceURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はSOAPサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	loanRepo := repository.NewPostgresLoanRepo(db)
	adjRepo := repository.NewPostgresAdjustmentRepo(db)

	// 3. 在庫クライアントの初期化。リモート呼び出しはタイムアウトで有界にする
	inventoryClient := inventory.NewClient(
		&http.Client{Timeout: cfg.BookTimeout},
		cfg.BookServiceURL,
		slog.Default(),
	)

	// 4. オーケストレーションエンジンの初期化
	engine := loan.NewService(loanRepo, adjRepo, inventoryClient, slog.Default())

	// 5. メトリクスとSOAPハンドラの構築
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	soapHandler := soap.NewHandler(engine, collector, slog.Default())

	// 6. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		// configのRateLimitGeneralはreq/min単位なのでreq/secに変換する
		rateLimiterCfg.Rate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rateLimiterCfg.Burst = cfg.RateLimitGeneral
	}
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg, slog.Default())
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		SOAPHandler:       soapHandler,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		HealthChecker:     db,
		MetricsGatherer:   registry,
	})

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("SOAP server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down SOAP server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("SOAP server stopped gracefully")
	return nil
}

// runWorker は照合ワーカーモードで起動する。
// DB接続を開き、pending在庫調整の照合スケジューラとジャーナル削除ジョブを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	adjRepo := repository.NewPostgresAdjustmentRepo(db)

	// 3. 在庫クライアントの初期化
	inventoryClient := inventory.NewClient(
		&http.Client{Timeout: cfg.BookTimeout},
		cfg.BookServiceURL,
		slog.Default(),
	)

	// 4. メトリクスと照合器の初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	reconciler := reconcile.NewReconciler(
		adjRepo, inventoryClient, collector, slog.Default(), cfg.ReconcileMaxAttempts,
	)

	// 5. スケジューラの初期化
	scheduler := reconcile.NewScheduler(
		adjRepo, reconciler, collector, slog.Default(),
		cfg.ReconcileBatchSize, cfg.ReconcileMaxConcurrent,
	)

	// 6. ジャーナル削除ジョブの初期化
	purgeJob := journal.NewPurgeJob(db, slog.Default())
	purgeJob.RetentionDays = cfg.JournalRetentionDays

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("reconcile_interval", cfg.ReconcileInterval),
		slog.Int("max_concurrent", cfg.ReconcileMaxConcurrent),
		slog.Int("max_attempts", cfg.ReconcileMaxAttempts),
	)

	// ジャーナル削除ジョブを日次でバックグラウンド実行
	go func() {
		// 起動直後に1回実行
		if err := purgeJob.Run(ctx); err != nil {
			slog.Error("journal purge job failed", slog.String("error", err.Error()))
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := purgeJob.Run(ctx); err != nil {
					slog.Error("journal purge job failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	// 照合スケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx, cfg.ReconcileInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}

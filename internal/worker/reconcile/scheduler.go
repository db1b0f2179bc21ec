package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/lendman/internal/model"
	"github.com/hitoshi/lendman/internal/repository"
)

// AdjustmentReconciler はpending調整1件の処理インターフェース。
type AdjustmentReconciler interface {
	Reconcile(ctx context.Context, adj *model.Adjustment) error
}

// Scheduler はpending調整の照合サイクルのスケジューリングと並列制御を行う。
// ティッカーで期限の到来したpending調整を取得し、
// semaphoreパターンで最大並列数を制御しながら反映を実行する。
type Scheduler struct {
	adjRepo        repository.AdjustmentRepository
	reconciler     AdjustmentReconciler
	metrics        MetricsRecorder
	logger         *slog.Logger
	batchSize      int
	maxConcurrency int
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// batchSizeが0以下の場合は100、maxConcurrencyが0以下の場合は5を使用する。
func NewScheduler(
	adjRepo repository.AdjustmentRepository,
	reconciler AdjustmentReconciler,
	metrics MetricsRecorder,
	logger *slog.Logger,
	batchSize int,
	maxConcurrency int,
) *Scheduler {
	if batchSize <= 0 {
		batchSize = 100
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	return &Scheduler{
		adjRepo:        adjRepo,
		reconciler:     reconciler,
		metrics:        metrics,
		logger:         logger,
		batchSize:      batchSize,
		maxConcurrency: maxConcurrency,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("照合スケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("batch_size", s.batchSize),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("照合サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("照合スケジューラを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("照合サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は期限到来したpending調整を1回取得し、並列で反映を実行する。
// サイクルの最後に未確認件数をゲージへ反映する。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	adjustments, err := s.adjRepo.ListDue(ctx, s.batchSize)
	if err != nil {
		return err
	}

	if len(adjustments) > 0 {
		s.logger.Info("照合サイクルを開始します",
			slog.Int("adjustment_count", len(adjustments)),
		)

		// semaphoreパターンで並列数を制御
		sem := make(chan struct{}, s.maxConcurrency)
		var wg sync.WaitGroup

		for _, adj := range adjustments {
			wg.Add(1)
			sem <- struct{}{} // semaphore取得（ブロック）

			go func(a *model.Adjustment) {
				defer wg.Done()
				defer func() { <-sem }() // semaphore解放

				if err := s.reconciler.Reconcile(ctx, a); err != nil {
					s.logger.Error("調整の照合に失敗しました",
						slog.String("adjustment_id", a.ID),
						slog.String("error", err.Error()),
					)
				}
			}(adj)
		}

		wg.Wait()
	}

	s.updatePendingGauge(ctx)
	return nil
}

func (s *Scheduler) updatePendingGauge(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	count, err := s.adjRepo.CountPending(ctx)
	if err != nil {
		s.logger.Warn("未確認調整件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return
	}
	s.metrics.SetAdjustmentsPending(count)
}

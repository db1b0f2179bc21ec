// Package reconcile はpendingのまま取り残された在庫調整を解消する
// バックグラウンドワーカーを提供する。
// 貸出・返却のインラインの在庫反映が在庫サービス障害やプロセス断で
// 完了しなかった場合、ジャーナルのpending行を再試行または打ち切りで回収する。
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/lendman/internal/model"
	"github.com/hitoshi/lendman/internal/repository"
)

// InventoryClient は書籍在庫サービスへの操作インターフェース。
type InventoryClient interface {
	FetchBook(ctx context.Context, bookID int64) (*model.Book, error)
	UpdateBook(ctx context.Context, book *model.Book) (*model.Book, error)
}

// MetricsRecorder は照合処理の計測インターフェース。
type MetricsRecorder interface {
	ObserveAdjustmentConfirmed()
	ObserveAdjustmentAbandoned()
	SetAdjustmentsPending(count int)
}

// Reconciler は個々のpending調整の反映を1件ずつ完結させる。
// 反映は在庫サービスの最新スナップショットに対して行う。
// インラインの反映が実は成功していた（確認だけが失われた）場合に
// 同じ調整が2回適用されうる点は、整合性の回復を優先した設計上の妥協。
type Reconciler struct {
	adjRepo     repository.AdjustmentRepository
	inventory   InventoryClient
	metrics     MetricsRecorder
	logger      *slog.Logger
	maxAttempts int
}

// NewReconciler はReconcilerの新しいインスタンスを生成する。
// maxAttemptsが0以下の場合はデフォルト値10を使用する。
func NewReconciler(
	adjRepo repository.AdjustmentRepository,
	inventory InventoryClient,
	metrics MetricsRecorder,
	logger *slog.Logger,
	maxAttempts int,
) *Reconciler {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &Reconciler{
		adjRepo:     adjRepo,
		inventory:   inventory,
		metrics:     metrics,
		logger:      logger,
		maxAttempts: maxAttempts,
	}
}

// Reconcile は1件のpending調整を処理する。
// 書籍の最新スナップショットを取得し、調整方向の増減を適用して確認済みに遷移させる。
// 一時的な障害は次回試行時刻を指数バックオフで更新し、
// 回復不能な状況（書籍が存在しない、減算対象の在庫が既に0、試行上限超過）は打ち切る。
func (r *Reconciler) Reconcile(ctx context.Context, adj *model.Adjustment) error {
	book, err := r.inventory.FetchBook(ctx, adj.BookID)
	if err != nil {
		var opErr *model.OpError
		if errors.As(err, &opErr) && opErr.Kind == model.KindNotFound {
			return r.abandon(ctx, adj, "book no longer exists")
		}
		return r.retry(ctx, adj, err)
	}

	if adj.Direction == model.AdjustmentDecrement && book.AvailableQuantity <= 0 {
		// 他クライアントの更新で在庫が尽きている。減算を適用すると負数になる。
		return r.abandon(ctx, adj, "no available quantity left to decrement")
	}

	book.AvailableQuantity += adj.Delta()
	if _, err := r.inventory.UpdateBook(ctx, book); err != nil {
		return r.retry(ctx, adj, err)
	}

	if err := r.adjRepo.MarkConfirmed(ctx, adj.ID); err != nil {
		return fmt.Errorf("調整の確認済み遷移に失敗しました: %w", err)
	}

	if r.metrics != nil {
		r.metrics.ObserveAdjustmentConfirmed()
	}
	r.logger.Info("在庫調整を反映しました",
		slog.String("adjustment_id", adj.ID),
		slog.Int64("loan_id", adj.LoanID),
		slog.Int64("book_id", adj.BookID),
		slog.String("direction", string(adj.Direction)),
		slog.Int("attempts", adj.Attempts+1),
	)
	return nil
}

// retry は一時的な失敗を記録し、次回試行を指数バックオフでスケジュールする。
// 試行回数が上限に達した場合は打ち切る。
func (r *Reconciler) retry(ctx context.Context, adj *model.Adjustment, cause error) error {
	attempts := adj.Attempts + 1
	if attempts >= r.maxAttempts {
		return r.abandon(ctx, adj, fmt.Sprintf("retry limit reached (%d attempts): %v", attempts, cause))
	}

	nextAttemptAt := time.Now().Add(CalculateBackoff(attempts))
	if err := r.adjRepo.UpdateRetryState(ctx, adj.ID, attempts, nextAttemptAt, cause.Error()); err != nil {
		return fmt.Errorf("調整の再試行状態の更新に失敗しました: %w", err)
	}

	r.logger.Warn("在庫調整の反映に失敗しました。再試行をスケジュールします",
		slog.String("adjustment_id", adj.ID),
		slog.Int64("book_id", adj.BookID),
		slog.Int("attempts", attempts),
		slog.Time("next_attempt_at", nextAttemptAt),
		slog.String("error", cause.Error()),
	)
	return nil
}

// abandon は調整を打ち切り状態に遷移させる。
func (r *Reconciler) abandon(ctx context.Context, adj *model.Adjustment, reason string) error {
	if err := r.adjRepo.MarkAbandoned(ctx, adj.ID, reason); err != nil {
		return fmt.Errorf("調整の打ち切りに失敗しました: %w", err)
	}

	if r.metrics != nil {
		r.metrics.ObserveAdjustmentAbandoned()
	}
	r.logger.Error("在庫調整を打ち切りました。台帳と在庫の間に未解消の差分が残ります",
		slog.String("adjustment_id", adj.ID),
		slog.Int64("loan_id", adj.LoanID),
		slog.Int64("book_id", adj.BookID),
		slog.String("direction", string(adj.Direction)),
		slog.String("reason", reason),
	)
	return nil
}

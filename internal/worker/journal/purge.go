// Package journal は在庫調整ジャーナルの自動削除ジョブを提供する。
// 保持期間（デフォルト30日）を超過した確認済み・打ち切り済みの調整行を
// 日次バッチで削除する。pending行は照合ワーカーの処理対象のため削除しない。
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// PurgeJob は保持期間を超過した解決済み調整行の自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type PurgeJob struct {
	db            Executor
	logger        *slog.Logger
	RetentionDays int // 解決済み調整行の保持日数（デフォルト: 30）
}

// NewPurgeJob は新しいPurgeJobを生成する。
// デフォルトの保持日数は30日。
func NewPurgeJob(db Executor, logger *slog.Logger) *PurgeJob {
	return &PurgeJob{
		db:            db,
		logger:        logger,
		RetentionDays: 30,
	}
}

// Run は保持期間を超過した解決済み調整行を削除する。
// updated_atがRetentionDays日前より古いconfirmed/abandoned行をDELETEする。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *PurgeJob) Run(ctx context.Context) error {
	start := time.Now()

	interval := fmt.Sprintf("%d days", j.RetentionDays)

	query := `DELETE FROM inventory_adjustments
		WHERE status IN ('confirmed', 'abandoned')
		AND updated_at < now() - $1::interval`
	result, err := j.db.ExecContext(ctx, query, interval)
	if err != nil {
		j.logger.Error("ジャーナル削除ジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("ジャーナル削除の実行に失敗: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("ジャーナル削除ジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

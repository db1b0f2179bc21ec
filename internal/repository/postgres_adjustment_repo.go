package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/lendman/internal/model"
)

// PostgresAdjustmentRepo はPostgreSQLを使用した在庫調整ジャーナルリポジトリ。
type PostgresAdjustmentRepo struct {
	db *sql.DB
}

// NewPostgresAdjustmentRepo はPostgresAdjustmentRepoを生成する。
func NewPostgresAdjustmentRepo(db *sql.DB) *PostgresAdjustmentRepo {
	return &PostgresAdjustmentRepo{db: db}
}

// ListDue は再試行期限が到来したpending調整を取得する。
// 複数ワーカーの重複処理を避けるためFOR UPDATE SKIP LOCKEDを使用する。
func (r *PostgresAdjustmentRepo) ListDue(ctx context.Context, limit int) ([]*model.Adjustment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, loan_id, book_id, direction, status, attempts,
		        error_message, next_attempt_at, created_at, updated_at
		 FROM inventory_adjustments
		 WHERE status = $1 AND next_attempt_at <= now()
		 ORDER BY next_attempt_at ASC
		 LIMIT $2
		 FOR UPDATE SKIP LOCKED`,
		model.AdjustmentStatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("照合対象の在庫調整の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var adjustments []*model.Adjustment
	for rows.Next() {
		adj := &model.Adjustment{}
		var errorMessage sql.NullString

		if err := rows.Scan(
			&adj.ID, &adj.LoanID, &adj.BookID, &adj.Direction, &adj.Status,
			&adj.Attempts, &errorMessage, &adj.NextAttemptAt,
			&adj.CreatedAt, &adj.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("在庫調整行の読み取りに失敗しました: %w", err)
		}

		if errorMessage.Valid {
			adj.ErrorMessage = errorMessage.String
		}
		adjustments = append(adjustments, adj)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("在庫調整一覧の走査に失敗しました: %w", err)
	}
	return adjustments, nil
}

// MarkConfirmed は調整を確認済みに遷移させる。
// 条件付きUPDATEのためpending以外の行には作用せず、繰り返し呼んでも安全。
func (r *PostgresAdjustmentRepo) MarkConfirmed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE inventory_adjustments
		 SET status = $2, error_message = NULL, updated_at = now()
		 WHERE id = $1 AND status = $3`,
		id, model.AdjustmentStatusConfirmed, model.AdjustmentStatusPending,
	)
	if err != nil {
		return fmt.Errorf("在庫調整の確認済み遷移に失敗しました: %w", err)
	}
	return nil
}

// MarkAbandoned は調整を打ち切り状態に遷移させ、理由を記録する。
func (r *PostgresAdjustmentRepo) MarkAbandoned(ctx context.Context, id string, reason string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE inventory_adjustments
		 SET status = $2, error_message = $3, updated_at = now()
		 WHERE id = $1 AND status = $4`,
		id, model.AdjustmentStatusAbandoned, reason, model.AdjustmentStatusPending,
	)
	if err != nil {
		return fmt.Errorf("在庫調整の打ち切り遷移に失敗しました: %w", err)
	}
	return nil
}

// UpdateRetryState は失敗した調整の試行回数・次回試行時刻・エラー内容を更新する。
func (r *PostgresAdjustmentRepo) UpdateRetryState(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, errorMessage string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE inventory_adjustments
		 SET attempts = $2, next_attempt_at = $3, error_message = $4, updated_at = now()
		 WHERE id = $1`,
		id, attempts, nextAttemptAt, errorMessage,
	)
	if err != nil {
		return fmt.Errorf("在庫調整の再試行状態の更新に失敗しました: %w", err)
	}
	return nil
}

// CountPending は未確認の調整件数を返す。
func (r *PostgresAdjustmentRepo) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM inventory_adjustments WHERE status = $1`,
		model.AdjustmentStatusPending,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("pending在庫調整件数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ AdjustmentRepository = (*PostgresAdjustmentRepo)(nil)

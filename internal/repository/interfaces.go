// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/lendman/internal/model"
)

// LoanRepository は貸出台帳の永続化インターフェース。
type LoanRepository interface {
	// CreateWithAdjustment は貸出行とpending在庫調整マーカーを
	// 同一トランザクションで作成する。採番されたIDをloanに設定し、
	// adjustment.LoanIDにも反映する。
	CreateWithAdjustment(ctx context.Context, loan *model.Loan, adjustment *model.Adjustment) error

	// MarkReturnedWithAdjustment は貸出を返却済みに更新し、pending在庫調整マーカーを
	// 同一トランザクションで作成する。
	// 更新はstatus = 'ACTIVE'の行に対する条件付きUPDATEで行い、
	// 対象行が既に返却済みの場合はfalseを返してマーカーも作成しない。
	MarkReturnedWithAdjustment(ctx context.Context, loanID int64, returnedAt time.Time, adjustment *model.Adjustment) (bool, error)

	// FindByID は指定IDの貸出を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Loan, error)

	// ListByUserID は指定ユーザーの貸出一覧をloan_date降順で返す。
	ListByUserID(ctx context.Context, userID int64) ([]*model.Loan, error)

	// ListAll は全貸出をloan_date降順で返す。
	ListAll(ctx context.Context) ([]*model.Loan, error)
}

// AdjustmentRepository は在庫調整ジャーナルの永続化インターフェース。
type AdjustmentRepository interface {
	// ListDue は再試行期限が到来したpending調整を取得する。
	// next_attempt_at <= now() の行をFOR UPDATE SKIP LOCKEDで排他的に取得する。
	ListDue(ctx context.Context, limit int) ([]*model.Adjustment, error)

	// MarkConfirmed は調整を確認済みに遷移させる。
	// pending以外の行には作用しない（冪等）。
	MarkConfirmed(ctx context.Context, id string) error

	// MarkAbandoned は調整を打ち切り状態に遷移させ、理由を記録する。
	MarkAbandoned(ctx context.Context, id string, reason string) error

	// UpdateRetryState は失敗した調整の試行回数・次回試行時刻・エラー内容を更新する。
	UpdateRetryState(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, errorMessage string) error

	// CountPending は未確認の調整件数を返す。メトリクス用。
	CountPending(ctx context.Context) (int, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

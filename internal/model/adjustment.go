package model

import (
	"time"

	"github.com/google/uuid"
)

// AdjustmentDirection は在庫調整の方向を表す。
type AdjustmentDirection string

const (
	// AdjustmentDecrement は貸出による在庫1減算。
	AdjustmentDecrement AdjustmentDirection = "decrement"
	// AdjustmentIncrement は返却による在庫1加算。
	AdjustmentIncrement AdjustmentDirection = "increment"
)

// AdjustmentStatus は在庫調整マーカーの状態を表す。
type AdjustmentStatus string

const (
	// AdjustmentStatusPending は在庫サービスへの反映が未確認の状態。
	AdjustmentStatusPending AdjustmentStatus = "pending"
	// AdjustmentStatusConfirmed は在庫サービスへの反映が確認された状態。
	AdjustmentStatusConfirmed AdjustmentStatus = "confirmed"
	// AdjustmentStatusAbandoned は再試行を打ち切った状態。
	AdjustmentStatusAbandoned AdjustmentStatus = "abandoned"
)

// Adjustment は貸出ワークフローと対になる在庫調整のジャーナル行を表す。
// 台帳書き込みと同一トランザクションでpendingとして記録し、
// リモート呼び出しの成功確認後にconfirmedへ遷移させる。
// プロセス断や在庫サービス障害で取り残されたpending行は
// 照合ワーカーが再試行または打ち切りで解消する。
type Adjustment struct {
	ID            string
	LoanID        int64
	BookID        int64
	Direction     AdjustmentDirection
	Status        AdjustmentStatus
	Attempts      int
	ErrorMessage  string
	NextAttemptAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewAdjustment は指定方向のpending調整マーカーを構築する。
// LoanIDは台帳書き込み時に採番されたIDを後から設定する。
func NewAdjustment(bookID int64, direction AdjustmentDirection, now time.Time) *Adjustment {
	return &Adjustment{
		ID:            uuid.New().String(),
		BookID:        bookID,
		Direction:     direction,
		Status:        AdjustmentStatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Delta は調整方向に対応する在庫数の増減量を返す。
func (a *Adjustment) Delta() int {
	if a.Direction == AdjustmentIncrement {
		return 1
	}
	return -1
}

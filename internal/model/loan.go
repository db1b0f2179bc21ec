// Package model はドメインモデルを定義する。
package model

import "time"

// LoanPeriodDays は貸出期間の日数。
// 返却期限は貸出日のちょうど14日後とする固定ポリシー。
const LoanPeriodDays = 14

// Loan は貸出台帳の1行を表す。
type Loan struct {
	ID         int64
	UserID     int64
	BookID     int64
	LoanDate   time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	Status     LoanStatus
}

// LoanStatus は貸出の状態を表す。
type LoanStatus string

const (
	// LoanStatusActive は貸出中の状態。
	LoanStatusActive LoanStatus = "ACTIVE"
	// LoanStatusReturned は返却済みの状態。
	// ACTIVE → RETURNED への遷移は一方向で、巻き戻されることはない。
	LoanStatusReturned LoanStatus = "RETURNED"
)

// NewLoan は貸出日と返却期限（貸出日+14日）を設定した新規Loanを構築する。
// IDはレジャーストアが採番するため未設定のまま返す。
func NewLoan(userID, bookID int64, loanDate time.Time) *Loan {
	return &Loan{
		UserID:   userID,
		BookID:   bookID,
		LoanDate: loanDate,
		DueDate:  loanDate.AddDate(0, 0, LoanPeriodDays),
		Status:   LoanStatusActive,
	}
}

// IsReturned は貸出が返却済みかどうかを返す。
// 不変条件: RETURNED であることと ReturnDate が存在することは同値。
func (l *Loan) IsReturned() bool {
	return l.Status == LoanStatusReturned
}

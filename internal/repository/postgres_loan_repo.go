package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/lendman/internal/model"
)

// PostgresLoanRepo はPostgreSQLを使用した貸出台帳リポジトリ。
type PostgresLoanRepo struct {
	db *sql.DB
}

// NewPostgresLoanRepo はPostgresLoanRepoを生成する。
func NewPostgresLoanRepo(db *sql.DB) *PostgresLoanRepo {
	return &PostgresLoanRepo{db: db}
}

// loanColumns は貸出行のSELECT句。Scanの並び順と対応する。
const loanColumns = `id, user_id, book_id, loan_date, due_date, return_date, status`

// CreateWithAdjustment は貸出行とpending在庫調整マーカーを
// 同一トランザクションで作成する。
func (r *PostgresLoanRepo) CreateWithAdjustment(ctx context.Context, loan *model.Loan, adjustment *model.Adjustment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO loans (user_id, book_id, loan_date, due_date, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		loan.UserID, loan.BookID, loan.LoanDate, loan.DueDate, loan.Status,
	).Scan(&loan.ID)
	if err != nil {
		return fmt.Errorf("貸出の作成に失敗しました: %w", err)
	}

	adjustment.LoanID = loan.ID
	if err := insertAdjustment(ctx, tx, adjustment); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// MarkReturnedWithAdjustment は貸出の返却処理とpending在庫調整マーカーの作成を
// 同一トランザクションで行う。ACTIVEな行が更新できなかった場合はfalseを返す。
func (r *PostgresLoanRepo) MarkReturnedWithAdjustment(ctx context.Context, loanID int64, returnedAt time.Time, adjustment *model.Adjustment) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	// 条件付きUPDATE: 既に返却済みの行には作用しない。
	// 同一貸出への並行returnLoanはどちらか一方だけが行を更新できる。
	result, err := tx.ExecContext(ctx,
		`UPDATE loans SET return_date = $2, status = $3
		 WHERE id = $1 AND status = $4`,
		loanID, returnedAt, model.LoanStatusReturned, model.LoanStatusActive,
	)
	if err != nil {
		return false, fmt.Errorf("貸出の返却更新に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	adjustment.LoanID = loanID
	if err := insertAdjustment(ctx, tx, adjustment); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return true, nil
}

// FindByID は指定IDの貸出を取得する。見つからない場合はnilを返す。
func (r *PostgresLoanRepo) FindByID(ctx context.Context, id int64) (*model.Loan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1`, id,
	)

	loan, err := scanLoan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("貸出の取得に失敗しました: %w", err)
	}
	return loan, nil
}

// ListByUserID は指定ユーザーの貸出一覧をloan_date降順で返す。
func (r *PostgresLoanRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Loan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE user_id = $1 ORDER BY loan_date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ユーザー別貸出一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectLoans(rows)
}

// ListAll は全貸出をloan_date降順で返す。
func (r *PostgresLoanRepo) ListAll(ctx context.Context) ([]*model.Loan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM loans ORDER BY loan_date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("貸出一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectLoans(rows)
}

// rowScanner は*sql.Rowと*sql.Rowsの共通Scanインターフェース。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanLoan は1行分の貸出をScanする。
func scanLoan(row rowScanner) (*model.Loan, error) {
	loan := &model.Loan{}
	var returnDate sql.NullTime

	err := row.Scan(
		&loan.ID, &loan.UserID, &loan.BookID,
		&loan.LoanDate, &loan.DueDate, &returnDate, &loan.Status,
	)
	if err != nil {
		return nil, err
	}

	if returnDate.Valid {
		loan.ReturnDate = &returnDate.Time
	}
	return loan, nil
}

// collectLoans は結果セットの全行を貸出スライスに変換する。
func collectLoans(rows *sql.Rows) ([]*model.Loan, error) {
	var loans []*model.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("貸出行の読み取りに失敗しました: %w", err)
		}
		loans = append(loans, loan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("貸出一覧の走査に失敗しました: %w", err)
	}
	return loans, nil
}

// insertAdjustment はトランザクション内で在庫調整マーカーをINSERTする。
func insertAdjustment(ctx context.Context, tx *sql.Tx, adjustment *model.Adjustment) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO inventory_adjustments
		    (id, loan_id, book_id, direction, status, attempts, next_attempt_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		adjustment.ID, adjustment.LoanID, adjustment.BookID,
		adjustment.Direction, adjustment.Status, adjustment.Attempts,
		adjustment.NextAttemptAt, adjustment.CreatedAt, adjustment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("在庫調整マーカーの作成に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ LoanRepository = (*PostgresLoanRepo)(nil)

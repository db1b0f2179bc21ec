// Package loan は貸出オーケストレーションのドメインロジックを提供する。
// ローカルの貸出台帳への書き込みとリモート在庫サービスへの呼び出しを
// 順序付け、2つのストアにまたがる整合性の規律を定義する。
package loan

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/hitoshi/lendman/internal/model"
	"github.com/hitoshi/lendman/internal/repository"
)

// InventoryClient は書籍在庫サービスへの操作インターフェース。
type InventoryClient interface {
	// FetchBook は指定IDの書籍レコードを取得する。
	FetchBook(ctx context.Context, bookID int64) (*model.Book, error)
	// UpdateBook は書籍レコードをフルレコード置換で更新する。
	UpdateBook(ctx context.Context, book *model.Book) (*model.Book, error)
}

// Service は貸出オーケストレーションエンジン。
// createLoan / returnLoanは台帳書き込みとpending在庫調整マーカーを
// 同一トランザクションで記録し、インラインでの在庫反映が失敗しても
// 照合ワーカーが後からワークフローを完結できるようにする（サガ方式）。
type Service struct {
	loanRepo  repository.LoanRepository
	adjRepo   repository.AdjustmentRepository
	inventory InventoryClient
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	loanRepo repository.LoanRepository,
	adjRepo repository.AdjustmentRepository,
	inventory InventoryClient,
	logger *slog.Logger,
) *Service {
	return &Service{
		loanRepo:  loanRepo,
		adjRepo:   adjRepo,
		inventory: inventory,
		logger:    logger,
	}
}

// CreateLoan は新規貸出を作成する。
// 書籍の在庫を確認し、貸出行とpending減算マーカーを記録したうえで、
// 取得済みスナップショットから在庫を1減算する。
// 在庫反映の失敗は呼び出し元にcollaboratorエラーとして返るが、
// 貸出行はロールバックされず、残ったpendingマーカーを照合ワーカーが解消する。
func (s *Service) CreateLoan(ctx context.Context, userID, bookID string) (*model.Loan, error) {
	if userID == "" || bookID == "" {
		return nil, model.NewMissingLoanParamsError()
	}

	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return nil, model.NewValidationError("userId must be an integer")
	}
	bid, err := strconv.ParseInt(bookID, 10, 64)
	if err != nil {
		return nil, model.NewValidationError("bookId must be an integer")
	}

	// 在庫スナップショットの取得。失敗時は台帳書き込みを行わない。
	book, err := s.inventory.FetchBook(ctx, bid)
	if err != nil {
		return nil, asOpError(err)
	}

	if !book.IsAvailable() {
		return nil, model.NewBookNotAvailableError()
	}

	now := time.Now()
	loan := model.NewLoan(uid, bid, now)
	adjustment := model.NewAdjustment(bid, model.AdjustmentDecrement, now)

	if err := s.loanRepo.CreateWithAdjustment(ctx, loan, adjustment); err != nil {
		s.logger.Error("貸出の作成に失敗しました",
			slog.Int64("user_id", uid),
			slog.Int64("book_id", bid),
			slog.String("error", err.Error()),
		)
		return nil, model.NewCollaboratorError("Failed to create loan")
	}

	// ステップ2のスナップショットから減算する（再読み込みは行わない）。
	book.AvailableQuantity--
	if _, err := s.inventory.UpdateBook(ctx, book); err != nil {
		s.logger.Error("在庫の減算に失敗しました。照合ワーカーによる再試行に委ねます",
			slog.Int64("loan_id", loan.ID),
			slog.Int64("book_id", bid),
			slog.String("adjustment_id", adjustment.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewCollaboratorError("Failed to update book quantity")
	}

	s.confirmAdjustment(ctx, adjustment.ID, loan.ID)

	s.logger.Info("貸出を作成しました",
		slog.Int64("loan_id", loan.ID),
		slog.Int64("user_id", uid),
		slog.Int64("book_id", bid),
	)
	return loan, nil
}

// ReturnLoan は貸出を返却済みにする。
// 返却更新はACTIVE行への条件付きUPDATEで行い、並行する返却や
// 返却済み貸出への再返却はconflictエラーとして拒否する。
func (s *Service) ReturnLoan(ctx context.Context, loanID string) (*model.Loan, error) {
	if loanID == "" {
		return nil, model.NewMissingLoanIDError()
	}

	id, err := strconv.ParseInt(loanID, 10, 64)
	if err != nil {
		return nil, model.NewValidationError("loanId must be an integer")
	}

	loan, err := s.loanRepo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("貸出の取得に失敗しました",
			slog.Int64("loan_id", id),
			slog.String("error", err.Error()),
		)
		return nil, model.NewCollaboratorError("Failed to load loan")
	}
	if loan == nil {
		return nil, model.NewLoanNotFoundError()
	}
	if loan.IsReturned() {
		return nil, model.NewLoanAlreadyReturnedError()
	}

	now := time.Now()
	adjustment := model.NewAdjustment(loan.BookID, model.AdjustmentIncrement, now)

	updated, err := s.loanRepo.MarkReturnedWithAdjustment(ctx, id, now, adjustment)
	if err != nil {
		s.logger.Error("貸出の返却更新に失敗しました",
			slog.Int64("loan_id", id),
			slog.String("error", err.Error()),
		)
		return nil, model.NewCollaboratorError("Failed to update loan")
	}
	if !updated {
		// 事前チェックの後に並行returnLoanが先に行を更新したケース。
		return nil, model.NewLoanAlreadyReturnedError()
	}

	loan.Status = model.LoanStatusReturned
	loan.ReturnDate = &now

	// 返却による在庫の復元。貸出時と異なりスナップショットは返却時点で取得する。
	book, err := s.inventory.FetchBook(ctx, loan.BookID)
	if err != nil {
		s.logger.Error("返却時の書籍取得に失敗しました。照合ワーカーによる再試行に委ねます",
			slog.Int64("loan_id", id),
			slog.Int64("book_id", loan.BookID),
			slog.String("adjustment_id", adjustment.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewCollaboratorError("Book service error during return")
	}

	book.AvailableQuantity++
	if _, err := s.inventory.UpdateBook(ctx, book); err != nil {
		s.logger.Error("在庫の加算に失敗しました。照合ワーカーによる再試行に委ねます",
			slog.Int64("loan_id", id),
			slog.Int64("book_id", loan.BookID),
			slog.String("adjustment_id", adjustment.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewCollaboratorError("Failed to update book quantity on return")
	}

	s.confirmAdjustment(ctx, adjustment.ID, id)

	s.logger.Info("貸出を返却しました", slog.Int64("loan_id", id))
	return loan, nil
}

// GetLoanByID は指定IDの貸出を取得する。
func (s *Service) GetLoanByID(ctx context.Context, loanID string) (*model.Loan, error) {
	if loanID == "" {
		return nil, model.NewMissingLoanIDError()
	}

	id, err := strconv.ParseInt(loanID, 10, 64)
	if err != nil {
		return nil, model.NewValidationError("loanId must be an integer")
	}

	loan, err := s.loanRepo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("貸出の取得に失敗しました",
			slog.Int64("loan_id", id),
			slog.String("error", err.Error()),
		)
		return nil, model.NewCollaboratorError("Failed to load loan")
	}
	if loan == nil {
		return nil, model.NewLoanNotFoundError()
	}
	return loan, nil
}

// GetLoansByUser は指定ユーザーの貸出一覧をloan_date降順で返す。
// ストア障害は空の成功ではなくcollaborator種別の失敗として区別する。
func (s *Service) GetLoansByUser(ctx context.Context, userID string) ([]*model.Loan, error) {
	if userID == "" {
		return nil, model.NewMissingUserIDError()
	}

	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return nil, model.NewValidationError("userId must be an integer")
	}

	loans, err := s.loanRepo.ListByUserID(ctx, uid)
	if err != nil {
		s.logger.Error("ユーザー別貸出一覧の取得に失敗しました",
			slog.Int64("user_id", uid),
			slog.String("error", err.Error()),
		)
		return nil, model.NewCollaboratorError("Failed to load loans")
	}
	return loans, nil
}

// GetAllLoans は全貸出をloan_date降順で返す。
func (s *Service) GetAllLoans(ctx context.Context) ([]*model.Loan, error) {
	loans, err := s.loanRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error("貸出一覧の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewCollaboratorError("Failed to load loans")
	}
	return loans, nil
}

// confirmAdjustment は在庫反映の成功を受けて調整マーカーを確認済みに遷移させる。
// 遷移の失敗は操作の成否には影響させない。pendingのまま残ったマーカーは
// 照合ワーカーが新しいスナップショットから再適用するため、
// 調整が1回余分に適用される可能性がある（at-least-once）。
func (s *Service) confirmAdjustment(ctx context.Context, adjustmentID string, loanID int64) {
	if err := s.adjRepo.MarkConfirmed(ctx, adjustmentID); err != nil {
		s.logger.Error("在庫調整マーカーの確認済み遷移に失敗しました",
			slog.Int64("loan_id", loanID),
			slog.String("adjustment_id", adjustmentID),
			slog.String("error", err.Error()),
		)
	}
}

// asOpError はエラーをOpErrorとして返す。
// OpError以外のエラーはcollaborator種別に丸める。
func asOpError(err error) *model.OpError {
	var opErr *model.OpError
	if errors.As(err, &opErr) {
		return opErr
	}
	return model.NewCollaboratorError(err.Error())
}

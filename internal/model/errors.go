package model

import "fmt"

// ErrorKind は操作失敗の分類を表す。
// エンジン内部では種別付きエラーとして伝搬し、
// プロトコル境界で初めてメッセージ文字列に変換する。
type ErrorKind string

const (
	// KindValidation は必須パラメータの欠落や不正な形式による失敗。
	KindValidation ErrorKind = "validation"
	// KindNotFound は貸出または書籍が存在しないことによる失敗。
	KindNotFound ErrorKind = "not_found"
	// KindConflict は状態競合（返却済みの再返却、在庫切れ）による失敗。
	KindConflict ErrorKind = "conflict"
	// KindCollaborator はレジャーストアまたは在庫サービスの障害による失敗。
	KindCollaborator ErrorKind = "collaborator"
)

// OpError は種別付きの操作エラーを表す。
// Messageはワイヤ上のレスポンスにそのまま載るクライアント向けテキスト。
type OpError struct {
	Kind    ErrorKind
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *OpError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// NewValidationError はバリデーション失敗エラーを生成する。
func NewValidationError(message string) *OpError {
	return &OpError{Kind: KindValidation, Message: message}
}

// NewMissingLoanParamsError はcreateLoanの必須パラメータ欠落エラーを生成する。
func NewMissingLoanParamsError() *OpError {
	return &OpError{Kind: KindValidation, Message: "User ID and Book ID are required"}
}

// NewMissingLoanIDError はloanIdパラメータ欠落エラーを生成する。
func NewMissingLoanIDError() *OpError {
	return &OpError{Kind: KindValidation, Message: "Loan ID is required"}
}

// NewMissingUserIDError はuserIdパラメータ欠落エラーを生成する。
func NewMissingUserIDError() *OpError {
	return &OpError{Kind: KindValidation, Message: "User ID is required"}
}

// NewLoanNotFoundError は貸出未検出エラーを生成する。
func NewLoanNotFoundError() *OpError {
	return &OpError{Kind: KindNotFound, Message: "Loan not found"}
}

// NewBookNotFoundError は書籍未検出エラーを生成する。
func NewBookNotFoundError() *OpError {
	return &OpError{Kind: KindNotFound, Message: "Book not found"}
}

// NewBookNotAvailableError は在庫切れエラーを生成する。
func NewBookNotAvailableError() *OpError {
	return &OpError{Kind: KindConflict, Message: "Book is not available"}
}

// NewLoanAlreadyReturnedError は返却済み貸出の再返却エラーを生成する。
func NewLoanAlreadyReturnedError() *OpError {
	return &OpError{Kind: KindConflict, Message: "Loan already returned"}
}

// NewCollaboratorError は外部コラボレータ障害エラーを生成する。
func NewCollaboratorError(message string) *OpError {
	return &OpError{Kind: KindCollaborator, Message: message}
}

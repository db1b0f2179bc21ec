package soap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/lendman/internal/model"
)

// maxRequestBodySize はエンベロープ本文の最大サイズ。
const maxRequestBodySize = 1 << 20 // 1MB

// Engine は貸出オーケストレーションエンジンへのインターフェース。
// パラメータはエンベロープから取り出した生の文字列のまま渡し、
// 欠落・形式の検証はエンジン側が行う。
type Engine interface {
	CreateLoan(ctx context.Context, userID, bookID string) (*model.Loan, error)
	ReturnLoan(ctx context.Context, loanID string) (*model.Loan, error)
	GetLoanByID(ctx context.Context, loanID string) (*model.Loan, error)
	GetLoansByUser(ctx context.Context, userID string) ([]*model.Loan, error)
	GetAllLoans(ctx context.Context) ([]*model.Loan, error)
}

// MetricsRecorder はプロトコル境界の計測インターフェース。
type MetricsRecorder interface {
	ObserveOperation(operation, outcome string)
	ObserveFault()
	ObserveLoanCreated()
	ObserveLoanReturned()
}

// Handler はSOAPエンドポイントのHTTPハンドラ。
// GETはWSDLを返し、POSTはエンベロープを操作にディスパッチする。
// 業務上の失敗は success=false のエンベロープとHTTP 200で返し、
// フォルト（未知の操作、ハンドリング中のpanic）はsoap:FaultとHTTP 500で返す。
type Handler struct {
	engine  Engine
	metrics MetricsRecorder
	logger  *slog.Logger
}

// NewHandler はHandlerの新しいインスタンスを生成する。
func NewHandler(engine Engine, metrics MetricsRecorder, logger *slog.Logger) *Handler {
	return &Handler{
		engine:  engine,
		metrics: metrics,
		logger:  logger,
	}
}

// ServeHTTP はhttp.Handlerを実装する。
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.serveWSDL(w)
	case http.MethodPost:
		h.serveOperation(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) serveWSDL(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, ServiceWSDL); err != nil {
		h.logger.Error("WSDLの書き込みに失敗しました", slog.String("error", err.Error()))
	}
}

// serveOperation はエンベロープを読み取り、操作にディスパッチする。
// ハンドリング中のpanicはここで回収し、フォルトエンベロープとして返す。
// この境界から例外がトランスポートへ漏れることはない。
func (h *Handler) serveOperation(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("操作のハンドリング中にpanicが発生しました",
				slog.Any("panic", rec),
			)
			h.writeFault(w, fmt.Sprintf("internal error: %v", rec))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		h.writeFault(w, fmt.Sprintf("failed to read request body: %v", err))
		return
	}

	op, err := DetectOperation(string(body))
	if err != nil {
		h.logger.Warn("未知の操作を受信しました", slog.String("error", err.Error()))
		h.writeFault(w, err.Error())
		return
	}

	response := h.dispatch(r.Context(), op, string(body))

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, response); err != nil {
		h.logger.Error("レスポンスの書き込みに失敗しました",
			slog.String("operation", string(op)),
			slog.String("error", err.Error()),
		)
	}
}

func (h *Handler) dispatch(ctx context.Context, op Operation, body string) string {
	switch op {
	case OpCreateLoan:
		userID := ExtractParam(body, "userId")
		bookID := ExtractParam(body, "bookId")
		loan, err := h.engine.CreateLoan(ctx, userID, bookID)
		if err != nil {
			return h.failure(op, err)
		}
		h.observe(op, "success")
		if h.metrics != nil {
			h.metrics.ObserveLoanCreated()
		}
		return EncodeLoanResponse(op, true, "Loan created successfully", loan)

	case OpReturnLoan:
		loanID := ExtractParam(body, "loanId")
		loan, err := h.engine.ReturnLoan(ctx, loanID)
		if err != nil {
			return h.failure(op, err)
		}
		h.observe(op, "success")
		if h.metrics != nil {
			h.metrics.ObserveLoanReturned()
		}
		return EncodeLoanResponse(op, true, "Loan returned successfully", loan)

	case OpGetLoanByID:
		loanID := ExtractParam(body, "loanId")
		loan, err := h.engine.GetLoanByID(ctx, loanID)
		if err != nil {
			return h.failure(op, err)
		}
		h.observe(op, "success")
		return EncodeLoanResponse(op, true, "Loan found", loan)

	case OpGetLoansByUser:
		userID := ExtractParam(body, "userId")
		loans, err := h.engine.GetLoansByUser(ctx, userID)
		if err != nil {
			return h.listFailure(op, err)
		}
		h.observe(op, "success")
		return EncodeLoanListResponse(op, true, loans)

	default: // OpGetAllLoans
		loans, err := h.engine.GetAllLoans(ctx)
		if err != nil {
			return h.listFailure(op, err)
		}
		h.observe(op, "success")
		return EncodeLoanListResponse(op, true, loans)
	}
}

// failure は単一貸出系操作の業務失敗をエンベロープに変換する。
func (h *Handler) failure(op Operation, err error) string {
	opErr := classify(err)
	h.observe(op, string(opErr.Kind))
	h.logOperationFailure(op, opErr)
	return EncodeLoanResponse(op, false, opErr.Message, nil)
}

// listFailure は一覧系操作の業務失敗をエンベロープに変換する。
// ストア障害は空の成功一覧ではなく失敗として区別して返す。
func (h *Handler) listFailure(op Operation, err error) string {
	opErr := classify(err)
	h.observe(op, string(opErr.Kind))
	h.logOperationFailure(op, opErr)
	return EncodeLoanListResponse(op, false, nil)
}

func (h *Handler) logOperationFailure(op Operation, opErr *model.OpError) {
	// コラボレータ障害のみ運用上の注意を要するためERRORで記録する。
	if opErr.Kind == model.KindCollaborator {
		h.logger.Error("操作がコラボレータ障害で失敗しました",
			slog.String("operation", string(op)),
			slog.String("message", opErr.Message),
		)
		return
	}
	h.logger.Info("操作を拒否しました",
		slog.String("operation", string(op)),
		slog.String("kind", string(opErr.Kind)),
		slog.String("message", opErr.Message),
	)
}

func (h *Handler) writeFault(w http.ResponseWriter, message string) {
	if h.metrics != nil {
		h.metrics.ObserveFault()
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	if _, err := io.WriteString(w, EncodeFault(message)); err != nil {
		h.logger.Error("フォルトレスポンスの書き込みに失敗しました", slog.String("error", err.Error()))
	}
}

func (h *Handler) observe(op Operation, outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveOperation(string(op), outcome)
	}
}

// classify はエンジンから返されたエラーを種別付きエラーとして解釈する。
func classify(err error) *model.OpError {
	var opErr *model.OpError
	if errors.As(err, &opErr) {
		return opErr
	}
	return model.NewCollaboratorError(err.Error())
}

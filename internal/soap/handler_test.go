package soap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/lendman/internal/model"
)

// mockEngine はテスト用のEngineモック。
type mockEngine struct {
	createLoanFunc     func(ctx context.Context, userID, bookID string) (*model.Loan, error)
	returnLoanFunc     func(ctx context.Context, loanID string) (*model.Loan, error)
	getLoanByIDFunc    func(ctx context.Context, loanID string) (*model.Loan, error)
	getLoansByUserFunc func(ctx context.Context, userID string) ([]*model.Loan, error)
	getAllLoansFunc    func(ctx context.Context) ([]*model.Loan, error)
}

func (m *mockEngine) CreateLoan(ctx context.Context, userID, bookID string) (*model.Loan, error) {
	if m.createLoanFunc != nil {
		return m.createLoanFunc(ctx, userID, bookID)
	}
	return testLoan(), nil
}

func (m *mockEngine) ReturnLoan(ctx context.Context, loanID string) (*model.Loan, error) {
	if m.returnLoanFunc != nil {
		return m.returnLoanFunc(ctx, loanID)
	}
	return testLoan(), nil
}

func (m *mockEngine) GetLoanByID(ctx context.Context, loanID string) (*model.Loan, error) {
	if m.getLoanByIDFunc != nil {
		return m.getLoanByIDFunc(ctx, loanID)
	}
	return testLoan(), nil
}

func (m *mockEngine) GetLoansByUser(ctx context.Context, userID string) ([]*model.Loan, error) {
	if m.getLoansByUserFunc != nil {
		return m.getLoansByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockEngine) GetAllLoans(ctx context.Context) ([]*model.Loan, error) {
	if m.getAllLoansFunc != nil {
		return m.getAllLoansFunc(ctx)
	}
	return nil, nil
}

// mockRecorder はテスト用のMetricsRecorderモック。
type mockRecorder struct {
	operations    map[string]string
	faults        int
	loansCreated  int
	loansReturned int
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{operations: make(map[string]string)}
}

func (m *mockRecorder) ObserveOperation(operation, outcome string) {
	m.operations[operation] = outcome
}

func (m *mockRecorder) ObserveFault() { m.faults++ }

func (m *mockRecorder) ObserveLoanCreated() { m.loansCreated++ }

func (m *mockRecorder) ObserveLoanReturned() { m.loansReturned++ }

func newTestHandler(engine *mockEngine, recorder *mockRecorder) *Handler {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewHandler(engine, recorder, logger)
}

func post(t *testing.T, handler *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ws", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/xml")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandler_WSDL(t *testing.T) {
	handler := newTestHandler(&mockEngine{}, newMockRecorder())

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("期待するステータスコード: %d, 実際: %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/xml") {
		t.Errorf("期待するContent-Type: text/xml, 実際: %s", ct)
	}
	body := rec.Body.String()
	for _, op := range operationPriority {
		if !strings.Contains(body, `<operation name="`+string(op)+`">`) {
			t.Errorf("WSDLに操作 %s が含まれていません", op)
		}
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	handler := newTestHandler(&mockEngine{}, newMockRecorder())

	req := httptest.NewRequest(http.MethodDelete, "/ws", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("期待するステータスコード: %d, 実際: %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestHandler_CreateLoan_Success(t *testing.T) {
	var gotUserID, gotBookID string
	engine := &mockEngine{
		createLoanFunc: func(ctx context.Context, userID, bookID string) (*model.Loan, error) {
			gotUserID, gotBookID = userID, bookID
			return testLoan(), nil
		},
	}
	recorder := newMockRecorder()
	handler := newTestHandler(engine, recorder)

	rec := post(t, handler, `<soap:Envelope><soap:Body><createLoanRequest><userId>10</userId><bookId>7</bookId></createLoanRequest></soap:Body></soap:Envelope>`)

	if rec.Code != http.StatusOK {
		t.Errorf("期待するステータスコード: %d, 実際: %d", http.StatusOK, rec.Code)
	}
	if gotUserID != "10" || gotBookID != "7" {
		t.Errorf("期待するパラメータ: 10/7, 実際: %s/%s", gotUserID, gotBookID)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `<success>true</success>`) {
		t.Errorf("success=trueが含まれていません:\n%s", body)
	}
	if !strings.Contains(body, `<message>Loan created successfully</message>`) {
		t.Errorf("成功メッセージが含まれていません:\n%s", body)
	}
	if recorder.loansCreated != 1 {
		t.Errorf("貸出作成メトリクスが記録されていません: %d", recorder.loansCreated)
	}
	if recorder.operations["createLoan"] != "success" {
		t.Errorf("操作メトリクスが記録されていません: %v", recorder.operations)
	}
}

func TestHandler_CreateLoan_BusinessFailure(t *testing.T) {
	// 業務上の失敗はフォルトではなくsuccess=falseのエンベロープとHTTP 200。
	engine := &mockEngine{
		createLoanFunc: func(ctx context.Context, userID, bookID string) (*model.Loan, error) {
			return nil, model.NewBookNotAvailableError()
		},
	}
	recorder := newMockRecorder()
	handler := newTestHandler(engine, recorder)

	rec := post(t, handler, `<createLoanRequest><userId>10</userId><bookId>7</bookId></createLoanRequest>`)

	if rec.Code != http.StatusOK {
		t.Errorf("期待するステータスコード: %d, 実際: %d", http.StatusOK, rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `<success>false</success>`) {
		t.Errorf("success=falseが含まれていません:\n%s", body)
	}
	if !strings.Contains(body, `<message>Book is not available</message>`) {
		t.Errorf("失敗メッセージが含まれていません:\n%s", body)
	}
	if recorder.operations["createLoan"] != "conflict" {
		t.Errorf("期待する操作結果: conflict, 実際: %v", recorder.operations)
	}
	if recorder.faults != 0 {
		t.Errorf("業務失敗がフォルトとして記録されています: %d", recorder.faults)
	}
}

func TestHandler_CreateLoan_MissingParams(t *testing.T) {
	// パラメータ欠落の拒否はエンジン側の責務。プロトコル層は空値をそのまま渡す。
	engine := &mockEngine{
		createLoanFunc: func(ctx context.Context, userID, bookID string) (*model.Loan, error) {
			if userID == "" || bookID == "" {
				return nil, model.NewMissingLoanParamsError()
			}
			return testLoan(), nil
		},
	}
	handler := newTestHandler(engine, newMockRecorder())

	rec := post(t, handler, `<createLoanRequest><userId>10</userId></createLoanRequest>`)

	if rec.Code != http.StatusOK {
		t.Errorf("期待するステータスコード: %d, 実際: %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `<message>User ID and Book ID are required</message>`) {
		t.Errorf("検証失敗メッセージが含まれていません:\n%s", rec.Body.String())
	}
}

func TestHandler_ReturnLoan_Success(t *testing.T) {
	returnDate := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	engine := &mockEngine{
		returnLoanFunc: func(ctx context.Context, loanID string) (*model.Loan, error) {
			loan := testLoan()
			loan.Status = model.LoanStatusReturned
			loan.ReturnDate = &returnDate
			return loan, nil
		},
	}
	recorder := newMockRecorder()
	handler := newTestHandler(engine, recorder)

	rec := post(t, handler, `<returnLoanRequest><loanId>5</loanId></returnLoanRequest>`)

	body := rec.Body.String()
	if !strings.Contains(body, `<message>Loan returned successfully</message>`) {
		t.Errorf("成功メッセージが含まれていません:\n%s", body)
	}
	if !strings.Contains(body, `<returnDate>2026-08-10T09:00:00Z</returnDate>`) {
		t.Errorf("返却日が含まれていません:\n%s", body)
	}
	if recorder.loansReturned != 1 {
		t.Errorf("返却メトリクスが記録されていません: %d", recorder.loansReturned)
	}
}

func TestHandler_GetLoanById_NotFound(t *testing.T) {
	engine := &mockEngine{
		getLoanByIDFunc: func(ctx context.Context, loanID string) (*model.Loan, error) {
			return nil, model.NewLoanNotFoundError()
		},
	}
	handler := newTestHandler(engine, newMockRecorder())

	rec := post(t, handler, `<getLoanByIdRequest><loanId>999</loanId></getLoanByIdRequest>`)

	if rec.Code != http.StatusOK {
		t.Errorf("期待するステータスコード: %d, 実際: %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `<message>Loan not found</message>`) {
		t.Errorf("未検出メッセージが含まれていません:\n%s", rec.Body.String())
	}
}

func TestHandler_GetLoansByUser(t *testing.T) {
	engine := &mockEngine{
		getLoansByUserFunc: func(ctx context.Context, userID string) ([]*model.Loan, error) {
			return []*model.Loan{testLoan(), testLoan()}, nil
		},
	}
	handler := newTestHandler(engine, newMockRecorder())

	rec := post(t, handler, `<getLoansByUserRequest><userId>10</userId></getLoansByUserRequest>`)

	body := rec.Body.String()
	if !strings.Contains(body, `<getLoansByUserResponse xmlns="http://loan.service">`) {
		t.Errorf("レスポンス要素が含まれていません:\n%s", body)
	}
	if count := strings.Count(body, "<loan>"); count != 2 {
		t.Errorf("期待するloan要素数: 2, 実際: %d", count)
	}
}

func TestHandler_GetAllLoans_StoreFailure(t *testing.T) {
	// ストア障害の一覧操作はsuccess=falseを返す。空の成功一覧とは区別される。
	engine := &mockEngine{
		getAllLoansFunc: func(ctx context.Context) ([]*model.Loan, error) {
			return nil, model.NewCollaboratorError("Failed to load loans")
		},
	}
	recorder := newMockRecorder()
	handler := newTestHandler(engine, recorder)

	rec := post(t, handler, `<getAllLoansRequest/>`)

	if rec.Code != http.StatusOK {
		t.Errorf("期待するステータスコード: %d, 実際: %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `<success>false</success>`) {
		t.Errorf("success=falseが含まれていません:\n%s", rec.Body.String())
	}
	if recorder.operations["getAllLoans"] != "collaborator" {
		t.Errorf("期待する操作結果: collaborator, 実際: %v", recorder.operations)
	}
}

func TestHandler_UnknownOperation_Fault(t *testing.T) {
	recorder := newMockRecorder()
	handler := newTestHandler(&mockEngine{}, recorder)

	rec := post(t, handler, `<soap:Envelope><soap:Body><deleteLoanRequest><loanId>5</loanId></deleteLoanRequest></soap:Body></soap:Envelope>`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("期待するステータスコード: %d, 実際: %d", http.StatusInternalServerError, rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `<faultcode>soap:Server</faultcode>`) {
		t.Errorf("フォルトコードが含まれていません:\n%s", body)
	}
	if recorder.faults != 1 {
		t.Errorf("フォルトメトリクスが記録されていません: %d", recorder.faults)
	}
}

func TestHandler_PanicRecovery(t *testing.T) {
	// ハンドリング中のpanicはフォルトエンベロープに変換され、境界から漏れない。
	engine := &mockEngine{
		createLoanFunc: func(ctx context.Context, userID, bookID string) (*model.Loan, error) {
			panic("boom")
		},
	}
	recorder := newMockRecorder()
	handler := newTestHandler(engine, recorder)

	rec := post(t, handler, `<createLoanRequest><userId>10</userId><bookId>7</bookId></createLoanRequest>`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("期待するステータスコード: %d, 実際: %d", http.StatusInternalServerError, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `<soap:Fault>`) {
		t.Errorf("フォルトエンベロープが含まれていません:\n%s", rec.Body.String())
	}
	if recorder.faults != 1 {
		t.Errorf("フォルトメトリクスが記録されていません: %d", recorder.faults)
	}
}

func TestHandler_NilMetricsRecorder(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	handler := NewHandler(&mockEngine{}, nil, logger)

	rec := post(t, handler, `<getAllLoansRequest/>`)
	if rec.Code != http.StatusOK {
		t.Errorf("期待するステータスコード: %d, 実際: %d", http.StatusOK, rec.Code)
	}
}

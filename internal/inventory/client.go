// Package inventory は外部書籍在庫サービスとの連携機能を提供する。
// 書籍レコードの取得と、フルレコード置換による在庫数の更新を行う。
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/lendman/internal/model"
)

// Client は書籍在庫サービスのHTTPクライアント。
// タイムアウト付きのhttp.Clientを保持し、呼び出し失敗は
// 種別付きエラー（not_found / collaborator）として返す。
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLは在庫サービスのルートURL（例: "http://book-service:8081"）。
func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// FetchBook は指定IDの書籍レコードを取得する。
// 404はnot_found、transport障害やサーバーエラーはcollaborator種別のエラーとして返す。
func (c *Client) FetchBook(ctx context.Context, bookID int64) (*model.Book, error) {
	url := fmt.Sprintf("%s/api/books/%d", c.baseURL, bookID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("書籍取得リクエストの作成に失敗しました: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("書籍在庫サービスの呼び出しに失敗しました",
			slog.Int64("book_id", bookID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewCollaboratorError(fmt.Sprintf("book service unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, model.NewBookNotFoundError()
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("書籍在庫サービスがエラーステータスを返しました",
			slog.Int64("book_id", bookID),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, model.NewCollaboratorError(fmt.Sprintf("book service returned status %d", resp.StatusCode))
	}

	return decodeBook(resp.Body)
}

// UpdateBook は書籍レコードをフルレコードPUTで置換する。
// 呼び出し元は取得したスナップショットの全フィールドを、
// availableQuantityのみ変更した形で渡すこと。
func (c *Client) UpdateBook(ctx context.Context, book *model.Book) (*model.Book, error) {
	body, err := json.Marshal(book)
	if err != nil {
		return nil, fmt.Errorf("書籍レコードのエンコードに失敗しました: %w", err)
	}

	url := fmt.Sprintf("%s/api/books/%d", c.baseURL, book.ID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("書籍更新リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("書籍在庫の更新呼び出しに失敗しました",
			slog.Int64("book_id", book.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewCollaboratorError(fmt.Sprintf("book service unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, model.NewBookNotFoundError()
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("書籍在庫の更新がエラーステータスを返しました",
			slog.Int64("book_id", book.ID),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, model.NewCollaboratorError(fmt.Sprintf("book service returned status %d", resp.StatusCode))
	}

	return decodeBook(resp.Body)
}

// decodeBook はレスポンスボディから書籍レコードをデコードする。
func decodeBook(r io.Reader) (*model.Book, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, model.NewCollaboratorError(fmt.Sprintf("failed to read book service response: %v", err))
	}

	var book model.Book
	if err := json.Unmarshal(body, &book); err != nil {
		return nil, model.NewCollaboratorError(fmt.Sprintf("failed to parse book service response: %v", err))
	}
	return &book, nil
}

package model

// Book は外部在庫サービスが所有する書籍レコードを表す。
// 更新APIは全フィールド置換（フルレコードPUT）のため、
// 在庫サービスが返す全フィールドをそのまま保持して送り返す。
type Book struct {
	ID                int64  `json:"id"`
	ISBN              string `json:"isbn"`
	Title             string `json:"title"`
	Author            string `json:"author"`
	PublishYear       int    `json:"publishYear"`
	Category          string `json:"category"`
	AvailableQuantity int    `json:"availableQuantity"`
}

// IsAvailable は貸出可能な在庫が残っているかどうかを返す。
func (b *Book) IsAvailable() bool {
	return b.AvailableQuantity > 0
}

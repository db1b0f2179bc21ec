// Package soap は貸出サービスのテキストプロトコル境界を実装する。
// 受信エンベロープを操作と名前付きパラメータに分解し、
// エンジンの結果またはフォルトをエンベロープに組み立て直す。
package soap

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Operation はサポートされる操作を表す。
type Operation string

const (
	OpCreateLoan     Operation = "createLoan"
	OpReturnLoan     Operation = "returnLoan"
	OpGetLoansByUser Operation = "getLoansByUser"
	OpGetLoanByID    Operation = "getLoanById"
	OpGetAllLoans    Operation = "getAllLoans"
)

// operationPriority は操作判定の優先順位。
// エンベロープ本文に複数の操作名が含まれる場合、先頭側が優先される。
// getLoansByUserはgetLoanByIdより先に判定する必要がある点に注意。
var operationPriority = []Operation{
	OpCreateLoan,
	OpReturnLoan,
	OpGetLoansByUser,
	OpGetLoanByID,
	OpGetAllLoans,
}

// ErrUnknownOperation はエンベロープからサポート対象の操作名を
// 見つけられなかったことを表す。
// プロトコル境界でフォルトエンベロープに変換される。
type ErrUnknownOperation struct{}

func (e *ErrUnknownOperation) Error() string {
	return "unknown operation: no supported operation name found in request body"
}

// DetectOperation はエンベロープ本文から対象の操作を判定する。
// 判定は固定の優先順位での部分文字列の存在チェックによる。
func DetectOperation(body string) (Operation, error) {
	for _, op := range operationPriority {
		if strings.Contains(body, string(op)) {
			return op, nil
		}
	}
	return "", &ErrUnknownOperation{}
}

var (
	paramPatternMu sync.Mutex
	paramPatterns  = make(map[string]*regexp.Regexp)
)

func paramPattern(tag string) *regexp.Regexp {
	paramPatternMu.Lock()
	defer paramPatternMu.Unlock()
	if re, ok := paramPatterns[tag]; ok {
		return re
	}
	re := regexp.MustCompile(fmt.Sprintf(`(?s)<%s>(.*?)</%s>`, regexp.QuoteMeta(tag), regexp.QuoteMeta(tag)))
	paramPatterns[tag] = re
	return re
}

// ExtractParam はエンベロープ本文からパラメータの値を取り出す。
// 指定タグの開始/終了ペアの最初の一致の内側テキストを返し、
// タグが存在しない場合は空文字列を返す。欠落の扱いはエンジン側の責務。
func ExtractParam(body, tag string) string {
	match := paramPattern(tag).FindStringSubmatch(body)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

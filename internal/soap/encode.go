package soap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/lendman/internal/model"
)

const (
	xmlHeader       = `<?xml version="1.0" encoding="utf-8"?>`
	envelopeOpen    = `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">`
	envelopeClose   = `</soap:Envelope>`
	bodyNamespace   = "http://loan.service"
	timestampLayout = time.RFC3339
)

// xmlEscape はテキストノードに埋め込む値をエスケープする。
func xmlEscape(s string) string {
	var buf bytes.Buffer
	// EscapeTextが返すエラーはWriterのエラーのみで、bytes.Bufferでは発生しない。
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// encodeLoan は貸出レコードを<loan>要素として組み立てる。
// returnDateが未設定の場合は空要素として出力する。
func encodeLoan(b *strings.Builder, loan *model.Loan) {
	returnDate := ""
	if loan.ReturnDate != nil {
		returnDate = loan.ReturnDate.Format(timestampLayout)
	}

	b.WriteString("\n    <loan>")
	fmt.Fprintf(b, "\n      <id>%d</id>", loan.ID)
	fmt.Fprintf(b, "\n      <userId>%d</userId>", loan.UserID)
	fmt.Fprintf(b, "\n      <bookId>%d</bookId>", loan.BookID)
	fmt.Fprintf(b, "\n      <loanDate>%s</loanDate>", loan.LoanDate.Format(timestampLayout))
	fmt.Fprintf(b, "\n      <dueDate>%s</dueDate>", loan.DueDate.Format(timestampLayout))
	fmt.Fprintf(b, "\n      <returnDate>%s</returnDate>", returnDate)
	fmt.Fprintf(b, "\n      <status>%s</status>", xmlEscape(string(loan.Status)))
	b.WriteString("\n    </loan>")
}

// EncodeLoanResponse は単一の貸出を返す操作の成功/失敗エンベロープを組み立てる。
// 失敗時はloanにnilを渡す。
func EncodeLoanResponse(op Operation, success bool, message string, loan *model.Loan) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString("\n")
	b.WriteString(envelopeOpen)
	b.WriteString("\n  <soap:Body>")
	fmt.Fprintf(&b, "\n    <%sResponse xmlns=%q>", op, bodyNamespace)
	fmt.Fprintf(&b, "\n      <success>%t</success>", success)
	fmt.Fprintf(&b, "\n      <message>%s</message>", xmlEscape(message))
	if loan != nil {
		encodeLoan(&b, loan)
	}
	fmt.Fprintf(&b, "\n    </%sResponse>", op)
	b.WriteString("\n  </soap:Body>\n")
	b.WriteString(envelopeClose)
	return b.String()
}

// EncodeLoanListResponse は貸出一覧を返す操作の成功/失敗エンベロープを組み立てる。
// 一覧系のレスポンスにはmessage要素を含めない。
func EncodeLoanListResponse(op Operation, success bool, loans []*model.Loan) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString("\n")
	b.WriteString(envelopeOpen)
	b.WriteString("\n  <soap:Body>")
	fmt.Fprintf(&b, "\n    <%sResponse xmlns=%q>", op, bodyNamespace)
	fmt.Fprintf(&b, "\n      <success>%t</success>", success)
	for _, loan := range loans {
		encodeLoan(&b, loan)
	}
	fmt.Fprintf(&b, "\n    </%sResponse>", op)
	b.WriteString("\n  </soap:Body>\n")
	b.WriteString(envelopeClose)
	return b.String()
}

// EncodeFault はサーバフォルトのエンベロープを組み立てる。
func EncodeFault(message string) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString("\n")
	b.WriteString(envelopeOpen)
	b.WriteString("\n  <soap:Body>")
	b.WriteString("\n    <soap:Fault>")
	b.WriteString("\n      <faultcode>soap:Server</faultcode>")
	fmt.Fprintf(&b, "\n      <faultstring>%s</faultstring>", xmlEscape(message))
	b.WriteString("\n    </soap:Fault>")
	b.WriteString("\n  </soap:Body>\n")
	b.WriteString(envelopeClose)
	return b.String()
}

// DecodeLoan は<loan>要素を含むXML断片から貸出レコードを復元する。
// 空のreturnDate要素は未返却（nil）として読み戻す。
func DecodeLoan(fragment string) (*model.Loan, error) {
	id, err := strconv.ParseInt(ExtractParam(fragment, "id"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("貸出レコードのidを解釈できません: %w", err)
	}
	userID, err := strconv.ParseInt(ExtractParam(fragment, "userId"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("貸出レコードのuserIdを解釈できません: %w", err)
	}
	bookID, err := strconv.ParseInt(ExtractParam(fragment, "bookId"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("貸出レコードのbookIdを解釈できません: %w", err)
	}
	loanDate, err := time.Parse(timestampLayout, ExtractParam(fragment, "loanDate"))
	if err != nil {
		return nil, fmt.Errorf("貸出レコードのloanDateを解釈できません: %w", err)
	}
	dueDate, err := time.Parse(timestampLayout, ExtractParam(fragment, "dueDate"))
	if err != nil {
		return nil, fmt.Errorf("貸出レコードのdueDateを解釈できません: %w", err)
	}

	loan := &model.Loan{
		ID:       id,
		UserID:   userID,
		BookID:   bookID,
		LoanDate: loanDate,
		DueDate:  dueDate,
		Status:   model.LoanStatus(ExtractParam(fragment, "status")),
	}

	if raw := ExtractParam(fragment, "returnDate"); raw != "" {
		returnDate, err := time.Parse(timestampLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("貸出レコードのreturnDateを解釈できません: %w", err)
		}
		loan.ReturnDate = &returnDate
	}
	return loan, nil
}

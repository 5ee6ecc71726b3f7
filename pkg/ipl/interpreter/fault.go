package interpreter

import (
	"fmt"
	"strings"
)

// FaultType は実行時エラーの種類
type FaultType string

const (
	FaultUnknownCommand      FaultType = "UNKNOWN_COMMAND"
	FaultInvalidArgument     FaultType = "INVALID_ARGUMENT"
	FaultMalformedExpression FaultType = "MALFORMED_EXPRESSION"
	FaultDivisionByZero      FaultType = "DIVISION_BY_ZERO"
	FaultInvalidNumber       FaultType = "INVALID_NUMBER"
	FaultBlockMismatch       FaultType = "BLOCK_MISMATCH"
	FaultCancelled           FaultType = "CANCELLED"
	FaultIterationLimit      FaultType = "ITERATION_LIMIT"
)

// Fault はスクリプトの実行を中断させるエラー。
// 発生した時点までの描画や変数の変更はそのまま残る。
type Fault struct {
	Type    FaultType
	Message string
	Line    int    // 行番号（1始まり）、不明なら0
	Text    string // 該当行のテキスト
	Context string // 該当行の前後を含むソース抜粋
	Err     error  // 原因となったエラー
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.Line > 0 {
		return fmt.Sprintf("[%s] %s at line %d", f.Type, f.Message, f.Line)
	}
	return fmt.Sprintf("[%s] %s", f.Type, f.Message)
}

// Unwrap returns the underlying cause.
func (f *Fault) Unwrap() error {
	return f.Err
}

// Detail はソース抜粋を含むメッセージを返す
func (f *Fault) Detail() string {
	if f.Context == "" {
		return f.Error()
	}
	return f.Error() + "\n" + f.Context
}

func newFault(t FaultType, line int, text, message string) *Fault {
	return &Fault{
		Type:    t,
		Message: message,
		Line:    line,
		Text:    text,
	}
}

// GenerateErrorContext は指定行の前後2行を行番号付きで整形する。
//
// 出力例:
//
//	  2 | moveto 10 10
//	  3 | pen red
//	> 4 | circel 20
//	  5 | clear
func GenerateErrorContext(source string, line int) string {
	if source == "" || line <= 0 {
		return ""
	}

	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	if line > len(lines) {
		return ""
	}

	start := line - 3
	if start < 0 {
		start = 0
	}
	end := line + 2
	if end > len(lines) {
		end = len(lines)
	}

	lineNumWidth := len(fmt.Sprintf("%d", end))

	var buf strings.Builder
	for i := start; i < end; i++ {
		lineNum := i + 1
		marker := "  "
		if lineNum == line {
			marker = "> "
		}
		buf.WriteString(fmt.Sprintf("%s%*d | %s\n", marker, lineNumWidth, lineNum, lines[i]))
	}

	return buf.String()
}

// Package token defines the lexical vocabulary of IPL scripts.
package token

import (
	"strconv"
	"strings"
)

// Keyword は行の先頭トークンから判定されるコマンド種別
type Keyword string

const (
	ILLEGAL Keyword = ""

	// 描画コマンド
	MOVETO    Keyword = "moveto"
	DRAWTO    Keyword = "drawto"
	RECTANGLE Keyword = "rectangle"
	CIRCLE    Keyword = "circle"
	TRIANGLE  Keyword = "triangle"
	PEN       Keyword = "pen"
	FILL      Keyword = "fill"
	CLEAR     Keyword = "clear"
	RESET     Keyword = "reset"

	// 制御構文
	IF      Keyword = "if"
	ENDIF   Keyword = "endif"
	WHILE   Keyword = "while"
	ENDLOOP Keyword = "endloop"
)

var keywords = map[string]Keyword{
	"moveto":    MOVETO,
	"drawto":    DRAWTO,
	"rectangle": RECTANGLE,
	"circle":    CIRCLE,
	"triangle":  TRIANGLE,
	"pen":       PEN,
	"fill":      FILL,
	"clear":     CLEAR,
	"reset":     RESET,
	"if":        IF,
	"endif":     ENDIF,
	"while":     WHILE,
	"endloop":   ENDLOOP,
}

// LookupKeyword は単語をキーワードに変換する（大文字小文字を無視）
func LookupKeyword(word string) (Keyword, bool) {
	kw, ok := keywords[strings.ToLower(word)]
	return kw, ok
}

// IsPrimitive は描画系のコマンドかどうかを返す
func (k Keyword) IsPrimitive() bool {
	switch k {
	case MOVETO, DRAWTO, RECTANGLE, CIRCLE, TRIANGLE, PEN, FILL, CLEAR, RESET:
		return true
	}
	return false
}

// Arity は描画コマンドが取る引数の数を返す
func (k Keyword) Arity() int {
	switch k {
	case MOVETO, DRAWTO, RECTANGLE, TRIANGLE:
		return 2
	case CIRCLE, PEN, FILL:
		return 1
	}
	return 0
}

// Operator は比較演算子
type Operator string

const (
	EQ     Operator = "=="
	NOT_EQ Operator = "!="
	LT     Operator = "<"
	GT     Operator = ">"
	LTE    Operator = "<="
	GTE    Operator = ">="
)

// OperatorMatch はテキスト中で見つかった比較演算子とその位置
type OperatorMatch struct {
	Op  Operator
	Pos int
}

// ScanOperators は比較演算子を左から走査する。
// 各位置では2文字の演算子を1文字の演算子より優先する（"<=" を "<" と誤認しない）。
func ScanOperators(text string) []OperatorMatch {
	var found []OperatorMatch
	for i := 0; i < len(text); i++ {
		if i+1 < len(text) {
			switch Operator(text[i : i+2]) {
			case EQ, NOT_EQ, LTE, GTE:
				found = append(found, OperatorMatch{Op: Operator(text[i : i+2]), Pos: i})
				i++
				continue
			}
		}
		switch text[i] {
		case '<':
			found = append(found, OperatorMatch{Op: LT, Pos: i})
		case '>':
			found = append(found, OperatorMatch{Op: GT, Pos: i})
		}
	}
	return found
}

// Compare は演算子を適用する
func (op Operator) Compare(a, b int32) bool {
	switch op {
	case EQ:
		return a == b
	case NOT_EQ:
		return a != b
	case LT:
		return a < b
	case GT:
		return a > b
	case LTE:
		return a <= b
	case GTE:
		return a >= b
	}
	return false
}

// ArithmeticOperators は代入式で使える演算子（判定順）
const ArithmeticOperators = "+-*/"

// Fields は行を空白区切りのトークンに分割する
func Fields(line string) []string {
	return strings.Fields(line)
}

// ParseInt は10進整数リテラルを解釈する（前後の空白と符号を許容）
func ParseInt(s string) (int32, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(v), true
}

// IsInteger は10進整数リテラルかどうかを返す
func IsInteger(s string) bool {
	_, ok := ParseInt(s)
	return ok
}

// LooksNumeric は先頭が数字、または符号に続いて数字で始まるトークンかどうかを返す。
// 値が int32 に収まるかどうかは問わない。
func LooksNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// IsIdentifier は変数名として使える単語かどうかを返す。
// 先頭は英字またはアンダースコア、以降は英数字またはアンダースコア。
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

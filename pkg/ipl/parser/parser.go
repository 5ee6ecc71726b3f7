// Package parser classifies IPL script lines and assembles them into a statement tree.
//
// Lines are processed one at a time. Block openers (if, while) push onto an
// explicit stack and closers (endif, endloop) pop the matching kind, so blocks
// of the same kind nest to any depth.
package parser

import (
	"fmt"
	"strings"

	"github.com/zurustar/ipl-painter/pkg/ipl/ast"
	"github.com/zurustar/ipl-painter/pkg/ipl/token"
)

// Kind は行の分類
type Kind int

const (
	KindBlank Kind = iota
	KindCommand
	KindAssign
	KindIf
	KindWhile
	KindEndIf
	KindEndLoop
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindCommand:
		return "command"
	case KindAssign:
		return "assign"
	case KindIf:
		return "if"
	case KindWhile:
		return "while"
	case KindEndIf:
		return "endif"
	case KindEndLoop:
		return "endloop"
	default:
		return "unknown"
	}
}

// Line は分類済みの1行
type Line struct {
	Number     int    // 1始まりの行番号
	Text       string // 前後の空白を除いた行
	Kind       Kind
	Keyword    token.Keyword
	Word       string   // 先頭トークン（元の綴り）
	Args       []string // キーワードに続くトークン
	Name       string   // 代入先（KindAssign）
	Expression string   // 代入式（KindAssign）
}

// SplitLines はスクリプトを行に分割する（CRLFも許容）
func SplitLines(script string) []string {
	return strings.Split(strings.ReplaceAll(script, "\r\n", "\n"), "\n")
}

// ClassifyLine は先頭トークンで行を分類する。
// キーワードで始まらず "=" をちょうど1つ含む行は代入文として扱う。
func ClassifyLine(number int, raw string) Line {
	text := strings.TrimSpace(raw)
	l := Line{Number: number, Text: text}
	if text == "" {
		l.Kind = KindBlank
		return l
	}

	fields := token.Fields(text)
	l.Word = fields[0]

	if kw, ok := token.LookupKeyword(fields[0]); ok {
		l.Keyword = kw
		l.Args = fields[1:]
		switch kw {
		case token.IF:
			l.Kind = KindIf
		case token.WHILE:
			l.Kind = KindWhile
		case token.ENDIF:
			l.Kind = KindEndIf
		case token.ENDLOOP:
			l.Kind = KindEndLoop
		default:
			l.Kind = KindCommand
		}
		return l
	}

	if strings.Count(text, "=") == 1 {
		name, expr, _ := strings.Cut(text, "=")
		l.Kind = KindAssign
		l.Name = strings.TrimSpace(name)
		l.Expression = strings.TrimSpace(expr)
		return l
	}

	l.Kind = KindUnknown
	return l
}

// Lines はスクリプト全体を分類する
func Lines(script string) []Line {
	raw := SplitLines(script)
	lines := make([]Line, 0, len(raw))
	for i, r := range raw {
		lines = append(lines, ClassifyLine(i+1, r))
	}
	return lines
}

// ParseCondition は "if a < b" / "while a < b" の比較部分を解析する。
// 比較演算子がちょうど1つ、左右のオペランドがそれぞれ1トークンのときだけ有効。
func ParseCondition(text string) *ast.Condition {
	text = strings.TrimSpace(text)
	cond := &ast.Condition{Text: text}

	rest := ""
	if fields := token.Fields(text); len(fields) > 0 {
		rest = strings.TrimSpace(text[len(fields[0]):])
	}

	ops := token.ScanOperators(rest)
	if len(ops) != 1 {
		return cond
	}

	m := ops[0]
	left := strings.TrimSpace(rest[:m.Pos])
	right := strings.TrimSpace(rest[m.Pos+len(m.Op):])
	if len(token.Fields(left)) != 1 || len(token.Fields(right)) != 1 {
		return cond
	}
	// 数値の形で int32 に収まらないオペランドは不正な条件
	if (token.LooksNumeric(left) && !token.IsInteger(left)) || (token.LooksNumeric(right) && !token.IsInteger(right)) {
		return cond
	}

	cond.Left = left
	cond.Operator = m.Op
	cond.Right = right
	cond.Valid = true
	return cond
}

// BlockError はブロックの対応が取れない場合のエラー
type BlockError struct {
	Line    int
	Message string
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

type frame struct {
	kind token.Keyword
	line int
	stmt ast.Statement
	body *[]ast.Statement
}

// Builder は行を順に受け取り、ブロックを組み立てる
type Builder struct {
	stack []*frame
}

// NewBuilder creates an empty block builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// depth returns the number of currently open blocks.
func (b *Builder) depth() int {
	return len(b.stack)
}

// Feed は1行を処理する。
// トップレベルで文が完成したとき（単文、または最も外側のブロックが閉じたとき）にその文を返す。
// 対応しない閉じ行はエラーを返し、ビルダーの状態は変更しない。
func (b *Builder) Feed(l Line) (ast.Statement, error) {
	switch l.Kind {
	case KindBlank:
		return nil, nil

	case KindIf:
		stmt := &ast.IfStatement{Line: l.Number, Text: l.Text, Condition: ParseCondition(l.Text)}
		b.stack = append(b.stack, &frame{kind: token.IF, line: l.Number, stmt: stmt, body: &stmt.Body})
		return nil, nil

	case KindWhile:
		stmt := &ast.WhileStatement{Line: l.Number, Text: l.Text, Condition: ParseCondition(l.Text)}
		b.stack = append(b.stack, &frame{kind: token.WHILE, line: l.Number, stmt: stmt, body: &stmt.Body})
		return nil, nil

	case KindEndIf:
		return b.close(l, token.IF)

	case KindEndLoop:
		return b.close(l, token.WHILE)

	case KindCommand:
		return b.emit(&ast.CommandStatement{Line: l.Number, Text: l.Text, Keyword: l.Keyword, Args: l.Args}), nil

	case KindAssign:
		return b.emit(&ast.AssignStatement{Line: l.Number, Text: l.Text, Name: l.Name, Expression: l.Expression}), nil

	default:
		return b.emit(&ast.UnknownStatement{Line: l.Number, Text: l.Text, Word: l.Word}), nil
	}
}

// Finish は入力の終わりで開いたままのブロックがあればエラーを返す
func (b *Builder) Finish() error {
	if len(b.stack) == 0 {
		return nil
	}
	top := b.stack[len(b.stack)-1]
	return &BlockError{
		Line:    top.line,
		Message: fmt.Sprintf("%s is missing %s", top.kind, closerOf(top.kind)),
	}
}

func (b *Builder) close(l Line, kind token.Keyword) (ast.Statement, error) {
	if len(b.stack) == 0 {
		return nil, &BlockError{
			Line:    l.Number,
			Message: fmt.Sprintf("%s without matching %s", closerOf(kind), kind),
		}
	}

	top := b.stack[len(b.stack)-1]
	if top.kind != kind {
		return nil, &BlockError{
			Line:    l.Number,
			Message: fmt.Sprintf("%s cannot close %s opened at line %d", closerOf(kind), top.kind, top.line),
		}
	}

	b.stack = b.stack[:len(b.stack)-1]
	switch s := top.stmt.(type) {
	case *ast.IfStatement:
		s.EndLine = l.Number
	case *ast.WhileStatement:
		s.EndLine = l.Number
	}
	return b.emit(top.stmt), nil
}

// emit は文を現在のブロックに追加する。トップレベルならそのまま返す。
func (b *Builder) emit(stmt ast.Statement) ast.Statement {
	if len(b.stack) == 0 {
		return stmt
	}
	top := b.stack[len(b.stack)-1]
	*top.body = append(*top.body, stmt)
	return nil
}

func closerOf(kind token.Keyword) token.Keyword {
	if kind == token.WHILE {
		return token.ENDLOOP
	}
	return token.ENDIF
}

// ParseProgram はスクリプト全体を文の木に変換する
func ParseProgram(script string) (*ast.Program, error) {
	b := NewBuilder()
	program := &ast.Program{}

	for _, l := range Lines(script) {
		stmt, err := b.Feed(l)
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
	}

	if err := b.Finish(); err != nil {
		return nil, err
	}
	return program, nil
}

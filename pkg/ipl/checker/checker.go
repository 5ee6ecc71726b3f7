// Package checker validates IPL scripts without executing them.
//
// The checker shares the interpreter's line classifier and condition parser, so
// a line is recognized the same way in both places. It never fails: problems are
// collected as diagnostics and an empty result means the script is accepted.
package checker

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zurustar/ipl-painter/pkg/ipl/env"
	"github.com/zurustar/ipl-painter/pkg/ipl/palette"
	"github.com/zurustar/ipl-painter/pkg/ipl/parser"
	"github.com/zurustar/ipl-painter/pkg/ipl/token"
)

// Diagnostic は検証で見つかった問題1件
type Diagnostic struct {
	Line    int    // 行番号（1始まり）、スクリプト全体に関するものは0
	Text    string // 該当行のテキスト
	Message string
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("line %d: %s", d.Line, d.Message)
	}
	return d.Message
}

// Format は診断を1行ずつ連結した文字列を返す（問題がなければ空文字列）
func Format(diags []Diagnostic) string {
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

// Checker はスクリプトの構文を検証する
type Checker struct {
	palette *palette.Palette
	env     *env.Environment
	log     *slog.Logger
}

// Option は Checker のオプションを設定する関数型
type Option func(*Checker)

// WithPalette はpenコマンドで受け付ける色のパレットを設定する
func WithPalette(p *palette.Palette) Option {
	return func(c *Checker) {
		c.palette = p
	}
}

// WithEnvironment は既知の変数と算術モードを提供する変数テーブルを設定する。
// 検証中にテーブルが変更されることはない。
func WithEnvironment(e *env.Environment) Option {
	return func(c *Checker) {
		c.env = e
	}
}

// WithLogger はロガーを設定する
func WithLogger(log *slog.Logger) Option {
	return func(c *Checker) {
		c.log = log
	}
}

// New creates a checker. Defaults: basic palette, empty legacy-mode environment.
func New(opts ...Option) *Checker {
	c := &Checker{}
	for _, opt := range opts {
		opt(c)
	}
	if c.palette == nil {
		c.palette = palette.Basic()
	}
	if c.env == nil {
		c.env = env.New(env.ModeLegacy)
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// Check validates script with default options.
func Check(script string) []Diagnostic {
	return New().Check(script)
}

// pass は1回の検証の状態
type pass struct {
	*Checker
	diags []Diagnostic
	known map[string]bool

	ifs, endifs, whiles, endloops int

	builder  *parser.Builder
	blockErr *parser.BlockError
}

// Check はスクリプト全体を検証し、見つかった問題を行順に返す
func (c *Checker) Check(script string) []Diagnostic {
	p := &pass{
		Checker: c,
		known:   make(map[string]bool),
		builder: parser.NewBuilder(),
	}

	for _, l := range parser.Lines(script) {
		p.line(l)
	}
	p.finish()

	c.log.Debug("Syntax check finished", "diagnostics", len(p.diags))
	return p.diags
}

func (p *pass) report(l parser.Line, msg string) {
	p.diags = append(p.diags, Diagnostic{Line: l.Number, Text: l.Text, Message: msg})
}

func (p *pass) line(l parser.Line) {
	p.track(l)

	switch l.Kind {
	case parser.KindBlank:
	case parser.KindCommand:
		if msg := p.command(l); msg != "" {
			p.report(l, msg)
		}
	case parser.KindAssign:
		p.assignment(l)
	case parser.KindIf:
		p.ifs++
		if !parser.ParseCondition(l.Text).Valid {
			p.report(l, "Invalid syntax. use if var1 > var2")
		}
	case parser.KindWhile:
		p.whiles++
		if !parser.ParseCondition(l.Text).Valid {
			p.report(l, "Invalid syntax. use while var1 > var2")
		}
	case parser.KindEndIf:
		p.endifs++
	case parser.KindEndLoop:
		p.endloops++
	default:
		p.report(l, fmt.Sprintf("Unknown command: '%s'.", strings.ToLower(l.Word)))
	}
}

// track はブロックの入れ子を追跡し、最初の対応エラーを覚えておく
func (p *pass) track(l parser.Line) {
	if p.blockErr != nil {
		return
	}
	if _, err := p.builder.Feed(l); err != nil {
		errors.As(err, &p.blockErr)
	}
}

func (p *pass) finish() {
	if p.whiles != p.endloops {
		p.diags = append(p.diags, Diagnostic{Message: "While not implemented correctly"})
	}
	if p.ifs != p.endifs {
		p.diags = append(p.diags, Diagnostic{Message: "IF not implemented correctly"})
	}
	if p.ifs != p.endifs || p.whiles != p.endloops {
		return
	}

	// 数は合っていても入れ子が交差していれば実行できない
	if p.blockErr == nil {
		if err := p.builder.Finish(); err != nil {
			errors.As(err, &p.blockErr)
		}
	}
	if p.blockErr != nil {
		p.diags = append(p.diags, Diagnostic{
			Line:    p.blockErr.Line,
			Message: "Blocks are not nested correctly: " + p.blockErr.Message,
		})
	}
}

// command は描画コマンドを検証し、問題があればメッセージを返す
func (p *pass) command(l parser.Line) string {
	name := strings.ToLower(l.Word)
	args := l.Args

	switch l.Keyword {
	case token.MOVETO, token.DRAWTO:
		if len(args) != 2 || !operand(args[0]) || !operand(args[1]) {
			return fmt.Sprintf("Invalid syntax for %s. Correct syntax: '%s x y'.", name, name)
		}
	case token.RECTANGLE:
		if len(args) != 2 || !operand(args[0]) || !operand(args[1]) {
			return "Invalid syntax for rectangle. Correct syntax: 'rectangle width height'."
		}
	case token.TRIANGLE:
		if len(args) != 2 || !operand(args[0]) || !operand(args[1]) {
			return "Invalid syntax for Triangle. Correct syntax: 'triangle width height'."
		}
	case token.CIRCLE:
		if len(args) != 1 || !operand(args[0]) {
			return "Invalid syntax for circle. Correct syntax: 'circle radius'."
		}
	case token.PEN:
		if len(args) != 1 {
			return "Invalid syntax for pen. Correct syntax: 'pen color'."
		}
		if !p.palette.Has(args[0]) {
			return fmt.Sprintf("'%s' is not a known color.", args[0])
		}
	case token.FILL:
		if len(args) != 1 || (!strings.EqualFold(args[0], "on") && !strings.EqualFold(args[0], "off")) {
			return "Invalid syntax for fill. Correct syntax: 'fill on' or 'fill off'."
		}
	case token.CLEAR, token.RESET:
		if len(args) != 0 {
			return fmt.Sprintf("'%s' command does not take parameters.", name)
		}
	}
	return ""
}

// operand は整数リテラルまたは変数名かどうかを返す
func operand(s string) bool {
	return token.IsInteger(s) || token.IsIdentifier(s)
}

// assignment は代入文を検証する。
// 右辺の各項は整数リテラルか、既知の変数（変数テーブルにあるか、それより前の行で代入済み）でなければならない。
func (p *pass) assignment(l parser.Line) {
	name := strings.ToLower(l.Name)
	if !token.IsIdentifier(name) {
		p.report(l, "Syntax Error at: "+l.Text)
		return
	}

	for _, term := range p.terms(l.Expression) {
		if term == "" || (!token.IsInteger(term) && !p.isKnown(term)) {
			p.report(l, "Syntax Error at: "+l.Text)
			return
		}
	}
	p.known[name] = true
}

// terms は現在の算術モードで式を項に分割する
func (p *pass) terms(expression string) []string {
	if p.env.Mode() == env.ModeLegacy {
		parts := env.Fragments(expression)
		if len(parts) == 0 {
			return []string{""}
		}
		return parts
	}

	operands, _, _ := env.Operands(expression)
	return operands
}

func (p *pass) isKnown(name string) bool {
	name = strings.ToLower(name)
	return p.known[name] || p.env.Has(name)
}

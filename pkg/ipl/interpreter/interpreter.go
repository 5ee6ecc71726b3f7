// Package interpreter executes IPL scripts against a drawing surface.
//
// Lines are fed one at a time to a block builder. Statements completed at the
// top level run immediately, so everything before a fault stays applied.
// if/while blocks run once their outermost closer has been read; while loops
// iterate in place instead of re-entering the interpreter.
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zurustar/ipl-painter/pkg/ipl/ast"
	"github.com/zurustar/ipl-painter/pkg/ipl/env"
	"github.com/zurustar/ipl-painter/pkg/ipl/palette"
	"github.com/zurustar/ipl-painter/pkg/ipl/parser"
)

// Interpreter はIPLスクリプトを実行する
type Interpreter struct {
	env     *env.Environment
	pen     Pen
	surface Surface
	palette *palette.Palette
	log     *slog.Logger

	// maxIterations はwhileループ1回の実行で許す最大反復回数（0は無制限）
	maxIterations int

	// source は実行中のスクリプト（エラー時の抜粋に使う）
	source string

	// penMu はペンの書き込みと外部からの読み出しを保護する（表示側が別goroutineで読む）
	penMu sync.RWMutex
}

// Option は Interpreter のオプションを設定する関数型
type Option func(*Interpreter)

// WithLogger はロガーを設定する
func WithLogger(log *slog.Logger) Option {
	return func(in *Interpreter) {
		in.log = log
	}
}

// WithEnvironment は変数テーブルを設定する
func WithEnvironment(e *env.Environment) Option {
	return func(in *Interpreter) {
		in.env = e
	}
}

// WithPalette はペンの色パレットを設定する
func WithPalette(p *palette.Palette) Option {
	return func(in *Interpreter) {
		in.palette = p
	}
}

// WithMaxIterations はwhileループの最大反復回数を設定する
func WithMaxIterations(n int) Option {
	return func(in *Interpreter) {
		in.maxIterations = n
	}
}

// New creates an interpreter drawing on surface.
// Without options it uses a fresh legacy-mode environment, the basic palette,
// and the default slog logger.
func New(surface Surface, opts ...Option) *Interpreter {
	if surface == nil {
		surface = NopSurface{}
	}
	in := &Interpreter{
		pen:     NewPen(),
		surface: surface,
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.env == nil {
		in.env = env.New(env.ModeLegacy)
	}
	if in.palette == nil {
		in.palette = palette.Basic()
	}
	if in.log == nil {
		in.log = slog.Default()
	}
	return in
}

// Env returns the variable environment.
func (in *Interpreter) Env() *env.Environment {
	return in.env
}

// Pen returns a copy of the current pen state.
func (in *Interpreter) Pen() Pen {
	in.penMu.RLock()
	defer in.penMu.RUnlock()
	return in.pen
}

// Palette returns the active color palette.
func (in *Interpreter) Palette() *palette.Palette {
	return in.palette
}

// ResetPen はペンを初期状態に戻す
func (in *Interpreter) ResetPen() {
	in.updatePen(func(p *Pen) { *p = NewPen() })
}

func (in *Interpreter) updatePen(fn func(p *Pen)) {
	in.penMu.Lock()
	fn(&in.pen)
	in.penMu.Unlock()
}

// Interpret はスクリプトを実行する。
// 最初のFaultで実行を中断し、そのFaultを返す。
func (in *Interpreter) Interpret(ctx context.Context, script string) error {
	in.source = script
	defer func() { in.source = "" }()

	b := parser.NewBuilder()
	for _, l := range parser.Lines(script) {
		if err := ctx.Err(); err != nil {
			return in.withContext(cancelledFault(l.Number, l.Text, err))
		}

		stmt, err := b.Feed(l)
		if err != nil {
			return in.withContext(blockFault(err))
		}
		if stmt == nil {
			continue
		}

		if err := in.exec(ctx, stmt); err != nil {
			return in.withContext(err)
		}
	}

	if err := b.Finish(); err != nil {
		return in.withContext(blockFault(err))
	}
	return nil
}

// Execute は組み立て済みの文を順に実行する
func (in *Interpreter) Execute(ctx context.Context, stmts []ast.Statement) error {
	for _, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			return cancelledFault(stmt.Pos(), stmt.String(), err)
		}
		if err := in.exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) exec(ctx context.Context, stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.CommandStatement:
		in.log.Debug("Executing command", "line", s.Line, "keyword", s.Keyword, "args", s.Args)
		if err := in.dispatch(s); err != nil {
			return err
		}
		in.surface.Refresh()
		return nil

	case *ast.AssignStatement:
		return in.assign(s)

	case *ast.IfStatement:
		if !in.evalCondition(s.Condition, s.Line) {
			in.log.Debug("Skipping if block", "line", s.Line, "condition", s.Condition.Text)
			return nil
		}
		return in.Execute(ctx, s.Body)

	case *ast.WhileStatement:
		return in.loop(ctx, s)

	case *ast.UnknownStatement:
		return newFault(FaultUnknownCommand, s.Line, s.Text, fmt.Sprintf("Unknown command: '%s'.", s.Word))

	default:
		return newFault(FaultUnknownCommand, stmt.Pos(), stmt.String(), fmt.Sprintf("unsupported statement %T", stmt))
	}
}

// loop はwhileブロックを実行する。
// 条件は本体の前に評価され、本体を1回実行するたびに現在の変数で再評価される。
func (in *Interpreter) loop(ctx context.Context, s *ast.WhileStatement) error {
	iterations := 0
	for in.evalCondition(s.Condition, s.Line) {
		if err := ctx.Err(); err != nil {
			return cancelledFault(s.Line, s.Text, err)
		}

		iterations++
		if in.maxIterations > 0 && iterations > in.maxIterations {
			return newFault(FaultIterationLimit, s.Line, s.Text,
				fmt.Sprintf("while loop exceeded %d iterations", in.maxIterations))
		}

		if err := in.Execute(ctx, s.Body); err != nil {
			return err
		}
	}

	in.log.Debug("Loop finished", "line", s.Line, "iterations", iterations)
	return nil
}

// evalCondition は条件を評価する。形式が不正な条件は偽として扱う。
func (in *Interpreter) evalCondition(c *ast.Condition, line int) bool {
	if c == nil || !c.Valid {
		in.log.Debug("Malformed condition treated as false", "line", line)
		return false
	}
	return c.Eval(in.env)
}

func (in *Interpreter) assign(s *ast.AssignStatement) error {
	value, err := in.env.Assign(s.Name, s.Expression)
	if err != nil {
		switch {
		case errors.Is(err, env.ErrDivisionByZero):
			return &Fault{Type: FaultDivisionByZero, Message: "Attempted to divide by zero.", Line: s.Line, Text: s.Text, Err: err}
		case errors.Is(err, env.ErrInvalidNumber):
			return &Fault{Type: FaultInvalidNumber, Message: err.Error(), Line: s.Line, Text: s.Text, Err: err}
		default:
			return &Fault{Type: FaultMalformedExpression, Message: err.Error(), Line: s.Line, Text: s.Text, Err: err}
		}
	}

	in.log.Debug("Assigned variable", "line", s.Line, "name", s.Name, "value", value)
	return nil
}

// withContext はFaultにソース抜粋を付ける
func (in *Interpreter) withContext(err error) error {
	var f *Fault
	if errors.As(err, &f) && f.Context == "" {
		f.Context = GenerateErrorContext(in.source, f.Line)
	}
	return err
}

func blockFault(err error) *Fault {
	var be *parser.BlockError
	if errors.As(err, &be) {
		return &Fault{Type: FaultBlockMismatch, Message: be.Message, Line: be.Line, Err: err}
	}
	return &Fault{Type: FaultBlockMismatch, Message: err.Error(), Err: err}
}

func numberFault(line int, text, tok string, err error) *Fault {
	return &Fault{Type: FaultInvalidNumber, Message: fmt.Sprintf("'%s' is not a valid integer.", tok), Line: line, Text: text, Err: err}
}

func cancelledFault(line int, text string, err error) *Fault {
	return &Fault{Type: FaultCancelled, Message: "interpretation cancelled", Line: line, Text: text, Err: err}
}

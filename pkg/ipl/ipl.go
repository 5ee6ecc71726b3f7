// Package ipl is the entry point for running and checking IPL scripts.
//
// A Session owns one variable environment, one pen and one drawing surface.
// Independent scripts that must not see each other's variables use separate
// sessions.
package ipl

import (
	"context"
	"log/slog"

	"github.com/zurustar/ipl-painter/pkg/ipl/checker"
	"github.com/zurustar/ipl-painter/pkg/ipl/env"
	"github.com/zurustar/ipl-painter/pkg/ipl/interpreter"
	"github.com/zurustar/ipl-painter/pkg/ipl/palette"
)

type (
	Diagnostic = checker.Diagnostic
	Fault      = interpreter.Fault
	Surface    = interpreter.Surface
)

// Session はスクリプト実行の単位
type Session struct {
	env     *env.Environment
	palette *palette.Palette
	interp  *interpreter.Interpreter
	log     *slog.Logger
}

type config struct {
	mode          env.Mode
	palette       *palette.Palette
	maxIterations int
	log           *slog.Logger
}

// Option は Session のオプションを設定する関数型
type Option func(*config)

// WithLogger はロガーを設定する
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithArithmetic は代入式の評価モードを設定する
func WithArithmetic(mode env.Mode) Option {
	return func(c *config) {
		c.mode = mode
	}
}

// WithPalette はペンの色パレットを設定する
func WithPalette(p *palette.Palette) Option {
	return func(c *config) {
		c.palette = p
	}
}

// WithMaxIterations はwhileループの最大反復回数を設定する（0は無制限）
func WithMaxIterations(n int) Option {
	return func(c *config) {
		c.maxIterations = n
	}
}

// NewSession creates a session drawing on surface (nil draws nothing).
func NewSession(surface Surface, opts ...Option) *Session {
	cfg := &config{mode: env.ModeLegacy}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.palette == nil {
		cfg.palette = palette.Basic()
	}
	if cfg.log == nil {
		cfg.log = slog.Default()
	}

	e := env.New(cfg.mode)
	return &Session{
		env:     e,
		palette: cfg.palette,
		log:     cfg.log,
		interp: interpreter.New(surface,
			interpreter.WithEnvironment(e),
			interpreter.WithPalette(cfg.palette),
			interpreter.WithMaxIterations(cfg.maxIterations),
			interpreter.WithLogger(cfg.log),
		),
	}
}

// Interpret はスクリプトを実行する。
// 失敗した場合は *Fault を返す。それまでの描画と変数の変更は残る。
func (s *Session) Interpret(ctx context.Context, script string) error {
	s.log.Debug("Interpreting script", "bytes", len(script))
	return s.interp.Interpret(ctx, script)
}

// CheckSyntax はスクリプトを実行せずに検証する。
// セッションの変数は既知の変数として扱い、変更はしない。
func (s *Session) CheckSyntax(script string) []Diagnostic {
	return checker.New(
		checker.WithPalette(s.palette),
		checker.WithEnvironment(s.env),
		checker.WithLogger(s.log),
	).Check(script)
}

// Env returns the session's variable environment.
func (s *Session) Env() *env.Environment {
	return s.env
}

// Pen returns the current pen state.
func (s *Session) Pen() interpreter.Pen {
	return s.interp.Pen()
}

// Reset は変数とペンを初期状態に戻す（描画面はそのまま）
func (s *Session) Reset() {
	s.env.Reset()
	s.interp.ResetPen()
}

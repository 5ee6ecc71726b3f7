// Package env provides the variable environment and arithmetic evaluation for IPL sessions.
package env

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zurustar/ipl-painter/pkg/ipl/token"
)

var (
	// ErrDivisionByZero はゼロ除算のエラー
	ErrDivisionByZero = errors.New("division by zero")

	// ErrMalformedExpression は代入式を評価できない場合のエラー
	ErrMalformedExpression = errors.New("malformed expression")

	// ErrInvalidNumber は数値の形をしているが32ビット整数として読めないトークンのエラー
	ErrInvalidNumber = errors.New("invalid number")
)

// Mode は代入式の評価方式
type Mode int

const (
	// ModeLegacy は式中で最初に見つかった演算子（+,-,*,/ の順に判定）を
	// 2番目以降のすべての項に適用する。"2+3-1" は 6 になる。
	ModeLegacy Mode = iota

	// ModeStandard は各演算子をその位置で左から順に適用する（優先順位なし）。
	// "2+3-1" は 4 になる。
	ModeStandard
)

// String はモード名を返す
func (m Mode) String() string {
	switch m {
	case ModeLegacy:
		return "legacy"
	case ModeStandard:
		return "standard"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode はモード名を解釈する
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "", "legacy":
		return ModeLegacy, nil
	case "standard":
		return ModeStandard, nil
	default:
		return ModeLegacy, fmt.Errorf("invalid arithmetic mode: %s", name)
	}
}

// Environment はセッション単位の変数テーブル。
// 変数名は大文字小文字を区別せず、値は符号付き32ビット整数。
type Environment struct {
	vars map[string]int32
	mode Mode
	mu   sync.RWMutex
}

// New creates an empty environment that evaluates assignments in the given mode.
func New(mode Mode) *Environment {
	return &Environment{
		vars: make(map[string]int32),
		mode: mode,
	}
}

// Mode returns the arithmetic mode.
func (e *Environment) Mode() Mode {
	return e.mode
}

// Get retrieves a variable value by name.
func (e *Environment) Get(name string) (int32, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.vars[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

// Set stores a variable value, creating the variable when needed.
func (e *Environment) Set(name string, value int32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vars[strings.ToLower(strings.TrimSpace(name))] = value
}

// Has reports whether the variable has been assigned.
func (e *Environment) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Names returns the assigned variable names in sorted order.
func (e *Environment) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.vars))
	for name := range e.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of assigned variables.
func (e *Environment) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.vars)
}

// Reset removes every variable.
func (e *Environment) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vars = make(map[string]int32)
}

// Resolve はトークンを整数に解決する。
// 整数リテラルとして解釈できればその値、そうでなければ変数の値（未定義なら0）。
func (e *Environment) Resolve(tok string) int32 {
	if v, ok := token.ParseInt(tok); ok {
		return v
	}
	v, _ := e.Get(tok)
	return v
}

// Value は Resolve と同じくトークンを整数に解決するが、
// "1.5" や "3000000000" のように数値の形をしていて int32 に収まらないものはエラーにする。
func (e *Environment) Value(tok string) (int32, error) {
	if v, ok := token.ParseInt(tok); ok {
		return v, nil
	}
	if token.LooksNumeric(tok) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, strings.TrimSpace(tok))
	}
	v, _ := e.Get(tok)
	return v, nil
}

// Assign は式を評価して結果を変数に格納する
func (e *Environment) Assign(name, expression string) (int32, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: missing variable name", ErrMalformedExpression)
	}

	value, err := e.Eval(expression)
	if err != nil {
		return 0, err
	}

	e.Set(name, value)
	return value, nil
}

// Eval は現在のモードで式を評価する
func (e *Environment) Eval(expression string) (int32, error) {
	if e.mode == ModeStandard {
		return e.evalStandard(expression)
	}
	return e.evalLegacy(expression)
}

// evalLegacy は式中の単一の演算子をすべての項に適用する
func (e *Environment) evalLegacy(expression string) (int32, error) {
	parts := Fragments(expression)
	if len(parts) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedExpression, expression)
	}

	result, err := e.Value(parts[0])
	if err != nil {
		return 0, err
	}
	op := LegacyOperator(expression)

	for _, part := range parts[1:] {
		v, err := e.Value(part)
		if err != nil {
			return 0, err
		}
		if result, err = apply(op, result, v); err != nil {
			return 0, err
		}
	}

	return result, nil
}

// evalStandard は演算子を出現位置どおりに左から適用する
func (e *Environment) evalStandard(expression string) (int32, error) {
	operands, ops, negate := Operands(expression)
	for _, operand := range operands {
		if operand == "" {
			return 0, fmt.Errorf("%w: %q", ErrMalformedExpression, expression)
		}
	}

	result, err := e.Value(operands[0])
	if err != nil {
		return 0, err
	}
	if negate {
		result = -result
	}

	for i, op := range ops {
		v, err := e.Value(operands[i+1])
		if err != nil {
			return 0, err
		}
		if result, err = apply(op, result, v); err != nil {
			return 0, err
		}
	}

	return result, nil
}

// Operands は標準モードの式を項と演算子に分割する。
// 先頭の "-" は符号として取り除き negate で返す。空の項（"2+" の右辺など）もそのまま残す。
// 常に len(operands) == len(ops)+1。
func Operands(expression string) (operands []string, ops []byte, negate bool) {
	s := strings.TrimSpace(expression)
	if strings.HasPrefix(s, "-") {
		negate = true
		s = s[1:]
	}

	start := 0
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(token.ArithmeticOperators, s[i]) >= 0 {
			operands = append(operands, strings.TrimSpace(s[start:i]))
			ops = append(ops, s[i])
			start = i + 1
		}
	}
	operands = append(operands, strings.TrimSpace(s[start:]))
	return operands, ops, negate
}

// Fragments は式を算術演算子で分割し、空の断片を除いてトリムしたものを返す
func Fragments(expression string) []string {
	raw := strings.FieldsFunc(expression, func(r rune) bool {
		return strings.ContainsRune(token.ArithmeticOperators, r)
	})

	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// LegacyOperator は式中に含まれる演算子を +,-,*,/ の順に探し、最初に見つかったものを返す。
// 演算子がなければ0を返す。
func LegacyOperator(expression string) byte {
	for i := 0; i < len(token.ArithmeticOperators); i++ {
		if strings.IndexByte(expression, token.ArithmeticOperators[i]) >= 0 {
			return token.ArithmeticOperators[i]
		}
	}
	return 0
}

// apply は二項演算を行う（int32でラップアラウンド）
func apply(op byte, a, b int32) (int32, error) {
	switch op {
	case '+':
		return a + b, nil
	case '-':
		return a - b, nil
	case '*':
		return a * b, nil
	case '/':
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	default:
		return 0, fmt.Errorf("%w: unknown operator %q", ErrMalformedExpression, op)
	}
}

package canvas

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"

	"github.com/zurustar/ipl-painter/pkg/ipl/interpreter"
)

var _ interpreter.Surface = (*Recorder)(nil)

// Operation は記録された描画操作
type Operation struct {
	Name string
	Args map[string]any
}

func (op Operation) String() string {
	return fmt.Sprintf("%s %v", op.Name, op.Args)
}

// Recorder は描画を行わず、操作をログと履歴に記録するSurface（ヘッドレスモード用）
type Recorder struct {
	log           *slog.Logger
	logOperations bool
	recordHistory bool

	mu         sync.RWMutex
	history    []Operation
	operations int
	refreshes  int
}

// RecorderOption は Recorder のオプションを設定する関数型
type RecorderOption func(*Recorder)

// WithRecorderLogger はロガーを設定する
func WithRecorderLogger(log *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.log = log
	}
}

// WithLogOperations は描画操作のログ出力を有効/無効にする
func WithLogOperations(enabled bool) RecorderOption {
	return func(r *Recorder) {
		r.logOperations = enabled
	}
}

// WithRecordHistory は操作履歴の記録を有効/無効にする
func WithRecordHistory(enabled bool) RecorderOption {
	return func(r *Recorder) {
		r.recordHistory = enabled
	}
}

// NewRecorder creates a recorder that logs operations and keeps their history.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		log:           slog.Default(),
		logOperations: true,
		recordHistory: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// record は操作をログに出し、履歴に追加する。args はslogと同じキーと値の並び。
func (r *Recorder) record(name string, args ...any) {
	if r.logOperations {
		r.log.Debug(fmt.Sprintf("[Headless] %s", name), args...)
	}

	r.mu.Lock()
	r.operations++
	r.mu.Unlock()
	if !r.recordHistory {
		return
	}

	op := Operation{Name: name, Args: make(map[string]any, len(args)/2)}
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			op.Args[key] = args[i+1]
		}
	}

	r.mu.Lock()
	r.history = append(r.history, op)
	r.mu.Unlock()
}

func (r *Recorder) MarkPosition(p image.Point, c color.Color) {
	r.record("MarkPosition", "x", p.X, "y", p.Y, "color", c)
}

func (r *Recorder) Line(from, to image.Point, c color.Color) {
	r.record("Line", "x1", from.X, "y1", from.Y, "x2", to.X, "y2", to.Y, "color", c)
}

func (r *Recorder) Rect(at image.Point, w, h int, c color.Color, filled bool) {
	r.record("Rect", "x", at.X, "y", at.Y, "w", w, "h", h, "color", c, "filled", filled)
}

func (r *Recorder) Ellipse(center image.Point, radius int, c color.Color, filled bool) {
	r.record("Ellipse", "x", center.X, "y", center.Y, "r", radius, "color", c, "filled", filled)
}

func (r *Recorder) Polygon(points []image.Point, c color.Color, filled bool) {
	pts := make([]image.Point, len(points))
	copy(pts, points)
	r.record("Polygon", "points", pts, "color", c, "filled", filled)
}

func (r *Recorder) Clear() {
	r.record("Clear")
}

// Refresh は履歴には残さず回数だけ数える
func (r *Recorder) Refresh() {
	r.mu.Lock()
	r.refreshes++
	r.mu.Unlock()
}

// Operations は操作履歴のコピーを返す
func (r *Recorder) Operations() []Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Operation, len(r.history))
	copy(result, r.history)
	return result
}

// Count は記録した操作の数を返す（履歴を残さない設定でも数える）
func (r *Recorder) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.operations
}

// Refreshes returns how many times Refresh was called.
func (r *Recorder) Refreshes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refreshes
}

// Reset は履歴と回数をクリアする
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = nil
	r.operations = 0
	r.refreshes = 0
}

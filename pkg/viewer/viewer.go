// Package viewer shows a canvas in an Ebitengine window while a script draws on it.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"github.com/zurustar/ipl-painter/pkg/canvas"
)

// StatusBarHeight はキャンバスの下に表示するステータスバーの高さ
const StatusBarHeight = 20

var (
	// ステータスバーの背景色
	statusBarColor = color.RGBA{0x30, 0x30, 0x30, 0xFF}
	// テキスト色（白）
	textColor = color.White
	// エラー表示の色
	errorTextColor = color.RGBA{0xFF, 0x60, 0x60, 0xFF}
	// デフォルトフォント
	defaultFace = text.NewGoXFace(basicfont.Face7x13)
)

// RunFunc はスクリプトを実行する関数。ctx が取り消されたら速やかに戻ること。
type RunFunc func(ctx context.Context) error

// State は実行状態を表す
type State int

const (
	StateIdle      State = iota // 未実行
	StateRunning                // 実行中
	StateDone                   // 正常終了
	StateFailed                 // エラーで停止
	StateCancelled              // 中断
)

// String returns the label shown in the status bar.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "error"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Game はEbitengineのゲームインターフェースを実装する
type Game struct {
	raster    *canvas.Raster
	run       RunFunc
	onRestart func()        // 再実行の前に呼ばれる（変数とキャンバスの初期化）
	status    func() string // ステータスバーに追加表示する文字列
	timeout   time.Duration // タイムアウト時間
	startTime time.Time     // 開始時刻
	log       *slog.Logger

	image   *ebiten.Image
	pixels  []byte
	version uint64
	drawn   bool

	state   State
	err     error
	cancel  context.CancelFunc
	done    chan struct{}
	started bool

	cursorX, cursorY int
	mu               sync.RWMutex
}

// Option は Game のオプションを設定する関数型
type Option func(*Game)

// WithTimeout は指定時間後にウィンドウを閉じる
func WithTimeout(d time.Duration) Option {
	return func(g *Game) {
		g.timeout = d
	}
}

// WithRestart はRキーでの再実行を有効にする。fn は再実行の前に呼ばれる。
func WithRestart(fn func()) Option {
	return func(g *Game) {
		g.onRestart = fn
	}
}

// WithStatus はステータスバーに表示する文字列を返す関数を設定する
func WithStatus(fn func() string) Option {
	return func(g *Game) {
		g.status = fn
	}
}

// WithLogger はロガーを設定する
func WithLogger(log *slog.Logger) Option {
	return func(g *Game) {
		g.log = log
	}
}

// NewGame creates a viewer for raster. run is started on the first Update.
func NewGame(raster *canvas.Raster, run RunFunc, opts ...Option) *Game {
	g := &Game{
		raster:    raster,
		run:       run,
		startTime: time.Now(),
		log:       slog.Default(),
		version:   ^uint64(0),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Update ゲームロジックの更新（Ebitengineが毎フレーム呼び出す）
func (g *Game) Update() error {
	// タイムアウトチェック
	if g.timeout > 0 && time.Since(g.startTime) >= g.timeout {
		g.stop()
		return ebiten.Termination
	}

	// スクリプトの開始（最初のUpdate()呼び出し時に実行）
	g.mu.Lock()
	started := g.started
	g.started = true
	g.mu.Unlock()
	if !started {
		g.start()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.stop()
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) && g.onRestart != nil {
		g.Restart()
	}

	x, y := ebiten.CursorPosition()
	b := g.raster.Bounds()
	g.mu.Lock()
	g.cursorX, g.cursorY = clampToCanvas(x, y, b.Dx(), b.Dy())
	g.mu.Unlock()

	return nil
}

// start はスクリプトを別のgoroutineで実行する
func (g *Game) start() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	g.mu.Lock()
	g.cancel = cancel
	g.done = done
	g.state = StateRunning
	g.err = nil
	g.mu.Unlock()

	go func() {
		defer close(done)
		err := g.run(ctx)

		g.mu.Lock()
		defer g.mu.Unlock()
		g.err = err
		switch {
		case err == nil:
			g.state = StateDone
		case errors.Is(err, context.Canceled):
			g.state = StateCancelled
		default:
			g.state = StateFailed
			g.log.Warn("Script stopped", "error", err)
		}
	}()
}

// stop は実行中のスクリプトを中断して終了を待つ
func (g *Game) stop() {
	g.mu.RLock()
	cancel, done := g.cancel, g.done
	g.mu.RUnlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Restart は実行中のスクリプトを止めてから最初から実行し直す
func (g *Game) Restart() {
	g.stop()
	if g.onRestart != nil {
		g.onRestart()
	}
	g.log.Info("Restarting script")
	g.start()
}

// Wait はスクリプトの実行が終わるまで待ち、その結果を返す
func (g *Game) Wait() error {
	g.mu.RLock()
	done := g.done
	g.mu.RUnlock()
	if done != nil {
		<-done
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.err
}

// State returns the current run state.
func (g *Game) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// StatusText はステータスバーに表示する文字列を組み立てる
func (g *Game) StatusText() string {
	g.mu.RLock()
	state, err := g.state, g.err
	x, y := g.cursorX, g.cursorY
	g.mu.RUnlock()

	s := state.String()
	if state == StateFailed && err != nil {
		s = err.Error()
	}
	s += fmt.Sprintf("  (%d,%d)", x, y)
	if g.status != nil {
		s += "  " + g.status()
	}
	if g.onRestart != nil {
		s += "  R:rerun"
	}
	return s + "  ESC:quit"
}

// Draw 画面描画（Ebitengineが毎フレーム呼び出す）
func (g *Game) Draw(screen *ebiten.Image) {
	b := g.raster.Bounds()
	if g.image == nil {
		g.image = ebiten.NewImage(b.Dx(), b.Dy())
	}

	// Refreshされたときだけピクセルを転送する
	if v := g.raster.Version(); !g.drawn || v != g.version {
		g.pixels = g.raster.CopyPixels(g.pixels)
		g.image.WritePixels(g.pixels)
		g.version = v
		g.drawn = true
	}

	screen.Fill(statusBarColor)
	screen.DrawImage(g.image, nil)

	op := &text.DrawOptions{}
	op.GeoM.Translate(4, float64(b.Dy()+4))
	if g.State() == StateFailed {
		op.ColorScale.ScaleWithColor(errorTextColor)
	} else {
		op.ColorScale.ScaleWithColor(textColor)
	}
	text.Draw(screen, g.StatusText(), defaultFace, op)
}

// Layout 画面サイズを返す（キャンバスとステータスバー）
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	b := g.raster.Bounds()
	return b.Dx(), b.Dy() + StatusBarHeight
}

// clampToCanvas はカーソル位置をキャンバスの範囲に収める
func clampToCanvas(x, y, width, height int) (int, int) {
	x = max(0, min(x, width-1))
	y = max(0, min(y, height-1))
	return x, y
}

// Run GUIモードでウィンドウを実行し、スクリプトの実行結果を返す
func Run(g *Game, title string) error {
	w, h := g.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("failed to run viewer: %w", err)
	}

	// ウインドウを閉じた後も実行中なら止める
	g.stop()
	return g.Wait()
}

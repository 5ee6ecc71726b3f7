// Package canvas provides drawing surfaces for the IPL interpreter.
//
// Raster draws into an in-memory RGBA image that the viewer displays and that
// can be saved as PNG or BMP. Recorder only records operations (headless mode).
// Multi mirrors every operation onto several surfaces.
package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/image/colornames"
	"golang.org/x/image/vector"

	"github.com/zurustar/ipl-painter/pkg/ipl/interpreter"
)

const (
	// DefaultWidth と DefaultHeight はキャンバスの既定サイズ
	DefaultWidth  = 640
	DefaultHeight = 480

	// markerSize はmovetoで描く位置マーカーの一辺
	markerSize = 2

	// maxSegments は円を近似する多角形の最大頂点数
	maxSegments = 4096
)

var _ interpreter.Surface = (*Raster)(nil)

// Raster はメモリ上のRGBA画像に描画するSurface。
// 描画はインタプリタのゴルーチン、読み出しは表示側のゴルーチンから行われるためミューテックスで保護する。
type Raster struct {
	mu         sync.RWMutex
	img        *image.RGBA
	background color.RGBA
	version    uint64
	log        *slog.Logger
}

// RasterOption は Raster のオプションを設定する関数型
type RasterOption func(*Raster)

// WithRasterLogger はロガーを設定する
func WithRasterLogger(log *slog.Logger) RasterOption {
	return func(r *Raster) {
		r.log = log
	}
}

// NewRaster creates a width x height canvas cleared to the background color.
// Non-positive sizes fall back to the defaults.
func NewRaster(width, height int, opts ...RasterOption) *Raster {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	r := &Raster{
		img:        image.NewRGBA(image.Rect(0, 0, width, height)),
		background: colornames.White,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.fillBackground()

	r.log.Debug("Raster created", "width", width, "height", height)
	return r
}

// Bounds returns the canvas rectangle.
func (r *Raster) Bounds() image.Rectangle {
	return r.img.Bounds()
}

// Version はRefreshが呼ばれた回数を返す。表示側は値の変化で再描画を判断する。
func (r *Raster) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Snapshot は現在の画像のコピーを返す
func (r *Raster) Snapshot() *image.RGBA {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dst := image.NewRGBA(r.img.Bounds())
	copy(dst.Pix, r.img.Pix)
	return dst
}

// CopyPixels はRGBAのピクセル列を dst にコピーする。dst が小さければ確保し直す。
func (r *Raster) CopyPixels(dst []byte) []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(dst) != len(r.img.Pix) {
		dst = make([]byte, len(r.img.Pix))
	}
	copy(dst, r.img.Pix)
	return dst
}

// RGBAAt returns the pixel at (x, y).
func (r *Raster) RGBAAt(x, y int) color.RGBA {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.img.RGBAAt(x, y)
}

// MarkPosition はペン位置に2x2の点を描く
func (r *Raster) MarkPosition(p image.Point, c color.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fill(c, rectPath(float64(p.X), float64(p.Y), markerSize, markerSize))
}

// Line は幅1pxの直線を描く
func (r *Raster) Line(from, to image.Point, c color.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stroke(c, from, to)
}

// Rect は矩形を描く。幅や高さが負の場合は反対側に伸ばす。
func (r *Raster) Rect(at image.Point, w, h int, c color.Color, filled bool) {
	x, y := at.X, at.Y
	if w < 0 {
		x, w = x+w, -w
	}
	if h < 0 {
		y, h = y+h, -h
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if filled {
		r.fill(c, rectPath(float64(x), float64(y), float64(w), float64(h)))
		return
	}
	corners := []image.Point{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
	r.outline(c, corners)
}

// Ellipse は center を中心とする半径rの円を描く
func (r *Raster) Ellipse(center image.Point, radius int, c color.Color, filled bool) {
	if radius < 0 {
		radius = -radius
	}
	cx, cy := float64(center.X)+0.5, float64(center.Y)+0.5
	rad := float64(radius)

	r.mu.Lock()
	defer r.mu.Unlock()

	if filled || radius == 0 {
		r.fill(c, circlePath(cx, cy, math.Max(rad, 0.5), false))
		return
	}
	// 外周と逆向きの内周で幅1pxの輪を作る
	r.fill(c, circlePath(cx, cy, rad+0.5, false), circlePath(cx, cy, rad-0.5, true))
}

// Polygon は多角形を描く
func (r *Raster) Polygon(points []image.Point, c color.Color, filled bool) {
	if len(points) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !filled {
		r.outline(c, points)
		return
	}
	path := make([]fpoint, len(points))
	for i, p := range points {
		path[i] = fpoint{float64(p.X) + 0.5, float64(p.Y) + 0.5}
	}
	r.fill(c, path)
}

// Clear は画像全体を背景色で塗りつぶす
func (r *Raster) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fillBackground()
}

// Refresh はバージョンを進めて表示側に通知する
func (r *Raster) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.version++
}

func (r *Raster) fillBackground() {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(r.background), image.Point{}, draw.Src)
}

type fpoint struct {
	X, Y float64
}

func rectPath(x, y, w, h float64) []fpoint {
	return []fpoint{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
}

// circlePath は円を多角形で近似する。reverse で向きを反転する。
func circlePath(cx, cy, radius float64, reverse bool) []fpoint {
	segments := int(math.Min(2*math.Pi*radius/2, maxSegments))
	if segments < 16 {
		segments = 16
	}
	path := make([]fpoint, segments)
	for i := range path {
		a := 2 * math.Pi * float64(i) / float64(segments)
		if reverse {
			a = -a
		}
		path[i] = fpoint{cx + radius*math.Cos(a), cy + radius*math.Sin(a)}
	}
	return path
}

// outline は閉じた折れ線を描く
func (r *Raster) outline(c color.Color, points []image.Point) {
	for i, p := range points {
		r.stroke(c, p, points[(i+1)%len(points)])
	}
}

// stroke は線分を幅1pxの四角形として塗る。端点はピクセル中心を通り、両端を0.5px延長する。
func (r *Raster) stroke(c color.Color, from, to image.Point) {
	x0, y0 := float64(from.X)+0.5, float64(from.Y)+0.5
	x1, y1 := float64(to.X)+0.5, float64(to.Y)+0.5

	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		r.fill(c, rectPath(float64(from.X), float64(from.Y), 1, 1))
		return
	}
	// 進行方向と法線（それぞれ長さ0.5）
	ux, uy := dx/length*0.5, dy/length*0.5
	nx, ny := -uy, ux

	r.fill(c, []fpoint{
		{x0 - ux + nx, y0 - uy + ny},
		{x1 + ux + nx, y1 + uy + ny},
		{x1 + ux - nx, y1 + uy - ny},
		{x0 - ux - nx, y0 - uy - ny},
	})
}

// fill は閉じたパスを塗りつぶす。ラスタライザはパスの外接矩形と画像の交差部分だけを確保する。
func (r *Raster) fill(c color.Color, paths ...[]fpoint) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, path := range paths {
		for _, p := range path {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	if math.IsInf(minX, 0) {
		return
	}

	box := image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	).Intersect(r.img.Bounds())
	if box.Empty() {
		return
	}

	z := vector.NewRasterizer(box.Dx(), box.Dy())
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	for _, path := range paths {
		// ラスタライザは画面外の行も1行ずつ処理するので、先に描画範囲の少し外側で切り取る
		path = clip(path, ox-1, oy-1, float64(box.Max.X)+1, float64(box.Max.Y)+1)
		if len(path) < 3 {
			continue
		}
		z.MoveTo(float32(path[0].X-ox), float32(path[0].Y-oy))
		for _, p := range path[1:] {
			z.LineTo(float32(p.X-ox), float32(p.Y-oy))
		}
		z.ClosePath()
	}
	z.Draw(r.img, box, image.NewUniform(c), image.Point{})
}

// clip は多角形を軸平行の矩形で切り取る（Sutherland-Hodgman）
func clip(path []fpoint, minX, minY, maxX, maxY float64) []fpoint {
	edges := []struct {
		inside func(p fpoint) bool
		cross  func(a, b fpoint) fpoint
	}{
		{func(p fpoint) bool { return p.X >= minX }, func(a, b fpoint) fpoint { return atX(a, b, minX) }},
		{func(p fpoint) bool { return p.X <= maxX }, func(a, b fpoint) fpoint { return atX(a, b, maxX) }},
		{func(p fpoint) bool { return p.Y >= minY }, func(a, b fpoint) fpoint { return atY(a, b, minY) }},
		{func(p fpoint) bool { return p.Y <= maxY }, func(a, b fpoint) fpoint { return atY(a, b, maxY) }},
	}

	for _, e := range edges {
		if len(path) == 0 {
			return nil
		}
		out := make([]fpoint, 0, len(path)+4)
		prev := path[len(path)-1]
		for _, cur := range path {
			switch {
			case e.inside(cur) && e.inside(prev):
				out = append(out, cur)
			case e.inside(cur):
				out = append(out, e.cross(prev, cur), cur)
			case e.inside(prev):
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
		path = out
	}
	return path
}

func atX(a, b fpoint, x float64) fpoint {
	t := (x - a.X) / (b.X - a.X)
	return fpoint{x, a.Y + t*(b.Y-a.Y)}
}

func atY(a, b fpoint, y float64) fpoint {
	t := (y - a.Y) / (b.Y - a.Y)
	return fpoint{a.X + t*(b.X-a.X), y}
}

package interpreter

import (
	"image"
	"image/color"
)

// Surface は描画先のインターフェース
// インタプリタはこのインターフェースを通してのみ描画を行う
type Surface interface {
	// MarkPosition はペン位置を示す小さな点を描く
	MarkPosition(p image.Point, c color.Color)
	// Line は直線を描く
	Line(from, to image.Point, c color.Color)
	// Rect は at を左上とする幅w高さhの矩形を描く
	Rect(at image.Point, w, h int, c color.Color, filled bool)
	// Ellipse は center を中心とする半径rの円を描く
	Ellipse(center image.Point, r int, c color.Color, filled bool)
	// Polygon は多角形を描く
	Polygon(points []image.Point, c color.Color, filled bool)
	// Clear は描画領域を白で消去する
	Clear()
	// Refresh は表示側に再描画を通知する
	Refresh()
}

// NopSurface は何も描画しないSurface
type NopSurface struct{}

func (NopSurface) MarkPosition(image.Point, color.Color)         {}
func (NopSurface) Line(image.Point, image.Point, color.Color)    {}
func (NopSurface) Rect(image.Point, int, int, color.Color, bool) {}
func (NopSurface) Ellipse(image.Point, int, color.Color, bool)   {}
func (NopSurface) Polygon([]image.Point, color.Color, bool)      {}
func (NopSurface) Clear()                                        {}
func (NopSurface) Refresh()                                      {}

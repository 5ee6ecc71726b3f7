package interpreter

import (
	"image"
	"image/color"

	"github.com/zurustar/ipl-painter/pkg/ipl/palette"
)

// Pen はペンの状態（位置、色、塗りつぶしモード）
type Pen struct {
	Position  image.Point
	Color     color.RGBA
	ColorName string
	FillMode  bool
}

// NewPen は原点・黒・塗りつぶしなしのペンを作成する
func NewPen() Pen {
	return Pen{
		Position:  image.Point{},
		Color:     palette.DefaultColor,
		ColorName: "black",
	}
}

// ResetPosition はペン位置を原点に戻す（色と塗りつぶしモードは変更しない）
func (p *Pen) ResetPosition() {
	p.Position = image.Point{}
}

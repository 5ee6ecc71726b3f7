package canvas

import (
	"image"
	"image/color"

	"github.com/zurustar/ipl-painter/pkg/ipl/interpreter"
)

// multi は同じ操作を複数のSurfaceへ順に転送する
type multi []interpreter.Surface

// Multi returns a surface that forwards every operation to each of surfaces in order.
// nil entries are skipped.
func Multi(surfaces ...interpreter.Surface) interpreter.Surface {
	m := make(multi, 0, len(surfaces))
	for _, s := range surfaces {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m multi) MarkPosition(p image.Point, c color.Color) {
	for _, s := range m {
		s.MarkPosition(p, c)
	}
}

func (m multi) Line(from, to image.Point, c color.Color) {
	for _, s := range m {
		s.Line(from, to, c)
	}
}

func (m multi) Rect(at image.Point, w, h int, c color.Color, filled bool) {
	for _, s := range m {
		s.Rect(at, w, h, c, filled)
	}
}

func (m multi) Ellipse(center image.Point, r int, c color.Color, filled bool) {
	for _, s := range m {
		s.Ellipse(center, r, c, filled)
	}
}

func (m multi) Polygon(points []image.Point, c color.Color, filled bool) {
	for _, s := range m {
		s.Polygon(points, c, filled)
	}
}

func (m multi) Clear() {
	for _, s := range m {
		s.Clear()
	}
}

func (m multi) Refresh() {
	for _, s := range m {
		s.Refresh()
	}
}

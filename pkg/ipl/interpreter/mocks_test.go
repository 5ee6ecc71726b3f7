package interpreter

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// mockSurface は呼び出された描画操作を文字列として記録する
type mockSurface struct {
	ops       []string
	refreshes int
}

func colorName(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

func (m *mockSurface) MarkPosition(p image.Point, c color.Color) {
	m.ops = append(m.ops, fmt.Sprintf("mark %d,%d %s", p.X, p.Y, colorName(c)))
}

func (m *mockSurface) Line(from, to image.Point, c color.Color) {
	m.ops = append(m.ops, fmt.Sprintf("line %d,%d-%d,%d %s", from.X, from.Y, to.X, to.Y, colorName(c)))
}

func (m *mockSurface) Rect(at image.Point, w, h int, c color.Color, filled bool) {
	m.ops = append(m.ops, fmt.Sprintf("rect %d,%d %dx%d %s filled=%v", at.X, at.Y, w, h, colorName(c), filled))
}

func (m *mockSurface) Ellipse(center image.Point, r int, c color.Color, filled bool) {
	m.ops = append(m.ops, fmt.Sprintf("ellipse %d,%d r=%d %s filled=%v", center.X, center.Y, r, colorName(c), filled))
}

func (m *mockSurface) Polygon(points []image.Point, c color.Color, filled bool) {
	pts := make([]string, len(points))
	for i, p := range points {
		pts[i] = fmt.Sprintf("%d,%d", p.X, p.Y)
	}
	m.ops = append(m.ops, fmt.Sprintf("polygon %s %s filled=%v", strings.Join(pts, " "), colorName(c), filled))
}

func (m *mockSurface) Clear() {
	m.ops = append(m.ops, "clear")
}

func (m *mockSurface) Refresh() {
	m.refreshes++
}

func (m *mockSurface) count(prefix string) int {
	n := 0
	for _, op := range m.ops {
		if strings.HasPrefix(op, prefix) {
			n++
		}
	}
	return n
}

// Package palette provides the pen color registries used by the interpreter and the syntax checker.
package palette

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	"golang.org/x/image/colornames"
)

// DefaultColor はペンの初期色
var DefaultColor = colornames.Black

// Palette はペンに指定できる色名の集合
type Palette struct {
	name   string
	colors map[string]color.RGBA
}

// Basic は red, green, blue のみを受け付けるパレット
func Basic() *Palette {
	return &Palette{
		name: "basic",
		colors: map[string]color.RGBA{
			"red":   colornames.Red,
			"green": colornames.Green,
			"blue":  colornames.Blue,
		},
	}
}

// Extended はSVG 1.1の色名（147色）をすべて受け付けるパレット
func Extended() *Palette {
	colors := make(map[string]color.RGBA, len(colornames.Map))
	for name, c := range colornames.Map {
		colors[name] = c
	}
	return &Palette{name: "extended", colors: colors}
}

// ByName はパレット名からパレットを返す
func ByName(name string) (*Palette, error) {
	switch strings.ToLower(name) {
	case "", "basic":
		return Basic(), nil
	case "extended":
		return Extended(), nil
	default:
		return nil, fmt.Errorf("invalid palette: %s (must be basic or extended)", name)
	}
}

// Name returns the palette name.
func (p *Palette) Name() string {
	return p.name
}

// Lookup は色名を解決する（大文字小文字を無視）
func (p *Palette) Lookup(name string) (color.RGBA, bool) {
	c, ok := p.colors[strings.ToLower(name)]
	return c, ok
}

// Has reports whether the color name is known.
func (p *Palette) Has(name string) bool {
	_, ok := p.Lookup(name)
	return ok
}

// Names returns the known color names in sorted order.
func (p *Palette) Names() []string {
	names := make([]string, 0, len(p.colors))
	for name := range p.colors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

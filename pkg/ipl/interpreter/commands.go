package interpreter

import (
	"fmt"
	"image"
	"strings"

	"github.com/zurustar/ipl-painter/pkg/ipl/ast"
	"github.com/zurustar/ipl-painter/pkg/ipl/token"
)

// arityMessages は引数の数が合わないときのメッセージ
var arityMessages = map[token.Keyword]string{
	token.MOVETO:    "MoveTo expects two parameters: x and y coordinates.",
	token.DRAWTO:    "DrawTo expects two parameters: x and y coordinates.",
	token.RECTANGLE: "Rectangle expects two parameters: width and height.",
	token.TRIANGLE:  "Triangle expects two parameters: width and height.",
	token.CIRCLE:    "Circle expects one parameter: radius.",
	token.PEN:       "Pen command expects one parameter: color name.",
	token.FILL:      "Fill command expects one parameter: on or off.",
}

// dispatch は描画コマンドを実行する
func (in *Interpreter) dispatch(s *ast.CommandStatement) error {
	if len(s.Args) != s.Keyword.Arity() {
		msg, ok := arityMessages[s.Keyword]
		if !ok {
			msg = fmt.Sprintf("'%s' command does not take parameters.", s.Keyword)
		}
		return newFault(FaultInvalidArgument, s.Line, s.Text, msg)
	}

	switch s.Keyword {
	case token.MOVETO:
		return in.moveTo(s)
	case token.DRAWTO:
		return in.drawTo(s)
	case token.RECTANGLE:
		return in.drawRectangle(s)
	case token.CIRCLE:
		return in.drawCircle(s)
	case token.TRIANGLE:
		return in.drawTriangle(s)
	case token.PEN:
		return in.changePenColor(s)
	case token.FILL:
		return in.setFillMode(s)
	case token.CLEAR:
		in.surface.Clear()
	case token.RESET:
		in.updatePen((*Pen).ResetPosition)
	default:
		return newFault(FaultUnknownCommand, s.Line, s.Text, fmt.Sprintf("Unknown command: '%s'.", s.Keyword))
	}
	return nil
}

// value はオペランドを整数に解決する。int32 として読めない数値は INVALID_NUMBER。
func (in *Interpreter) value(s *ast.CommandStatement, tok string) (int, error) {
	v, err := in.env.Value(tok)
	if err != nil {
		return 0, numberFault(s.Line, s.Text, tok, err)
	}
	return int(v), nil
}

// point は2つのオペランドを座標に解決する
func (in *Interpreter) point(s *ast.CommandStatement) (image.Point, error) {
	x, err := in.value(s, s.Args[0])
	if err != nil {
		return image.Point{}, err
	}
	y, err := in.value(s, s.Args[1])
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(x, y), nil
}

func (in *Interpreter) moveTo(s *ast.CommandStatement) error {
	pos, err := in.point(s)
	if err != nil {
		return err
	}
	in.updatePen(func(p *Pen) { p.Position = pos })
	in.surface.MarkPosition(in.pen.Position, in.pen.Color)
	return nil
}

func (in *Interpreter) drawTo(s *ast.CommandStatement) error {
	to, err := in.point(s)
	if err != nil {
		return err
	}
	in.surface.Line(in.pen.Position, to, in.pen.Color)
	in.updatePen(func(p *Pen) { p.Position = to })
	return nil
}

func (in *Interpreter) drawRectangle(s *ast.CommandStatement) error {
	size, err := in.point(s)
	if err != nil {
		return err
	}
	in.surface.Rect(in.pen.Position, size.X, size.Y, in.pen.Color, in.pen.FillMode)
	return nil
}

func (in *Interpreter) drawCircle(s *ast.CommandStatement) error {
	radius, err := in.value(s, s.Args[0])
	if err != nil {
		return err
	}
	in.surface.Ellipse(in.pen.Position, radius, in.pen.Color, in.pen.FillMode)
	return nil
}

// drawTriangle はペン位置を基準に 左下(x,y+h)、右下(x+w,y+h)、頂点(x+w/2,y) の三角形を描く
func (in *Interpreter) drawTriangle(s *ast.CommandStatement) error {
	size, err := in.point(s)
	if err != nil {
		return err
	}
	pos := in.pen.Position
	points := []image.Point{
		{X: pos.X, Y: pos.Y + size.Y},
		{X: pos.X + size.X, Y: pos.Y + size.Y},
		{X: pos.X + size.X/2, Y: pos.Y},
	}
	in.surface.Polygon(points, in.pen.Color, in.pen.FillMode)
	return nil
}

func (in *Interpreter) changePenColor(s *ast.CommandStatement) error {
	c, ok := in.palette.Lookup(s.Args[0])
	if !ok {
		return newFault(FaultInvalidArgument, s.Line, s.Text, "Invalid color specified.")
	}
	in.updatePen(func(p *Pen) {
		p.Color = c
		p.ColorName = strings.ToLower(s.Args[0])
	})
	return nil
}

func (in *Interpreter) setFillMode(s *ast.CommandStatement) error {
	switch strings.ToLower(s.Args[0]) {
	case "on":
		in.updatePen(func(p *Pen) { p.FillMode = true })
	case "off":
		in.updatePen(func(p *Pen) { p.FillMode = false })
	default:
		return newFault(FaultInvalidArgument, s.Line, s.Text, "Invalid fill mode specified. Use 'on' or 'off'.")
	}
	in.log.Info("Fill mode changed", "line", s.Line, "fill", in.pen.FillMode)
	return nil
}

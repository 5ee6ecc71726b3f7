// Package ast defines the statement tree built from IPL script lines.
package ast

import (
	"strings"

	"github.com/zurustar/ipl-painter/pkg/ipl/token"
)

type Node interface {
	// Pos は文が始まる行番号（1始まり）
	Pos() int
	String() string
}

type Statement interface {
	Node
	statementNode()
}

// Program is the root node
type Program struct {
	Statements []Statement
}

func (p *Program) String() string {
	lines := make([]string, 0, len(p.Statements))
	for _, s := range p.Statements {
		lines = append(lines, s.String())
	}
	return strings.Join(lines, "\n")
}

// CommandStatement: moveto 10 10, pen red, clear ...
type CommandStatement struct {
	Line    int
	Text    string
	Keyword token.Keyword
	Args    []string
}

func (cs *CommandStatement) statementNode() {}
func (cs *CommandStatement) Pos() int       { return cs.Line }
func (cs *CommandStatement) String() string { return cs.Text }

// AssignStatement: name = expression
type AssignStatement struct {
	Line       int
	Text       string
	Name       string
	Expression string
}

func (as *AssignStatement) statementNode() {}
func (as *AssignStatement) Pos() int       { return as.Line }
func (as *AssignStatement) String() string { return as.Text }

// Condition is a two-operand comparison.
// Malformed conditions keep their text but have Valid == false.
type Condition struct {
	Text     string
	Left     string
	Operator token.Operator
	Right    string
	Valid    bool
}

func (c *Condition) String() string { return c.Text }

// Resolver はオペランドを整数に解決する
type Resolver interface {
	Resolve(tok string) int32
}

// Eval は条件を評価する。形式が不正な条件は常に偽。
func (c *Condition) Eval(r Resolver) bool {
	if c == nil || !c.Valid {
		return false
	}
	return c.Operator.Compare(r.Resolve(c.Left), r.Resolve(c.Right))
}

// IfStatement: if <cond> ... endif
type IfStatement struct {
	Line      int
	Text      string
	Condition *Condition
	Body      []Statement
	EndLine   int
}

func (is *IfStatement) statementNode() {}
func (is *IfStatement) Pos() int       { return is.Line }
func (is *IfStatement) String() string { return blockString(is.Text, is.Body, "endif") }

// WhileStatement: while <cond> ... endloop
type WhileStatement struct {
	Line      int
	Text      string
	Condition *Condition
	Body      []Statement
	EndLine   int
}

func (ws *WhileStatement) statementNode() {}
func (ws *WhileStatement) Pos() int       { return ws.Line }
func (ws *WhileStatement) String() string { return blockString(ws.Text, ws.Body, "endloop") }

// UnknownStatement is a line that matches no command.
// It is kept in the tree so the fault surfaces only if the line is executed.
type UnknownStatement struct {
	Line int
	Text string
	Word string
}

func (us *UnknownStatement) statementNode() {}
func (us *UnknownStatement) Pos() int       { return us.Line }
func (us *UnknownStatement) String() string { return us.Text }

func blockString(opener string, body []Statement, closer string) string {
	var out strings.Builder
	out.WriteString(opener)
	for _, s := range body {
		out.WriteString("\n")
		out.WriteString(s.String())
	}
	out.WriteString("\n")
	out.WriteString(closer)
	return out.String()
}

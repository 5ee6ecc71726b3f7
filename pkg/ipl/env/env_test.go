package env

import (
	"errors"
	"reflect"
	"testing"
)

func TestResolve(t *testing.T) {
	e := New(ModeLegacy)
	e.Set("x", 5)
	e.Set("10", 99) // リテラルが優先される

	tests := []struct {
		tok  string
		want int32
	}{
		{"42", 42},
		{"-7", -7},
		{"x", 5},
		{"X", 5},
		{"undefined", 0},
		{"10", 10},
	}

	for _, tt := range tests {
		t.Run(tt.tok, func(t *testing.T) {
			if got := e.Resolve(tt.tok); got != tt.want {
				t.Errorf("Resolve(%q) = %d, want %d", tt.tok, got, tt.want)
			}
		})
	}
}

func TestAssign_Legacy(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want int32
	}{
		{"literal", "5", 5},
		{"addition", "2+3", 5},
		{"mixed operators use the first found", "2+3-1", 6},
		{"subtraction only", "10-3-2", 5},
		{"multiplication", "2*3*4", 24},
		{"division truncates", "7/2", 3},
		{"spaces around operands", " 4 * 5 ", 20},
		{"leading minus is dropped", "-5", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(ModeLegacy)
			got, err := e.Assign("v", tt.expr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Assign(%q) = %d, want %d", tt.expr, got, tt.want)
			}
			if v, _ := e.Get("v"); v != tt.want {
				t.Errorf("stored value = %d, want %d", v, tt.want)
			}
		})
	}
}

func TestAssign_Standard(t *testing.T) {
	tests := []struct {
		expr string
		want int32
	}{
		{"2+3-1", 4},
		{"10-3-2", 5},
		{"2*3+4", 10},
		{"2+3*4", 20},
		{"-5", -5},
		{"-5+2", -3},
		{"7/2", 3},
		{"0-7/2", -3},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			e := New(ModeStandard)
			got, err := e.Assign("v", tt.expr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Assign(%q) = %d, want %d", tt.expr, got, tt.want)
			}
		})
	}
}

func TestAssign_ChainedVariables(t *testing.T) {
	e := New(ModeLegacy)
	steps := []struct{ name, expr string }{
		{"x", "5"},
		{"y", "x+3"},
		{"z", "y*2"},
	}
	for _, s := range steps {
		if _, err := e.Assign(s.name, s.expr); err != nil {
			t.Fatalf("Assign(%s, %s): %v", s.name, s.expr, err)
		}
	}
	if z, _ := e.Get("z"); z != 16 {
		t.Errorf("z = %d, want 16", z)
	}
}

func TestAssign_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		varName string
		expr    string
		wantErr error
	}{
		{"legacy division by zero", ModeLegacy, "v", "5/0", ErrDivisionByZero},
		{"standard division by zero", ModeStandard, "v", "5/zero", ErrDivisionByZero},
		{"legacy empty expression", ModeLegacy, "v", "", ErrMalformedExpression},
		{"legacy only operators", ModeLegacy, "v", "+-", ErrMalformedExpression},
		{"standard dangling operator", ModeStandard, "v", "2+", ErrMalformedExpression},
		{"standard double operator", ModeStandard, "v", "2++3", ErrMalformedExpression},
		{"missing name", ModeLegacy, " ", "1", ErrMalformedExpression},
		{"legacy out of range literal", ModeLegacy, "v", "2147483648", ErrInvalidNumber},
		{"legacy decimal fragment", ModeLegacy, "v", "2+1.5", ErrInvalidNumber},
		{"standard out of range operand", ModeStandard, "v", "1*3000000000", ErrInvalidNumber},
		{"standard decimal operand", ModeStandard, "v", "1.5", ErrInvalidNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(tt.mode)
			_, err := e.Assign(tt.varName, tt.expr)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Assign(%q, %q) error = %v, want %v", tt.varName, tt.expr, err, tt.wantErr)
			}
			if e.Len() != 0 {
				t.Errorf("failed assignment must not store a value, got %v", e.Names())
			}
		})
	}
}

func TestValue(t *testing.T) {
	e := New(ModeLegacy)
	e.Set("x", 5)

	tests := []struct {
		tok     string
		want    int32
		wantErr bool
	}{
		{"42", 42, false},
		{" -7 ", -7, false},
		{"x", 5, false},
		{"undefined", 0, false},
		{"2147483647", 2147483647, false},
		{"2147483648", 0, true},
		{"-3000000000", 0, true},
		{"1.5", 0, true},
		{"+9e3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.tok, func(t *testing.T) {
			got, err := e.Value(tt.tok)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidNumber) {
					t.Errorf("Value(%q) error = %v, want ErrInvalidNumber", tt.tok, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Value(%q) = (%d, %v), want %d", tt.tok, got, err, tt.want)
			}
			// 正しく読めるトークンでは Resolve と一致する
			if r := e.Resolve(tt.tok); r != got {
				t.Errorf("Resolve(%q) = %d, Value = %d", tt.tok, r, got)
			}
		})
	}
}

func TestOperands(t *testing.T) {
	tests := []struct {
		expr     string
		operands []string
		ops      string
		negate   bool
	}{
		{"2+3", []string{"2", "3"}, "+", false},
		{" a * b - 1 ", []string{"a", "b", "1"}, "*-", false},
		{"-5", []string{"5"}, "", true},
		{"2+", []string{"2", ""}, "+", false},
		{"2++3", []string{"2", "", "3"}, "++", false},
		{"", []string{""}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			operands, ops, negate := Operands(tt.expr)
			if !reflect.DeepEqual(operands, tt.operands) || string(ops) != tt.ops || negate != tt.negate {
				t.Errorf("Operands(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.expr, operands, ops, negate, tt.operands, tt.ops, tt.negate)
			}
			if len(operands) != len(ops)+1 {
				t.Errorf("len(operands) = %d, len(ops) = %d", len(operands), len(ops))
			}
		})
	}
}

func TestAssign_Int32Wraps(t *testing.T) {
	e := New(ModeLegacy)
	got, err := e.Assign("v", "2147483647+1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != -2147483648 {
		t.Errorf("got %d, want -2147483648", got)
	}
}

func TestNamesAndReset(t *testing.T) {
	e := New(ModeLegacy)
	e.Set("B", 1)
	e.Set("a", 2)

	if got := e.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Names() = %v, want [a b]", got)
	}

	e.Reset()
	if e.Len() != 0 || e.Has("a") {
		t.Error("Reset() should remove every variable")
	}
}

func TestFragments(t *testing.T) {
	tests := []struct {
		expr string
		want []string
	}{
		{"x+3", []string{"x", "3"}},
		{" a * b ", []string{"a", "b"}},
		{"-5", []string{"5"}},
		{"1++2", []string{"1", "2"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		if got := Fragments(tt.expr); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Fragments(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeLegacy, false},
		{"legacy", ModeLegacy, false},
		{"Standard", ModeStandard, false},
		{"fast", ModeLegacy, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = (%v, %v), want (%v, err=%v)", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

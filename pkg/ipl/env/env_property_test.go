package env

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_LiteralWinsOverVariable tests that an integer literal always
// resolves to itself even when a variable of the same name exists.
func TestProperty_LiteralWinsOverVariable(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("literal resolves to its own value", prop.ForAll(
		func(literal int32, shadow int32) bool {
			e := New(ModeLegacy)
			name := strconv.Itoa(int(literal))
			e.Set(name, shadow)
			return e.Resolve(name) == literal
		},
		gen.Int32(),
		gen.Int32(),
	))

	properties.Property("unknown identifiers resolve to zero", prop.ForAll(
		func(name string) bool {
			e := New(ModeLegacy)
			return e.Resolve(name) == 0
		},
		gen.Identifier(),
	))

	properties.Property("names are case-insensitive", prop.ForAll(
		func(name string, value int32) bool {
			e := New(ModeLegacy)
			e.Set(strings.ToUpper(name), value)
			return e.Resolve(strings.ToLower(name)) == value
		},
		gen.Identifier(),
		gen.Int32(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// TestProperty_LegacySingleOperator tests that legacy mode folds every fragment
// with the first operator found in +,-,*,/ order.
func TestProperty_LegacySingleOperator(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("a+b-c evaluates as a+b+c", prop.ForAll(
		func(a, b, c int32) bool {
			e := New(ModeLegacy)
			got, err := e.Eval(fmt.Sprintf("%d+%d-%d", a, b, c))
			if err != nil {
				return false
			}
			return got == a+b+c
		},
		gen.Int32Range(0, 10000),
		gen.Int32Range(0, 10000),
		gen.Int32Range(0, 10000),
	))

	properties.Property("standard mode applies operators positionally", prop.ForAll(
		func(a, b, c int32) bool {
			e := New(ModeStandard)
			got, err := e.Eval(fmt.Sprintf("%d+%d-%d", a, b, c))
			if err != nil {
				return false
			}
			return got == a+b-c
		},
		gen.Int32Range(0, 10000),
		gen.Int32Range(0, 10000),
		gen.Int32Range(0, 10000),
	))

	properties.Property("division truncates toward zero in both modes", prop.ForAll(
		func(a, b int32) bool {
			expr := fmt.Sprintf("%d/%d", a, b)
			for _, mode := range []Mode{ModeLegacy, ModeStandard} {
				got, err := New(mode).Eval(expr)
				if err != nil || got != a/b {
					return false
				}
			}
			return true
		},
		gen.Int32Range(0, 100000),
		gen.Int32Range(1, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// TestProperty_OutOfRangeLiteralsAreRejected tests that integer literals outside
// the 32-bit range never resolve to a value, either alone or inside an expression.
func TestProperty_OutOfRangeLiteralsAreRejected(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	outOfRange := gen.OneGenOf(
		gen.Int64Range(1<<31, 1<<62),
		gen.Int64Range(-(1 << 62), -(1<<31)-1),
	)

	properties.Property("Value rejects out of range literals", prop.ForAll(
		func(n int64) bool {
			_, err := New(ModeLegacy).Value(strconv.FormatInt(n, 10))
			return errors.Is(err, ErrInvalidNumber)
		},
		outOfRange,
	))

	properties.Property("assignment fails in both modes and stores nothing", prop.ForAll(
		func(n int64, standard bool) bool {
			mode := ModeLegacy
			if standard {
				mode = ModeStandard
			}
			e := New(mode)
			_, err := e.Assign("v", fmt.Sprintf("1+%d", n))
			return errors.Is(err, ErrInvalidNumber) && !e.Has("v")
		},
		gen.Int64Range(1<<31, 1<<62),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Package eval implements the big-step evaluator: values, the persistent
// evaluation environment, and the Eval entry point.
package eval

import (
	"fmt"
	"strings"

	"github.com/sunholo/picocaml/internal/ast"
)

// Value is the tagged variant of runtime values: integers, booleans,
// closures, recursive closures, and lists built from Nil/Cons.
type Value interface {
	String() string
	valueNode()
}

// Int is a runtime integer.
type Int struct {
	Value int
}

func (v *Int) String() string { return fmt.Sprintf("%d", v.Value) }
func (*Int) valueNode()        {}

// Bool is a runtime boolean.
type Bool struct {
	Value bool
}

func (v *Bool) String() string {
	if v.Value {
		return "true"
	}
	return "false"
}
func (*Bool) valueNode() {}

// Closure is a non-recursive function value: a parameter name, a body, and
// the environment captured at the point the fun expression was evaluated.
type Closure struct {
	Env   *Env
	Param string
	Body  ast.Expr
}

func (v *Closure) String() string { return fmt.Sprintf("fun %s -> (...)", v.Param) }
func (*Closure) valueNode()        {}

// RecClosure is a let-rec-bound function value. Self is the name the
// closure was bound under; on every call Eval binds Self to this same
// RecClosure in a call-local extension of Env, so the function can call
// itself by name without Env needing to contain a cycle.
type RecClosure struct {
	Env   *Env
	Self  string
	Param string
	Body  ast.Expr
}

func (v *RecClosure) String() string {
	return fmt.Sprintf("rec %s = fun %s -> (...)", v.Self, v.Param)
}
func (*RecClosure) valueNode() {}

// Nil is the empty list.
type Nil struct{}

func (v *Nil) String() string { return "[]" }
func (*Nil) valueNode()        {}

// Cons is a non-empty list cell.
type Cons struct {
	Car Value
	Cdr Value
}

func (v *Cons) String() string {
	var b strings.Builder
	b.WriteString(v.Car.String())
	b.WriteString(" :: ")
	b.WriteString(v.Cdr.String())
	return b.String()
}
func (*Cons) valueNode() {}

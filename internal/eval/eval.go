package eval

import (
	"github.com/sunholo/picocaml/internal/ast"
)

// Eval implements the big-step evaluation rules of spec.md §4.5.
//
// Eval never mutates env: every rule that needs a wider scope (Let,
// LetRec, Fun's captured closure environment, Match's pattern bindings)
// builds its own locally extended Env value via Extend and passes that to
// a recursive Eval call; the extension is never visible to a sibling
// subexpression or to the caller. A top-level let at the REPL therefore
// does not, by itself, grow the REPL's persistent environment — the REPL
// achieves that by special-casing the top-level form (see internal/repl),
// not by Eval leaking bindings outward.
func Eval(env *Env, expr ast.Expr) (Value, error) {
	switch e := expr.(type) {

	case *ast.Int:
		return &Int{Value: e.Value}, nil

	case *ast.Bool:
		return &Bool{Value: e.Value}, nil

	case *ast.Var:
		return env.Lookup(e.Name)

	case *ast.BinOp:
		left, right, err := evalPair(env, e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		l, ok := left.(*Int)
		if !ok {
			return nil, newError(InvalidExpression, "left operand of %s is not an Int", e.Op)
		}
		r, ok := right.(*Int)
		if !ok {
			return nil, newError(InvalidExpression, "right operand of %s is not an Int", e.Op)
		}
		switch e.Op {
		case ast.Add:
			return &Int{Value: l.Value + r.Value}, nil
		case ast.Sub:
			return &Int{Value: l.Value - r.Value}, nil
		case ast.Mul:
			return &Int{Value: l.Value * r.Value}, nil
		default:
			return nil, newError(InvalidExpression, "unknown binary operator %s", e.Op)
		}

	case *ast.Lt:
		left, right, err := evalPair(env, e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		l, ok := left.(*Int)
		if !ok {
			return nil, newError(InvalidExpression, "left operand of < is not an Int")
		}
		r, ok := right.(*Int)
		if !ok {
			return nil, newError(InvalidExpression, "right operand of < is not an Int")
		}
		return &Bool{Value: l.Value < r.Value}, nil

	case *ast.If:
		cond, err := Eval(env, e.Cond)
		if err != nil {
			return nil, err
		}
		b, ok := cond.(*Bool)
		if !ok {
			return nil, newError(InvalidExpression, "if condition is not a Bool")
		}
		if b.Value {
			return Eval(env, e.Then)
		}
		return Eval(env, e.Else)

	case *ast.Let:
		bound, err := Eval(env, e.Bound)
		if err != nil {
			return nil, err
		}
		return Eval(env.Extend(e.Name, bound), e.Body)

	case *ast.Fun:
		return &Closure{Env: env, Param: e.Param, Body: e.Body}, nil

	case *ast.App:
		fn, err := Eval(env, e.Fn)
		if err != nil {
			return nil, err
		}
		arg, err := Eval(env, e.Arg)
		if err != nil {
			return nil, err
		}
		switch closure := fn.(type) {
		case *Closure:
			callEnv := closure.Env.Extend(closure.Param, arg)
			return Eval(callEnv, closure.Body)
		case *RecClosure:
			callEnv := closure.Env.Extend(closure.Self, closure).Extend(closure.Param, arg)
			return Eval(callEnv, closure.Body)
		default:
			return nil, newError(InvalidExpression, "attempt to apply a non-function value")
		}

	case *ast.LetRec:
		rec := &RecClosure{Env: env, Self: e.Name, Param: e.Fn.Param, Body: e.Fn.Body}
		return Eval(env.Extend(e.Name, rec), e.Body)

	case *ast.Nil:
		return &Nil{}, nil

	case *ast.Cons:
		car, cdr, err := evalPair(env, e.Car, e.Cdr)
		if err != nil {
			return nil, err
		}
		return &Cons{Car: car, Cdr: cdr}, nil

	case *ast.Match:
		scrutinee, err := Eval(env, e.Scrutinee)
		if err != nil {
			return nil, err
		}
		switch v := scrutinee.(type) {
		case *Nil:
			return Eval(env, e.NilCase)
		case *Cons:
			consEnv := env.Extend(e.HdName, v.Car).Extend(e.TlName, v.Cdr)
			return Eval(consEnv, e.ConsCase)
		default:
			return nil, newError(InvalidExpression, "match scrutinee is not a list")
		}

	default:
		return nil, newError(InvalidExpression, "unsupported expression node %T", expr)
	}
}

// evalPair evaluates two subexpressions under the same ambient
// environment, as every binary form (BinOp, Lt, Cons) requires: neither
// side may observe bindings the other introduced.
func evalPair(env *Env, a, b ast.Expr) (Value, Value, error) {
	av, err := Eval(env, a)
	if err != nil {
		return nil, nil, err
	}
	bv, err := Eval(env, b)
	if err != nil {
		return nil, nil, err
	}
	return av, bv, nil
}

package types

import (
	"fmt"
	"sort"

	"github.com/sunholo/picocaml/internal/ast"
)

// TypeInference is the top-level driver named in spec.md §4.6: it runs
// constraint generation over expr, solves the accumulated equations, and
// normalizes the result. The returned environment carries forward every
// binding infer introduced for top-level let/let rec. eval.Eval returns no
// environment; internal/repl threads top-level bindings itself.
func TypeInference(env *TypeEnv, expr ast.Expr) (*TypeEnv, Type, error) {
	env1, t, err := infer(env, expr)
	if err != nil {
		return nil, nil, err
	}
	solvedEnv, sub, err := env1.UnifyEquations()
	if err != nil {
		return nil, nil, fmt.Errorf("type inference: unification failed: %w", err)
	}
	normalized, err := Normalize(sub, t)
	if err != nil {
		return nil, nil, err
	}
	return solvedEnv, normalized, nil
}

// infer implements the constraint-generation rules of spec.md §4.6.
//
// Two kinds of state flow through the recursion, and they flow
// differently. The equation store accumulates monotonically regardless of
// lexical scope: every equation emitted anywhere must survive into the
// final unification pass. Bindings, in contrast, are genuinely scoped:
// a Fun parameter or a Match arm's hd/tl names must not leak into a
// sibling subexpression or past the construct that introduced them,
// while a Let/LetRec name is meant to persist into the rest of the
// expression (and, at the REPL's top level, into the next turn). Each
// case below threads the store forward unconditionally via rebind while
// being deliberate about which bindings accompany it.
func infer(env *TypeEnv, expr ast.Expr) (*TypeEnv, Type, error) {
	switch e := expr.(type) {

	case *ast.Int:
		return env, TInt, nil

	case *ast.Bool:
		return env, TBool, nil

	case *ast.Var:
		t, err := env.Lookup(e.Name)
		if err != nil {
			return nil, nil, err
		}
		return env, t, nil

	case *ast.Nil:
		return env, &TList{Elem: &TVar{Name: env.Gen().Next()}}, nil

	case *ast.BinOp:
		env1, leftType, err := infer(env, e.Left)
		if err != nil {
			return nil, nil, err
		}
		env2, rightType, err := infer(rebind(env, env1), e.Right)
		if err != nil {
			return nil, nil, err
		}
		result := rebind(env, env2).AddEquation(leftType, rightType).AddEquation(leftType, TInt)
		return result, TInt, nil

	case *ast.Lt:
		env1, leftType, err := infer(env, e.Left)
		if err != nil {
			return nil, nil, err
		}
		env2, rightType, err := infer(rebind(env, env1), e.Right)
		if err != nil {
			return nil, nil, err
		}
		result := rebind(env, env2).AddEquation(leftType, rightType).AddEquation(leftType, TInt)
		return result, TBool, nil

	case *ast.If:
		env1, condType, err := infer(env, e.Cond)
		if err != nil {
			return nil, nil, err
		}
		env2 := rebind(env, env1).AddEquation(condType, TBool)
		env3, thenType, err := infer(env2, e.Then)
		if err != nil {
			return nil, nil, err
		}
		env4, elseType, err := infer(rebind(env, env3), e.Else)
		if err != nil {
			return nil, nil, err
		}
		result := rebind(env, env4).AddEquation(thenType, elseType)
		return result, thenType, nil

	case *ast.Fun:
		alpha := &TVar{Name: env.Gen().Next()}
		paramEnv := env.Extend(e.Param, Monomorphic(alpha))
		env1, bodyType, err := infer(paramEnv, e.Body)
		if err != nil {
			return nil, nil, err
		}
		result := rebind(env, env1)
		return result, &TFunc{Domain: alpha, Range: bodyType}, nil

	case *ast.App:
		env1, fnType, err := infer(env, e.Fn)
		if err != nil {
			return nil, nil, err
		}

		var domain, rng Type
		switch ft := fnType.(type) {
		case *TFunc:
			domain, rng = ft.Domain, ft.Range
		case *TVar:
			domain = &TVar{Name: env.Gen().Next()}
			rng = &TVar{Name: env.Gen().Next()}
			env1 = env1.AddEquation(fnType, &TFunc{Domain: domain, Range: rng})
		default:
			return nil, nil, newError(InvalidType, "cannot apply a value of type %s", fnType)
		}

		env2, argType, err := infer(rebind(env, env1), e.Arg)
		if err != nil {
			return nil, nil, err
		}
		result := rebind(env, env2).AddEquation(domain, argType)
		return result, rng, nil

	case *ast.Let:
		env1, boundType, err := infer(env, e.Bound)
		if err != nil {
			return nil, nil, err
		}
		scheme, err := generalize(rebind(env, env1), boundType)
		if err != nil {
			return nil, nil, err
		}
		bodyEnv := rebind(env, env1).Extend(e.Name, scheme)
		env2, bodyType, err := infer(bodyEnv, e.Body)
		if err != nil {
			return nil, nil, err
		}
		return env2, bodyType, nil

	case *ast.LetRec:
		alpha := &TVar{Name: env.Gen().Next()}
		beta := &TVar{Name: env.Gen().Next()}
		selfEnv := env.Extend(e.Name, Monomorphic(&TFunc{Domain: alpha, Range: beta}))

		env1, fnType, err := infer(selfEnv, e.Fn)
		if err != nil {
			return nil, nil, err
		}
		ft, ok := fnType.(*TFunc)
		if !ok {
			return nil, nil, newError(InvalidType, "'let rec' binding did not infer to a function type, got %s", fnType)
		}
		env2 := env1.AddEquation(alpha, ft.Domain).AddEquation(beta, ft.Range)

		scheme, err := generalize(rebind(env, env2), &TFunc{Domain: alpha, Range: beta})
		if err != nil {
			return nil, nil, err
		}
		bodyEnv := rebind(env, env2).Extend(e.Name, scheme)
		env3, bodyType, err := infer(bodyEnv, e.Body)
		if err != nil {
			return nil, nil, err
		}
		return env3, bodyType, nil

	case *ast.Cons:
		env1, carType, err := infer(env, e.Car)
		if err != nil {
			return nil, nil, err
		}
		env2, cdrType, err := infer(rebind(env, env1), e.Cdr)
		if err != nil {
			return nil, nil, err
		}
		result := rebind(env, env2).AddEquation(cdrType, &TList{Elem: carType})
		return result, cdrType, nil

	case *ast.Match:
		env1, scrType, err := infer(env, e.Scrutinee)
		if err != nil {
			return nil, nil, err
		}

		var elemType Type
		switch st := scrType.(type) {
		case *TList:
			elemType = st.Elem
		case *TVar:
			elemType = &TVar{Name: env.Gen().Next()}
			env1 = env1.AddEquation(scrType, &TList{Elem: elemType})
		default:
			return nil, nil, newError(InvalidType, "match scrutinee must be a list, got %s", scrType)
		}

		env2, nilType, err := infer(rebind(env, env1), e.NilCase)
		if err != nil {
			return nil, nil, err
		}

		consEnv := rebind(env, env2).
			Extend(e.HdName, Monomorphic(elemType)).
			Extend(e.TlName, Monomorphic(&TList{Elem: elemType}))
		env3, consType, err := infer(consEnv, e.ConsCase)
		if err != nil {
			return nil, nil, err
		}

		result := rebind(env, env3).AddEquation(nilType, consType)
		return result, nilType, nil

	default:
		return nil, nil, newError(InvalidType, "unsupported expression node %T", expr)
	}
}

// generalize solves env's currently accumulated equations to obtain a
// concrete representative for t, then quantifies over every variable free
// in that representative but not already free somewhere in env's
// bindings — the let/let-rec generalization step of spec.md §4.4/§4.6.
// Unification here is a peek: it reads env's store to resolve t without
// consuming or clearing it, since later siblings still need those
// equations solved at the top level.
func generalize(env *TypeEnv, t Type) (*TypeScheme, error) {
	sub, err := env.Store().Unify()
	if err != nil {
		return nil, fmt.Errorf("generalize: unification failed: %w", err)
	}
	concrete, err := Normalize(sub, t)
	if err != nil {
		return nil, err
	}
	candidates := freeVars(concrete)
	generalizable := env.FreeVariables(candidates)

	names := make([]string, 0, len(generalizable))
	for name := range generalizable {
		names = append(names, name)
	}
	sort.Strings(names)
	return Polymorphic(names, concrete), nil
}

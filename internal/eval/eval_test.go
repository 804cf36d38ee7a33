package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/picocaml/internal/ast"
	"github.com/sunholo/picocaml/internal/lexer"
	"github.com/sunholo/picocaml/internal/parser"
)

func mustParse(t *testing.T, src string) ast.Expr {
	t.Helper()
	expr, err := parser.ParseExpression(src)
	require.NoError(t, err)
	return expr
}

func evalSrc(t *testing.T, src string) Value {
	t.Helper()
	expr := mustParse(t, src)
	v, err := Eval(NewEnv(), expr)
	require.NoError(t, err)
	return v
}

func TestEvalArithmetic(t *testing.T) {
	v := evalSrc(t, "3 + 5 * 2")
	assert.Equal(t, &Int{Value: 13}, v)
}

func TestEvalLetBinding(t *testing.T) {
	v := evalSrc(t, "let x = 10 in x + 5")
	assert.Equal(t, &Int{Value: 15}, v)
}

func TestEvalIf(t *testing.T) {
	v := evalSrc(t, "if 1 < 2 then 20 else 99")
	assert.Equal(t, &Int{Value: 20}, v)
}

func TestEvalRecursiveFactorial(t *testing.T) {
	src := `let rec fact = fun n -> if n < 2 then 1 else n * fact (n - 1) in fact 5`
	v := evalSrc(t, src)
	assert.Equal(t, &Int{Value: 120}, v)
}

func TestEvalListMatch(t *testing.T) {
	src := `match 1 :: [] with [] -> 0 | hd :: tl -> hd`
	v := evalSrc(t, src)
	assert.Equal(t, &Int{Value: 1}, v)
}

func TestEvalMatchOnNil(t *testing.T) {
	v := evalSrc(t, "match [] with [] -> 42 | hd :: tl -> hd")
	assert.Equal(t, &Int{Value: 42}, v)
}

func TestEvalShadowing(t *testing.T) {
	v := evalSrc(t, "let x = 1 in let x = 2 in x")
	assert.Equal(t, &Int{Value: 2}, v)
}

func TestEvalDoesNotMutateInputEnvironment(t *testing.T) {
	env := NewEnv().Extend("x", &Int{Value: 1})
	expr := mustParse(t, "let x = 2 in x + 1")
	v, err := Eval(env, expr)
	require.NoError(t, err)
	assert.Equal(t, &Int{Value: 3}, v)

	back, err := env.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, &Int{Value: 1}, back, "evaluating a sub-expression must not leak bindings into the caller's environment")
}

func TestEvalClosureLexicalScoping(t *testing.T) {
	src := `let x = 1 in let f = fun y -> x + y in let x = 100 in f 10`
	v := evalSrc(t, src)
	assert.Equal(t, &Int{Value: 11}, v, "f must use the x captured when it was defined, not whatever x is in scope when f is called")
}

func TestEvalUndefinedVariable(t *testing.T) {
	_, err := Eval(NewEnv(), mustParse(t, "x"))
	require.Error(t, err)
	evalErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, UndefinedVariable, evalErr.Kind)
}

func TestClosureStringMatchesSpecFormat(t *testing.T) {
	v := evalSrc(t, "fun x -> x + 1")
	closure, ok := v.(*Closure)
	require.True(t, ok)
	assert.Equal(t, "fun x -> (...)", closure.String())
}

func TestRecClosureStringMatchesSpecFormat(t *testing.T) {
	src := `let rec fact = fun n -> if n < 2 then 1 else n * fact (n - 1) in fact`
	v := evalSrc(t, src)
	rec, ok := v.(*RecClosure)
	require.True(t, ok)
	assert.Equal(t, "rec fact = fun n -> (...)", rec.String())
}

func TestEvalApplyingNonFunctionFails(t *testing.T) {
	// An untyped application like this would never reach eval in a
	// type-checked program; this exercises eval's own defensive
	// invalid-expression path directly.
	_, err := Eval(NewEnv(), mustParse(t, "1 2"))
	require.Error(t, err)
	evalErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, InvalidExpression, evalErr.Kind)
}

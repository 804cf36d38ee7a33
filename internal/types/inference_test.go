package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/picocaml/internal/parser"
)

func inferSrc(t *testing.T, src string) Type {
	t.Helper()
	expr, err := parser.ParseExpression(src)
	require.NoError(t, err)
	_, ty, err := TypeInference(NewTypeEnv(NewCounterGenerator()), expr)
	require.NoError(t, err)
	return ty
}

func TestInferArithmetic(t *testing.T) {
	assert.Equal(t, "Int", inferSrc(t, "3 + 5 * 2").String())
}

func TestInferComparison(t *testing.T) {
	assert.Equal(t, "Bool", inferSrc(t, "1 < 2").String())
}

func TestInferIfBranchesMustAgree(t *testing.T) {
	assert.Equal(t, "Int", inferSrc(t, "if 1 < 2 then 3 else 4").String())

	_, err := parser.ParseExpression("if 1 < 2 then 3 else true")
	require.NoError(t, err)
	expr, _ := parser.ParseExpression("if 1 < 2 then 3 else true")
	_, _, err = TypeInference(NewTypeEnv(NewCounterGenerator()), expr)
	require.Error(t, err)
}

func TestInferIdentityIsPolymorphic(t *testing.T) {
	ty := inferSrc(t, "fun x -> x")
	fn, ok := ty.(*TFunc)
	require.True(t, ok)
	v1, ok := fn.Domain.(*TVar)
	require.True(t, ok)
	v2, ok := fn.Range.(*TVar)
	require.True(t, ok)
	assert.Equal(t, v1.Name, v2.Name)
}

func TestInferLetPolymorphism(t *testing.T) {
	// id is used at both Int->Int and Bool->Bool within the same let body;
	// this only type-checks if id's scheme was generalized at the let.
	src := "let id = fun x -> x in if id true then id 1 else id 2"
	assert.Equal(t, "Int", inferSrc(t, src).String())
}

func TestInferRecursiveFactorial(t *testing.T) {
	src := `let rec fact = fun n -> if n < 2 then 1 else n * fact (n - 1) in fact 5`
	assert.Equal(t, "Int", inferSrc(t, src).String())
}

func TestInferListOperations(t *testing.T) {
	assert.Equal(t, "[Int]", inferSrc(t, "1 :: 2 :: []").String())
	assert.Equal(t, "Int", inferSrc(t, "match 1 :: [] with [] -> 0 | hd :: tl -> hd").String())
}

func TestInferOccursCheckFailsOnSelfApplication(t *testing.T) {
	expr, err := parser.ParseExpression("fun x -> x x")
	require.NoError(t, err)
	_, _, err = TypeInference(NewTypeEnv(NewCounterGenerator()), expr)
	require.Error(t, err)
	// Unification failures reach the caller wrapped (fmt.Errorf("...: %w",
	// err)), per SPEC_FULL.md §7, so errors.As unwraps to the underlying
	// *Error instead of a direct type assertion.
	var typeErr *Error
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, CircularReference, typeErr.Kind)
}

func TestInferUndefinedVariable(t *testing.T) {
	expr, err := parser.ParseExpression("y")
	require.NoError(t, err)
	_, _, err = TypeInference(NewTypeEnv(NewCounterGenerator()), expr)
	require.Error(t, err)
	typeErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, UndefinedVariable, typeErr.Kind)
}

func TestInferLambdaParameterIsMonomorphic(t *testing.T) {
	// Inside fun x -> ..., x has a monomorphic type: using x at two
	// different types in the body must fail to unify.
	expr, err := parser.ParseExpression("fun x -> if x then x + 1 else 0")
	require.NoError(t, err)
	_, _, err = TypeInference(NewTypeEnv(NewCounterGenerator()), expr)
	require.Error(t, err)
}

func TestTypeInferenceWrapsUnificationFailure(t *testing.T) {
	expr, err := parser.ParseExpression("1 + true")
	require.NoError(t, err)
	_, _, err = TypeInference(NewTypeEnv(NewCounterGenerator()), expr)
	require.Error(t, err)

	var typeErr *Error
	require.True(t, errors.As(err, &typeErr), "TypeInference must wrap unification failures so errors.As can reach the underlying *Error")
	assert.Equal(t, UnificationImpossible, typeErr.Kind)
	assert.Contains(t, err.Error(), "unification failed")
}

func TestTypeInferencePersistsLetBindingForReplThreading(t *testing.T) {
	expr, err := parser.ParseExpression("let x = 5 in x")
	require.NoError(t, err)
	env2, _, err := TypeInference(NewTypeEnv(NewCounterGenerator()), expr)
	require.NoError(t, err)
	ty, err := env2.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, "Int", ty.String())
}

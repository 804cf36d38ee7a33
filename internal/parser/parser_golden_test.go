package parser

import "testing"

func TestGoldenArithPrecedence(t *testing.T) {
	expr, err := ParseExpression("1 + 2 * 3")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	goldenCompare(t, "arith_precedence", expr.String())
}

func TestGoldenIfThenElse(t *testing.T) {
	expr, err := ParseExpression("if true then 1 else 2")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	goldenCompare(t, "if_then_else", expr.String())
}

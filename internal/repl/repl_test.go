package repl

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestProcessExpressionPrintsTypeAndValue(t *testing.T) {
	r := New()
	var buf bytes.Buffer
	r.ProcessExpression("3 + 5 * 2", &buf)
	out := buf.String()
	assert.Contains(t, out, "Int")
	assert.Contains(t, out, "13")
}

func TestProcessExpressionPersistsLetBindingAcrossTurns(t *testing.T) {
	r := New()
	var buf bytes.Buffer
	r.ProcessExpression("let x = 10 in x", &buf)
	buf.Reset()
	r.ProcessExpression("x + 5", &buf)
	assert.Contains(t, buf.String(), "15")
}

func TestProcessExpressionPersistsLetRecAcrossTurns(t *testing.T) {
	r := New()
	var buf bytes.Buffer
	r.ProcessExpression("let rec fact = fun n -> if n < 2 then 1 else n * fact (n - 1) in fact 3", &buf)
	buf.Reset()
	r.ProcessExpression("fact 5", &buf)
	assert.Contains(t, buf.String(), "120")
}

func TestProcessExpressionSurfacesTypeErrors(t *testing.T) {
	r := New()
	var buf bytes.Buffer
	r.ProcessExpression("1 + true", &buf)
	assert.Contains(t, buf.String(), "Type error")
}

func TestProcessExpressionSurfacesParseErrors(t *testing.T) {
	r := New()
	var buf bytes.Buffer
	r.ProcessExpression("let x =", &buf)
	assert.Contains(t, buf.String(), "Parse error")
}

func TestResetDiscardsBindings(t *testing.T) {
	r := New()
	var buf bytes.Buffer
	r.ProcessExpression("let x = 1 in x", &buf)
	r.Reset()
	buf.Reset()
	r.ProcessExpression("x", &buf)
	assert.Contains(t, buf.String(), "Type error")
}

func TestHandleCommandType(t *testing.T) {
	r := New()
	var buf bytes.Buffer
	r.HandleCommand(":type fun x -> x", &buf)
	assert.Contains(t, buf.String(), "->")
}

func TestHandleCommandEnvListsPersistedBindings(t *testing.T) {
	r := New()
	var buf bytes.Buffer
	r.ProcessExpression("let answer = 42 in answer", &buf)
	buf.Reset()
	r.HandleCommand(":env", &buf)
	assert.True(t, strings.Contains(buf.String(), "answer"))
}

func TestHandleCommandHistory(t *testing.T) {
	r := New()
	var buf bytes.Buffer
	r.recordHistory("1 + 1")
	r.HandleCommand(":history", &buf)
	assert.Contains(t, buf.String(), "1 + 1")
}

func TestHandleCommandHistoryShowsRelativeTimestamp(t *testing.T) {
	r := New()
	var buf bytes.Buffer
	r.recordHistory("1 + 1")
	r.history[0].at = r.history[0].at.Add(-time.Hour)
	r.HandleCommand(":history", &buf)
	assert.Contains(t, buf.String(), "ago")
}

func TestHandleCommandTypeVerboseShowsEquations(t *testing.T) {
	// "1 + 2" alone resolves to no type variable, so its equation store
	// solves to nothing printable; "fun x -> x + 1" forces x's fresh type
	// variable to be equated with Int, which does show up.
	r := NewWithConfig(&Config{Verbose: true}, "", "")
	var buf bytes.Buffer
	r.HandleCommand(":type fun x -> x + 1", &buf)
	assert.Contains(t, buf.String(), "equation:")
}

func TestHandleCommandTypeNonVerboseHidesEquations(t *testing.T) {
	r := NewWithConfig(&Config{Verbose: false}, "", "")
	var buf bytes.Buffer
	r.HandleCommand(":type fun x -> x + 1", &buf)
	assert.NotContains(t, buf.String(), "equation:")
}

func TestGetPromptUsesConfiguredPrompt(t *testing.T) {
	r := NewWithConfig(&Config{Prompt: "pc# "}, "", "")
	assert.Equal(t, "pc# ", r.getPrompt())
}

func TestGetPromptDefaultsWhenUnconfigured(t *testing.T) {
	r := New()
	assert.Equal(t, "picocaml> ", r.getPrompt())
}

func TestApplyConfigDisablesColor(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()

	color.NoColor = false
	r := NewWithConfig(&Config{NoColor: true}, "", "")
	r.applyConfig()
	assert.True(t, color.NoColor)
}

func TestFormatValueClosure(t *testing.T) {
	r := New()
	var buf bytes.Buffer
	r.ProcessExpression("fun x -> x + 1", &buf)
	assert.Contains(t, buf.String(), "fun x -> (...)")
}

func TestFormatValueRecClosure(t *testing.T) {
	r := New()
	var buf bytes.Buffer
	r.ProcessExpression("let rec fact = fun n -> if n < 2 then 1 else n * fact (n - 1) in fact", &buf)
	assert.Contains(t, buf.String(), "rec fact = fun n -> (...)")
}

func TestFormatValueList(t *testing.T) {
	r := New()
	var buf bytes.Buffer
	r.ProcessExpression("1 :: 2 :: []", &buf)
	assert.Contains(t, buf.String(), "1 :: 2 :: []")
}

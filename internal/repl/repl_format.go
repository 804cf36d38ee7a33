package repl

import (
	"strings"

	"golang.org/x/text/message"

	"github.com/sunholo/picocaml/internal/eval"
)

var printer = message.NewPrinter(message.MatchLanguage("en"))

// formatValue renders a runtime Value the way the REPL prints results:
// integers get locale-aware digit grouping via golang.org/x/text/message,
// lists print as `car :: cdr`, and closures print per spec.md §6's literal
// `fun <param> -> (...)` / `rec <self> = fun <param> -> (...)` forms, via
// Value's own String().
func formatValue(v eval.Value) string {
	switch val := v.(type) {
	case *eval.Int:
		return printer.Sprintf("%d", val.Value)
	case *eval.Bool:
		return val.String()
	case *eval.Nil:
		return "[]"
	case *eval.Cons:
		return formatList(val)
	default:
		return v.String()
	}
}

func formatList(c *eval.Cons) string {
	var b strings.Builder
	b.WriteString(formatValue(c.Car))
	b.WriteString(" :: ")

	switch cdr := c.Cdr.(type) {
	case *eval.Nil:
		b.WriteString("[]")
	case *eval.Cons:
		b.WriteString(formatList(cdr))
	default:
		b.WriteString(formatValue(c.Cdr))
	}
	return b.String()
}

package repl

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/sunholo/picocaml/internal/parser"
	"github.com/sunholo/picocaml/internal/types"
)

var commandNames = []string{":help", ":quit", ":q", ":type", ":env", ":history", ":reset", ":load"}

// HandleCommand dispatches a `:`-prefixed REPL command.
func (r *REPL) HandleCommand(cmd string, out io.Writer) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case ":help", ":h":
		r.printHelp(out)

	case ":type", ":t":
		if len(parts) < 2 {
			fmt.Fprintln(out, "Usage: :type <expression>")
			return
		}
		r.showType(strings.Join(parts[1:], " "), out)

	case ":env", ":e":
		r.printEnv(out)

	case ":history":
		r.printHistory(out)

	case ":reset":
		r.Reset()
		fmt.Fprintln(out, yellow("Environment reset"))

	case ":load", ":l":
		if len(parts) < 2 {
			fmt.Fprintln(out, "Usage: :load <file>")
			return
		}
		if err := r.LoadFile(parts[1], out); err != nil {
			fmt.Fprintf(out, "%s %v\n", red("Error:"), err)
		}

	default:
		fmt.Fprintf(out, "%s unknown command %s (try :help)\n", red("Error:"), parts[0])
	}
}

func (r *REPL) printHelp(out io.Writer) {
	fmt.Fprintln(out, bold("picocaml REPL commands"))
	fmt.Fprintf(out, "  %s              Show this help\n", cyan(":help"))
	fmt.Fprintf(out, "  %s, %s         Exit the REPL\n", cyan(":quit"), cyan(":q"))
	fmt.Fprintf(out, "  %s <expr>      Show an expression's inferred type without evaluating it\n", cyan(":type"))
	fmt.Fprintf(out, "  %s              List every name currently bound, with its type\n", cyan(":env"))
	fmt.Fprintf(out, "  %s          Show this session's input history\n", cyan(":history"))
	fmt.Fprintf(out, "  %s             Discard all bindings accumulated this session\n", cyan(":reset"))
	fmt.Fprintf(out, "  %s <file>      Evaluate each line of file as a top-level expression\n", cyan(":load"))
}

func (r *REPL) showType(input string, out io.Writer) {
	expr, err := parser.ParseExpression(input)
	if err != nil {
		fmt.Fprintf(out, "%s %v\n", red("Parse error:"), err)
		return
	}
	solvedEnv, ty, err := types.TypeInference(r.typeEnv, expr)
	if err != nil {
		fmt.Fprintf(out, "%s %v\n", red("Type error:"), err)
		if r.config.Verbose {
			var typeErr *types.Error
			if errors.As(err, &typeErr) {
				fmt.Fprintf(out, "  %s %s\n", dim("kind:"), typeErr.Kind)
			}
		}
		return
	}
	fmt.Fprintf(out, "%s : %s\n", input, cyan(ty.String()))
	if r.config.Verbose {
		for _, eq := range solvedEnv.Store().Equations() {
			fmt.Fprintf(out, "  %s %s = %s\n", dim("equation:"), eq.T1, eq.T2)
		}
	}
}

func (r *REPL) printEnv(out io.Writer) {
	bindings := r.typeEnv.Bindings()
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		fmt.Fprintln(out, dim("(empty environment)"))
		return
	}
	for _, name := range names {
		fmt.Fprintf(out, "  %s : %s\n", name, bindings[name].String())
	}
}

func (r *REPL) printHistory(out io.Writer) {
	if len(r.history) == 0 {
		fmt.Fprintln(out, dim("(no history yet)"))
		return
	}
	for i, entry := range r.history {
		fmt.Fprintf(out, "  %3d  %s  %s\n", i+1, dim(humanize.Time(entry.at)), entry.input)
	}
}

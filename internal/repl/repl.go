// Package repl implements the interactive read-eval-print loop described in
// spec.md §6: a top-level loop that parses one expression per turn, runs
// type inference, evaluates it, and prints both the type and the value,
// persisting let/let-rec bindings across turns.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/sunholo/picocaml/internal/ast"
	"github.com/sunholo/picocaml/internal/eval"
	"github.com/sunholo/picocaml/internal/parser"
	"github.com/sunholo/picocaml/internal/types"
)

// historyEntry is one past input line, timestamped at the moment it was
// submitted so :history can show a human-relative age via
// github.com/dustin/go-humanize.
type historyEntry struct {
	input string
	at    time.Time
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

func init() {
	// Color is turned off whenever the process's stdout is not a terminal.
	// The io.Writer passed to Start or ProcessExpression is not inspected.
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// Config holds REPL behavior toggles, loadable from ~/.picocamlrc.yaml via
// LoadConfig.
type Config struct {
	// Verbose makes :type also print the solved equation store on
	// success and the failing error's Kind on failure.
	Verbose bool `yaml:"verbose"`
	// SymbolKind selects the type-variable name generator ("uuid" for
	// UUIDGenerator, anything else for the default CounterGenerator).
	SymbolKind string `yaml:"symbol_generator"`
	// Prompt overrides the default "picocaml> " prompt string.
	Prompt string `yaml:"prompt"`
	// NoColor disables fatih/color output regardless of terminal detection.
	NoColor bool `yaml:"no_color"`
	// NoHistory disables liner's persistent cross-session history file.
	NoHistory bool `yaml:"no_history"`
}

// REPL is a read-eval-print loop over one accumulated evaluation
// environment and one accumulated type environment.
type REPL struct {
	config    *Config
	env       *eval.Env
	typeEnv   *types.TypeEnv
	history   []historyEntry
	version   string
	buildTime string
}

// New creates a REPL with default configuration.
func New() *REPL {
	return NewWithVersion("", "")
}

// NewWithVersion creates a REPL carrying version/build-time strings for the
// welcome banner (set via main's -ldflags, matching the teacher's
// pattern).
func NewWithVersion(version, buildTime string) *REPL {
	return NewWithConfig(&Config{}, version, buildTime)
}

// NewWithConfig creates a REPL with an explicit Config (see LoadConfig).
func NewWithConfig(cfg *Config, version, buildTime string) *REPL {
	if version == "" {
		version = "dev"
	}
	if buildTime == "" {
		buildTime = "unknown"
	}
	gen := symbolGeneratorFor(cfg.SymbolKind)
	return &REPL{
		config:    cfg,
		env:       eval.NewEnv(),
		typeEnv:   types.NewTypeEnv(gen),
		history:   []historyEntry{},
		version:   version,
		buildTime: buildTime,
	}
}

func symbolGeneratorFor(kind string) types.SymbolGenerator {
	if kind == "uuid" {
		return types.NewUUIDGenerator()
	}
	return types.NewCounterGenerator()
}

// getPrompt returns the configured prompt string, falling back to
// picocaml's default when ~/.picocamlrc.yaml does not set one.
func (r *REPL) getPrompt() string {
	if r.config != nil && r.config.Prompt != "" {
		return r.config.Prompt
	}
	return "picocaml> "
}

// applyConfig applies the process-wide and liner-level toggles read from
// ~/.picocamlrc.yaml before the loop starts.
func (r *REPL) applyConfig() {
	if r.config != nil && r.config.NoColor {
		color.NoColor = true
	}
}

// Start runs the REPL loop. Input lines are read through liner (history and
// editing), which reads the process's standard input directly; in is not
// read. Results and messages are written to out.
func (r *REPL) Start(in io.Reader, out io.Writer) {
	r.applyConfig()

	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(true)

	historyFile := filepath.Join(os.TempDir(), ".picocaml_history")
	if r.config == nil || !r.config.NoHistory {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Fprintf(out, "%s %s\n", bold("picocaml"), bold(r.version))
	fmt.Fprintln(out, dim("Type :help for help, :quit to exit"))
	fmt.Fprintln(out)

	line.SetCompleter(func(input string) (c []string) {
		if !strings.HasPrefix(input, ":") {
			return nil
		}
		for _, cmd := range commandNames {
			if strings.HasPrefix(cmd, input) {
				c = append(c, cmd)
			}
		}
		return c
	})

	for {
		input, err := line.Prompt(r.getPrompt())
		if err == io.EOF {
			fmt.Fprintln(out, green("\nGoodbye!"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		// `let`/`let rec` bindings are syntactically required to carry an
		// `in body`; a line ending in `in` (such as `let x = 5 in`) is
		// continued on the next line. A line without a trailing `in` is
		// processed as it is.
		for needsContinuation(input) {
			cont, err := line.Prompt("...      ")
			if err == io.EOF {
				fmt.Fprintln(out, red("\nIncomplete expression"))
				input = ""
				break
			}
			if err != nil {
				fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
				input = ""
				break
			}
			input += "\n" + cont
		}
		if input == "" {
			continue
		}

		if r.config == nil || !r.config.NoHistory {
			line.AppendHistory(input)
		}
		r.recordHistory(input)

		if strings.HasPrefix(input, ":") {
			if shouldQuit(input) {
				fmt.Fprintln(out, green("Goodbye!"))
				break
			}
			r.HandleCommand(input, out)
			continue
		}

		r.ProcessExpression(input, out)
	}

	if r.config == nil || !r.config.NoHistory {
		if f, err := os.Create(historyFile); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}
}

// recordHistory appends input to the session's :history log, timestamped
// for humanize's relative-time display.
func (r *REPL) recordHistory(input string) {
	r.history = append(r.history, historyEntry{input: input, at: time.Now()})
}

func shouldQuit(input string) bool {
	return strings.HasPrefix(input, ":quit") || strings.HasPrefix(input, ":q")
}

func needsContinuation(input string) bool {
	return strings.HasSuffix(input, " in") || strings.HasSuffix(input, "\tin")
}

// ProcessExpression parses, type-infers, and evaluates one top-level
// expression, printing its type and value to out.
//
// let/let rec at the top level behave specially: in addition to printing
// the whole expression's result, the bound name is evaluated and typed
// once more on its own and folded permanently into r.env/r.typeEnv, so the
// next turn can refer to it — this is the REPL-level mechanism spec.md §6
// describes as "threading bindings across turns" (see DESIGN.md's Open
// Question log: Eval never leaks a sub-expression's local bindings past its
// own lexical scope, and the environment TypeInference returns for the
// whole expression is discarded here).
func (r *REPL) ProcessExpression(input string, out io.Writer) {
	expr, err := parser.ParseExpression(input)
	if err != nil {
		fmt.Fprintf(out, "%s %v\n", red("Parse error:"), err)
		return
	}

	_, ty, err := types.TypeInference(r.typeEnv, expr)
	if err != nil {
		fmt.Fprintf(out, "%s %v\n", red("Type error:"), err)
		return
	}

	value, err := eval.Eval(r.env, expr)
	if err != nil {
		fmt.Fprintf(out, "%s %v\n", red("Runtime error:"), err)
		return
	}

	fmt.Fprintf(out, "%s %s\n", dim("Type:"), cyan(ty.String()))
	fmt.Fprintf(out, "%s %s\n", dim("Value:"), formatValue(value))

	r.bindTopLevel(expr)
}

// bindTopLevel extends r.env/r.typeEnv with the name introduced by a
// top-level let/let rec, evaluating and typing the bound expression once
// more in isolation. A plain expression leaves both environments
// untouched.
func (r *REPL) bindTopLevel(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Let:
		r.bindName(e.Name, e.Bound)
	case *ast.LetRec:
		r.bindRecName(e.Name, e.Fn)
	}
}

func (r *REPL) bindName(name string, bound ast.Expr) {
	typeEnv2, ty, err := types.TypeInference(r.typeEnv, bound)
	if err != nil {
		return
	}
	value, err := eval.Eval(r.env, bound)
	if err != nil {
		return
	}
	r.typeEnv = typeEnv2.Extend(name, types.Monomorphic(ty))
	r.env = r.env.Extend(name, value)
}

func (r *REPL) bindRecName(name string, fn *ast.Fun) {
	letrec := &ast.LetRec{Name: name, Fn: fn, Body: &ast.Var{Name: name}}
	typeEnv2, ty, err := types.TypeInference(r.typeEnv, letrec)
	if err != nil {
		return
	}
	value, err := eval.Eval(r.env, letrec)
	if err != nil {
		return
	}
	r.typeEnv = typeEnv2.Extend(name, types.Monomorphic(ty))
	r.env = r.env.Extend(name, value)
}

// Reset discards every persisted binding, returning the REPL to its
// freshly-constructed state.
func (r *REPL) Reset() {
	r.env = eval.NewEnv()
	r.typeEnv = types.NewTypeEnv(symbolGeneratorFor(r.config.SymbolKind))
}

// LoadFile parses, type-checks, and evaluates each top-level expression in
// path's contents, one per non-blank line (lines starting with '#' are
// skipped), exactly like ProcessExpression
// at the prompt. Used by :load and the `picocaml run` CLI subcommand.
func (r *REPL) LoadFile(path string, out io.Writer) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Loaded %s (%s)\n", dim("→"), path, humanize.Bytes(uint64(len(content))))
	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		r.ProcessExpression(trimmed, out)
	}
	return nil
}

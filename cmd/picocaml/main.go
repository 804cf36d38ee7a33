package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	semver "github.com/Masterminds/semver/v3"
	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"

	"github.com/sunholo/picocaml/internal/repl"
)

// Version info, set by -ldflags during release builds.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	red  = color.New(color.FgRed).SprintFunc()
	cyan = color.New(color.FgCyan).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		versionFlag = flag.Bool("version", false, "Print version information")
		helpFlag    = flag.Bool("help", false, "Show help")
		watchFlag   = flag.Bool("watch", false, "Re-run the given file whenever it changes (with 'run')")
	)
	flag.Parse()

	if *versionFlag {
		printVersion()
		return
	}
	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	switch command := flag.Arg(0); command {
	case "repl":
		runREPL()
	case "run":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing file argument\n", red("Error"))
			fmt.Println("Usage: picocaml run <file.pcml>")
			os.Exit(1)
		}
		if *watchFlag {
			watchAndRun(flag.Arg(1))
		} else {
			runFile(flag.Arg(1))
		}
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command '%s'\n", red("Error"), command)
		printHelp()
		os.Exit(1)
	}
}

func printVersion() {
	v, err := semver.NewVersion(normalizeVersion(Version))
	if err != nil {
		fmt.Printf("picocaml %s\n", bold(Version))
	} else {
		fmt.Printf("picocaml %s\n", bold(v.String()))
	}
	if Commit != "unknown" {
		fmt.Printf("Commit: %s\n", Commit)
	}
	if BuildTime != "unknown" {
		fmt.Printf("Built:  %s\n", BuildTime)
	}
}

// normalizeVersion tolerates a bare "dev" build tag, which is not valid
// semver, by mapping it to 0.0.0-dev so printVersion can still exercise
// Masterminds/semver's parser on real release builds.
func normalizeVersion(v string) string {
	if v == "dev" {
		return "0.0.0-dev"
	}
	return v
}

func printHelp() {
	fmt.Println(bold("picocaml - a small ML-family expression language"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  picocaml <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %s              Start the interactive REPL\n", cyan("repl"))
	fmt.Printf("  %s <file>        Evaluate each line of file as a top-level expression\n", cyan("run"))
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --version        Print version information")
	fmt.Println("  --help           Show this help message")
	fmt.Println("  --watch          With 'run', re-run whenever the file changes")
}

func runREPL() {
	cfg, err := repl.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: reading ~/.picocamlrc.yaml: %v\n", red("Error"), err)
		os.Exit(1)
	}
	r := repl.NewWithConfig(cfg, Version, BuildTime)
	r.Start(bufio.NewReader(os.Stdin), os.Stdout)
}

func runFile(path string) {
	cfg, err := repl.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: reading ~/.picocamlrc.yaml: %v\n", red("Error"), err)
		os.Exit(1)
	}
	r := repl.NewWithConfig(cfg, Version, BuildTime)
	if err := r.LoadFile(path, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read file '%s': %v\n", red("Error"), path, err)
		os.Exit(1)
	}
}

// watchAndRun runs path once, then re-runs it on every write, using
// fsnotify to block between runs instead of polling.
func watchAndRun(path string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	fmt.Printf("%s watching %s for changes (Ctrl+C to stop)\n", cyan("→"), path)
	runFile(path)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				fmt.Printf("\n%s %s changed, re-running\n", cyan("→"), path)
				runFile(path)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("watch error"), err)
		}
	}
}

// Command lumen is the driver CLI: a REPL with no arguments, or a
// single-file interpreter with one. Its argument handling and REPL loop
// are grounded on kristofer/smog's cmd/smog/main.go, trimmed to the external
// interface lumen actually exposes: no bytecode-file compile/disassemble
// subcommands, since lumen's bytecode is ephemeral and never serialized.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/kristofer/lumen/internal/compiler"
	"github.com/kristofer/lumen/internal/vm"
)

const (
	exitSuccess     = 0
	exitUsageError  = 64
	exitCompileErr  = 65
	exitRuntimeErr  = 70
	exitIOErr       = 74
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	trace := os.Getenv("LUMEN_TRACE") == "1"

	switch len(args) {
	case 0:
		runREPL(trace)
		return exitSuccess
	case 1:
		return runFile(args[0], trace)
	default:
		fmt.Fprintln(os.Stderr, "Usage: lumen [path]")
		return exitUsageError
	}
}

func runFile(path string, trace bool) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		return exitIOErr
	}

	machine := vm.New(os.Stdout, trace)
	if err := machine.Interpret(string(source)); err != nil {
		return reportError(err)
	}
	return exitSuccess
}

func runREPL(trace bool) {
	fmt.Println("lumen")
	machine := vm.New(os.Stdout, trace)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := machine.Interpret(line); err != nil {
			reportError(err)
		}
	}
}

// reportError prints a compile or runtime error to stderr and returns the
// matching exit code; it's the one place that tells the two kinds of
// failure apart, by type rather than by string-sniffing.
func reportError(err error) int {
	switch err.(type) {
	case compiler.Errors:
		fmt.Fprintln(os.Stderr, err)
		return exitCompileErr
	case *vm.RuntimeError:
		fmt.Fprintln(os.Stderr, err)
		return exitRuntimeErr
	default:
		fmt.Fprintln(os.Stderr, err)
		return exitRuntimeErr
	}
}

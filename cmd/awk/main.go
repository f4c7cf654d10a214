// Command awk is the CLI front end: parse arguments, compile the given
// program text, and run it against each input line. Arguments are
// scanned by hand rather than through the flag package: -f must be
// repeatable with concatenating semantics, -F needs the bundled "-Fsep"
// form, and nothing outside this closed flag set should be accepted.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"awkvm/internal/bytecode"
	"awkvm/internal/compiler"
	"awkvm/internal/disasm"
	awkerrors "awkvm/internal/errors"
	"awkvm/internal/scanner"
	"awkvm/internal/token"
	"awkvm/internal/vm"
)

const versionString = "awk 0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

type options struct {
	fieldSep    string
	fieldSepSet bool // -F given, even with an empty value (split per character)
	progFiles   []string
	progText    string
	dump        bool
	quick       bool // -q: run the program once with no input record
	eval        bool // -k: run the program once against a single input line
	files       []string
}

func run(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		errorExit(err.Error())
		return 2
	}

	if opts.progText == "" && len(opts.progFiles) == 0 {
		// No program is not an error: print version and usage.
		fmt.Println(versionString)
		printUsage()
		return 0
	}

	source, err := loadProgram(opts)
	if err != nil {
		errorExit(err.Error())
		return 2
	}

	tokens := scanner.New(source).Scan()
	for _, tok := range tokens {
		if tok.Kind == token.Error {
			fmt.Fprintf(os.Stderr, "awk: %d:%d: %s\n", tok.Line, tok.Column, tok.Lexeme)
			return 2
		}
	}

	chunk, ok, errs := compiler.Compile(tokens)
	if !ok {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, "awk: "+e.Error())
		}
		return 2
	}

	if opts.dump {
		disasm.Dump(os.Stdout, "program", chunk)
		return 0
	}

	return execute(opts, chunk)
}

// execute runs the compiled program against its input. A real terminal
// gets output flushed aggressively (small buffer) so interactive use sees
// results promptly; a pipe or redirected file gets one large buffer
// flushed at exit, matching how stdout buffering policy is usually chosen
// by TTY-ness (github.com/mattn/go-isatty).
func execute(opts options, chunk *bytecode.Chunk) int {
	var bufSize int
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		bufSize = 256
	} else {
		bufSize = 64 * 1024
	}
	out := bufio.NewWriterSize(os.Stdout, bufSize)
	defer out.Flush()

	machine := vm.New(chunk, out)
	if opts.fieldSepSet {
		machine.SetFieldSeparator(opts.fieldSep)
	}

	// -q runs the action once against an empty synthetic record
	// ($0 == "", NF == 0), then stops without touching stdin or any
	// data file.
	if opts.quick {
		if err := machine.RunRecord(""); err != nil {
			out.Flush()
			errorExit(err.Error())
			return 2
		}
		return 0
	}

	inputs := opts.files
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	for _, path := range inputs {
		stop, err := runFile(machine, path, opts.eval)
		if err != nil {
			out.Flush()
			errorExit(err.Error())
			return 2
		}
		if stop {
			break
		}
	}
	return 0
}

// runFile streams path one line at a time through machine. When oneShot
// is set (-k) it stops after the first record and reports stop=true so
// the caller doesn't open the next input file.
func runFile(machine *vm.VM, path string, oneShot bool) (stop bool, err error) {
	var f *os.File
	if path == "-" {
		f = os.Stdin
	} else {
		opened, openErr := os.Open(path)
		if openErr != nil {
			return false, openErr
		}
		defer opened.Close()
		f = opened
	}

	scan := bufio.NewScanner(f)
	scan.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	recno := 0
	for scan.Scan() {
		recno++
		if err := machine.RunRecord(scan.Text()); err != nil {
			return false, awkerrors.Causef(err, "record %d", recno)
		}
		if oneShot {
			return true, nil
		}
	}
	return false, scan.Err()
}

func parseArgs(args []string) (options, error) {
	var opts options
	i := 0
	for i < len(args) {
		a := args[i]
		switch {
		case a == "-F":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("-F requires an argument")
			}
			opts.fieldSep = args[i]
			opts.fieldSepSet = true
		case strings.HasPrefix(a, "-F") && len(a) > 2:
			opts.fieldSep = a[2:]
			opts.fieldSepSet = true
		case a == "-f":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("-f requires an argument")
			}
			opts.progFiles = append(opts.progFiles, args[i])
		case strings.HasPrefix(a, "-f") && len(a) > 2:
			opts.progFiles = append(opts.progFiles, a[2:])
		case a == "-d" || a == "--dump":
			opts.dump = true
		case a == "-q" || a == "--quick":
			opts.quick = true
		case a == "-k" || a == "--eval":
			opts.eval = true
		case a == "--":
			opts.files = append(opts.files, args[i+1:]...)
			return opts, nil
		case a == "-h" || a == "--help":
			printUsage()
			os.Exit(0)
		case len(a) > 1 && strings.HasPrefix(a, "-"):
			return opts, fmt.Errorf("unknown option %s", a)
		default:
			if opts.progText == "" && len(opts.progFiles) == 0 {
				opts.progText = a
			} else {
				opts.files = append(opts.files, a)
			}
		}
		i++
	}
	return opts, nil
}

func loadProgram(opts options) (string, error) {
	if len(opts.progFiles) == 0 {
		if opts.progText == "" {
			return "", fmt.Errorf("no program text given")
		}
		return opts.progText, nil
	}
	var parts []string
	for _, path := range opts.progFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		parts = append(parts, string(data))
	}
	return strings.Join(parts, "\n"), nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: awk [-F sep] [-f progfile | 'program'] [-q] [-k] [-d] [file ...]")
	fmt.Fprintln(os.Stderr, "  -F sep   field separator (default: whitespace)")
	fmt.Fprintln(os.Stderr, "  -f file  read program text from file (repeatable)")
	fmt.Fprintln(os.Stderr, "  -q       run once with no input record, then exit")
	fmt.Fprintln(os.Stderr, "  -k       run once against a single input line, then exit")
	fmt.Fprintln(os.Stderr, "  -d       disassemble the compiled program instead of running it")
}

func errorExit(msg string) {
	fmt.Fprintln(os.Stderr, "awk: "+msg)
}

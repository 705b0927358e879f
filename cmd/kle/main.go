// kle converts, formats, lints and fingerprints keyboard layouts in the
// compact KLE encoding.
//
// Usage:
//
//	kle convert [--from F] [--to F] [-o out] [file|-]
//	kle fmt [--raw] [-w] file...
//	kle lint [--lang en|ja] file...
//	kle hash [--raw] file...
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
)

// env carries the process surroundings so commands can run under test.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

// exitError carries a process exit status.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func (e *exitError) ExitCode() int { return e.code }

func usageErrorf(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	e := env{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr, getenv: os.Getenv}
	os.Exit(exitCode(run(ctx, os.Args[1:], e), e.stderr))
}

// exitCode reports err on stderr and maps it to a process status:
// 0 ok, 1 failure, 2 usage.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "error: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return 1
}

func run(ctx context.Context, args []string, e env) error {
	if len(args) < 1 {
		printUsage(e.stderr)
		return &exitError{code: 2}
	}
	switch args[0] {
	case "convert":
		return convertCmd(ctx, args[1:], e)
	case "fmt":
		return fmtCmd(ctx, args[1:], e)
	case "lint":
		return lintCmd(ctx, args[1:], e)
	case "hash":
		return hashCmd(ctx, args[1:], e)
	case "help", "-h", "--help":
		printUsage(e.stdout)
		return nil
	default:
		printUsage(e.stderr)
		return usageErrorf("unknown command %q", args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `kle - keyboard layout codec

Usage:
  kle convert [--from F] [--to F] [-o out] [file|-]
  kle fmt [--raw] [-w] file...
  kle lint [--lang en|ja] file...
  kle hash [--raw] file...

Formats: kle, kle-raw, json, yaml, cbor, cbor-zstd, cbor-lz4

Common flags: --config FILE (or $KLE_CONFIG), --log-level, --strict,
--max-depth, --max-bytes
`)
}

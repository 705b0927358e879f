package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	kle "github.com/reoring/kle"
	"github.com/reoring/kle/codec"
	"github.com/reoring/kle/i18n"
)

func newFlagSet(name string, e env) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return &exitError{code: 0}
		}
		return &exitError{code: 2, err: err}
	}
	return nil
}

func readInput(name string, e env) ([]byte, error) {
	if name == "" || name == "-" {
		data, err := io.ReadAll(e.stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// ---- convert ----

func convertCmd(ctx context.Context, args []string, e env) error {
	fs := newFlagSet("convert", e)
	load := commonFlags(fs, e)
	from := fs.String("from", "", "input format (guessed from the file name when empty)")
	to := fs.String("to", "kle", "output format")
	out := fs.StringP("output", "o", "", "output file (default stdout)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	cfg, err := load()
	if err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return usageErrorf("convert takes at most one input")
	}
	in := fs.Arg(0)
	logger := cfg.logger(e.stderr)

	if *from == "" {
		*from = guessFormat(in)
	}
	opt := cfg.parseOpt(logger, in)
	dec, err := formatCodec(*from, opt)
	if err != nil {
		return err
	}
	enc, err := formatCodec(*to, opt)
	if err != nil {
		return err
	}

	data, err := readInput(in, e)
	if err != nil {
		return err
	}
	result, err := kle.Transcode(ctx, dec, enc, data)
	if err != nil {
		return fmt.Errorf("converting %s: %w", describe(in), err)
	}
	if (*to == "kle" || *to == "kle-raw") && !bytes.HasSuffix(result, []byte("\n")) {
		result = append(result, '\n')
	}
	logger.Debug("converted", "from", *from, "to", *to, "in_bytes", len(data), "out_bytes", len(result))

	if *out == "" || *out == "-" {
		_, err = e.stdout.Write(result)
		return err
	}
	if err := os.WriteFile(*out, result, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	return nil
}

// ---- fmt ----

func fmtCmd(ctx context.Context, args []string, e env) error {
	fs := newFlagSet("fmt", e)
	load := commonFlags(fs, e)
	raw := fs.Bool("raw", false, "read and write the raw data form")
	write := fs.BoolP("write", "w", false, "write the result back to the source file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	cfg, err := load()
	if err != nil {
		return err
	}
	if fs.Changed("raw") {
		cfg.Raw = *raw
	}
	files := fs.Args()
	if len(files) == 0 {
		files = []string{"-"}
	}
	logger := cfg.logger(e.stderr)

	for _, name := range files {
		if *write && name == "-" {
			return usageErrorf("-w needs a file argument")
		}
		c := codec.Text(cfg.Raw, cfg.parseOpt(logger, name))
		data, err := readInput(name, e)
		if err != nil {
			return err
		}
		formatted, err := kle.Transcode(ctx, c, c, data)
		if err != nil {
			return fmt.Errorf("formatting %s: %w", describe(name), err)
		}
		formatted = append(formatted, '\n')
		if !*write {
			if _, err := e.stdout.Write(formatted); err != nil {
				return err
			}
			continue
		}
		if bytes.Equal(data, formatted) {
			continue
		}
		if err := os.WriteFile(name, formatted, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		logger.Info("formatted", "file", name)
	}
	return nil
}

// ---- lint ----

func lintCmd(ctx context.Context, args []string, e env) error {
	fs := newFlagSet("lint", e)
	load := commonFlags(fs, e)
	lang := fs.String("lang", "", "message language: en, ja")
	raw := fs.Bool("raw", false, "read the raw data form")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	cfg, err := load()
	if err != nil {
		return err
	}
	if fs.Changed("lang") {
		cfg.Lang = *lang
	}
	if fs.Changed("raw") {
		cfg.Raw = *raw
	}
	files := fs.Args()
	if len(files) == 0 {
		files = []string{"-"}
	}
	tr := i18n.ForLanguage(cfg.Lang)

	failed := false
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := readInput(name, e)
		if err != nil {
			return err
		}
		var found kle.Issues
		opt := kle.ParseOpt{
			MaxDepth: cfg.MaxDepth,
			MaxBytes: cfg.MaxBytes,
			Strictness: kle.Strictness{
				OnDuplicateKey: kle.Warn, OnUnknownField: kle.Warn, OnDroppedLegend: kle.Warn,
			},
			IssueSink: func(it kle.Issue) { found = append(found, it) },
		}
		if cfg.Raw {
			_, err = kle.ParseRaw(data, opt)
		} else {
			_, err = kle.Parse(data, opt)
		}
		if err != nil {
			failed = true
			iss, ok := kle.AsIssues(err)
			if !ok {
				return err
			}
			found = append(found, iss...)
		}
		if cfg.Strict && len(found) > 0 {
			failed = true
		}
		for _, it := range found {
			fmt.Fprintf(e.stdout, "%s:%s: %s: %s\n", displayName(name), it.Path, it.Code, lintMessage(tr, it))
		}
	}
	if failed {
		return &exitError{code: 1}
	}
	return nil
}

func lintMessage(tr i18n.Translator, it kle.Issue) string {
	msg := tr.Message(it.Code, nil)
	if it.Message != "" && it.Message != msg {
		msg += " (" + it.Message + ")"
	}
	return msg
}

func displayName(name string) string {
	if name == "" || name == "-" {
		return "<stdin>"
	}
	return name
}

// ---- hash ----

func hashCmd(ctx context.Context, args []string, e env) error {
	fs := newFlagSet("hash", e)
	load := commonFlags(fs, e)
	raw := fs.Bool("raw", false, "read the raw data form")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	cfg, err := load()
	if err != nil {
		return err
	}
	if fs.Changed("raw") {
		cfg.Raw = *raw
	}
	files := fs.Args()
	if len(files) == 0 {
		files = []string{"-"}
	}
	logger := cfg.logger(e.stderr)

	for _, name := range files {
		data, err := readInput(name, e)
		if err != nil {
			return err
		}
		kbd, err := codec.Text(cfg.Raw, cfg.parseOpt(logger, name)).Decode(ctx, data)
		if err != nil {
			return fmt.Errorf("hashing %s: %w", describe(name), err)
		}
		sum, err := kle.Fingerprint(kbd)
		if err != nil {
			return fmt.Errorf("hashing %s: %w", describe(name), err)
		}
		fmt.Fprintf(e.stdout, "%s  %s\n", sum, displayName(name))
	}
	return nil
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	stdout string
	stderr string
	code   int
}

func runCLI(t *testing.T, stdin string, vars map[string]string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	e := env{
		stdin:  strings.NewReader(stdin),
		stdout: &out,
		stderr: &errOut,
		getenv: func(k string) string { return vars[k] },
	}
	code := exitCode(run(context.Background(), args, e), &errOut)
	return result{stdout: out.String(), stderr: errOut.String(), code: code}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sample = `[{name:"demo"},["Esc",{x:1},"F1"]]`

func TestRun_Usage(t *testing.T) {
	r := runCLI(t, "", nil)
	assert.Equal(t, 2, r.code)
	assert.Contains(t, r.stderr, "Usage:")

	r = runCLI(t, "", nil, "help")
	assert.Equal(t, 0, r.code)
	assert.Contains(t, r.stdout, "kle convert")

	r = runCLI(t, "", nil, "bogus")
	assert.Equal(t, 2, r.code)
	assert.Contains(t, r.stderr, `unknown command "bogus"`)
}

func TestConvert_StdinToYAMLAndBack(t *testing.T) {
	r := runCLI(t, sample, nil, "convert", "--to", "yaml")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "name: demo")

	in := writeFile(t, "layout.yaml", r.stdout)
	r = runCLI(t, "", nil, "convert", in)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, `[{"name":"demo"},["Esc",{"x":1},"F1"]]`+"\n", r.stdout)
}

func TestConvert_OutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "layout.cbor.zst")
	r := runCLI(t, sample, nil, "convert", "--to", "cbor-zstd", "-o", out)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Empty(t, r.stdout)

	r = runCLI(t, "", nil, "convert", "--to", "kle-raw", out)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "{name:\"demo\"},\n[\"Esc\",{x:1},\"F1\"]\n", r.stdout)
}

func TestConvert_LZ4(t *testing.T) {
	out := filepath.Join(t.TempDir(), "layout.cbor.lz4")
	r := runCLI(t, sample, nil, "convert", "--to", "cbor-lz4", "-o", out)
	require.Equal(t, 0, r.code, r.stderr)
	r = runCLI(t, "", nil, "convert", out)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, `[{"name":"demo"},["Esc",{"x":1},"F1"]]`+"\n", r.stdout)
}

func TestConvert_Errors(t *testing.T) {
	r := runCLI(t, sample, nil, "convert", "--to", "xml")
	assert.Equal(t, 2, r.code)
	assert.Contains(t, r.stderr, `unknown format "xml"`)

	r = runCLI(t, `[["a",{r:1},"b"]]`, nil, "convert")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "rotation_placement at /0/1")

	r = runCLI(t, "", nil, "convert", "a", "b")
	assert.Equal(t, 2, r.code)

	r = runCLI(t, "", nil, "convert", "--nope")
	assert.Equal(t, 2, r.code)
}

func TestFmt_Stdout(t *testing.T) {
	r := runCLI(t, `[["B",{x:-2},"A"]]`, nil, "fmt")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, `[[{"x":-1},"A","B"]]`+"\n", r.stdout)
}

func TestFmt_Write(t *testing.T) {
	path := writeFile(t, "layout.json", sample)
	r := runCLI(t, "", nil, "fmt", "-w", path)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Empty(t, r.stdout)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"demo"},["Esc",{"x":1},"F1"]]`+"\n", string(data))

	r = runCLI(t, sample, nil, "fmt", "-w")
	assert.Equal(t, 2, r.code)
}

func TestFmt_StrictRejectsUnknownFields(t *testing.T) {
	src := `[[{q:1},"a"]]`
	r := runCLI(t, src, nil, "fmt")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stderr, "unknown key property")

	r = runCLI(t, src, nil, "fmt", "--strict")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "unknown_field at /0/0/q")
}

func TestLint(t *testing.T) {
	src := `[[{q:1},"a"]]`
	r := runCLI(t, src, nil, "lint")
	assert.Equal(t, 0, r.code)
	assert.Equal(t, "<stdin>:/0/0/q: unknown_field: unknown property (unknown key property \"q\")\n", r.stdout)

	r = runCLI(t, src, nil, "lint", "--strict")
	assert.Equal(t, 1, r.code)

	r = runCLI(t, `[[`, nil, "lint")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stdout, "parse_error")

	r = runCLI(t, `[["a"]]`, nil, "lint")
	assert.Equal(t, 0, r.code)
	assert.Empty(t, r.stdout)
}

func TestLint_Japanese(t *testing.T) {
	r := runCLI(t, `[[],{name:"x"}]`, nil, "lint", "--lang", "ja")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stdout, "metadata_placement")
	assert.Contains(t, r.stdout, "キーボードのメタデータは先頭要素でなければなりません")
}

func TestHash_IgnoresKeyOrder(t *testing.T) {
	a := runCLI(t, `[["A","B"]]`, nil, "hash")
	b := runCLI(t, `[[{x:1},"B",{x:-2},"A"]]`, nil, "hash")
	require.Equal(t, 0, a.code, a.stderr)
	require.Equal(t, 0, b.code, b.stderr)
	assert.Equal(t, a.stdout, b.stdout)
	assert.Regexp(t, `^[0-9a-f]{64}  <stdin>\n$`, a.stdout)
}

func TestConfig_FileAndFlags(t *testing.T) {
	cfg := writeFile(t, "kle.yaml", "strict: true\nlog_level: error\n")
	src := `[[{q:1},"a"]]`

	r := runCLI(t, src, map[string]string{"KLE_CONFIG": cfg}, "lint")
	assert.Equal(t, 1, r.code, "strict from $KLE_CONFIG")

	r = runCLI(t, src, nil, "lint", "--config", cfg, "--strict=false")
	assert.Equal(t, 0, r.code, "explicit flag wins over the file")

	bad := writeFile(t, "bad.yaml", "log_level: loud\n")
	r = runCLI(t, src, nil, "fmt", "--config", bad)
	assert.Equal(t, 2, r.code)
	assert.Contains(t, r.stderr, `invalid log level "loud"`)

	r = runCLI(t, src, nil, "fmt", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, 1, r.code)
}

func TestGuessFormat(t *testing.T) {
	cases := map[string]string{
		"a.json":     "kle",
		"a.kle":      "kle",
		"-":          "kle",
		"a.txt":      "kle-raw",
		"a.YAML":     "yaml",
		"a.yml":      "yaml",
		"a.cbor":     "cbor",
		"a.cbor.zst": "cbor-zstd",
		"a.cbor.lz4": "cbor-lz4",
	}
	for in, want := range cases {
		assert.Equal(t, want, guessFormat(in), in)
	}
}

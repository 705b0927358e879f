package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	kle "github.com/reoring/kle"
	"github.com/reoring/kle/codec"
)

// formats maps format names to byte codecs over the Keyboard model.
var formats = map[string]func(opt kle.ParseOpt) kle.Codec[[]byte, *kle.Keyboard]{
	"kle":       func(opt kle.ParseOpt) kle.Codec[[]byte, *kle.Keyboard] { return codec.Text(false, opt) },
	"kle-raw":   func(opt kle.ParseOpt) kle.Codec[[]byte, *kle.Keyboard] { return codec.Text(true, opt) },
	"json":      func(kle.ParseOpt) kle.Codec[[]byte, *kle.Keyboard] { return codec.JSON() },
	"yaml":      func(kle.ParseOpt) kle.Codec[[]byte, *kle.Keyboard] { return codec.YAML() },
	"cbor":      func(kle.ParseOpt) kle.Codec[[]byte, *kle.Keyboard] { return codec.CBOR(codec.Uncompressed) },
	"cbor-zstd": func(kle.ParseOpt) kle.Codec[[]byte, *kle.Keyboard] { return codec.CBOR(codec.Zstd) },
	"cbor-lz4":  func(kle.ParseOpt) kle.Codec[[]byte, *kle.Keyboard] { return codec.CBOR(codec.LZ4) },
}

func formatCodec(name string, opt kle.ParseOpt) (kle.Codec[[]byte, *kle.Keyboard], error) {
	mk, ok := formats[name]
	if !ok {
		return nil, usageErrorf("unknown format %q (want one of %s)", name, strings.Join(formatNames(), ", "))
	}
	return mk(opt), nil
}

func formatNames() []string {
	names := make([]string, 0, len(formats))
	for n := range formats {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// guessFormat picks an input format from a file name. Layout text is the
// fallback, since editors save it under arbitrary names.
func guessFormat(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zst"):
		return "cbor-zstd"
	case strings.HasSuffix(lower, ".lz4"):
		return "cbor-lz4"
	}
	switch filepath.Ext(lower) {
	case ".yaml", ".yml":
		return "yaml"
	case ".cbor":
		return "cbor"
	case ".txt", ".raw":
		return "kle-raw"
	}
	return "kle"
}

func describe(name string) string {
	if name == "" || name == "-" {
		return "<stdin>"
	}
	return fmt.Sprintf("%q", name)
}

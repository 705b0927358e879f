package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	kle "github.com/reoring/kle"
)

// config holds the settings shared by all commands. Values come from the
// YAML file named by --config or $KLE_CONFIG; flags given explicitly win.
type config struct {
	LogLevel string `yaml:"log_level"`
	Lang     string `yaml:"lang"`
	Strict   bool   `yaml:"strict"`
	MaxDepth int    `yaml:"max_depth"`
	MaxBytes int64  `yaml:"max_bytes"`
	Raw      bool   `yaml:"raw"`
}

func defaultConfig() config {
	return config{LogLevel: "warn", Lang: "en", MaxDepth: 64}
}

// commonFlags registers the shared flags on fs and returns a loader that
// resolves the final config after fs has been parsed.
func commonFlags(fs *pflag.FlagSet, e env) func() (config, error) {
	var path string
	flagCfg := defaultConfig()
	fs.StringVar(&path, "config", "", "YAML config file (default $KLE_CONFIG)")
	fs.StringVar(&flagCfg.LogLevel, "log-level", flagCfg.LogLevel, "log level: debug, info, warn, error")
	fs.BoolVar(&flagCfg.Strict, "strict", false, "treat unknown properties, dropped legends and duplicate keys as errors")
	fs.IntVar(&flagCfg.MaxDepth, "max-depth", flagCfg.MaxDepth, "maximum nesting depth of input (0 = unlimited)")
	fs.Int64Var(&flagCfg.MaxBytes, "max-bytes", 0, "maximum input size in bytes (0 = unlimited)")

	return func() (config, error) {
		cfg := defaultConfig()
		if path == "" {
			path = e.getenv("KLE_CONFIG")
		}
		if path != "" {
			loaded, err := loadConfig(path)
			if err != nil {
				return cfg, err
			}
			cfg = loaded
		}
		if fs.Changed("log-level") {
			cfg.LogLevel = flagCfg.LogLevel
		}
		if fs.Changed("strict") {
			cfg.Strict = flagCfg.Strict
		}
		if fs.Changed("max-depth") {
			cfg.MaxDepth = flagCfg.MaxDepth
		}
		if fs.Changed("max-bytes") {
			cfg.MaxBytes = flagCfg.MaxBytes
		}
		if _, err := parseLevel(cfg.LogLevel); err != nil {
			return cfg, &exitError{code: 2, err: err}
		}
		return cfg, nil
	}
}

// loadConfig reads a YAML config file over the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// logger builds the stderr text logger for cfg.
func (cfg config) logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(cfg.LogLevel)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// parseOpt maps cfg onto decoding options. Advisory issues are logged as
// warnings unless strict mode promotes them to errors.
func (cfg config) parseOpt(logger *slog.Logger, source string) kle.ParseOpt {
	sev := kle.Warn
	if cfg.Strict {
		sev = kle.Error
	}
	return kle.ParseOpt{
		Strictness: kle.Strictness{OnDuplicateKey: sev, OnUnknownField: sev, OnDroppedLegend: sev},
		MaxDepth:   cfg.MaxDepth,
		MaxBytes:   cfg.MaxBytes,
		IssueSink: func(it kle.Issue) {
			logger.Warn(it.Message, "source", source, "code", it.Code, "path", it.Path)
		},
	}
}

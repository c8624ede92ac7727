package logger

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

const (
	LevelTrace slog.Level = slog.LevelDebug - 4
	// levelNone is used to disable logging
	levelNone slog.Level = math.MaxInt

	FormatText    = "text"
	FormatJSON    = "json"
	FormatECS     = "ecs"
	FormatConsole = "console"
)

type LogConfiguration struct {
	Level      string `yaml:"defaultLevel"`
	Format     string `yaml:"format"`
	OutputPath string `yaml:"outputPath"`
	// Format string for timestamps, "none" to not show timestamps,
	// empty for handler default
	TimeFormat string `yaml:"timeFormat"`
	// Should the source (file and line) of the logging call be logged?
	ShowSource bool `yaml:"showSource"`

	writer io.Writer
}

/*
New creates slog.Logger based on the configuration.
*/
func New(cfg *LogConfiguration) (*slog.Logger, error) {
	if cfg.writer == nil {
		w, err := cfg.outputWriter()
		if err != nil {
			return nil, fmt.Errorf("creating log writer: %w", err)
		}
		cfg.writer = w
	}

	h, err := cfg.handler(cfg.writer)
	if err != nil {
		return nil, fmt.Errorf("creating log handler: %w", err)
	}
	return slog.New(h), nil
}

/*
NewWithWriter is like New but sends the output to "w" instead of
cfg.OutputPath.
*/
func NewWithWriter(cfg *LogConfiguration, w io.Writer) (*slog.Logger, error) {
	cfg.writer = w
	return New(cfg)
}

func (cfg *LogConfiguration) handler(out io.Writer) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		AddSource: cfg.ShowSource,
		Level:     cfg.logLevel(),
	}

	switch strings.ToLower(cfg.Format) {
	case FormatJSON:
		opts.ReplaceAttr = composeAttrFmt(formatTimeAttr(cfg.TimeFormat))
		return slog.NewJSONHandler(out, opts), nil
	case FormatECS:
		opts.ReplaceAttr = composeAttrFmt(formatTimeAttr(cfg.TimeFormat), formatAttrECS)
		return slog.NewJSONHandler(out, opts), nil
	case FormatText, "":
		opts.ReplaceAttr = composeAttrFmt(formatTimeAttr(cfg.TimeFormat), formatDataAttrAsJSON)
		return slog.NewTextHandler(out, opts), nil
	case FormatConsole:
		timeFormat := cfg.TimeFormat
		if timeFormat == "" || timeFormat == "none" {
			timeFormat = time.TimeOnly
		}
		return tint.NewHandler(out, &tint.Options{
			AddSource:   cfg.ShowSource,
			Level:       opts.Level,
			TimeFormat:  timeFormat,
			ReplaceAttr: composeAttrFmt(formatTimeAttr(noneOrEmpty(cfg.TimeFormat)), formatDataAttrAsJSON),
			NoColor:     !isTerminal(out),
		}), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

/*
logLevel converts the Level string of the configuration into slog.Level.
Unknown level names are treated as INFO.
*/
func (cfg *LogConfiguration) logLevel() slog.Level {
	if cfg.OutputPath == "discard" || cfg.OutputPath == os.DevNull {
		return levelNone
	}

	switch strings.ToUpper(cfg.Level) {
	case "":
		return slog.LevelInfo
	case "TRACE":
		return LevelTrace
	case "NONE":
		return levelNone
	case "WARNING":
		return slog.LevelWarn
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func (cfg *LogConfiguration) outputWriter() (io.Writer, error) {
	switch strings.ToLower(cfg.OutputPath) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	case "discard", os.DevNull:
		return io.Discard, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0700); err != nil {
		return nil, fmt.Errorf("creating directory for log file: %w", err)
	}
	f, err := os.OpenFile(cfg.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// noneOrEmpty keeps only the "none" time format, tint formats the time itself.
func noneOrEmpty(format string) string {
	if format == "none" {
		return format
	}
	return ""
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

package logger

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/peridotvault/icrc3-explorer/logger"
)

/*
New returns logger for test t on debug level. Output goes through t.Log so
it is shown only when the test fails (or -v flag is used).

Log level can be changed with EXPLORER_TEST_LOG_LEVEL environment variable.
*/
func New(t testing.TB) *slog.Logger {
	return NewLvl(t, level())
}

func NewLvl(t testing.TB, lvl slog.Level) *slog.Logger {
	cfg := &logger.LogConfiguration{
		Level:      lvl.String(),
		Format:     "text",
		TimeFormat: "15:04:05.0000",
	}
	log, err := logger.NewWithWriter(cfg, testLogWriter{t: t})
	if err != nil {
		t.Fatalf("creating test logger: %v", err)
	}
	return log
}

// NOP returns logger which discards everything.
func NOP() *slog.Logger {
	log, err := logger.New(&logger.LogConfiguration{OutputPath: "discard"})
	if err != nil {
		panic(err)
	}
	return log
}

func level() slog.Level {
	lvl := slog.LevelDebug
	if s := os.Getenv("EXPLORER_TEST_LOG_LEVEL"); s != "" {
		if err := lvl.UnmarshalText([]byte(s)); err != nil {
			lvl = slog.LevelDebug
		}
	}
	return lvl
}

type testLogWriter struct {
	t testing.TB
}

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

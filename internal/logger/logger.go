package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/natefinch/lumberjack"
)

// Options controls the logger's destination.
type Options struct {
	Env string

	// Writer overrides the default stdout destination. Ignored when FilePath is set.
	Writer io.Writer

	// FilePath enables a size-rotated log file.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New returns a slog.Logger configured based on the application environment.
func New(env string) *slog.Logger {
	return NewWithOptions(Options{Env: env})
}

// NewWithOptions builds a JSON slog.Logger writing to a rotating file, a custom writer or stdout.
func NewWithOptions(opts Options) *slog.Logger {
	handler := slog.NewJSONHandler(writerFor(opts), &slog.HandlerOptions{
		Level: parseLevel(opts.Env),
	})
	return slog.New(handler)
}

func writerFor(opts Options) io.Writer {
	if opts.FilePath != "" {
		return &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
	}
	if opts.Writer != nil {
		return opts.Writer
	}
	return defaultWriter()
}

func defaultWriter() io.Writer {
	return os.Stdout
}

func parseLevel(env string) slog.Level {
	switch env {
	case "production":
		return slog.LevelInfo
	case "staging":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

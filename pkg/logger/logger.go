package logger

import (
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Log глобальный логгер; до вызова Init пишет текст в stderr на уровне info
var Log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

// Config конфигурация логгера
type Config struct {
	Level      string
	Format     string // json, text
	Output     string // stdout, stderr, file
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// Init инициализирует логгер
func Init(level string) {
	InitWithConfig(Config{
		Level:  level,
		Format: "json",
		Output: "stdout",
	})
}

// InitWithConfig инициализирует логгер с полной конфигурацией
func InitWithConfig(cfg Config) {
	InitWithWriter(openWriter(cfg), cfg.Level, cfg.Format)
}

// InitWithWriter инициализирует логгер, пишущий в произвольный writer
func InitWithWriter(w io.Writer, level, format string) {
	Log = slog.New(newHandler(w, format, ParseLevel(level)))
}

// ParseLevel разбирает уровень логирования; неизвестные значения дают info
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openWriter(cfg Config) io.Writer {
	switch cfg.Output {
	case "stderr":
		return os.Stderr
	case "file":
		if cfg.FilePath == "" {
			cfg.FilePath = "logs/rcsp.log"
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return os.Stdout
		}
		// Ротация через lumberjack
		return &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	default:
		return os.Stdout
	}
}

func newHandler(w io.Writer, format string, lvl slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	switch format {
	case "text":
		return slog.NewTextHandler(w, opts)
	default:
		return slog.NewJSONHandler(w, opts)
	}
}

// WithRunID добавляет идентификатор запуска решателя
func WithRunID(runID string) *slog.Logger {
	return Log.With("run_id", runID)
}

// WithService добавляет имя сервиса
func WithService(service string) *slog.Logger {
	return Log.With("service", service)
}

// ProgressAttrs формирует атрибуты шага двойственного алгоритма.
// Бесконечные оценки выводятся строкой "inf", так как JSON их не поддерживает.
func ProgressAttrs(iteration int, phase, update string, lb, ub, gap float64, elapsed time.Duration) []any {
	return []any{
		slog.Int("iteration", iteration),
		slog.String("phase", phase),
		slog.String("update", update),
		slog.Group("bounds",
			boundAttr("lb", lb),
			boundAttr("ub", ub),
			boundAttr("gap", gap),
		),
		slog.Duration("elapsed", elapsed),
	}
}

func boundAttr(key string, v float64) slog.Attr {
	switch {
	case math.IsInf(v, 1) || v >= math.MaxFloat64:
		return slog.String(key, "inf")
	case math.IsInf(v, -1) || v <= -math.MaxFloat64:
		return slog.String(key, "-inf")
	default:
		return slog.Float64(key, v)
	}
}

// Debug логирует debug сообщение
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

// Info логирует info сообщение
func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

// Warn логирует warning сообщение
func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}

// Error логирует error сообщение
func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}

package log

// Logger is a structured, leveled logger.
type Logger interface {
	// Debug logs detail useful while diagnosing a single operation.
	Debug(msg string, keysAndValues ...any)
	// Info logs routine progress.
	Info(msg string, keysAndValues ...any)
	// Warn logs unexpected but recoverable situations.
	Warn(msg string, keysAndValues ...any)
	// Error logs failures of the current operation.
	Error(msg string, keysAndValues ...any)
	// Fatal logs unrecoverable failures.
	Fatal(msg string, keysAndValues ...any)
	// WithKV returns a logger that adds key/value to every entry.
	WithKV(key string, value any) Logger
	// GetAllKV returns the persistent key-value pairs.
	GetAllKV() []any
	// WithName returns a logger with name appended to its dotted name.
	WithName(name string) Logger
	// Name returns the logger name.
	Name() string
	// AddCallerSkip returns a logger that skips extra frames when reporting the caller.
	AddCallerSkip(skip int) Logger
}

// Level is the severity of an entry.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// Config configures NewZapLogger from the environment.
type Config struct {
	Format string `env:"LOG_FORMAT" env-default:"console"` // console, logfmt or json
	Level  Level  `env:"LOG_LEVEL" env-default:"info"`     // debug, info, warn, error, fatal
	Output string `env:"LOG_OUTPUT" env-default:"stderr"`  // stderr, stdout or file path
}

// SpanEventRecorder mirrors log entries onto a trace span.
type SpanEventRecorder interface {
	TraceID() string
	SpanID() string
	RecordEvent(name string, keysAndValues ...any)
	RecordError(name string, keysAndValues ...any)
}

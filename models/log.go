package models

type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogLine is one entry accumulated by the run log before it is flushed.
type LogLine struct {
	Level   LogLevel `json:"level"`
	Message string   `json:"message"`
}

package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/SamuelOrtizOspina/ALERTA-LINK/internal/interfaces"
)

// StdoutLogger is a tiny dependency-free logger used by tests and by code
// that runs before the real logger is wired up. It implements
// interfaces.Logger without pulling in zap, matching the teacher's original
// bootstrap logger.
type StdoutLogger struct {
	component string
}

// NewStdoutLogger creates a new simple StdoutLogger. component is optional and
// is written as the "component" key of every entry.
func NewStdoutLogger(component string) *StdoutLogger {
	return &StdoutLogger{component: component}
}

func (s *StdoutLogger) log(level string, msg string, fields ...interfaces.Field) {
	type outEntry struct {
		Level     string         `json:"level"`
		Msg       string         `json:"msg"`
		Component string         `json:"component,omitempty"`
		Time      string         `json:"time"`
		Fields    map[string]any `json:"fields,omitempty"`
	}
	m := make(map[string]any)
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	entry := outEntry{
		Level:     level,
		Msg:       msg,
		Component: s.component,
		Time:      time.Now().UTC().Format(time.RFC3339),
		Fields:    m,
	}
	enc, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stdout, "%s %s %v\n", level, msg, m)
		return
	}
	fmt.Fprintln(os.Stdout, string(enc))
}

func (s *StdoutLogger) Debug(msg string, fields ...interfaces.Field) { s.log("debug", msg, fields...) }
func (s *StdoutLogger) Info(msg string, fields ...interfaces.Field)  { s.log("info", msg, fields...) }
func (s *StdoutLogger) Warn(msg string, fields ...interfaces.Field)  { s.log("warn", msg, fields...) }
func (s *StdoutLogger) Error(msg string, fields ...interfaces.Field) { s.log("error", msg, fields...) }

// With returns a child logger. Of the given fields it keeps only a string
// "component" field, which replaces the component; all other fields are
// dropped and do not appear on the child's entries.
func (s *StdoutLogger) With(fields ...interfaces.Field) interfaces.Logger {
	child := &StdoutLogger{component: s.component}
	for _, f := range fields {
		if f.Key == "component" {
			if str, ok := f.Value.(string); ok {
				child.component = str
			}
		}
	}
	return child
}

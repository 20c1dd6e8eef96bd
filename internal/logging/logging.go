// Package logging writes structured JSON logs, one object per line to
// stdout, in the same shape the HTTP request logger uses.
package logging

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Logger emits JSON line logs for one component.
type Logger struct {
	mu        sync.Mutex
	enc       *json.Encoder
	component string
}

func New(component string) *Logger {
	return NewWithWriter(component, os.Stdout)
}

// NewWithWriter is used by tests to capture output.
func NewWithWriter(component string, w io.Writer) *Logger {
	return &Logger{enc: json.NewEncoder(w), component: component}
}

func (l *Logger) log(level, event string, fields map[string]any) {
	entry := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level,
		"component": l.component,
		"event":     event,
	}
	for k, v := range fields {
		entry[k] = v
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(entry)
}

func (l *Logger) Info(event string, fields map[string]any) {
	l.log("info", event, fields)
}

func (l *Logger) Error(event string, err error, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	l.log("error", event, fields)
}

package server

import (
	"fmt"
	"sync"
	"time"

	"raystats/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ConsoleLog is a bounded in-memory buffer of recent console messages,
// safe for concurrent appends from render workers while the web layer
// reads it.
type ConsoleLog struct {
	mu       sync.Mutex
	messages []ConsoleMessage
	capacity int
}

// NewConsoleLog creates a buffer keeping at most capacity messages
func NewConsoleLog(capacity int) *ConsoleLog {
	return &ConsoleLog{capacity: capacity}
}

// Append adds a message, dropping the oldest once the buffer is full
func (cl *ConsoleLog) Append(message string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.messages = append(cl.messages, ConsoleMessage{
		Message:   message,
		Timestamp: time.Now(),
	})
	if len(cl.messages) > cl.capacity {
		cl.messages = cl.messages[len(cl.messages)-cl.capacity:]
	}
}

// Messages returns a copy of the buffered messages, oldest first
func (cl *ConsoleLog) Messages() []ConsoleMessage {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	out := make([]ConsoleMessage, len(cl.messages))
	copy(out, cl.messages)
	return out
}

// ConsoleLogger implements core.Logger by recording into a ConsoleLog and
// forwarding to a base logger
type ConsoleLogger struct {
	console *ConsoleLog
	base    core.Logger
}

// NewConsoleLogger creates a logger feeding the given console buffer. base
// may be nil to only buffer.
func NewConsoleLogger(console *ConsoleLog, base core.Logger) core.Logger {
	return &ConsoleLogger{console: console, base: base}
}

// Printf implements core.Logger
func (cl *ConsoleLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	cl.console.Append(message)
	if cl.base != nil {
		cl.base.Printf("%s", message)
	}
}

package framework

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger is the minimal logging interface used by the engine for debug output.
type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

// NullLogger returns a Logger that discards everything.
func NullLogger() Logger { return nullLogger{} }

// ConsoleLogger returns a Logger that writes timestamped lines to the given writer.
func ConsoleLogger(w io.Writer, prefix string) Logger {
	return log.New(w, prefix, log.LstdFlags)
}

type prefixLogger struct {
	target Logger
	prefix string
}

func (p prefixLogger) Printf(message string, args ...interface{}) {
	p.target.Printf(p.prefix+message, args...)
}

// LoggerWithPrefix returns a Logger that adds a fixed prefix to every message.
func LoggerWithPrefix(target Logger, prefix string) Logger {
	if target == nil {
		return NullLogger()
	}
	return prefixLogger{target: target, prefix: prefix}
}

// CapturedMessage is one formatted message with the time it was logged.
type CapturedMessage struct {
	Time    time.Time
	Message string
}

// CapturedOutput is a snapshot of what a CapturingLogger has seen, oldest first.
type CapturedOutput []CapturedMessage

// CapturingLogger accumulates messages in memory. It is safe for concurrent use.
type CapturingLogger struct {
	output []CapturedMessage
	lock   sync.Mutex
}

// Printf formats and stores a message.
func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.lock.Lock()
	l.output = append(l.output, CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(message, args...)})
	l.lock.Unlock()
}

// Output returns a copy of the messages captured so far.
func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	ret := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	return ret
}

// Messages returns just the message text of everything captured so far.
func (output CapturedOutput) Messages() []string {
	ret := make([]string, 0, len(output))
	for _, m := range output {
		ret = append(ret, m.Message)
	}
	return ret
}

// Dump writes each message to dest as a timestamped line starting with prefix.
func (output CapturedOutput) Dump(dest io.Writer, prefix string) {
	for _, m := range output {
		fmt.Fprintf(dest, "%s[%s] %s\n",
			prefix,
			m.Time.Format(timestampFormat),
			m.Message,
		)
	}
}

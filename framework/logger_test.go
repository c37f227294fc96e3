package framework

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerWithPrefix(t *testing.T) {
	target := &CapturingLogger{}
	LoggerWithPrefix(target, "[x] ").Printf("hello %s", "world")
	assert.Equal(t, []string{"[x] hello world"}, target.Output().Messages())
}

func TestLoggerWithPrefixOfNilTarget(t *testing.T) {
	LoggerWithPrefix(nil, "[x] ").Printf("ignored")
}

func TestCapturedOutputDump(t *testing.T) {
	target := &CapturingLogger{}
	target.Printf("one")
	target.Printf("two")

	var buf bytes.Buffer
	target.Output().Dump(&buf, "DEBUG ")
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "DEBUG [")
	assert.Contains(t, string(lines[1]), "] two")
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	ConsoleLogger(&buf, "[harness] ").Printf("started")
	assert.Contains(t, buf.String(), "[harness] ")
	assert.Contains(t, buf.String(), "started\n")
}

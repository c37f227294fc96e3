package framework

import (
	"errors"
	"fmt"
	"strings"
)

// T lets a test body use the assert and require packages outside of the Go test runner. It
// collects assertion failures, and turns them into a panic, which is how a test body reports
// failure to the engine.
//
// FailNow, which require calls, panics immediately. Failures from assert only panic when Finish
// is called, so test bodies should defer it:
//
//	t := framework.NewT()
//	defer t.Finish()
//	require.NoError(t, err)
//	assert.Equal(t, 200, status)
type T struct {
	errors    []error
	panicking bool
}

// AssertionError is the panic value produced by T.
type AssertionError struct {
	Errors []error
}

func (e *AssertionError) Error() string {
	if len(e.Errors) == 0 {
		return "test failed with no failure message"
	}
	var ss []string
	for _, err := range e.Errors {
		ss = append(ss, reformatError(err))
	}
	return strings.Join(ss, "\n")
}

func (e *AssertionError) Unwrap() []error {
	return e.Errors
}

func NewT() *T {
	return &T{}
}

// Errorf records a failure without stopping the test.
func (t *T) Errorf(format string, args ...interface{}) {
	t.errors = append(t.errors, fmt.Errorf(format, args...))
}

// FailNow stops the test by panicking with an *AssertionError.
func (t *T) FailNow() {
	t.panicking = true
	panic(t.failure())
}

// Failed reports whether any assertion has failed so far.
func (t *T) Failed() bool {
	return len(t.errors) != 0
}

// Finish panics if any assertion failed and the test has not already panicked.
func (t *T) Finish() {
	if t.Failed() && !t.panicking {
		t.panicking = true
		panic(t.failure())
	}
}

func (t *T) failure() *AssertionError {
	return &AssertionError{Errors: append([]error(nil), t.errors...)}
}

// testify's messages start with a blank line and indent everything with tabs, which looks odd
// once it is embedded in a summary.
func reformatError(err error) string {
	s := strings.TrimPrefix(err.Error(), "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(removeEmpty(lines), "\n")
}

func removeEmpty(lines []string) []string {
	ret := lines[:0]
	for _, l := range lines {
		if l != "" {
			ret = append(ret, l)
		}
	}
	return ret
}

// IsAssertionFailure reports whether err came from a failed assertion rather than some other
// kind of panic.
func IsAssertionFailure(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}

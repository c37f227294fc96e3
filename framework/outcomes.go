package framework

import (
	"fmt"
	"time"
)

// Outcomes holds the tallies for one run.
//
// Cancel and Todo are never incremented by the internal runner. They exist so the summary has
// the same shape as the richer taxonomy of an advanced test facility.
type Outcomes struct {
	Pass      int
	Fail      int
	Cancel    int
	Skip      int
	Todo      int
	TestCount int
	StartTime time.Time
	Failures  []TestFailure
}

// Total is the number of descriptors that reached a final state.
func (o Outcomes) Total() int {
	return o.Pass + o.Fail + o.Cancel + o.Skip + o.Todo
}

// OK is true if no test failed.
func (o Outcomes) OK() bool {
	return o.Fail == 0
}

// TestFailure records a test body that panicked.
type TestFailure struct {
	Suite       string
	Description string
	Err         error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s/%s]: %s", f.Suite, f.Description, f.Err)
}

func (f TestFailure) Unwrap() error {
	return f.Err
}

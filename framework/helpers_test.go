package framework

import (
	"context"
	"errors"
	"time"
)

const testServerURL = "http://localhost:8000"

var baseTime = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// steppingClock returns a clock that advances by step every time it is read.
func steppingClock(step time.Duration) func() time.Time {
	current := baseTime
	return func() time.Time {
		ret := current
		current = current.Add(step)
		return ret
	}
}

// invocationLog records which test bodies were called, in order.
type invocationLog struct {
	calls []string
	urls  []string
}

func (l *invocationLog) passing(name string) func(string) {
	return func(serverURL string) {
		l.calls = append(l.calls, name)
		l.urls = append(l.urls, serverURL)
	}
}

func (l *invocationLog) failing(name string, value interface{}) func(string) {
	return func(serverURL string) {
		l.calls = append(l.calls, name)
		l.urls = append(l.urls, serverURL)
		panic(value)
	}
}

// recordingReporter captures every call the engine makes to a Reporter.
type recordingReporter struct {
	started   []int
	finished  []reportedTest
	completed []reportedTest
	summaries []Summary
}

type reportedTest struct {
	number      int
	success     bool
	elapsed     time.Duration
	description string
}

func (r *recordingReporter) TestStarted(number int) {
	r.started = append(r.started, number)
}

func (r *recordingReporter) TestFinished(number int, success bool, elapsed time.Duration, description string) {
	r.finished = append(r.finished, reportedTest{number, success, elapsed, description})
}

func (r *recordingReporter) TestCompleted(number int, success bool, elapsed time.Duration, description string) {
	r.completed = append(r.completed, reportedTest{number, success, elapsed, description})
}

func (r *recordingReporter) RunFinished(summary Summary) {
	r.summaries = append(r.summaries, summary)
}

// fakeFacility behaves like a minimal host test runner: it runs each test as soon as it is
// registered, recovers panics itself, and runs hooks around tests that are not skipped.
type fakeFacility struct {
	suites  []string
	passed  []string
	failed  []string
	skipped []string
	hookLog []string
	before  []func(TestInfo)
	after   []func(TestInfo)
}

func (f *fakeFacility) Suite(name string, fn func()) {
	f.suites = append(f.suites, name)
	fn()
}

func (f *fakeFacility) Test(description string, options TestOptions, fn func()) {
	if options.Skip {
		f.skipped = append(f.skipped, description)
		return
	}
	info := TestInfo{Name: description}
	for _, h := range f.before {
		h(info)
	}
	func() {
		defer func() {
			if p := recover(); p != nil {
				f.failed = append(f.failed, description)
			}
		}()
		fn()
		f.passed = append(f.passed, description)
	}()
	for _, h := range f.after {
		h(info)
	}
}

func (f *fakeFacility) BeforeEach(fn func(TestInfo)) {
	f.before = append(f.before, func(info TestInfo) {
		f.hookLog = append(f.hookLog, "before:"+info.Name)
		fn(info)
	})
}

func (f *fakeFacility) AfterEach(fn func(TestInfo)) {
	f.after = append(f.after, func(info TestInfo) {
		f.hookLog = append(f.hookLog, "after:"+info.Name)
		fn(info)
	})
}

func probeReturning(f Facility) FacilityProbe {
	return func(context.Context) (Facility, error) { return f, nil }
}

func failingProbe(context.Context) (Facility, error) {
	return nil, errors.New("no such facility")
}
